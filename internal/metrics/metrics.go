// Package metrics exposes prometheus collectors for the command path.
package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tello_commands_total",
			Help: "Total number of commands sent to the device",
		},
		[]string{"verb", "status"},
	)
	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tello_command_duration_seconds",
			Help:    "Round trip time of commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"verb"},
	)
	failoversTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tello_failovers_total",
			Help: "Total number of failover attempts",
		},
		[]string{"policy", "status"},
	)
	keepAlivesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tello_keepalives_total",
			Help: "Total number of keep-alive sends",
		},
		[]string{"status"},
	)
	chainsBrokenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tello_chains_broken_total",
			Help: "Total number of chain steps that ended Broken",
		},
		[]string{"reason"},
	)
)

func init() {
	prometheus.MustRegister(commandsTotal)
	prometheus.MustRegister(commandDuration)
	prometheus.MustRegister(failoversTotal)
	prometheus.MustRegister(keepAlivesTotal)
	prometheus.MustRegister(chainsBrokenTotal)
}

// Status label values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// ObserveCommand records one command round trip.
func ObserveCommand(text, status string, elapsed time.Duration) {
	v := Verb(text)
	commandsTotal.WithLabelValues(v, status).Inc()
	commandDuration.WithLabelValues(v).Observe(elapsed.Seconds())
}

// ObserveFailover records one failover attempt.
func ObserveFailover(policy string, ok bool) {
	failoversTotal.WithLabelValues(policy, statusOf(ok)).Inc()
}

// ObserveKeepAlive records one keep-alive send.
func ObserveKeepAlive(ok bool) {
	keepAlivesTotal.WithLabelValues(statusOf(ok)).Inc()
}

// ObserveChainBroken records a chain step that ended Broken.
func ObserveChainBroken(reason string) {
	chainsBrokenTotal.WithLabelValues(reason).Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Verb returns the first word of a command, used as a low-cardinality label.
func Verb(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return "empty"
	}
	return fields[0]
}

func statusOf(ok bool) string {
	if ok {
		return StatusSuccess
	}
	return StatusError
}
