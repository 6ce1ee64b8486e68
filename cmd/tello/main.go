// Command tello flies a plan of text commands against a drone.
//
//	tello -config tello.yaml takeoff "cw 90" "forward 50" land
//
// Each argument is chained after the previous one; the plan stops at the
// first command that fails and cannot be recovered by the failover.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/command"
	"github.com/tello-control/tello/internal/config"
	"github.com/tello-control/tello/internal/drone"
	"github.com/tello-control/tello/internal/events"
	"github.com/tello-control/tello/internal/logging"
	"github.com/tello-control/tello/internal/metrics"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to YAML configuration (default $TELLO_CONFIG)")
	failoverName := flag.String("failover", "hover", "failover for each step: none, land, hover or emergency")
	activate := flag.Bool("activate", true, `send "command" before the plan`)
	landAfter := flag.Bool("land", false, "land and shut down after the plan")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 2
	}

	failover, err := command.ParseFailover(*failoverName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -failover: %v\n", err)
		return 2
	}

	logs := logging.NewManager()
	if err := logs.Configure(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		return 2
	}
	defer logs.Close()
	logger := logs.Logger("main")

	metricsServer := startMetrics(cfg.Metrics.ListenAddr, logger)

	bus := events.New(0, logs.Logger("events"))
	defer bus.Close()
	go logEvents(bus.Subscribe(events.TopicFailover, events.TopicLifecycle), logs.Logger("events"))

	opts := drone.OptionsFromConfig(cfg)
	opts.Logger = logrus.NewEntry(logs.Root())
	opts.Events = bus

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client, err := drone.New(ctx, opts)
	if err != nil {
		logger.WithError(err).Error("Failed to create client")
		return 1
	}
	defer client.Close()

	plan := flag.Args()
	logger.WithFields(logrus.Fields{"plan": strings.Join(plan, "; "), "failover": failover}).Info("Starting flight")

	if *activate && !client.Activate(ctx) {
		logger.WithError(client.LastError()).Error("Device did not enter SDK mode")
		return 1
	}
	if cfg.Timing.KeepAliveInterval > 0 {
		if err := client.KeepAlive(cfg.Timing.KeepAliveInterval); err != nil {
			logger.WithError(err).Warn("Keep-alive not started")
		}
	}

	done := make(chan bool, 1)
	go func() {
		done <- fly(ctx, client, plan, failover)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	code := 0
	select {
	case ok := <-done:
		if !ok {
			logger.WithError(client.LastError()).Error("Flight plan broken")
			code = 1
		} else {
			logger.Info("Flight plan completed")
		}
		if *landAfter {
			client.BeforeLand(context.Background(), drone.LandOptions{Turnoff: true})
		}
	case sig := <-quit:
		logger.WithField("signal", sig.String()).Warn("Interrupted, landing")
		cancel()
		<-done
		client.BeforeLand(context.Background(), drone.LandOptions{Turnoff: true})
		code = 130
	}

	if *landAfter || code == 130 {
		select {
		case <-client.ShutdownDone():
		case <-time.After(shutdownTimeout):
			logger.Warn("Shutdown did not finish in time")
		}
	}

	if metricsServer != nil {
		shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
		defer stop()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Metrics server shutdown error")
		}
	}

	return code
}

// fly chains every step of plan. It reports whether the chain stayed continuable.
func fly(ctx context.Context, client *drone.Client, plan []string, failover command.Failover) bool {
	var step drone.Step
	for i, text := range plan {
		cmd := command.Raw(text)
		if i == 0 {
			step = client.ChainWith(ctx, cmd, failover)
		} else {
			step = step.ChainWith(ctx, cmd, failover)
		}
		if !step.Continuable() {
			return false
		}
	}
	return true
}

func startMetrics(addr string, logger *logrus.Entry) *http.Server {
	if addr == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.WithField("addr", addr).Info("Starting metrics server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("Metrics server failed")
		}
	}()

	return server
}

func logEvents(sub events.Subscription, logger *logrus.Entry) {
	for msg := range sub {
		ev, ok := msg.(events.Event)
		if !ok {
			continue
		}
		logger.WithFields(logrus.Fields{
			"type":    ev.Type,
			"command": ev.Command,
			"ok":      ev.OK,
			"reason":  ev.Reason,
		}).Info("event")
	}
}
