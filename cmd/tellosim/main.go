// Command tellosim answers drone text commands over UDP so the client can be
// exercised without a device.
package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/tello-control/tello/internal/simulator"
)

func main() {
	addr := flag.String("addr", simulator.DefaultAddr, "UDP address to listen on")
	response := flag.String("response", "ok", "reply to every command")
	failoverResponse := flag.String("failover-response", "", "reply to a failover command after a failed reply (default: same as -response)")
	delay := flag.Duration("delay", 0, "delay before each reply")
	silent := flag.Bool("silent", false, "drop every command without replying")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	lvl, err := logrus.ParseLevel(*level)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(lvl)

	sim := simulator.New(*addr, logrus.NewEntry(logger))
	sim.SetResponse(*response)
	if *failoverResponse != "" {
		sim.SetFailoverResponse(*failoverResponse)
	}
	sim.SetDelay(*delay)
	sim.SetSilent(*silent)

	if err := sim.Start(); err != nil {
		logger.Fatalf("Failed to start simulator: %v", err)
	}
	logger.WithField("addr", sim.Addr()).Info("Drone simulator listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down simulator...")
	if err := sim.Stop(); err != nil {
		logger.WithError(err).Error("Simulator shutdown error")
	}
	logger.WithField("commands", len(sim.Received())).Info("Simulator stopped")
}
