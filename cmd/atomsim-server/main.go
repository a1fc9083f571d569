package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	cfg, err := loadServerConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}

	logger := NewLogger(cfg.LogLevel)
	srv := NewServer(logger)
	srv.SetSnapshotDir(cfg.SnapshotDir)
	srv.SetSnapshotEverySteps(cfg.SnapshotEverySteps)
	srv.SetStreamInterval(cfg.StreamInterval)

	if cfg.DefaultSimID != "" {
		sim, err := createDefaultSimulation(srv, cfg)
		if err != nil {
			logger.Fatalf("Failed to create default simulation: %v", err)
		}
		logger.Infof("Default simulation ready: sim_id=%s particles=%d", sim.ID(), sim.Len())
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("atomsim-server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Infof("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Errorf("HTTP shutdown: %v", err)
	}
	if err := srv.Close(); err != nil {
		logger.Errorf("Closing notifiers: %v", err)
	}
}
