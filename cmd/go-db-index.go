package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/adfharrison1/go-db-index/pkg/config"
	"github.com/adfharrison1/go-db-index/pkg/logger"
	"github.com/adfharrison1/go-db-index/pkg/server"
)

func main() {
	cfg, err := config.LoadWithFlags(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(2)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: cfg.Logging.OutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if cfg.Storage.DataDir == "" {
		log.Warn("No data directory configured - index definitions are kept in memory only")
	} else {
		log.Info("Using data directory",
			logger.String("data_dir", cfg.Storage.DataDir),
			logger.String("durability", cfg.Storage.Durability),
			logger.Duration("checkpoint_interval", cfg.Storage.CheckpointInterval))
	}

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Error("Failed to start server", logger.Error(err))
		os.Exit(1)
	}

	// Start server in a goroutine
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("Shutting down server", logger.String("signal", sig.String()))
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", logger.Error(err))
		}
	}

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
		log.Sync()
		os.Exit(1)
	}

	log.Info("Server exited")
}
