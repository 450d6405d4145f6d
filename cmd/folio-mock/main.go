// Package main runs an in-memory catalog API for local development.
//
// Usage:
//
//	folio-mock --addr :5000 --seed
//
// Point folio at it with api_url = "http://localhost:5000/api". Data lives
// only as long as the process. With --seed, log in as demo@folio.dev using
// the password "bookworm".
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
	"time"

	"go.uber.org/zap"

	"github.com/five82/folio/internal/mockapi"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", ":5000", "listen address")
	seed := flag.Bool("seed", false, "create the demo account and starter books")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "folio-mock: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	srv := mockapi.New(mockapi.WithLogger(logger))
	if *seed {
		if err := srv.Seed(); err != nil {
			logger.Error("seed failed", zap.Error(err))
			return 1
		}
		logger.Info("seeded demo data", zap.String("email", mockapi.DemoEmail))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", *addr), zap.String("api", mockapi.APIPrefix))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", zap.Error(err))
			return 1
		}
	case <-ctx.Done():
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
		logger.Info("stopped")
	}
	return 0
}
