// Development draft backend for the test-drive wizard, using Gin.
//
// Usage:
//
//	draftserver
//	draftserver -addr :9000 -seed=false
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"testdrive-wizard/internal/config"
	"testdrive-wizard/internal/draftserver"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading configuration", "error", err)
		os.Exit(1)
	}

	addr := flag.String("addr", cfg.ServerAddr, "Listen address")
	rateLimit := flag.Float64("rate-limit", cfg.ServerRateLimit, "Requests per second, 0 disables limiting")
	seed := flag.Bool("seed", true, "Load the demo locations and vehicles")
	accessLog := flag.Bool("access-log", true, "Log every request")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(logger)

	// Use release mode in production
	gin.SetMode(gin.ReleaseMode)

	srv := draftserver.New(
		draftserver.WithLogger(logger),
		draftserver.WithRateLimit(*rateLimit),
		draftserver.WithAccessLog(*accessLog),
	)
	if *seed {
		srv.SeedDefaults()
	}

	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}()

	logger.Info("starting draft server", "addr", *addr, "rate_limit", *rateLimit, "seeded", *seed)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("serving", "error", err)
		os.Exit(1)
	}
}
