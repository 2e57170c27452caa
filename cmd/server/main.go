package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/app"
	"github.com/carmandale/spy-fly/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load(os.Getenv("SPYFLY_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger, err := app.NewLogger("server", false, &cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("source", cfg.MarketData.Source),
		zap.String("symbol", cfg.Symbols.Underlying),
		zap.Bool("redis", cfg.Cache.RedisAddr != ""),
		zap.Float64("defaultAccountSize", cfg.Scan.AccountSize),
	)

	a, err := app.Build(cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", zap.Error(err))
		return 1
	}
	defer a.Close()

	// Context for background components
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.Hub != nil {
		go a.Hub.Run(ctx)
		go a.Streamer().Run(ctx)
		logger.Info("WebSocket streaming enabled",
			zap.Duration("interval", cfg.Server.StreamInterval()),
		)
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      a.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down server...", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return 1
	}

	// Stop the hub and streamer before draining HTTP connections
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}
