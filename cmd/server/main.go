// FraudSentry - multi-agent fraud risk analysis service
package main

import (
	"context"
	"os"

	"github.com/halcyonpay/fraudsentry/internal/config"
	"github.com/halcyonpay/fraudsentry/internal/logging"
	"github.com/halcyonpay/fraudsentry/internal/server"
	"github.com/halcyonpay/fraudsentry/internal/traces"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Create logger
	logger := logging.New("info", "text")

	logger.Info("starting fraudsentry",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"ledger_bucket", cfg.LedgerBucket,
		"ledger_key", cfg.LedgerKey,
	)

	ctx := context.Background()

	// Distributed tracing (no-op when no OTLP endpoint is configured)
	shutdownTraces, err := traces.Init(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Warn("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTraces(context.Background()); err != nil {
				logger.Warn("trace shutdown error", "error", err)
			}
		}()
	}

	// Create and run server
	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}
