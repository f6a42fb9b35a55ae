// Package main provides the entry point for the macro signal engine server:
// a fleet of Engine Facades (one per instrument), stepped from a scheduled
// feed poll, exposed over HTTP/WebSocket and scraped over /metrics.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atlas-desktop/macrosignal/internal/api"
	"github.com/atlas-desktop/macrosignal/internal/config"
	"github.com/atlas-desktop/macrosignal/internal/engine"
	"github.com/atlas-desktop/macrosignal/internal/feed"
	"github.com/atlas-desktop/macrosignal/internal/metrics"
	"github.com/atlas-desktop/macrosignal/internal/workers"
	"github.com/atlas-desktop/macrosignal/pkg/types"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML/JSON config file (optional; env and defaults apply otherwise)")
	dataDir := flag.String("data", "./data", "Observation data directory")
	logLevel := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	pollInterval := flag.Duration("poll-interval", 0, "If > 0, step every instrument on this interval using its latest observation from the past interval")
	flag.Parse()

	logger := setupLogger(*logLevel)
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	logger.Info("starting macro signal engine server",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.Int("instruments", len(cfg.Instruments)),
	)

	feedStore, err := feed.NewStore(logger, *dataDir)
	if err != nil {
		logger.Fatal("failed to initialize feed store", zap.Error(err))
	}

	facades := make(map[string]*engine.Facade, len(cfg.Instruments))
	for _, inst := range cfg.Instruments {
		facade, err := engine.New(cfg.EngineConfig(inst), logger)
		if err != nil {
			logger.Fatal("failed to construct engine facade", zap.String("pair", inst.Pair), zap.Error(err))
		}
		facades[inst.Pair] = facade
	}

	fleet := workers.NewFleet(facades, logger)

	var collectors *metrics.Collectors
	if cfg.Server.EnableMetrics {
		collectors = metrics.New()
	}

	apiConfig := api.DefaultConfig()
	apiConfig.Host = cfg.Server.Host
	apiConfig.Port = cfg.Server.Port

	server := api.NewServer(logger, apiConfig, facades, feedStore, collectors)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var pollCancel context.CancelFunc
	if *pollInterval > 0 {
		var pollCtx context.Context
		pollCtx, pollCancel = context.WithCancel(ctx)
		go runPollLoop(pollCtx, logger, fleet, feedStore, collectors, cfg.Instruments, *pollInterval)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.Start(); err != nil {
			logger.Error("api server error", zap.Error(err))
		}
	}()

	logger.Info("macro signal engine server started",
		zap.String("http", "http://"+apiConfig.Host+":"+strconv.Itoa(apiConfig.Port)+"/api/v1"),
	)

	<-sigChan
	logger.Info("shutdown signal received")

	cancel()
	if pollCancel != nil {
		pollCancel()
	}

	if err := fleet.Stop(); err != nil {
		logger.Error("error stopping fleet", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Error("error during server shutdown", zap.Error(err))
	}

	logger.Info("macro signal engine server stopped")
}

// runPollLoop steps every instrument on a fixed interval, feeding each
// facade the latest record its feed series has within the last interval
// (ending "now") and recording the result into the Prometheus collectors
// when enabled. An instrument with no record in that window is still
// stepped, with an empty Observation (every indicator at its default).
func runPollLoop(ctx context.Context, logger *zap.Logger, fleet *workers.Fleet, feedStore *feed.Store, collectors *metrics.Collectors, instruments []config.InstrumentConfig, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			obsByPair := make(map[string]types.Observation, len(instruments))
			for _, inst := range instruments {
				records, err := feedStore.LoadSeries(inst.Pair, now.Add(-interval), now)
				if err != nil || len(records) == 0 {
					continue
				}
				obsByPair[inst.Pair] = feed.ToObservation(records[len(records)-1])
			}

			results, err := fleet.StepAll(obsByPair)
			if err != nil {
				logger.Error("poll loop step error", zap.Error(err))
				continue
			}

			if collectors != nil {
				for pair, result := range results {
					collectors.Observe(pair, result)
				}
			}
		}
	}
}

func setupLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(zapLevel),
		Development: false,
		Encoding:    "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "time",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalColorLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}

	return logger
}
