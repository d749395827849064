package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/debtease/planner/internal/advisory"
	"github.com/debtease/planner/internal/analysis"
	"github.com/debtease/planner/internal/config"
	"github.com/debtease/planner/internal/dti"
	"github.com/debtease/planner/internal/pipeline"
	"github.com/debtease/planner/internal/planner"
	"github.com/debtease/planner/internal/server"
	"github.com/debtease/planner/internal/simulation"
	"github.com/debtease/planner/internal/store"
	"github.com/debtease/planner/pkg/constants"
)

var version = "dev"

// initializeLogger creates a zap logger based on configuration and CLI override
func initializeLogger(loggingConfig config.LoggingConfig, logLevelOverride string) (*zap.Logger, error) {
	level := loggingConfig.Level
	if logLevelOverride != "" {
		level = logLevelOverride
	}
	if level == "" {
		level = "info"
	}

	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	format := loggingConfig.Format
	if format == "" {
		format = "json"
	}

	var zapConfig zap.Config
	switch format {
	case "console":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	case "json":
		zapConfig = zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(zapLevel)
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}

	if loggingConfig.OutputFile != "" {
		if dir := filepath.Dir(loggingConfig.OutputFile); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %v", dir, err)
			}
		}
		if file, err := os.OpenFile(loggingConfig.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %v", loggingConfig.OutputFile, err)
		} else {
			_ = file.Close()
		}

		zapConfig.OutputPaths = []string{loggingConfig.OutputFile}
		zapConfig.ErrorOutputPaths = []string{loggingConfig.OutputFile}
	}

	return zapConfig.Build()
}

func main() {
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	serverConfigLocation := flag.String("server-config", constants.DefaultServerConfigFile, "path to server configuration file")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		return
	}

	serverConf, err := server.LoadConfig(*serverConfigLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load server configuration at %s\", \"error\": \"%v\"}\n", *serverConfigLocation, err)
		return
	}

	// The server config may carry its own logging section; it wins over
	// the planner config when present.
	loggingConf := conf.Logging
	if serverConf.Logging.Level != "" || serverConf.Logging.Format != "" {
		loggingConf = serverConf.Logging
	}

	logger, err := initializeLogger(loggingConf, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		return
	}
	defer func() {
		_ = logger.Sync()
	}()

	debtStore, err := buildStore(conf, logger)
	if err != nil {
		logger.Fatal("failed to initialize debt store",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	simulator := simulation.NewSimulator(logger)
	analyzer := analysis.NewAnalyzer(logger)
	dtiAnalyzer := dti.NewAnalyzer(logger)

	var advisoryClient planner.AdvisoryClient
	var recSource pipeline.RecommendationSource
	if conf.Advisory.URL != "" || conf.Advisory.APIKey != "" {
		client := advisory.NewClient(advisory.Config{
			URL:       conf.Advisory.URL,
			APIKey:    conf.Advisory.APIKey,
			Model:     conf.Advisory.Model,
			Timeout:   conf.Advisory.Timeout,
			MaxTokens: conf.Advisory.MaxTokens,
		}, logger)
		advisoryClient = client
		recSource = client
	} else {
		logger.Warn("no advisory service configured, planning deterministically",
			zap.String("op", "main"),
		)
	}

	orchestrator := planner.NewOrchestrator(
		advisoryClient,
		planner.NewDeterministic(simulator, analyzer, logger),
		analyzer,
		planner.OrchestratorConfig{
			AttemptTimeout: conf.Advisory.AttemptTimeout,
			AttemptDelay:   conf.Advisory.AttemptDelay,
			CacheTTL:       conf.Cache.TTL,
		},
		logger,
	)

	insightPipeline := pipeline.New(debtStore, analyzer, dtiAnalyzer, simulator, recSource, logger)
	service := planner.NewService(debtStore, orchestrator, insightPipeline, simulator, dtiAnalyzer, logger)
	handler := server.NewHandler(service, logger, serverConf.BodySizeBytes(), version)

	httpServer := &http.Server{
		Addr:         serverConf.Address,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("planning server listening",
			zap.String("op", "main"),
			zap.String("address", serverConf.Address),
			zap.String("version", version),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Fatal("server failed",
			zap.String("op", "main"),
			zap.Error(err),
		)
	case sig := <-quit:
		logger.Info("shutting down",
			zap.String("op", "main"),
			zap.String("signal", sig.String()),
		)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown did not complete cleanly",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
}

// buildStore selects the debt store backend: Redis when configured,
// in-memory otherwise.
func buildStore(conf *config.Configuration, logger *zap.Logger) (store.DebtStore, error) {
	if conf.Redis.Addr == "" {
		logger.Info("using in-memory debt store",
			zap.String("op", "main"),
		)
		return store.NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Addr,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	redisStore := store.NewRedisStore(client, logger)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := redisStore.Ping(ctx); err != nil {
		return nil, err
	}

	logger.Info("using redis debt store",
		zap.String("op", "main"),
		zap.String("addr", conf.Redis.Addr),
	)
	return redisStore, nil
}
