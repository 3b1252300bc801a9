package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/xiaot623/gogo/marketing/internal/adapter/llm"
	"github.com/xiaot623/gogo/marketing/internal/adapter/provider"
	"github.com/xiaot623/gogo/marketing/internal/config"
	"github.com/xiaot623/gogo/marketing/internal/policy"
	"github.com/xiaot623/gogo/marketing/internal/repository"
	"github.com/xiaot623/gogo/marketing/internal/service"
	internalhttp "github.com/xiaot623/gogo/marketing/internal/transport/http"
	"github.com/xiaot623/gogo/marketing/internal/transport/ws"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting campaign orchestrator",
		zap.Int("http_port", cfg.HTTPPort),
		zap.Bool("use_real_data_sources", cfg.UseRealDataSources),
		zap.String("environment", cfg.Environment()),
	)

	ctx := context.Background()

	// Initialize policy engine
	policyEngine, err := policy.Load(ctx, cfg.ChannelPolicyPath)
	if err != nil {
		logger.Fatal("failed to initialize policy engine", zap.Error(err))
	}

	deps := service.Deps{
		Completer: llm.NewCompleter(cfg, logger.Named("llm")),
		Policy:    policyEngine,
		Dialer:    provider.NewDialer(provider.Options{Timeout: cfg.ProviderTimeout()}),
		Logger:    logger,
	}

	// Optional archive
	if cfg.ArchiveDSN != "" {
		archive, err := repository.NewSQLiteArchive(cfg.ArchiveDSN)
		if err != nil {
			logger.Fatal("failed to open archive", zap.String("dsn", cfg.ArchiveDSN), zap.Error(err))
		}
		defer archive.Close()
		deps.Archive = archive
		logger.Info("campaign archive enabled", zap.String("dsn", cfg.ArchiveDSN))
	}

	svc := service.New(cfg, deps)
	wsServer := ws.NewServer(cfg, svc.Hub(), svc, logger.Named("ws"))
	server := internalhttp.NewServer(svc, wsServer, logger.Named("http"))

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.Int("port", cfg.HTTPPort))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("failed to shutdown server gracefully", zap.Error(err))
	}

	logger.Info("stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
		}
		zcfg.Level = level
	}
	if cfg.Debug {
		zcfg.Development = true
	}
	return zcfg.Build()
}
