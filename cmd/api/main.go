package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Lutefd/currency-dashboard/internal/cache"
	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/repository"
	"github.com/Lutefd/currency-dashboard/internal/server"
	"github.com/Lutefd/currency-dashboard/internal/service"
	"github.com/Lutefd/currency-dashboard/internal/worker"
	"github.com/joho/godotenv"
)

const memoryCacheCleanupInterval = commons.LiveCacheExpiration

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}
	config, err := commons.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := newLogger(config)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), commons.ServerShutdownTimeout)
		defer cancel()
		if err := appLogger.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down logger: %v", err)
		}
	}()

	rateCache, err := newCache(config)
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}
	defer rateCache.Close()

	client := worker.NewRetryClient(
		worker.WithMaxRetries(config.MaxRetries),
		worker.WithBaseDelay(config.BackoffBase),
		worker.WithTimeout(config.RequestTimeout),
		worker.WithClientLogger(appLogger),
	)
	scraper := worker.NewLiveScraper(client, config.LiveRatesURL, appLogger)
	assembler := worker.NewHistoricalAssembler(client, config.HistoricalRatesURL, appLogger,
		worker.WithRequestDelay(config.HistoricalRequestDelay),
		worker.WithAPIKey(config.HistoricalAPIKey),
	)
	ratesService := service.NewRatesService(scraper, assembler, rateCache, appLogger, config.LiveCacheTTL, config.HistoricalCacheTTL)

	srv := server.NewServer(config, ratesService, appLogger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		appLogger.Errorf("server stopped: %v", err)
	}
}

func newLogger(config commons.Config) (*logger.Logger, error) {
	if config.PostgresConn == "" {
		return logger.New(logger.WithSource("api")), nil
	}
	logRepo, err := repository.NewPostgresLogRepository(config.PostgresConn, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize log repository: %w", err)
	}
	return logger.New(logger.WithSource("api"), logger.WithSink(logRepo, logger.DefaultBufferSize)), nil
}

// newCache prefers Redis so the API shares the worker's warmed entries.
func newCache(config commons.Config) (cache.Cache, error) {
	if config.RedisAddr == "" {
		return cache.NewMemoryCache(memoryCacheCleanupInterval), nil
	}
	redisCache, err := cache.NewRedisCache(config.RedisAddr, config.RedisPass)
	if err != nil {
		return nil, err
	}
	return redisCache, nil
}
