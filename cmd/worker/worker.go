package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/Lutefd/currency-dashboard/internal/cache"
	"github.com/Lutefd/currency-dashboard/internal/commons"
	"github.com/Lutefd/currency-dashboard/internal/logger"
	"github.com/Lutefd/currency-dashboard/internal/repository"
	"github.com/Lutefd/currency-dashboard/internal/service"
	"github.com/Lutefd/currency-dashboard/internal/worker"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

type dependencies struct {
	cache        cache.Cache
	log          *logger.Logger
	cacheWarmer  CacheWarmer
	partitionMgr PartitionManager
}

type CacheWarmer interface {
	Start(ctx context.Context)
}

type PartitionManager interface {
	Start(ctx context.Context) error
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	config, err := commons.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	deps, err := initDependencies(config)
	if err != nil {
		log.Fatalf("Failed to initialize dependencies: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- runWorker(ctx, deps)
	}()

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Worker failed: %v", err)
		}
	case <-signalChan:
		log.Println("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		select {
		case <-errChan:
			log.Println("Worker shut down gracefully")
		case <-time.After(shutdownTimeout):
			log.Println("Shutdown timed out")
		}
	}
}

func initDependencies(config commons.Config) (*dependencies, error) {
	if config.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required for the worker: warmed rates must be shared with the API")
	}
	redisCache, err := cache.NewRedisCache(config.RedisAddr, config.RedisPass)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}

	deps := &dependencies{cache: redisCache}
	if config.PostgresConn != "" {
		logRepo, err := repository.NewPostgresLogRepository(config.PostgresConn, nil)
		if err != nil {
			redisCache.Close()
			return nil, fmt.Errorf("failed to initialize log repository: %w", err)
		}
		deps.log = logger.New(logger.WithSource("worker"), logger.WithSink(logRepo, logger.DefaultBufferSize))
		deps.partitionMgr = logger.NewPartitionManager(logRepo, deps.log, commons.LogRetentionMonths)
	} else {
		deps.log = logger.New(logger.WithSource("worker"))
	}

	client := worker.NewRetryClient(
		worker.WithMaxRetries(config.MaxRetries),
		worker.WithBaseDelay(config.BackoffBase),
		worker.WithTimeout(config.RequestTimeout),
		worker.WithClientLogger(deps.log),
	)
	scraper := worker.NewLiveScraper(client, config.LiveRatesURL, deps.log)
	assembler := worker.NewHistoricalAssembler(client, config.HistoricalRatesURL, deps.log,
		worker.WithRequestDelay(config.HistoricalRequestDelay),
		worker.WithAPIKey(config.HistoricalAPIKey),
	)
	ratesService := service.NewRatesService(scraper, assembler, redisCache, deps.log, config.LiveCacheTTL, config.HistoricalCacheTTL)
	deps.cacheWarmer = worker.NewCacheWarmer(ratesService, config.WarmInterval, deps.log)

	return deps, nil
}

func runWorker(ctx context.Context, deps *dependencies) error {
	var wg sync.WaitGroup
	errChan := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		if deps.partitionMgr != nil {
			if err := deps.partitionMgr.Start(ctx); err != nil {
				errChan <- fmt.Errorf("failed to start partition manager: %w", err)
				return
			}
		}

		deps.cacheWarmer.Start(ctx)

		<-ctx.Done()
		deps.log.Info("Worker shutting down...")
	}()

	go func() {
		wg.Wait()
		close(errChan)
	}()

	defer func() {
		wg.Wait()
		if err := deps.cache.Close(); err != nil {
			log.Printf("Error closing cache: %v", err)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := deps.log.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error shutting down logger: %v", err)
		}
	}()

	select {
	case err, ok := <-errChan:
		if !ok {
			return ctx.Err()
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
