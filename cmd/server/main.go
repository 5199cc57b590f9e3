package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rl1809/vending-machine/internal/adapter/handler"
	"github.com/rl1809/vending-machine/internal/adapter/messaging"
	"github.com/rl1809/vending-machine/internal/adapter/storage"
	"github.com/rl1809/vending-machine/internal/catalog"
	"github.com/rl1809/vending-machine/internal/config"
	"github.com/rl1809/vending-machine/internal/core/domain"
	"github.com/rl1809/vending-machine/internal/core/service"
	"github.com/rl1809/vending-machine/internal/platform/grpcserver"
	"github.com/rl1809/vending-machine/internal/platform/logging"
	"github.com/rl1809/vending-machine/internal/platform/observability"
	"github.com/rl1809/vending-machine/internal/port"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(config.ServiceName, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.SetupTracing(ctx, config.ServiceName, config.ServiceVersion, cfg.OtelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}()

	// Initialize Redis
	var rdb *redis.Client
	if cfg.UsesRedis() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis", zap.String("addr", cfg.RedisAddr))
	}

	// Load catalog; any invalid entry aborts startup
	source, closeSource, err := newCatalogSource(ctx, cfg, rdb)
	if err != nil {
		return err
	}
	inventory, err := source.LoadCatalog(ctx)
	closeSource()
	if err != nil {
		return fmt.Errorf("load catalog from %s: %w", cfg.CatalogSource, err)
	}
	logger.Info("catalog loaded",
		zap.String("source", cfg.CatalogSource),
		zap.Int("items", len(inventory)),
	)

	var idem port.IdempotencyStore = storage.NewMemoryIdempotencyStore()
	if cfg.IdempotencyStore == config.IdempotencyRedis {
		idem = storage.NewRedisAdapter(rdb, cfg.RedisCatalogKey)
	}

	machine := domain.NewMachine(inventory, cfg.InitialBalance)
	vendingService := service.NewVendingService(machine, idem, cfg.QueueSize, logger)

	// Start receipt workers
	var publisher port.ReceiptPublisher = messaging.NewLogPublisher(logger)
	if cfg.KafkaBroker != "" {
		publisher = messaging.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		logger.Info("publishing receipts to kafka",
			zap.String("broker", cfg.KafkaBroker),
			zap.String("topic", cfg.KafkaTopic),
		)
	}

	var wg sync.WaitGroup
	if queue := vendingService.GetReceiptQueue(); queue != nil {
		for i := 0; i < cfg.WorkerCount; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				service.DispatchReceipts(id, queue, publisher, logger)
			}(i)
		}
		logger.Info("started receipt workers", zap.Int("count", cfg.WorkerCount))
	}

	// Start gRPC server
	grpcServer := grpcserver.New(cfg.GRPCAddr)
	handler.RegisterVendingServer(grpcServer.Server, handler.NewGRPCHandler(vendingService))
	grpcServer.SetServing(handler.VendingServiceName)

	go func() {
		logger.Info("gRPC server listening", zap.String("addr", cfg.GRPCAddr))
		if err := grpcServer.Start(); err != nil {
			logger.Error("gRPC server error", zap.Error(err))
		}
	}()

	// Start HTTP server
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.NewHTTPHandler(vendingService).Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown failed", zap.Error(err))
	}
	logger.Info("HTTP server stopped")

	grpcServer.Stop()
	logger.Info("gRPC server stopped")

	// Close receipt queue and wait for workers
	vendingService.Close()
	wg.Wait()
	if err := publisher.Close(); err != nil {
		logger.Warn("publisher close failed", zap.Error(err))
	}
	logger.Info("workers stopped",
		zap.Stringer("final_balance", vendingService.Balance()),
	)

	return nil
}

// newCatalogSource returns the configured source and a func releasing any
// connection opened only for loading.
func newCatalogSource(ctx context.Context, cfg *config.Config, rdb *redis.Client) (port.CatalogSource, func(), error) {
	noop := func() {}

	switch cfg.CatalogSource {
	case config.CatalogFile:
		return catalog.FileSource{Path: cfg.CatalogPath}, noop, nil
	case config.CatalogRedis:
		return storage.NewRedisAdapter(rdb, cfg.RedisCatalogKey), noop, nil
	case config.CatalogMySQL:
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open mysql: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("ping mysql: %w", err)
		}
		return storage.NewMySQLAdapter(db), func() { db.Close() }, nil
	default:
		return catalog.BundledSource{}, noop, nil
	}
}
