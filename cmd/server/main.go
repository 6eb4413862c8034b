package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-price-service/config"
	"github.com/fekuna/omnipos-price-service/internal/catalog"
	"github.com/fekuna/omnipos-price-service/internal/ingestion"
	"github.com/fekuna/omnipos-price-service/internal/item"
	"github.com/fekuna/omnipos-price-service/internal/pkg/broker"
	"github.com/fekuna/omnipos-price-service/internal/pkg/cache"
	"github.com/fekuna/omnipos-price-service/internal/pkg/database/postgres"
	"github.com/fekuna/omnipos-price-service/internal/pkg/httpserver"
	"github.com/fekuna/omnipos-price-service/internal/pkg/logger"
	"github.com/fekuna/omnipos-price-service/internal/pkg/search"

	catalogRepoPkg "github.com/fekuna/omnipos-price-service/internal/catalog/repository"

	cmpH "github.com/fekuna/omnipos-price-service/internal/comparison/handler"
	cmpUCPkg "github.com/fekuna/omnipos-price-service/internal/comparison/usecase"

	ingestListenerPkg "github.com/fekuna/omnipos-price-service/internal/ingestion/listener"
	ingestUCPkg "github.com/fekuna/omnipos-price-service/internal/ingestion/usecase"

	itemH "github.com/fekuna/omnipos-price-service/internal/item/handler"
	itemRepoPkg "github.com/fekuna/omnipos-price-service/internal/item/repository"
	itemUCPkg "github.com/fekuna/omnipos-price-service/internal/item/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ingestionHealthService is the health check name reporting the background pipeline.
const ingestionHealthService = "catalog.ingestion"

func main() {
	// 1. Load Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Storage
	var (
		catalogRepo catalog.Repository
		itemRepo    item.Repository
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		mem := catalogRepoPkg.NewMemoryRepository()
		catalogRepo = mem
		itemRepo = itemRepoPkg.NewMemoryRepository(mem)
		appLogger.Warn("Using in-memory catalog storage; data is lost on restart")
	case config.StorageDriverPostgres:
		db, err := postgres.NewPostgres(&postgres.Config{
			URL:             cfg.Postgres.URL,
			Host:            cfg.Postgres.Host,
			Port:            cfg.Postgres.Port,
			User:            cfg.Postgres.User,
			Password:        cfg.Postgres.Password,
			DBName:          cfg.Postgres.DBName,
			SSLMode:         cfg.Postgres.SSLMode,
			MaxOpenConns:    cfg.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Postgres.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
		})
		if err != nil {
			appLogger.Fatal("Could not connect to database", zap.Error(err))
		}
		defer db.Close()
		appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

		catalogRepo = catalogRepoPkg.NewPGRepository(db)
		itemRepo = itemRepoPkg.NewPGRepository(db)
	default:
		appLogger.Fatal("Unknown storage driver", zap.String("driver", cfg.Storage.Driver))
	}

	if err := catalogRepo.EnsureSchema(ctx); err != nil {
		appLogger.Fatal("Could not ensure catalog schema", zap.Error(err))
	}

	// 4. Optional collaborators. Each stays nil when not configured or unreachable.
	var appCache cache.Cache
	if cfg.Redis.Addr != "" {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, caching disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
			appCache = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	var publisher ingestion.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.CatalogTopic,
		}, appLogger)
		defer producer.Close()
		publisher = producer
		appLogger.Info("Kafka producer ready", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.CatalogTopic))
	}

	var searcher itemUCPkg.Searcher
	if len(cfg.Elastic.Addresses) > 0 {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch, item search uses the database", zap.Error(err))
		} else {
			searcher = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 5. Initialize UseCases
	itemUC := itemUCPkg.NewItemUseCase(itemRepo, appCache, searcher, cfg.Elastic.Index, cfg.Redis.TTL, appLogger)
	ingestUC := ingestUCPkg.NewIngestionUseCase(catalogRepo, cfg.Ingestion.WatchDirectory, publisher, itemUC, appLogger)
	cmpUC := cmpUCPkg.NewComparisonUseCase(catalogRepo, appCache, cmpUCPkg.Options{
		DefaultRadiusKm: cfg.Comparison.DefaultRadiusKm,
		MaxConcurrency:  cfg.Comparison.MaxConcurrency,
		CacheTTL:        cfg.Redis.TTL,
	}, appLogger)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(ingestionHealthService, healthpb.HealthCheckResponse_SERVING)

	// 6. Background ingestion. The watch is registered before the scan so files
	// arriving during the scan are still picked up.
	catalogListener := ingestListenerPkg.NewCatalogListener(cfg.Ingestion.WatchDirectory, cfg.Ingestion.SettleDelay, ingestUC, appLogger)
	if err := catalogListener.Start(ctx); err != nil {
		appLogger.Error("Catalog listener could not start", zap.Error(err))
		healthServer.SetServingStatus(ingestionHealthService, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	waitScan := func() {}
	if cfg.Ingestion.ScanOnStartup {
		waitScan = startScan(ctx, ingestUC, func(err error) {
			appLogger.Error("Startup catalog scan failed", zap.Error(err))
			healthServer.SetServingStatus(ingestionHealthService, healthpb.HealthCheckResponse_NOT_SERVING)
		})
	}

	// 7. HTTP Server
	router := httpserver.NewRouter(httpserver.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		Logger:       appLogger,
	})
	api := router.Group("/api")
	cmpH.NewComparisonHandler(cmpUC, appLogger).RegisterRoutes(api)
	itemH.NewItemHandler(itemUC, appLogger).RegisterRoutes(api)

	httpServer := &http.Server{
		Addr:              normalizePort(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 8. gRPC Server (health + reflection)
	grpcPort := normalizePort(cfg.Server.GRPCPort)
	lis, err := net.Listen("tcp", grpcPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.String("port", grpcPort), zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", grpcPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	catalogListener.Wait()
	waitScan()
	appLogger.Info("Server stopped")
}

// startScan runs the directory scan in the background. The returned func blocks until it has returned.
func startScan(ctx context.Context, uc ingestion.UseCase, onError func(error)) func() {
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := uc.ScanDirectory(ctx); err != nil {
			onError(err)
		}
	}()
	return wg.Wait
}

func normalizePort(port string) string {
	if !strings.HasPrefix(port, ":") && !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
