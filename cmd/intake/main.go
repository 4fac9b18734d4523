// IntakeService 主程序
// 功能：订单准入服务，按交易对规则校验下单请求，持久化后发布订单生命周期事件
// 架构：基于 DDD + gin + gRPC 健康检查 + Kafka
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/wyfcoding/exchangeintake/internal/order/application"
	"github.com/wyfcoding/exchangeintake/internal/order/domain"
	"github.com/wyfcoding/exchangeintake/internal/order/infrastructure/marketdata"
	"github.com/wyfcoding/exchangeintake/internal/order/infrastructure/messaging"
	"github.com/wyfcoding/exchangeintake/internal/order/infrastructure/persistence"
	httphandler "github.com/wyfcoding/exchangeintake/internal/order/interfaces/http"
	"github.com/wyfcoding/exchangeintake/pkg/cache"
	"github.com/wyfcoding/exchangeintake/pkg/config"
	"github.com/wyfcoding/exchangeintake/pkg/db"
	"github.com/wyfcoding/exchangeintake/pkg/logger"
	"github.com/wyfcoding/exchangeintake/pkg/metrics"
	"github.com/wyfcoding/exchangeintake/pkg/middleware"
	"github.com/wyfcoding/exchangeintake/pkg/mq"
	"github.com/wyfcoding/exchangeintake/pkg/ratelimit"
	"github.com/wyfcoding/exchangeintake/pkg/trace"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	configPath := flag.String("config", config.GetEnv("APP_CONFIG", "configs/intake/config.toml"), "config file path")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	loggerCfg := logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}
	if err := logger.Init(loggerCfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "Starting IntakeService",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	// 3. 初始化追踪
	if cfg.Tracing.Enabled {
		shutdown, err := trace.InitTracer(cfg.ServiceName, cfg.Tracing.CollectorEndpoint, cfg.Tracing.SamplingRate)
		if err != nil {
			logger.Error(ctx, "Failed to initialize tracer", "error", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error(context.Background(), "Failed to shutdown tracer", "error", err)
				}
			}()
			logger.Info(ctx, "Tracer initialized", "endpoint", cfg.Tracing.CollectorEndpoint)
		}
	}

	// 4. 初始化数据库
	dbCfg := db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	}
	database, err := db.Init(dbCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := persistence.AutoMigrate(database.DB); err != nil {
			logger.Fatal(ctx, "Failed to migrate order tables", "error", err)
		}
		if err := messaging.AutoMigrate(database.DB); err != nil {
			logger.Fatal(ctx, "Failed to migrate outbox table", "error", err)
		}
	}

	// 5. 初始化 Redis
	redisCfg := cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	}
	redisCache, err := cache.New(redisCfg)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
	}
	defer redisCache.Close()

	// 6. 初始化限流器
	var rateLimiter ratelimit.RateLimiter
	if cfg.RateLimit.Backend == "redis" {
		rateLimiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	} else {
		rateLimiter = ratelimit.NewLocalRateLimiter()
	}

	// 7. 初始化指标
	var collector metrics.MetricsCollector = metrics.NopCollector{}
	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		metricsInstance := metrics.New(cfg.ServiceName)
		if err := metricsInstance.Register(prometheus.DefaultRegisterer); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		collector = metrics.NewDefaultMetricsCollector(metricsInstance)
		metricsServer = metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path)
	}

	// 8. 初始化交易对规则查询
	var ruleProvider domain.SymbolRuleProvider = marketdata.NewHTTPRuleProvider(marketdata.Config{
		BaseURL:         cfg.Market.BaseURL,
		Timeout:         time.Duration(cfg.Market.Timeout) * time.Millisecond,
		RetryCount:      cfg.Market.RetryCount,
		BreakerFailures: uint32(cfg.Market.BreakerFailures),
		BreakerTimeout:  time.Duration(cfg.Market.BreakerTimeout) * time.Second,
	})
	if cfg.Market.CacheTTL > 0 {
		ruleProvider = marketdata.NewCachedRuleProvider(ruleProvider, redisCache, time.Duration(cfg.Market.CacheTTL)*time.Second)
	}

	// 9. 初始化 Kafka 与事件发布
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize Kafka producer", "error", err)
	}
	defer producer.Close()

	var (
		publisher domain.EventPublisher
		relay     *messaging.OutboxRelay
		uow       domain.UnitOfWork
	)
	switch cfg.Publisher.Mode {
	case "outbox":
		publisher = messaging.NewOutboxEventPublisher(database.DB, cfg.Kafka.OrderTopic)
		relay = messaging.NewOutboxRelay(database.DB, producer, cfg.Publisher.OutboxBatchSize,
			time.Duration(cfg.Publisher.OutboxInterval)*time.Millisecond)
		// 订单与 outbox 消息同事务写入
		uow = database
	default:
		publisher = messaging.NewKafkaEventPublisher(producer, cfg.Kafka.OrderTopic)
	}

	// 10. 初始化应用服务
	engine := application.NewAdmissionEngine(ruleProvider, collector)
	accounts := persistence.NewAccountLookup(database.DB)
	orderRepo := persistence.NewOrderRepository(database.DB)
	orderService := application.NewOrderService(engine, accounts, orderRepo, publisher, collector).
		WithUnitOfWork(uow)

	// 11. 创建 HTTP 与 gRPC 服务器
	httpServer := createHTTPServer(cfg, orderService, rateLimiter, collector)
	grpcServer, healthServer := createGRPCServer(cfg)

	// 12. 启动
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info(gctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen grpc: %w", err)
		}
		logger.Info(gctx, "Starting gRPC server", "addr", addr)
		return grpcServer.Serve(listener)
	})

	if relay != nil {
		g.Go(func() error {
			logger.Info(gctx, "Starting outbox relay", "batch_size", cfg.Publisher.OutboxBatchSize)
			return relay.Run(gctx)
		})
	}

	// 13. 优雅关停
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down IntakeService")
		healthServer.Shutdown()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				logger.Error(shutdownCtx, "Metrics server shutdown error", "error", err)
			}
		}
		grpcServer.GracefulStop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "IntakeService exited with error", "error", err)
	}
	logger.Info(context.Background(), "IntakeService stopped")
}

// createHTTPServer 创建 HTTP 服务器
func createHTTPServer(cfg *config.Config, svc *application.OrderService, rateLimiter ratelimit.RateLimiter, collector metrics.MetricsCollector) *http.Server {
	if cfg.Environment == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// 添加中间件
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinLoggingMiddleware())
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.GinMetricsMiddleware(collector))
	router.Use(middleware.RateLimitMiddleware(rateLimiter, cfg.RateLimit))

	// 注册路由
	httpHandler := httphandler.NewOrderHandler(svc)
	httpHandler.RegisterRoutes(&router.RouterGroup)

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}
}

// createGRPCServer 创建 gRPC 服务器，仅提供健康检查与反射
func createGRPCServer(cfg *config.Config) (*grpc.Server, *health.Server) {
	opts := []grpc.ServerOption{
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.GRPCLoggingInterceptor(),
			middleware.GRPCRecoveryInterceptor(),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
	}

	server := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	reflection.Register(server)

	return server, healthServer
}
