// Storefront 主程序
// 功能：商品目录、库存台账、订单工作流、通知分发与账户目录的 HTTP 服务
// 架构：基于 DDD，订单事件经发件箱投递到 Kafka
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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	accountapp "github.com/wyfcoding/storefront/internal/account/application"
	accountmysql "github.com/wyfcoding/storefront/internal/account/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/internal/account/infrastructure/security"
	accounthttp "github.com/wyfcoding/storefront/internal/account/interfaces/http"
	catalogapp "github.com/wyfcoding/storefront/internal/catalog/application"
	catalogdomain "github.com/wyfcoding/storefront/internal/catalog/domain"
	catalogmysql "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/mysql"
	catalogredis "github.com/wyfcoding/storefront/internal/catalog/infrastructure/persistence/redis"
	cataloghttp "github.com/wyfcoding/storefront/internal/catalog/interfaces/http"
	inventoryapp "github.com/wyfcoding/storefront/internal/inventory/application"
	inventorydomain "github.com/wyfcoding/storefront/internal/inventory/domain"
	inventorymysql "github.com/wyfcoding/storefront/internal/inventory/infrastructure/persistence/mysql"
	notificationapp "github.com/wyfcoding/storefront/internal/notification/application"
	notificationdomain "github.com/wyfcoding/storefront/internal/notification/domain"
	"github.com/wyfcoding/storefront/internal/notification/infrastructure/directory"
	notificationmysql "github.com/wyfcoding/storefront/internal/notification/infrastructure/persistence/mysql"
	"github.com/wyfcoding/storefront/internal/notification/infrastructure/sender"
	notificationhttp "github.com/wyfcoding/storefront/internal/notification/interfaces/http"
	orderapp "github.com/wyfcoding/storefront/internal/order/application"
	orderdomain "github.com/wyfcoding/storefront/internal/order/domain"
	ordermysql "github.com/wyfcoding/storefront/internal/order/infrastructure/persistence/mysql"
	orderhttp "github.com/wyfcoding/storefront/internal/order/interfaces/http"
	"github.com/wyfcoding/storefront/pkg/cache"
	"github.com/wyfcoding/storefront/pkg/config"
	"github.com/wyfcoding/storefront/pkg/db"
	"github.com/wyfcoding/storefront/pkg/idgen"
	"github.com/wyfcoding/storefront/pkg/jwtx"
	"github.com/wyfcoding/storefront/pkg/logger"
	"github.com/wyfcoding/storefront/pkg/metrics"
	"github.com/wyfcoding/storefront/pkg/middleware"
	"github.com/wyfcoding/storefront/pkg/mq"
	"github.com/wyfcoding/storefront/pkg/outbox"
	"github.com/wyfcoding/storefront/pkg/ratelimit"
	"github.com/wyfcoding/storefront/pkg/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const devJWTSecret = "storefront-dev-secret"

// eventPublisher 领域事件发布，订单与商品服务共用
type eventPublisher interface {
	Publish(ctx context.Context, topic, key string, event any) error
}

func main() {
	configPath := flag.String("config", "configs/config.toml", "path to config file")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadWithDefaults(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	logger.Info(ctx, "Starting Storefront",
		"service", cfg.ServiceName,
		"version", cfg.Version,
		"environment", cfg.Environment,
	)

	if err := idgen.Init(cfg.NodeID); err != nil {
		logger.Fatal(ctx, "Failed to initialize id generator", "error", err)
	}
	// 金额以 JSON 数字输出
	decimal.MarshalJSONWithoutQuotes = true

	// 3. 初始化追踪
	shutdownTracer, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.Version,
		Endpoint:       cfg.Tracing.CollectorEndpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
	})
	if err != nil {
		logger.Error(ctx, "Failed to initialize tracer", "error", err)
	} else {
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Error(ctx, "Failed to shutdown tracer", "error", err)
			}
		}()
	}

	// 4. 初始化数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize database", "error", err)
	}
	defer database.Close()

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(
			&catalogmysql.ProductModel{},
			&inventorymysql.ReservationModel{},
			&accountmysql.AccountModel{},
			&notificationmysql.NotificationModel{},
			&ordermysql.OrderModel{},
			&outbox.Message{},
		); err != nil {
			logger.Fatal(ctx, "Failed to migrate database", "error", err)
		}
	}

	// 5. 初始化指标
	metricsInstance := metrics.New(cfg.ServiceName)
	var collector metrics.Collector = metrics.Nop{}
	if cfg.Metrics.Enabled {
		if err := metricsInstance.Register(prometheus.DefaultRegisterer); err != nil {
			logger.Fatal(ctx, "Failed to register metrics", "error", err)
		}
		collector = metrics.NewDefaultCollector(metricsInstance)
	}

	// 6. 初始化 Redis 与限流器；未启用时降级为进程内实现
	var (
		redisCache  *cache.RedisCache
		rateLimiter ratelimit.RateLimiter = ratelimit.NewLocalRateLimiter()
	)
	if cfg.Redis.Enabled {
		redisCache, err = cache.New(cache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			MaxPoolSize:  cfg.Redis.MaxPoolSize,
			ConnTimeout:  cfg.Redis.ConnTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if err != nil {
			logger.Fatal(ctx, "Failed to initialize Redis", "error", err)
		}
		defer redisCache.Close()
		rateLimiter = ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	}

	// 7. 初始化 Kafka 与发件箱
	var (
		publisher mq.Publisher
		events    eventPublisher = outbox.Nop{}
	)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := mq.NewProducer(mq.KafkaConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close()
		publisher = producer
		box := outbox.NewManager(database.DB, producer)
		go box.Run(ctx, time.Second, 100)
		events = box
	}

	// 8. 初始化仓储
	baseProducts := catalogmysql.NewProductRepository(database.DB)
	var (
		products    catalogdomain.ProductRepository = baseProducts
		invalidates []inventorydomain.CacheInvalidator
	)
	if redisCache != nil {
		cached := catalogredis.NewCachedProductRepository(baseProducts, redisCache, time.Duration(cfg.Catalog.CacheTTL)*time.Second, collector)
		products = cached
		invalidates = append(invalidates, cached)
	}
	accountRepo := accountmysql.NewAccountRepository(database.DB)

	// 9. 初始化通知分发
	mailSender, err := sender.New(cfg.Mail.Channel, sender.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, publisher, cfg.Kafka.MailTopic)
	if err != nil {
		logger.Fatal(ctx, "Failed to initialize mail sender", "error", err)
	}
	var alerter notificationdomain.Alerter
	if cfg.Notification.AdminWebhookURL != "" {
		alerter = sender.NewWebhookAlerter(cfg.Notification.AdminWebhookURL)
	}
	queue := notificationapp.NewDeliveryQueue(notificationapp.QueueConfig{
		Workers:   cfg.Notification.Workers,
		QueueSize: cfg.Notification.QueueSize,
		MaxTries:  cfg.Notification.MaxRetries,
	}, collector)
	queue.Start()
	dispatcher := notificationapp.NewDispatcher(
		notificationmysql.NewNotificationRepository(database.DB),
		directory.NewAccountDirectory(directory.RepositorySource{Repo: accountRepo}),
		mailSender, alerter, queue, collector,
	)

	// 10. 初始化应用服务
	secret := cfg.Auth.JWTSecret
	if secret == "" {
		logger.Warn(ctx, "auth.jwt_secret is empty, using development secret")
		secret = devJWTSecret
	}
	tokens := jwtx.NewManager(secret, time.Duration(cfg.Auth.TokenTTLHours)*time.Hour, cfg.ServiceName)
	accounts := accountapp.NewAccountService(accountRepo, security.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, dispatcher, cfg.Auth.AdminInviteCode)

	catalogCommands := catalogapp.NewCatalogCommandService(products, events)
	catalogQueries := catalogapp.NewCatalogQueryService(products)

	ledger := inventoryapp.NewLedger(inventorymysql.NewStockStore(database.DB), collector, invalidates...)
	orderRepo := ordermysql.NewOrderRepository(database.DB)
	var policy orderdomain.TransitionPolicy = orderdomain.PermissiveTransitions{}
	if cfg.Order.StrictTransitions {
		policy = orderdomain.LinearTransitions{}
	}
	orderCommands := orderapp.NewOrderCommandService(orderapp.Deps{
		Tx:        database,
		Orders:    orderRepo,
		Products:  baseProducts,
		Accounts:  accounts,
		Stock:     ledger,
		Notifier:  dispatcher,
		Events:    events,
		Collector: collector,
		Policy:    policy,
	})
	orderQueries := orderapp.NewOrderQueryService(orderRepo, products, accounts)

	// 11. 创建 HTTP 服务器
	router := gin.New()
	router.Use(otelgin.Middleware(cfg.ServiceName))
	router.Use(middleware.GinLoggingMiddleware(collector))
	router.Use(middleware.GinRecoveryMiddleware())
	router.Use(middleware.GinCORSMiddleware())
	router.Use(middleware.RateLimitMiddleware(rateLimiter, cfg.RateLimit))

	if cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	api := router.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	authenticated := middleware.Auth(tokens)
	accountHandler := accounthttp.NewAccountHandler(accounts)
	catalogHandler := cataloghttp.NewCatalogHandler(catalogCommands, catalogQueries)
	orderHandler := orderhttp.NewOrderHandler(orderCommands, orderQueries)
	notificationHandler := notificationhttp.NewNotificationHandler(dispatcher)

	accountHandler.RegisterRoutes(api, authenticated)
	catalogHandler.RegisterRoutes(api)

	user := api.Group("", authenticated)
	orderHandler.RegisterRoutes(user)
	notificationHandler.RegisterRoutes(user)

	admin := api.Group("/admin", authenticated, middleware.RequireAdmin())
	accountHandler.RegisterAdminRoutes(admin)
	catalogHandler.RegisterAdminRoutes(admin)
	orderHandler.RegisterAdminRoutes(admin)
	notificationHandler.RegisterAdminRoutes(admin)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	// 12. 创建 gRPC 服务器，仅提供健康检查与反射
	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(
			middleware.GRPCLoggingInterceptor(),
			middleware.GRPCRecoveryInterceptor(),
		),
		grpc.MaxConcurrentStreams(uint32(cfg.GRPC.MaxConcurrentStreams)),
	)
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(cfg.ServiceName, healthpb.HealthCheckResponse_SERVING)
	reflection.Register(grpcServer)

	// 13. 启动服务
	go func() {
		logger.Info(ctx, "Starting HTTP server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "HTTP server error", "error", err)
		}
	}()
	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.GRPC.Host, cfg.GRPC.Port)
		listener, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Fatal(ctx, "Failed to listen on gRPC address", "error", err)
		}
		logger.Info(ctx, "Starting gRPC server", "addr", addr)
		if err := grpcServer.Serve(listener); err != nil {
			logger.Fatal(ctx, "gRPC server error", "error", err)
		}
	}()

	// 14. 优雅关停
	<-ctx.Done()
	logger.Info(context.Background(), "Shutting down Storefront")

	healthServer.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error(shutdownCtx, "HTTP server shutdown error", "error", err)
	}
	grpcServer.GracefulStop()
	// 等待排队中的邮件发送完成
	queue.Close()

	logger.Info(shutdownCtx, "Storefront stopped")
}
