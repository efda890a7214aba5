package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/njprem/Tour_Market_BackEnd/internal/config"
	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/logging"
	"github.com/njprem/Tour_Market_BackEnd/internal/metrics"
	miniorepo "github.com/njprem/Tour_Market_BackEnd/internal/repository/minio"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/ports"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/postgres"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/rabbitmq"
	redisrepo "github.com/njprem/Tour_Market_BackEnd/internal/repository/redis"
	"github.com/njprem/Tour_Market_BackEnd/internal/service"
	httpx "github.com/njprem/Tour_Market_BackEnd/internal/transport/http"
	"github.com/njprem/Tour_Market_BackEnd/internal/transport/payment"
	"github.com/njprem/Tour_Market_BackEnd/internal/util"
)

func main() {
	cfg := config.Load()

	logCloser := logging.Setup("tour-market-api", cfg.LogstashTCPAddr)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(cfg.DatabaseURL, postgres.PoolConfig{
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}
	defer db.Close()

	if cfg.RunMigrations {
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Fatalf("run migrations: %v", err)
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store := postgres.NewStore(db)
	tourRepo := postgres.NewTourRepo(db)
	bookingRepo := postgres.NewBookingRepo(db)
	profileRepo := postgres.NewProfileRepo(db)
	wishlistRepo := postgres.NewWishlistRepo(db)

	var payments ports.PaymentGateway = payment.Static{Status: domain.PaymentStatus(cfg.PaymentInitialStatus)}
	if cfg.PaymentServiceURL != "" {
		payments = payment.NewClient(cfg.PaymentServiceURL, cfg.PaymentTimeout)
	}

	var publisher ports.EventPublisher
	if cfg.RabbitMQURL != "" {
		rabbit := rabbitmq.NewPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
		defer rabbit.Close()
		publisher = rabbit
	} else {
		log.Printf("RABBITMQ_URL not set; lifecycle events will not be published")
	}

	var limiter ports.RateLimiter
	if cfg.RateLimitEnabled && cfg.RedisAddr != "" {
		client, err := redisrepo.NewClient(ctx, redisrepo.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TLS:      cfg.RedisTLS,
		})
		if err != nil {
			log.Printf("redis unavailable, rate limiting disabled: %v", err)
		} else {
			defer client.Close()
			limiter = redisrepo.NewRateLimiter(client, redisrepo.RateLimitConfig{
				Capacity:       cfg.RateLimitCapacity,
				RefillTokens:   cfg.RateLimitRefillTokens,
				RefillInterval: cfg.RateLimitRefillInterval,
				TTL:            cfg.RateLimitTTL,
			})
		}
	}

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := miniorepo.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Printf("minio unavailable, exports disabled: %v", err)
		} else {
			storage = miniorepo.NewStorage(client, cfg.MinIOPublicURL)
		}
	}

	retry := service.RetryPolicy{
		Timeout:     cfg.StorageTimeout,
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	}
	jwtManager := util.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	authService := service.NewAuthService(profileRepo, jwtManager, cfg.GoogleAudience)
	tourService := service.NewTourService(tourRepo)
	aggregator := service.NewRatingAggregator(store, retry, m)
	bookingService := service.NewBookingService(store, payments, publisher, m, service.BookingServiceConfig{
		InitialStatus: domain.BookingStatus(cfg.BookingInitialStatus),
		Retry:         retry,
	})
	reviewService := service.NewReviewService(store, aggregator, publisher, m, retry)
	wishlistService := service.NewWishlistService(wishlistRepo, tourRepo)
	dashboardService := service.NewDashboardService(store)
	exportService := service.NewExportService(bookingRepo, storage, cfg.MinIOBucketExports)

	e := httpx.NewRouter(cfg.AllowOrigins, registry)
	writeLimit := httpx.RateLimit(limiter)

	httpx.RegisterAuth(e, authService)
	httpx.RegisterTours(e, tourService)
	httpx.RegisterBookings(e, authService, bookingService, writeLimit)
	httpx.RegisterReviews(e, authService, reviewService, aggregator, tourService, writeLimit)
	httpx.RegisterWishlist(e, authService, wishlistService)
	httpx.RegisterProvider(e, authService, dashboardService, exportService)
	httpx.RegisterSwagger(e, cfg.SwaggerSpecPath)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	shutdown(e)
}

func shutdown(e *echo.Echo) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("graceful shutdown: %v", err)
	}
}
