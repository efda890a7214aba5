// Command worker recomputes tour ratings from review.submitted events.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/njprem/Tour_Market_BackEnd/internal/config"
	"github.com/njprem/Tour_Market_BackEnd/internal/domain"
	"github.com/njprem/Tour_Market_BackEnd/internal/logging"
	"github.com/njprem/Tour_Market_BackEnd/internal/metrics"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/postgres"
	"github.com/njprem/Tour_Market_BackEnd/internal/repository/rabbitmq"
	"github.com/njprem/Tour_Market_BackEnd/internal/service"
)

func main() {
	cfg := config.Load()

	logCloser := logging.Setup("tour-market-worker", cfg.LogstashTCPAddr)
	defer logCloser.Close()

	if cfg.RabbitMQURL == "" {
		log.Fatal("RABBITMQ_URL is required for the worker")
	}

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

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	aggregator := service.NewRatingAggregator(postgres.NewStore(db), service.RetryPolicy{
		Timeout:     cfg.StorageTimeout,
		MaxAttempts: cfg.RetryMaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay,
	}, m)

	go serveMetrics(cfg.Port, registry)

	consumer := rabbitmq.NewConsumer(rabbitmq.ConsumerConfig{
		URL:         cfg.RabbitMQURL,
		Exchange:    cfg.RabbitMQExchange,
		Queue:       cfg.RabbitMQQueue,
		BindingKeys: []string{domain.EventReviewSubmitted},
		Prefetch:    cfg.WorkerPrefetch,
	}, ratingHandler(aggregator))

	log.Printf("worker consuming %s from %s", domain.EventReviewSubmitted, cfg.RabbitMQQueue)
	if err := consumer.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatalf("consumer stopped: %v", err)
	}
}

type ratingRecomputer interface {
	RecomputeRating(ctx context.Context, tourID uuid.UUID) (*domain.RatingStats, error)
}

func ratingHandler(aggregator ratingRecomputer) rabbitmq.Handler {
	return func(ctx context.Context, routingKey string, body []byte) error {
		if routingKey != domain.EventReviewSubmitted {
			return nil
		}
		var event domain.ReviewSubmittedEvent
		if err := json.Unmarshal(body, &event); err != nil {
			return fmt.Errorf("decode %s: %w", routingKey, err)
		}
		if event.TourID == uuid.Nil {
			return fmt.Errorf("%s without tour_id", routingKey)
		}
		stats, err := aggregator.RecomputeRating(ctx, event.TourID)
		if err != nil {
			err = fmt.Errorf("recompute rating for tour %s: %w", event.TourID, err)
			if errors.Is(err, service.ErrTransient) {
				return rabbitmq.Retryable(err)
			}
			return err
		}
		log.Printf("tour %s rating recomputed: avg=%.1f total=%d", event.TourID, stats.DisplayAverage(), stats.TotalReviews)
		return nil
	}
}

func serveMetrics(port string, gatherer prometheus.Gatherer) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(":"+port, mux); err != nil {
		log.Printf("metrics server stopped: %v", err)
	}
}
