package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler processes one delivery. A returned error rejects the message
// without requeueing it, unless it is wrapped with Retryable.
type Handler func(ctx context.Context, routingKey string, body []byte) error

type retryableError struct {
	err error
}

func (e *retryableError) Error() string { return e.err.Error() }
func (e *retryableError) Unwrap() error { return e.err }

// Retryable marks err as temporary: the delivery goes back on the queue
// instead of being dropped.
func Retryable(err error) error {
	if err == nil {
		return nil
	}
	return &retryableError{err: err}
}

func IsRetryable(err error) bool {
	var r *retryableError
	return errors.As(err, &r)
}

type ConsumerConfig struct {
	URL         string
	Exchange    string
	Queue       string
	BindingKeys []string
	Prefetch    int
	// RequeueDelay is how long a retryable failure waits before the
	// delivery is handed back to the broker.
	RequeueDelay time.Duration
}

type Consumer struct {
	cfg     ConsumerConfig
	handler Handler
}

func NewConsumer(cfg ConsumerConfig, handler Handler) *Consumer {
	if cfg.Exchange == "" {
		cfg.Exchange = DefaultExchange
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 20
	}
	if cfg.RequeueDelay <= 0 {
		cfg.RequeueDelay = 2 * time.Second
	}
	return &Consumer{cfg: cfg, handler: handler}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with backoff when the connection is lost.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		conn, err := amqp.Dial(c.cfg.URL)
		if err != nil {
			log.Printf("consumer %s: dial failed: %v; retrying in %s", c.cfg.Queue, err, backoff)
			if !sleepCtx(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("consumer %s: loop ended: %v; reconnecting", c.cfg.Queue, err)
		if !sleepCtx(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		log.Printf("consumer %s: set qos: %v", c.cfg.Queue, err)
	}
	if err := declareExchange(ch, c.cfg.Exchange); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}
	for _, key := range c.cfg.BindingKeys {
		if err := ch.QueueBind(c.cfg.Queue, key, c.cfg.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}

	deliveries, err := ch.Consume(c.cfg.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			c.settle(ctx, d)
		}
	}
}

// settle runs the handler and acks, requeues or drops the delivery.
func (c *Consumer) settle(ctx context.Context, d amqp.Delivery) {
	err := c.handler(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case IsRetryable(err):
		log.Printf("consumer %s: handle %s: %v (requeued)", c.cfg.Queue, d.RoutingKey, err)
		sleepCtx(ctx, c.cfg.RequeueDelay)
		_ = d.Nack(false, true)
	default:
		log.Printf("consumer %s: handle %s: %v", c.cfg.Queue, d.RoutingKey, err)
		_ = d.Nack(false, false)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
