package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/avast/retry-go"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Source yields deliveries. The channel closes when the broker connection drops.
type Source interface {
	Consume() (<-chan amqp.Delivery, error)
}

// Consumer feeds queued events to a handler. A delivery is acked once the
// handler succeeds and nacked without requeue (so it dead-letters) when it
// cannot be decoded or keeps failing.
type Consumer struct {
	source  Source
	handler Handler
	log     *zap.Logger

	Attempts       uint
	RetryDelay     time.Duration
	MaxRetryDelay  time.Duration
	ReconnectDelay time.Duration

	done chan struct{}
	once sync.Once
	wg   sync.WaitGroup
}

func NewConsumer(source Source, handler Handler, log *zap.Logger) *Consumer {
	return &Consumer{
		source:         source,
		handler:        handler,
		log:            log,
		Attempts:       3,
		RetryDelay:     time.Second,
		MaxRetryDelay:  30 * time.Second,
		ReconnectDelay: 5 * time.Second,
		done:           make(chan struct{}),
	}
}

func (c *Consumer) Start() {
	c.wg.Add(1)
	go c.run()
	c.log.Info("event consumer started")
}

// Stop waits for the delivery in flight, if any, to finish.
func (c *Consumer) Stop() {
	c.once.Do(func() { close(c.done) })
	c.wg.Wait()
	c.log.Info("event consumer stopped")
}

func (c *Consumer) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		msgs, err := c.source.Consume()
		if err != nil {
			c.log.Warn("consume failed, retrying", zap.Error(err), zap.Duration("in", c.ReconnectDelay))
			select {
			case <-c.done:
				return
			case <-time.After(c.ReconnectDelay):
			}
			continue
		}
		c.drain(msgs)
	}
}

func (c *Consumer) drain(msgs <-chan amqp.Delivery) {
	for {
		select {
		case <-c.done:
			return
		case msg, ok := <-msgs:
			if !ok {
				c.log.Warn("delivery channel closed, reconnecting")
				return
			}
			c.process(msg)
		}
	}
}

func (c *Consumer) process(msg amqp.Delivery) {
	var e Event
	if err := json.Unmarshal(msg.Body, &e); err != nil {
		c.log.Error("dropping undecodable event", zap.String("messageId", msg.MessageId), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	if e.ID == "" {
		e.ID = msg.MessageId
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	err := retry.Do(
		func() error { return c.handler(ctx, e) },
		retry.Attempts(c.Attempts),
		retry.Delay(c.RetryDelay),
		retry.MaxDelay(c.MaxRetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			c.log.Warn("event handler failed, retrying", zap.String("eventId", e.ID), zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
	if err != nil && ctx.Err() != nil {
		// shutting down; leave it for the next consumer
		_ = msg.Nack(false, true)
		return
	}
	if err != nil {
		c.log.Error("event handler gave up, dead-lettering", zap.String("eventId", e.ID), zap.String("type", e.Type), zap.Error(err))
		_ = msg.Nack(false, false)
		return
	}
	_ = msg.Ack(false)
}
