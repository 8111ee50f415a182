package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	ExchangeName    = "starhawk.events"
	DLXExchangeName = "starhawk.events.dlx"

	QueueNotifications    = "starhawk.notifications"
	QueueNotificationsDLQ = "starhawk.notifications.dlq"
	dlqRoutingKey         = "dlq.notifications"

	reconnectDelay = 5 * time.Second
	prefetchCount  = 10
)

var errNoChannel = errors.New("rabbitmq channel not available")

// RabbitMQ publishes events to a topic exchange and consumes the notification
// queue bound to it. A background loop reconnects when the broker drops.
type RabbitMQ struct {
	url string
	log *zap.Logger

	mu      sync.RWMutex
	conn    *amqp.Connection
	channel *amqp.Channel
	done    chan struct{}
	once    sync.Once
}

func NewRabbitMQ(url string, log *zap.Logger) (*RabbitMQ, error) {
	r := &RabbitMQ{url: url, log: log, done: make(chan struct{})}
	if err := r.connect(); err != nil {
		return nil, err
	}
	go r.handleReconnect()
	return r, nil
}

func (r *RabbitMQ) connect() error {
	conn, err := amqp.Dial(r.url)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return err
	}

	r.conn, r.channel = conn, ch
	r.log.Info("rabbitmq connected", zap.String("exchange", ExchangeName))
	return nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.Qos(prefetchCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	for _, name := range []string{ExchangeName, DLXExchangeName} {
		if err := ch.ExchangeDeclare(name, "topic", true, false, false, false, nil); err != nil {
			return fmt.Errorf("exchange declare %s: %w", name, err)
		}
	}

	if _, err := ch.QueueDeclare(QueueNotificationsDLQ, true, false, false, false, amqp.Table{
		"x-message-ttl": int64(86400000),
	}); err != nil {
		return fmt.Errorf("dlq declare: %w", err)
	}
	if err := ch.QueueBind(QueueNotificationsDLQ, dlqRoutingKey, DLXExchangeName, false, nil); err != nil {
		return fmt.Errorf("dlq bind: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueNotifications, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DLXExchangeName,
		"x-dead-letter-routing-key": dlqRoutingKey,
	}); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	// Every event type produces a notification.
	if err := ch.QueueBind(QueueNotifications, "#", ExchangeName, false, nil); err != nil {
		return fmt.Errorf("queue bind: %w", err)
	}
	return nil
}

func (r *RabbitMQ) handleReconnect() {
	for {
		r.mu.RLock()
		conn := r.conn
		r.mu.RUnlock()

		select {
		case <-r.done:
			return
		case amqpErr := <-conn.NotifyClose(make(chan *amqp.Error, 1)):
			select {
			case <-r.done:
				return
			default:
			}
			r.log.Warn("rabbitmq disconnected", zap.Any("reason", amqpErr))

			for {
				r.mu.Lock()
				err := r.connect()
				r.mu.Unlock()
				if err == nil {
					break
				}
				r.log.Error("rabbitmq reconnect failed", zap.Error(err))
				select {
				case <-r.done:
					return
				case <-time.After(reconnectDelay):
				}
			}
		}
	}
}

// Publish sends e to the exchange with its type as routing key.
func (r *RabbitMQ) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.channel == nil {
		return errNoChannel
	}

	return r.channel.PublishWithContext(ctx, ExchangeName, e.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.ID,
		Timestamp:    e.Timestamp,
		Type:         e.Type,
		Body:         body,
	})
}

// Consume starts a manual-ack consumer on the notification queue.
func (r *RabbitMQ) Consume() (<-chan amqp.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.channel == nil {
		return nil, errNoChannel
	}

	msgs, err := r.channel.Consume(QueueNotifications, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", QueueNotifications, err)
	}
	return msgs, nil
}

func (r *RabbitMQ) Close() {
	r.once.Do(func() {
		close(r.done)

		r.mu.Lock()
		defer r.mu.Unlock()
		if r.channel != nil {
			r.channel.Close()
		}
		if r.conn != nil {
			r.conn.Close()
		}
	})
}
