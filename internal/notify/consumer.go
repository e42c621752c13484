package notify

import (
	"context"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Notifier delivers a rendered message to a person. Swap it for email or SMS.
type Notifier interface {
	Notify(ctx context.Context, to, subject, message string) error
}

// Console writes notifications to the structured log.
type Console struct{}

func (Console) Notify(ctx context.Context, to, subject, message string) error {
	slog.InfoContext(ctx, "notification", "to", to, "subject", subject, "message", message)
	return nil
}

// ConsumerConfig names the exchange, queue and bindings the worker consumes.
type ConsumerConfig struct {
	URL      string
	Exchange string
	Queue    string
	Prefetch int
	Tag      string
}

// Consumer drains the notification queue.
type Consumer struct {
	cfg      ConsumerConfig
	notifier Notifier

	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewConsumer builds an unconnected Consumer.
func NewConsumer(cfg ConsumerConfig, n Notifier) *Consumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	return &Consumer{cfg: cfg, notifier: n}
}

// Connect declares the topic exchange and the durable queue bound to
// booking.created, and sets the prefetch window.
func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.cfg.URL)
	if err != nil {
		return fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}
	fail := func(step string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf("%s: %w", step, err)
	}
	if err := ch.ExchangeDeclare(c.cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail("declare exchange", err)
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue", err)
	}
	if err := ch.QueueBind(q.Name, RKBookingCreated, c.cfg.Exchange, false, nil); err != nil {
		return fail("bind queue", err)
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fail("set qos", err)
	}
	c.conn = conn
	c.ch = ch
	return nil
}

// Close releases the channel and connection.
func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Run consumes until ctx is done or the delivery channel closes.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, c.cfg.Tag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			c.handle(ctx, d)
		}
	}
}

// handle acks a delivered notification. A payload that cannot be decoded is
// dropped; a delivery failure is requeued.
func (c *Consumer) handle(ctx context.Context, d amqp.Delivery) {
	if d.RoutingKey != RKBookingCreated {
		slog.WarnContext(ctx, "skipping unknown routing key", "key", d.RoutingKey)
		_ = d.Ack(false)
		return
	}
	ev, err := decode[BookingCreated](d.Body)
	if err != nil {
		slog.WarnContext(ctx, "dropping undecodable notification", "err", err)
		_ = d.Nack(false, false)
		return
	}
	msg := fmt.Sprintf("Booking %s for table %s starts at %s.",
		ev.BookingID, ev.TableName, ev.StartAt.UTC().Format("2006-01-02 15:04 MST"))
	if err := c.notifier.Notify(ctx, ev.Email, "Booking confirmed", msg); err != nil {
		slog.WarnContext(ctx, "notify failed, requeueing", "booking_id", ev.BookingID, "err", err)
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
