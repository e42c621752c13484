package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// channel is the subset of *amqp.Channel the publisher needs.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher is the AMQP Dispatcher. SendBookingCreated only enqueues; a single
// goroutine drains the queue onto the topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string
	queue    chan BookingCreated
	wg       sync.WaitGroup

	mu     sync.RWMutex // guards closed and sends on queue
	closed bool
}

// DialPublisher connects to the broker, declares the durable topic exchange and
// starts the publish loop.
func DialPublisher(url, exchange string, buffer int) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	p := newPublisher(ch, exchange, buffer)
	p.conn = conn
	return p, nil
}

func newPublisher(ch channel, exchange string, buffer int) *Publisher {
	p := &Publisher{
		ch:       ch,
		exchange: exchange,
		queue:    make(chan BookingCreated, buffer),
	}
	p.wg.Add(1)
	go p.loop()
	return p
}

// SendBookingCreated enqueues ev. When the buffer is full, or the publisher
// is closed, the event is dropped and logged.
func (p *Publisher) SendBookingCreated(ctx context.Context, ev BookingCreated) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		slog.WarnContext(ctx, "notification dropped: publisher closed", "booking_id", ev.BookingID)
		return
	}
	select {
	case p.queue <- ev:
	default:
		slog.WarnContext(ctx, "notification dropped: buffer full", "booking_id", ev.BookingID)
	}
}

func (p *Publisher) loop() {
	defer p.wg.Done()
	for ev := range p.queue {
		if err := p.publish(ev); err != nil {
			slog.Warn("notification publish failed", "booking_id", ev.BookingID, "err", err)
		}
	}
}

func (p *Publisher) publish(ev BookingCreated) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return p.ch.PublishWithContext(ctx, p.exchange, RKBookingCreated, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	})
}

// Close stops accepting events, flushes what is queued and closes the
// connection. Events sent after Close are dropped.
func (p *Publisher) Close() error {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()
	p.wg.Wait()
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
