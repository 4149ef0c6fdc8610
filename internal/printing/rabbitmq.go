package printing

import (
	"context"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// publisher is the subset of *amqp.Channel used to publish jobs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQTransport publishes print jobs to a direct exchange. The routing
// key is the printer name; each print agent binds its own queue.
type RabbitMQTransport struct {
	conn     *amqp.Connection
	channel  publisher
	exchange string
	mu       sync.Mutex
}

// NewRabbitMQTransport connects and declares the durable print exchange.
func NewRabbitMQTransport(url, exchange string) (*RabbitMQTransport, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	err = channel.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	return &RabbitMQTransport{conn: conn, channel: channel, exchange: exchange}, nil
}

func (t *RabbitMQTransport) Send(ctx context.Context, printer string, payload []byte) error {
	if printer == "" {
		return fmt.Errorf("%w: empty printer name", ErrTransportFailure)
	}

	// amqp channels are not safe for concurrent publishing.
	t.mu.Lock()
	defer t.mu.Unlock()

	err := t.channel.PublishWithContext(
		ctx,
		t.exchange, // exchange
		printer,    // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/octet-stream",
			Headers:      amqp.Table{"printer": printer},
			Body:         payload,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("%w: publishing to %s: %v", ErrTransportFailure, printer, err)
	}
	return nil
}

func (t *RabbitMQTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch, ok := t.channel.(*amqp.Channel); ok && ch != nil {
		ch.Close()
	}
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}
