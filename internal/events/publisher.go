package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"restaurant_pos_backend/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

// Event types published on the order topic.
const (
	OrderCreated       = "order.created"
	OrderUpdated       = "order.updated"
	OrderStatusChanged = "order.status_changed"
	OrderSettled       = "order.settled"
)

// OrderEvent is the message body. Items are omitted; consumers that need
// them read the order through the API.
type OrderEvent struct {
	Type        string                `json:"type"`
	OrderID     string                `json:"order_id"`
	OrderNumber string                `json:"order_number"`
	OrderType   models.OrderType      `json:"order_type"`
	Status      models.OrderStatus    `json:"status"`
	Total       decimal.Decimal       `json:"total"`
	Payment     *models.PaymentMethod `json:"payment_method,omitempty"`
	TableNo     *int                  `json:"table_no,omitempty"`
	Version     int                   `json:"version"`
	ItemCount   int                   `json:"item_count"`
	OccurredAt  time.Time             `json:"occurred_at"`
}

// NewOrderEvent snapshots the order for publishing.
func NewOrderEvent(eventType string, o *models.Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:        eventType,
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		OrderType:   o.OrderType,
		Status:      o.Status,
		Total:       o.Total,
		Payment:     o.PaymentMethod,
		TableNo:     o.TableNo,
		Version:     o.Version,
		ItemCount:   len(o.Items),
		OccurredAt:  at.UTC(),
	}
}

// Publisher emits order lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type KafkaPublisher struct {
	Writer messageWriter
}

func NewKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{Writer: writer}
}

// NewKafkaWriter builds the writer for the order topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
}

// Publish keys messages by order id so one order's events stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, event OrderEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	})
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, OrderEvent) error { return nil }
