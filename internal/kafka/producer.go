package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Domenick1991/airport/internal/domain"
	"github.com/Domenick1991/airport/internal/logger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated = "order_created"
	EventOrderDeleted = "order_deleted"
)

type TicketEvent struct {
	FlightID int64  `json:"flight_id"`
	Row      int    `json:"row"`
	Seat     string `json:"seat"`
}

type OrderEvent struct {
	ID         string        `json:"id"`
	Type       string        `json:"type"`
	OrderID    int64         `json:"order_id"`
	UserID     int64         `json:"user_id"`
	Tickets    []TicketEvent `json:"tickets,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// NewOrderEvent builds an event of the given type for a committed order.
func NewOrderEvent(eventType string, order *domain.Order) OrderEvent {
	tickets := make([]TicketEvent, 0, len(order.Tickets))
	for _, t := range order.Tickets {
		tickets = append(tickets, TicketEvent{FlightID: t.FlightID, Row: t.Row, Seat: t.Seat})
	}
	return OrderEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Tickets:    tickets,
		OccurredAt: time.Now().UTC(),
	}
}

func (e OrderEvent) Key() string {
	return fmt.Sprintf("order-%d", e.OrderID)
}

type Producer struct {
	brokers []string
	writer  *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		MaxAttempts:  3,
		Async:        false,
	}

	return &Producer{
		brokers: brokers,
		writer:  writer,
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	message := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	logger.WithContext(ctx).Debug("published to kafka", "topic", topic, "key", key)
	return nil
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}

// CheckConnection dials the first broker and reads its partition list.
func (p *Producer) CheckConnection(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}
	conn, err := kafka.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("failed to connect to Kafka: %w", err)
	}
	defer conn.Close()

	partitions, err := conn.ReadPartitions()
	if err != nil {
		return fmt.Errorf("failed to read partitions: %w", err)
	}

	logger.Get().Info("connected to kafka", "partitions", len(partitions))
	return nil
}
