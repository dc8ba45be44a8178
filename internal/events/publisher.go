// Package events publishes assignment lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"fleetops/internal/domain"
)

// EventType names an assignment lifecycle transition.
type EventType string

const (
	AssignmentCreated    EventType = "assignment.created"
	AssignmentCompleted  EventType = "assignment.completed"
	AssignmentUnassigned EventType = "assignment.unassigned"
	TripDetailsUpdated   EventType = "assignment.trip_updated"
)

// Event is the payload written for every lifecycle transition.
type Event struct {
	Type         EventType               `json:"type"`
	AssignmentID string                  `json:"assignmentId"`
	DriverID     string                  `json:"driverId"`
	CabID        string                  `json:"cabId"`
	AssignedBy   string                  `json:"assignedBy"`
	Status       domain.AssignmentStatus `json:"status"`
	Categories   []domain.TripCategory   `json:"categories,omitempty"`
	OccurredAt   time.Time               `json:"occurredAt"`
}

// NewEvent builds an event describing a.
func NewEvent(t EventType, a *domain.Assignment) Event {
	return Event{
		Type:         t,
		AssignmentID: a.ID,
		DriverID:     a.DriverID,
		CabID:        a.CabID,
		AssignedBy:   a.AssignedBy,
		Status:       a.Status,
		OccurredAt:   time.Now().UTC(),
	}
}

// Publisher delivers lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// messageWriter is the subset of *kafka.Writer used here.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a single topic, keyed by assignment so
// that events of one assignment stay ordered within a partition.
type KafkaPublisher struct {
	writer messageWriter
}

// NewKafkaPublisher creates a publisher writing to topic on brokers.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 50 * time.Millisecond,
		},
	}
}

// Publish encodes event and writes it.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	msg, err := encode(event)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func encode(event Event) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", event.Type, err)
	}
	return kafka.Message{
		Key:   []byte(event.AssignmentID),
		Value: value,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(event.Type)},
		},
	}, nil
}

// NopPublisher discards events. It is used when Kafka is disabled.
type NopPublisher struct{}

// Publish does nothing.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)
