package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"coursehub/internal/domain"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const producerName = "coursehub-api"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher queues domain events and writes them from one goroutine so
// request handlers never wait on the broker.
type KafkaPublisher struct {
	w     messageWriter
	inbox chan kafka.Message
	done  chan struct{}
	once  sync.Once
}

func NewKafkaPublisher(brokers []string, topic string, buf int) *KafkaPublisher {
	return newPublisher(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}, buf)
}

func newPublisher(w messageWriter, buf int) *KafkaPublisher {
	p := &KafkaPublisher{
		w:     w,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *KafkaPublisher) loop() {
	defer close(p.done)
	for m := range p.inbox {
		if err := p.w.WriteMessages(context.Background(), m); err != nil {
			log.Printf("event publish failed key=%s: %v", m.Key, err)
		}
	}
	if err := p.w.Close(); err != nil {
		log.Printf("event writer close: %v", err)
	}
}

// Publish enqueues the event keyed by its correlation id. A full queue drops
// the event; nothing downstream depends on delivery.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType, correlationID string, payload any) error {
	value, err := Marshal(eventType, correlationID, payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(correlationID),
		Value: value,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	}

	select {
	case p.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("event queue full, dropped %s", eventType)
	}
}

// Close flushes queued events and waits for the writer to stop.
func (p *KafkaPublisher) Close() error {
	p.once.Do(func() { close(p.inbox) })
	<-p.done
	return nil
}

// Marshal wraps payload in the versioned event envelope.
func Marshal(eventType, correlationID string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	return json.Marshal(domain.Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producerName,
		CorrelationID: correlationID,
		Payload:       body,
	})
}

// Noop discards events when no broker is configured.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }

func (Noop) Close() error { return nil }
