package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/tortasnery/storefront/pkg/logger"
)

// Publisher emits domain events keyed for partitioning or ordering.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// Sink delivers an encoded envelope to a concrete transport.
type Sink interface {
	Deliver(ctx context.Context, key string, env Envelope, data []byte) error
}

// Emitter builds envelopes and hands them to a sink.
type Emitter struct {
	sink     Sink
	producer string
	logg     *logger.Logger
	now      func() time.Time
}

func NewEmitter(sink Sink, producer string, logg *logger.Logger) *Emitter {
	return &Emitter{sink: sink, producer: producer, logg: logg, now: time.Now}
}

func (e *Emitter) Publish(ctx context.Context, eventType, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s payload: %w", eventType, err)
	}
	env := Envelope{
		EventID:    uuid.NewString(),
		EventType:  eventType,
		OccurredAt: e.now().UTC(),
		Producer:   e.producer,
		Payload:    raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding %s envelope: %w", eventType, err)
	}
	if err := e.sink.Deliver(ctx, key, env, data); err != nil {
		return fmt.Errorf("delivering %s: %w", eventType, err)
	}
	if e.logg != nil {
		e.logg.Debug(e.logg.WithFields(ctx, map[string]any{
			"event_id":   env.EventID,
			"event_type": eventType,
		}), "events.published")
	}
	return nil
}

// Noop drops every event.
type Noop struct{}

func (Noop) Publish(context.Context, string, string, any) error { return nil }

type ordersTopic interface {
	PublishOrders(ctx context.Context, data []byte, attrs map[string]string) (string, error)
}

// PubSubSink publishes to the orders topic and waits for the ack.
type PubSubSink struct {
	topic ordersTopic
}

func NewPubSubSink(topic ordersTopic) *PubSubSink {
	return &PubSubSink{topic: topic}
}

func (s *PubSubSink) Deliver(ctx context.Context, key string, env Envelope, data []byte) error {
	_, err := s.topic.PublishOrders(ctx, data, map[string]string{
		"event_id":   env.EventID,
		"event_type": env.EventType,
		"key":        key,
	})
	return err
}

type bufferedProducer interface {
	Publish(key, value []byte, headers ...kafkago.Header) error
}

// KafkaSink enqueues on the buffered producer without waiting for the broker.
type KafkaSink struct {
	producer bufferedProducer
}

func NewKafkaSink(producer bufferedProducer) *KafkaSink {
	return &KafkaSink{producer: producer}
}

func (s *KafkaSink) Deliver(_ context.Context, key string, env Envelope, data []byte) error {
	return s.producer.Publish([]byte(key), data,
		kafkago.Header{Key: "event_id", Value: []byte(env.EventID)},
		kafkago.Header{Key: "event_type", Value: []byte(env.EventType)},
	)
}
