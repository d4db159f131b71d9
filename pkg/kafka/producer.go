package kafka

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/logger"
)

// ErrBufferFull is returned when the producer inbox cannot accept more messages.
var ErrBufferFull = errors.New("kafka producer buffer full")

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("kafka producer closed")

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer buffers messages in memory and writes them from a single goroutine.
type Producer struct {
	w      writer
	logg   *logger.Logger
	inbox  chan kafka.Message
	done   chan struct{}
	mu     sync.RWMutex
	closed bool
}

// NewProducer builds a hash-balanced writer for cfg.OrdersTopic.
func NewProducer(cfg config.KafkaConfig, logg *logger.Logger) (*Producer, error) {
	brokers := cfg.BrokerList()
	if len(brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.OrdersTopic == "" {
		return nil, errors.New("kafka orders topic is required")
	}
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        cfg.OrdersTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}
	return newProducer(w, cfg.BufferSize, logg), nil
}

func newProducer(w writer, buf int, logg *logger.Logger) *Producer {
	if buf <= 0 {
		buf = 1
	}
	return &Producer{
		w:     w,
		logg:  logg,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

// Start runs the write loop until Close drains the inbox.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for m := range p.inbox {
			if err := p.w.WriteMessages(context.WithoutCancel(ctx), m); err != nil && p.logg != nil {
				p.logg.Error(p.logg.WithField(ctx, "kafka_key", string(m.Key)), "kafka.write_failed", err)
			}
		}
		if err := p.w.Close(); err != nil && p.logg != nil {
			p.logg.Error(ctx, "kafka.close_failed", err)
		}
	}()
}

// Publish enqueues a message without blocking.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value, Time: time.Now(), Headers: headers}:
		return nil
	default:
		return ErrBufferFull
	}
}

// Close stops accepting messages and waits for buffered ones to be written.
func (p *Producer) Close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.inbox)
	p.mu.Unlock()

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
