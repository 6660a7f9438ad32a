package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var ErrProducerClosed = errors.New("producer closed")

// Publisher is what the order service needs from the event bus. Publication
// happens after commit, so implementations must not block on the broker.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer queues messages and writes them to Kafka from a single goroutine.
type Producer struct {
	w           messageWriter
	topicPrefix string
	logger      *zap.Logger

	mu      sync.RWMutex
	closed  bool
	inbox   chan kafka.Message
	closeCh chan struct{}
}

func NewProducer(brokers []string, topicPrefix string, buf int, logger *zap.Logger) *Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w, topicPrefix, buf, logger)
}

func newProducer(w messageWriter, topicPrefix string, buf int, logger *zap.Logger) *Producer {
	return &Producer{
		w:           w,
		topicPrefix: topicPrefix,
		logger:      logger,
		inbox:       make(chan kafka.Message, buf),
		closeCh:     make(chan struct{}),
	}
}

func (p *Producer) Start() {
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			p.write(m)
		}
		if err := p.w.Close(); err != nil {
			p.logger.Warn("close kafka writer", zap.Error(err))
		}
	}()
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.logger.Error("publish event",
			zap.String("topic", m.Topic),
			zap.ByteString("key", m.Key),
			zap.Error(err),
		)
	}
}

// Publish enqueues env. When the queue is full the event is dropped and an
// error returned; the caller's transaction has already committed.
func (p *Producer) Publish(ctx context.Context, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	headers := headerCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, headers)

	msg := kafka.Message{
		Topic:   p.topic(env.EventType),
		Key:     []byte(env.CorrelationID),
		Value:   value,
		Time:    env.OccurredAt,
		Headers: headers.kafkaHeaders(env.EventType),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrProducerClosed
	}

	select {
	case p.inbox <- msg:
		return nil
	default:
		return fmt.Errorf("event queue full, dropped %s %s", env.EventType, env.EventID)
	}
}

func (p *Producer) topic(eventType string) string {
	if p.topicPrefix == "" {
		return Topic(eventType)
	}
	return p.topicPrefix + "." + Topic(eventType)
}

// Close stops accepting events and flushes what is queued.
// Calling it more than once is safe.
func (p *Producer) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.inbox)
	}
	p.mu.Unlock()
	<-p.closeCh
}

type headerCarrier map[string]string

func (c headerCarrier) Get(key string) string { return c[key] }

func (c headerCarrier) Set(key, value string) { c[key] = value }

func (c headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

func (c headerCarrier) kafkaHeaders(eventType string) []kafka.Header {
	headers := []kafka.Header{{Key: "event_type", Value: []byte(eventType)}}
	for k, v := range c {
		headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
	}
	return headers
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Envelope) error { return nil }
