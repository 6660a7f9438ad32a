package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func TestNewEnvelope(t *testing.T) {
	env, err := New(EventOrderPlaced, "storefront-api", 42, OrderPlacedPayload{
		OrderID:      42,
		ContactEmail: "buyer@example.com",
		Items:        []OrderLine{{ProductID: 1, Quantity: 2, UnitPriceAtPurchase: decimal.RequireFromString("75.00")}},
		Total:        decimal.RequireFromString("150.00"),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, 1, env.EventVersion)
	assert.Equal(t, "42", env.CorrelationID)

	payload, err := UnwrapPayload[OrderPlacedPayload](env.Payload)
	require.NoError(t, err)
	assert.Equal(t, int64(42), payload.OrderID)
	assert.True(t, payload.Total.Equal(decimal.RequireFromString("150")))
}

func TestNewEnvelopeUnknownType(t *testing.T) {
	_, err := New("Nope", "storefront-api", 1, struct{}{})
	assert.Error(t, err)
}

func TestProducerWritesPrefixedTopicWithTraceHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})
	tp := sdktrace.NewTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	ctx, span := tp.Tracer("test").Start(context.Background(), "checkout")
	defer span.End()

	w := &fakeWriter{}
	p := newProducer(w, "storefront", 4, zap.NewNop())
	p.Start()

	env, err := New(EventOrderShipped, "storefront-api", 7, OrderShippedPayload{OrderID: 7})
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, env))

	p.Close()

	w.mu.Lock()
	defer w.mu.Unlock()
	require.Len(t, w.msgs, 1)
	assert.True(t, w.closed)

	msg := w.msgs[0]
	assert.Equal(t, "storefront.order.shipped", msg.Topic)
	assert.Equal(t, []byte("7"), msg.Key)

	headers := map[string]string{}
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, EventOrderShipped, headers["event_type"])
	assert.Contains(t, headers["traceparent"], span.SpanContext().TraceID().String())

	var decoded Envelope
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, env.EventID, decoded.EventID)
}

func TestProducerRejectsWhenFullOrClosed(t *testing.T) {
	p := newProducer(&fakeWriter{}, "", 1, zap.NewNop())

	env, err := New(EventInventoryRestocked, "storefront-api", 3, InventoryRestockedPayload{ProductID: 3, Added: 5})
	require.NoError(t, err)

	require.NoError(t, p.Publish(context.Background(), env))
	assert.Error(t, p.Publish(context.Background(), env), "queue of one is full until started")

	p.Start()
	p.Close()
	p.Close()

	assert.ErrorIs(t, p.Publish(context.Background(), env), ErrProducerClosed)
}

func TestProducerPublishRacingClose(t *testing.T) {
	p := newProducer(&fakeWriter{}, "", 512, zap.NewNop())
	p.Start()

	env, err := New(EventInventoryRestocked, "storefront-api", 3, InventoryRestockedPayload{ProductID: 3, Added: 5})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if err := p.Publish(context.Background(), env); err != nil && !errors.Is(err, ErrProducerClosed) {
					t.Errorf("unexpected publish error: %v", err)
					return
				}
			}
		}()
	}
	p.Close()
	wg.Wait()
}

func TestNopPublisher(t *testing.T) {
	var pub Publisher = Nop{}
	assert.NoError(t, pub.Publish(context.Background(), Envelope{}))
}
