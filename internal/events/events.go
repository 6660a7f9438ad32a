package events

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced        = "OrderPlaced"
	EventInventoryRestocked = "InventoryRestocked"
	EventOrderShipped       = "OrderShipped"
)

const (
	TopicOrderPlaced        = "order.placed"
	TopicInventoryRestocked = "inventory.restocked"
	TopicOrderShipped       = "order.shipped"
)

var topicByEvent = map[string]string{
	EventOrderPlaced:        TopicOrderPlaced,
	EventInventoryRestocked: TopicInventoryRestocked,
	EventOrderShipped:       TopicOrderShipped,
}

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

type OrderLine struct {
	ProductID           int64           `json:"product_id"`
	Quantity            int             `json:"quantity"`
	UnitPriceAtPurchase decimal.Decimal `json:"unit_price_at_purchase"`
}

type OrderPlacedPayload struct {
	OrderID      int64           `json:"order_id"`
	UserID       *int64          `json:"user_id,omitempty"`
	ContactEmail string          `json:"contact_email"`
	Items        []OrderLine     `json:"items"`
	Total        decimal.Decimal `json:"total"`
}

type InventoryRestockedPayload struct {
	ProductID         int64 `json:"product_id"`
	Added             int   `json:"added"`
	AvailableQuantity int   `json:"available_quantity"`
}

type OrderShippedPayload struct {
	OrderID int64 `json:"order_id"`
}

// New wraps payload in an envelope. Events about one order or product share
// a correlation id, which is also the partition key.
func New(eventType, producer string, correlationID int64, payload any) (Envelope, error) {
	if _, ok := topicByEvent[eventType]; !ok {
		return Envelope{}, fmt.Errorf("unknown event type %q", eventType)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}

	return Envelope{
		EventID:       uuid.NewString(),
		EventType:     eventType,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      producer,
		CorrelationID: strconv.FormatInt(correlationID, 10),
		Payload:       raw,
	}, nil
}

// Topic returns the un-prefixed topic an event type is published on.
func Topic(eventType string) string {
	return topicByEvent[eventType]
}

func UnwrapPayload[T any](payload json.RawMessage) (T, error) {
	var t T
	if err := json.Unmarshal(payload, &t); err != nil {
		return t, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
