package events

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
)

// Envelope is the wire format shared by every driver.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Producer   string          `json:"producer"`
	Payload    json.RawMessage `json:"payload"`
}

type OrderCreatedPayload struct {
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	CustomerEmail string          `json:"customer_email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	ItemCount     int             `json:"item_count"`
}

type OrderStatusChangedPayload struct {
	OrderID     int64  `json:"order_id"`
	OrderNumber string `json:"order_number"`
	From        string `json:"from"`
	To          string `json:"to"`
}
