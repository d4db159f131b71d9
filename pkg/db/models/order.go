package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/tortasnery/storefront/pkg/enums"
)

// Order stores the customer snapshot captured at checkout. TotalAmount is
// fixed at creation and never recomputed.
type Order struct {
	ID              int64             `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber     string            `gorm:"column:order_number;not null;uniqueIndex"`
	CustomerID      *int64            `gorm:"column:customer_id"`
	CustomerName    string            `gorm:"column:customer_name;not null"`
	CustomerEmail   string            `gorm:"column:customer_email;not null"`
	CustomerPhone   string            `gorm:"column:customer_phone;not null"`
	EventDate       string            `gorm:"column:event_date;not null"`
	EventTime       string            `gorm:"column:event_time;not null"`
	DeliveryAddress string            `gorm:"column:delivery_address;not null"`
	Notes           *string           `gorm:"column:notes"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(10,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null"`
	PaymentMethod   string            `gorm:"column:payment_method;not null"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }
