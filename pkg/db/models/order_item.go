package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem is written once at checkout. ProductName and UnitPrice are
// snapshots; ProductID survives product deletion as NULL.
type OrderItem struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderID     int64           `gorm:"column:order_id;not null;index"`
	ProductID   *int64          `gorm:"column:product_id"`
	ProductName string          `gorm:"column:product_name;not null"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(10,2);not null"`
	Subtotal    decimal.Decimal `gorm:"column:subtotal;type:numeric(10,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (OrderItem) TableName() string { return "order_items" }
