package orders

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tortasnery/storefront/pkg/db/models"
)

// CustomerForm is the checkout contact block.
type CustomerForm struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone" validate:"required"`
	EventDate string `json:"eventDate" validate:"required"`
	EventTime string `json:"eventTime" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Notes     string `json:"notes"`
}

func (f CustomerForm) trimmed() CustomerForm {
	return CustomerForm{
		FirstName: strings.TrimSpace(f.FirstName),
		LastName:  strings.TrimSpace(f.LastName),
		Email:     strings.TrimSpace(f.Email),
		Phone:     strings.TrimSpace(f.Phone),
		EventDate: strings.TrimSpace(f.EventDate),
		EventTime: strings.TrimSpace(f.EventTime),
		Address:   strings.TrimSpace(f.Address),
		Notes:     strings.TrimSpace(f.Notes),
	}
}

// FullName joins first and last name the way orders store it.
func (f CustomerForm) FullName() string {
	return f.FirstName + " " + f.LastName
}

// LineItem is one cart line as submitted at checkout.
type LineItem struct {
	ProductID *int64          `json:"productId"`
	Name      string          `json:"name" validate:"required"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	UnitPrice decimal.Decimal `json:"price"`
}

// CreateInput carries everything CreateOrder persists. An empty OrderNumber
// is generated; Source labels the created-orders metric.
type CreateInput struct {
	Customer    CustomerForm    `json:"customer" validate:"required"`
	Items       []LineItem      `json:"items" validate:"required,min=1,dive"`
	Total       decimal.Decimal `json:"total"`
	OrderNumber string          `json:"orderNumber"`
	CustomerID  *int64          `json:"-"`
	Status      string          `json:"-"`
	Source      string          `json:"-"`
}

type Created struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
}

type ItemDTO struct {
	ID          int64           `json:"id"`
	ProductID   *int64          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type OrderDTO struct {
	ID              int64           `json:"id"`
	OrderNumber     string          `json:"orderNumber"`
	CustomerID      *int64          `json:"customerId,omitempty"`
	CustomerName    string          `json:"customerName"`
	CustomerEmail   string          `json:"customerEmail"`
	CustomerPhone   string          `json:"customerPhone"`
	EventDate       string          `json:"eventDate"`
	EventTime       string          `json:"eventTime"`
	DeliveryAddress string          `json:"deliveryAddress"`
	Notes           string          `json:"notes,omitempty"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          string          `json:"status"`
	PaymentMethod   string          `json:"paymentMethod"`
	Items           []ItemDTO       `json:"items,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

func FromModel(o models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		CustomerID:      o.CustomerID,
		CustomerName:    o.CustomerName,
		CustomerEmail:   o.CustomerEmail,
		CustomerPhone:   o.CustomerPhone,
		EventDate:       o.EventDate,
		EventTime:       o.EventTime,
		DeliveryAddress: o.DeliveryAddress,
		TotalAmount:     o.TotalAmount,
		Status:          o.Status.String(),
		PaymentMethod:   o.PaymentMethod,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.Notes != nil {
		dto.Notes = *o.Notes
	}
	for _, it := range o.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:          it.ID,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Subtotal:    it.Subtotal,
		})
	}
	return dto
}

func FromModels(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for _, o := range rows {
		out = append(out, FromModel(o))
	}
	return out
}
