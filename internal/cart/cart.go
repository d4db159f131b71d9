package cart

import (
	"github.com/shopspring/decimal"
)

// Item is one cart line. Price is the unit price captured when the product was added.
type Item struct {
	ProductID   int64           `json:"productId"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Quantity    int             `json:"quantity"`
}

// Subtotal is Price × Quantity.
func (i Item) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart holds at most one line per product id.
type Cart struct {
	items []Item
}

// New rehydrates a cart from persisted lines, merging any duplicate product ids.
func New(items []Item) *Cart {
	c := &Cart{}
	for _, item := range items {
		c.AddItem(item, item.Quantity)
	}
	return c
}

// AddItem increments the existing line for product.ProductID or appends a new one.
// Quantities below one count as one.
func (c *Cart) AddItem(product Item, quantity int) {
	if quantity < 1 {
		quantity = 1
	}
	for i := range c.items {
		if c.items[i].ProductID == product.ProductID {
			c.items[i].Quantity += quantity
			return
		}
	}
	product.Quantity = quantity
	c.items = append(c.items, product)
}

// RemoveItem drops the whole line for productID.
func (c *Cart) RemoveItem(productID int64) {
	for i := range c.items {
		if c.items[i].ProductID == productID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.items = nil
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) Count() int {
	n := 0
	for _, item := range c.items {
		n += item.Quantity
	}
	return n
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// Snapshot is the read model returned to callers.
type Snapshot struct {
	Items []Item          `json:"items"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

func (c *Cart) Snapshot() Snapshot {
	return Snapshot{Items: c.Items(), Count: c.Count(), Total: c.Total()}
}
