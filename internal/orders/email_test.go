package orders

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db/models"
)

func TestBuildConfirmation(t *testing.T) {
	notes := "Decorar con <flores>"
	order := models.Order{
		OrderNumber:     "482913",
		CustomerEmail:   "ana@example.com",
		CustomerPhone:   "999888777",
		EventDate:       "2026-12-24",
		EventTime:       "18:00",
		DeliveryAddress: "Av. Larco 100",
		Notes:           &notes,
		TotalAmount:     decimal.RequireFromString("170"),
		Items: []models.OrderItem{
			{ProductName: "Wedding Classic", Quantity: 2, Subtotal: decimal.RequireFromString("170")},
		},
	}
	store := config.StoreConfig{Name: "Tortas Nery", AdminEmail: "admin@tortasnery.com", WhatsAppNumber: "51997935991", Currency: "S/"}

	msg, err := BuildConfirmation(order, "Ana", store)
	require.NoError(t, err)
	assert.Equal(t, []string{"ana@example.com", "admin@tortasnery.com"}, msg.To)
	assert.Equal(t, "Confirmación de Pedido #482913 - Tortas Nery", msg.Subject)
	assert.Contains(t, msg.HTML, "¡Gracias por tu pedido, Ana!")
	assert.Contains(t, msg.HTML, "Wedding Classic (x2)")
	assert.Contains(t, msg.HTML, "S/ 170.00")
	assert.Contains(t, msg.HTML, "2026-12-24")
	assert.Contains(t, msg.HTML, `href="https://wa.me/51997935991"`)
	assert.Contains(t, msg.HTML, "&#43;51 997 935 991")
	assert.Contains(t, msg.HTML, "Tortas Nery - Arte Comestible")
	assert.Contains(t, msg.HTML, "Decorar con &lt;flores&gt;")
}

func TestBuildConfirmationWithoutAdminOrNotes(t *testing.T) {
	order := models.Order{OrderNumber: "1", CustomerEmail: "x@example.com"}
	msg, err := BuildConfirmation(order, "X", config.StoreConfig{Name: "Tortas Nery"})
	require.NoError(t, err)
	assert.Equal(t, []string{"x@example.com"}, msg.To)
	assert.NotContains(t, msg.HTML, "Notas:")
}

func TestWhatsAppLabel(t *testing.T) {
	assert.Equal(t, "+51 997 935 991", whatsAppLabel("+51 997-935-991"))
	assert.Equal(t, "+12345", whatsAppLabel("12345"))
}
