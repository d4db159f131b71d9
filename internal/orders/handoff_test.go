package orders

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tortasnery/storefront/pkg/config"
)

func TestWhatsAppHandoffPrefillsSummary(t *testing.T) {
	store := config.StoreConfig{Name: "Tortas Nery", WhatsAppNumber: "+51 997 935 991", Currency: "S/"}
	input := CreateInput{
		Customer: CustomerForm{
			FirstName: " Ana ", LastName: "Pérez", Email: "ana@example.com", Phone: "999",
			EventDate: "2026-12-01", EventTime: "18:00", Address: "Av. Lima 1",
		},
		Items: []LineItem{
			{Name: "Wedding Classic", Quantity: 2, UnitPrice: decimal.RequireFromString("85")},
		},
		Total: decimal.RequireFromString("170"),
	}

	link := WhatsAppHandoff(store, input, "123456")
	require.True(t, strings.HasPrefix(link, "https://wa.me/51997935991?text="))

	parsed, err := url.Parse(link)
	require.NoError(t, err)
	text := parsed.Query().Get("text")
	assert.Contains(t, text, "soy *Ana Pérez*")
	assert.Contains(t, text, "*#123456* por un total de *S/ 170.00*")
	assert.Contains(t, text, "- Wedding Classic (x2)")
	assert.Contains(t, text, "*Notas:* Ninguna")
}
