package orders

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tortasnery/storefront/pkg/config"
)

// WhatsAppHandoff builds the wa.me link the customer opens after checkout,
// prefilled with the order summary addressed to the store.
func WhatsAppHandoff(store config.StoreConfig, input CreateInput, orderNumber string) string {
	form := input.Customer.trimmed()
	notes := form.Notes
	if notes == "" {
		notes = "Ninguna"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hola %s, soy *%s*.\n\n", store.Name, form.FullName())
	fmt.Fprintf(&b, "He realizado el pedido *#%s* por un total de *%s %s*.\n\n", orderNumber, store.Currency, input.Total.StringFixed(2))
	b.WriteString("*Detalles del Pedido:*\n")
	for _, it := range input.Items {
		fmt.Fprintf(&b, "- %s (x%d)\n", strings.TrimSpace(it.Name), it.Quantity)
	}
	fmt.Fprintf(&b, "\n*Fecha del Evento:* %s a las %s\n", form.EventDate, form.EventTime)
	fmt.Fprintf(&b, "*Envío a:* %s\n", form.Address)
	fmt.Fprintf(&b, "*Notas:* %s\n", notes)
	fmt.Fprintf(&b, "*Email:* %s", form.Email)

	return store.WhatsAppURL() + "?text=" + url.QueryEscape(b.String())
}
