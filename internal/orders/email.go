package orders

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/db/models"
	"github.com/tortasnery/storefront/pkg/mailer"
)

var confirmationTemplate = template.Must(template.New("confirmation").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; color: #333;">
  <h1 style="color: #d63384;">¡Gracias por tu pedido, {{.FirstName}}!</h1>
  <p>Hemos recibido tu pedido <strong>#{{.OrderNumber}}</strong>. Te contactaremos pronto para coordinar los detalles.</p>
  <h2>Detalle del pedido</h2>
  <table style="width: 100%; border-collapse: collapse;">
    {{- range .Items}}
    <tr>
      <td style="padding: 8px; border-bottom: 1px solid #eee;">{{.Name}} (x{{.Quantity}})</td>
      <td style="padding: 8px; border-bottom: 1px solid #eee; text-align: right;">{{$.Currency}} {{.Subtotal}}</td>
    </tr>
    {{- end}}
    <tr>
      <td style="padding: 8px;"><strong>Total</strong></td>
      <td style="padding: 8px; text-align: right;"><strong>{{.Currency}} {{.Total}}</strong></td>
    </tr>
  </table>
  <h2>Datos del evento</h2>
  <p><strong>Fecha:</strong> {{.EventDate}}<br>
  <strong>Hora:</strong> {{.EventTime}}<br>
  <strong>Dirección:</strong> {{.Address}}<br>
  <strong>Teléfono:</strong> {{.Phone}}
  {{- if .Notes}}<br>
  <strong>Notas:</strong> {{.Notes}}{{end}}</p>
  <p>¿Consultas? Escríbenos por WhatsApp: <a href="{{.WhatsAppURL}}">{{.WhatsAppLabel}}</a></p>
  <p style="color: #999; font-size: 12px;">{{.StoreName}} - Arte Comestible</p>
</div>`))

type confirmationItem struct {
	Name     string
	Quantity int
	Subtotal string
}

type confirmationData struct {
	FirstName     string
	OrderNumber   string
	Items         []confirmationItem
	Total         string
	Currency      string
	EventDate     string
	EventTime     string
	Address       string
	Phone         string
	Notes         string
	WhatsAppURL   string
	WhatsAppLabel string
	StoreName     string
}

// BuildConfirmation renders the order confirmation sent to the customer and
// the store admin.
func BuildConfirmation(order models.Order, firstName string, store config.StoreConfig) (mailer.Message, error) {
	data := confirmationData{
		FirstName:     firstName,
		OrderNumber:   order.OrderNumber,
		Total:         order.TotalAmount.StringFixed(2),
		Currency:      store.Currency,
		EventDate:     order.EventDate,
		EventTime:     order.EventTime,
		Address:       order.DeliveryAddress,
		Phone:         order.CustomerPhone,
		WhatsAppURL:   store.WhatsAppURL(),
		WhatsAppLabel: whatsAppLabel(store.WhatsAppNumber),
		StoreName:     store.Name,
	}
	if order.Notes != nil {
		data.Notes = *order.Notes
	}
	for _, it := range order.Items {
		data.Items = append(data.Items, confirmationItem{
			Name:     it.ProductName,
			Quantity: it.Quantity,
			Subtotal: it.Subtotal.StringFixed(2),
		})
	}

	var body bytes.Buffer
	if err := confirmationTemplate.Execute(&body, data); err != nil {
		return mailer.Message{}, fmt.Errorf("render confirmation email: %w", err)
	}

	to := []string{order.CustomerEmail}
	if admin := strings.TrimSpace(store.AdminEmail); admin != "" {
		to = append(to, admin)
	}
	return mailer.Message{
		To:      to,
		Subject: fmt.Sprintf("Confirmación de Pedido #%s - %s", order.OrderNumber, store.Name),
		HTML:    body.String(),
	}, nil
}

// whatsAppLabel formats a Peruvian number as "+51 997 935 991".
func whatsAppLabel(number string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, number)
	if len(digits) != 11 {
		return "+" + digits
	}
	return fmt.Sprintf("+%s %s %s %s", digits[:2], digits[2:5], digits[5:8], digits[8:])
}
