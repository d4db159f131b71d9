package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/tortasnery/storefront/api/middleware"
	"github.com/tortasnery/storefront/api/responses"
	"github.com/tortasnery/storefront/api/validators"
	"github.com/tortasnery/storefront/internal/cart"
	"github.com/tortasnery/storefront/internal/orders"
	"github.com/tortasnery/storefront/pkg/config"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

// checkoutItem accepts the cart line shape so clients can post their local
// cart unchanged.
type checkoutItem struct {
	ProductID   *int64          `json:"productId"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
}

type checkoutRequest struct {
	Customer    orders.CustomerForm `json:"customer"`
	Items       []checkoutItem      `json:"items"`
	Total       *decimal.Decimal    `json:"total,omitempty"`
	OrderNumber string              `json:"orderNumber,omitempty"`
}

type checkoutResponse struct {
	OrderID     int64  `json:"orderId"`
	OrderNumber string `json:"orderNumber"`
	WhatsAppURL string `json:"whatsappUrl"`
}

// Checkout places an order from the posted items, or from the stored cart
// when the body carries none. The stored cart is cleared once the order is
// committed.
func Checkout(svc orders.Service, carts cart.Service, store config.StoreConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload checkoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		cartID := middleware.CartIDFromContext(ctx)
		input := orders.CreateInput{
			Customer:    payload.Customer,
			OrderNumber: payload.OrderNumber,
			Source:      orders.SourcePayload,
		}

		if len(payload.Items) > 0 {
			input.Items = make([]orders.LineItem, 0, len(payload.Items))
			total := decimal.Zero
			for _, it := range payload.Items {
				input.Items = append(input.Items, orders.LineItem{
					ProductID: it.ProductID,
					Name:      it.Name,
					Quantity:  it.Quantity,
					UnitPrice: it.Price,
				})
				total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
			}
			input.Total = total
			if payload.Total != nil {
				input.Total = *payload.Total
			}
		} else if carts != nil && cartID != "" {
			snap, err := carts.Get(ctx, cartID)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			input.Items = fromCart(snap.Items)
			input.Total = snap.Total
			input.Source = orders.SourceCart
		}

		if claims := middleware.SessionFromContext(ctx); claims != nil {
			uid := claims.UserID
			input.CustomerID = &uid
		}

		created, err := svc.CreateOrder(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if carts != nil && cartID != "" {
			if _, err := carts.Clear(ctx, cartID); err != nil && logg != nil {
				logg.Warn(logg.WithField(ctx, "error", err.Error()), "checkout.cart_clear_failed")
			}
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkoutResponse{
			OrderID:     created.OrderID,
			OrderNumber: created.OrderNumber,
			WhatsAppURL: orders.WhatsAppHandoff(store, input, created.OrderNumber),
		})
	}
}

func fromCart(items []cart.Item) []orders.LineItem {
	out := make([]orders.LineItem, 0, len(items))
	for _, it := range items {
		pid := it.ProductID
		out = append(out, orders.LineItem{
			ProductID: &pid,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.Price,
		})
	}
	return out
}
