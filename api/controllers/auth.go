package controllers

import (
	"net/http"
	"time"

	"github.com/tortasnery/storefront/api/middleware"
	"github.com/tortasnery/storefront/api/responses"
	"github.com/tortasnery/storefront/api/validators"
	"github.com/tortasnery/storefront/internal/auth"
	"github.com/tortasnery/storefront/internal/orders"
	"github.com/tortasnery/storefront/internal/users"
	"github.com/tortasnery/storefront/pkg/config"
	pkgerrors "github.com/tortasnery/storefront/pkg/errors"
	"github.com/tortasnery/storefront/pkg/logger"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

type sessionResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *users.UserDTO `json:"user"`
}

// AuthLogin verifies credentials and issues the session both as a body token
// and as the HTTP-only session cookie.
func AuthLogin(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload loginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		sess, err := svc.Login(r.Context(), payload.Email, payload.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		expiresAt := time.Now().Add(cfg.Expiration())
		if sess.Claims != nil && sess.Claims.ExpiresAt != nil {
			expiresAt = sess.Claims.ExpiresAt.Time
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    sess.Token,
			Path:     "/",
			Expires:  expiresAt,
			HttpOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		responses.WriteSuccess(w, sessionResponse{
			Token:     sess.Token,
			ExpiresAt: expiresAt,
			User:      users.FromModel(sess.User),
		})
	}
}

func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}

		var payload registerRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		user, err := svc.Register(r.Context(), auth.RegisterInput{
			FullName: validators.SanitizeString(payload.Name, 120),
			Email:    payload.Email,
			Password: payload.Password,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, users.FromModel(user))
	}
}

// AuthLogout revokes the presented session, if any, and always clears the cookie.
func AuthLogout(svc auth.Service, cfg config.JWTConfig, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc != nil {
			if err := svc.Logout(r.Context(), middleware.SessionFromContext(r.Context())); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}
		http.SetCookie(w, &http.Cookie{
			Name:     cfg.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Expires:  time.Unix(0, 0),
			HttpOnly: true,
			Secure:   cfg.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
		responses.WriteSuccess(w, map[string]bool{"loggedOut": true})
	}
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
			return
		}
		user, err := svc.Me(r.Context(), middleware.SessionFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(user))
	}
}

// MyOrders lists the orders placed with the session user's email.
func MyOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}
		claims := middleware.SessionFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
			return
		}
		rows, err := svc.ListByEmail(r.Context(), claims.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, orders.FromModels(rows))
	}
}
