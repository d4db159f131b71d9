package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/tortasnery/storefront/pkg/enums"
)

// SessionPayload captures the data available when minting a session token.
type SessionPayload struct {
	UserID int64
	Email  string
	Role   enums.UserRole
	Name   string
	// JTI is generated when empty.
	JTI string
}

// SessionClaims is the signed session carried by the admin_session cookie
// or a bearer header.
type SessionClaims struct {
	UserID int64          `json:"userId"`
	Email  string         `json:"email"`
	Role   enums.UserRole `json:"role"`
	Name   string         `json:"name"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the session belongs to a back-office user.
func (c *SessionClaims) IsAdmin() bool {
	return c != nil && c.Role == enums.UserRoleAdmin
}
