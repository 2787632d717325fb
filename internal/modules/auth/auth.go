package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrMissingToken = errors.New("missing session token")
	ErrInvalidToken = errors.New("invalid session token")
	ErrShopMismatch = errors.New("session token issued for another shop")
)

// Session is the verified identity behind an admin request.
type Session struct {
	Shop      string    `json:"shop"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Service verifies session tokens issued by the Shopify admin.
type Service interface {
	VerifySessionToken(ctx context.Context, token string) (*Session, error)
}

type shopKey struct{}

// WithShop returns a context carrying the shop domain.
func WithShop(ctx context.Context, shop string) context.Context {
	return context.WithValue(ctx, shopKey{}, shop)
}

// ShopFromContext returns the shop domain set by the session middleware.
func ShopFromContext(ctx context.Context) string {
	shop, _ := ctx.Value(shopKey{}).(string)
	return shop
}
