package auth

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/georgemunganga/pricing-rules/internal/config"
)

// SessionClaims are the claims of an App Bridge session token.
type SessionClaims struct {
	jwt.StandardClaims
	Dest string `json:"dest"`
	Sid  string `json:"sid,omitempty"`
}

type service struct {
	apiKey     string
	apiSecret  []byte
	shopDomain string
}

// NewService creates a session token verifier. When cfg.ShopDomain is set only
// tokens for that shop are accepted.
func NewService(cfg config.ShopifyConfig) Service {
	return &service{
		apiKey:     cfg.APIKey,
		apiSecret:  []byte(cfg.APISecret),
		shopDomain: normalizeShop(cfg.ShopDomain),
	}
}

func (s *service) VerifySessionToken(ctx context.Context, tokenString string) (*Session, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}
	if len(s.apiSecret) == 0 {
		return nil, fmt.Errorf("%w: no api secret configured", ErrInvalidToken)
	}

	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.apiSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !claims.VerifyAudience(s.apiKey, true) {
		return nil, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	dest, err := url.Parse(claims.Dest)
	if err != nil || dest.Host == "" {
		return nil, fmt.Errorf("%w: bad dest claim", ErrInvalidToken)
	}
	shop := normalizeShop(dest.Host)
	if s.shopDomain != "" && shop != s.shopDomain {
		return nil, ErrShopMismatch
	}

	return &Session{
		Shop:      shop,
		UserID:    claims.Subject,
		SessionID: claims.Sid,
		ExpiresAt: time.Unix(claims.ExpiresAt, 0).UTC(),
	}, nil
}

func normalizeShop(domain string) string {
	domain = strings.ToLower(strings.TrimSpace(domain))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	return strings.TrimRight(domain, "/")
}
