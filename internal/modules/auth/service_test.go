package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dgrijalva/jwt-go"

	"github.com/georgemunganga/pricing-rules/internal/config"
)

const (
	testKey    = "api-key"
	testSecret = "api-secret"
	testShop   = "demo.myshopify.com"
)

func signToken(t *testing.T, secret string, mutate func(*SessionClaims)) string {
	t.Helper()
	now := time.Now()
	claims := &SessionClaims{
		StandardClaims: jwt.StandardClaims{
			Audience:  testKey,
			Issuer:    "https://" + testShop + "/admin",
			Subject:   "42",
			ExpiresAt: now.Add(time.Minute).Unix(),
			NotBefore: now.Add(-time.Second).Unix(),
			IssuedAt:  now.Add(-time.Second).Unix(),
		},
		Dest: "https://" + testShop,
		Sid:  "session-1",
	}
	if mutate != nil {
		mutate(claims)
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func newTestService(shopDomain string) Service {
	return NewService(config.ShopifyConfig{APIKey: testKey, APISecret: testSecret, ShopDomain: shopDomain})
}

func TestVerifySessionToken(t *testing.T) {
	s, err := newTestService("https://Demo.myshopify.com/").VerifySessionToken(context.Background(), signToken(t, testSecret, nil))
	if err != nil {
		t.Fatalf("VerifySessionToken: %v", err)
	}
	if s.Shop != testShop || s.UserID != "42" || s.SessionID != "session-1" {
		t.Errorf("session = %+v", s)
	}
}

func TestVerifySessionTokenRejects(t *testing.T) {
	tests := []struct {
		name  string
		token func(t *testing.T) string
		want  error
	}{
		{"empty", func(t *testing.T) string { return "" }, ErrMissingToken},
		{"wrong secret", func(t *testing.T) string { return signToken(t, "other", nil) }, ErrInvalidToken},
		{"expired", func(t *testing.T) string {
			return signToken(t, testSecret, func(c *SessionClaims) { c.ExpiresAt = time.Now().Add(-time.Minute).Unix() })
		}, ErrInvalidToken},
		{"not yet valid", func(t *testing.T) string {
			return signToken(t, testSecret, func(c *SessionClaims) { c.NotBefore = time.Now().Add(time.Hour).Unix() })
		}, ErrInvalidToken},
		{"wrong audience", func(t *testing.T) string {
			return signToken(t, testSecret, func(c *SessionClaims) { c.Audience = "someone-else" })
		}, ErrInvalidToken},
		{"missing dest", func(t *testing.T) string {
			return signToken(t, testSecret, func(c *SessionClaims) { c.Dest = "" })
		}, ErrInvalidToken},
		{"other shop", func(t *testing.T) string {
			return signToken(t, testSecret, func(c *SessionClaims) { c.Dest = "https://other.myshopify.com" })
		}, ErrShopMismatch},
	}
	svc := newTestService(testShop)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifySessionToken(context.Background(), tt.token(t))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerifySessionTokenAnyShopWhenUnconfigured(t *testing.T) {
	token := signToken(t, testSecret, func(c *SessionClaims) { c.Dest = "https://other.myshopify.com" })
	s, err := newTestService("").VerifySessionToken(context.Background(), token)
	if err != nil {
		t.Fatalf("VerifySessionToken: %v", err)
	}
	if s.Shop != "other.myshopify.com" {
		t.Errorf("shop = %q", s.Shop)
	}
}

func TestMiddleware(t *testing.T) {
	var gotShop string
	h := Middleware(newTestService(testShop))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotShop = ShopFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer " + signToken(t, testSecret, nil), http.StatusNoContent},
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"other shop", "Bearer " + signToken(t, testSecret, func(c *SessionClaims) { c.Dest = "https://other.myshopify.com" }), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotShop = ""
			req := httptest.NewRequest(http.MethodGet, "/api/v1/pricing/rules", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusNoContent && gotShop != testShop {
				t.Errorf("shop in context = %q", gotShop)
			}
		})
	}
}
