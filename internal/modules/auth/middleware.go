package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// Middleware rejects requests without a valid bearer session token and
// stores the token's shop in the request context.
func Middleware(svc Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			session, err := svc.VerifySessionToken(r.Context(), token)
			if err != nil {
				code := http.StatusUnauthorized
				if errors.Is(err, ErrShopMismatch) {
					code = http.StatusForbidden
				}
				zerolog.Ctx(r.Context()).Warn().Err(err).Msg("session token rejected")
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
				return
			}

			l := zerolog.Ctx(r.Context())
			l.UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("shop", session.Shop)
			})
			next.ServeHTTP(w, r.WithContext(WithShop(r.Context(), session.Shop)))
		})
	}
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
