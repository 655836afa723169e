package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dstorelabs/store-backend/internal/api/httpx"
	"github.com/dstorelabs/store-backend/internal/auth"
)

type ctxKey string

const ctxIdentityKey ctxKey = "identity"

// Identity returns the authenticated caller id set by Auth. This is the
// buyer/seller identity every ledger operation consumes.
func Identity(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxIdentityKey).(string)
	return v, ok
}

// WithIdentity is exposed for tests that call handlers directly.
func WithIdentity(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxIdentityKey, id)
}

type AuthMiddleware struct {
	TM *auth.TokenManager
}

func NewAuthMiddleware(tm *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{TM: tm}
}

// Optional sets the caller identity when a valid access token is present and
// lets the request through anonymously otherwise. Used on public catalog
// routes so link redaction can see who is asking.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah != "" && strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			token := strings.TrimSpace(ah[len("Bearer "):])
			if claims, isRefresh, err := m.TM.ParseAny(token); err == nil && !isRefresh {
				r = r.WithContext(WithIdentity(r.Context(), claims.UserID))
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		claims, isRefresh, err := m.TM.ParseAny(token)
		if err != nil || isRefresh {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), claims.UserID)))
	})
}
