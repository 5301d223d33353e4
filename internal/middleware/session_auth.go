package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/auth"
	"github.com/hatchwork/backend/internal/web"
)

type contextKey string

const ctxAccountKey contextKey = "account"

// AccountLookup resolves a token subject to a full account record.
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*auth.Account, error)
}

// SessionAuth authenticates requests by validating the Bearer JWT and
// loading the account it names. On success the account is placed into the
// request context for AccountFromCtx.
func SessionAuth(authSvc auth.Service, accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := extractBearer(r)
			if raw == "" {
				web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "missing or malformed Authorization header")
				return
			}
			accountID, err := authSvc.ValidateToken(r.Context(), raw)
			if err != nil {
				web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "invalid token")
				return
			}
			acc, err := accounts.GetByID(r.Context(), accountID)
			if err != nil {
				web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unknown account")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), acc)))
		})
	}
}

// AccountFromCtx returns the authenticated account or nil.
func AccountFromCtx(ctx context.Context) *auth.Account {
	acc, _ := ctx.Value(ctxAccountKey).(*auth.Account)
	return acc
}

// WithAccount returns a context carrying the given account.
func WithAccount(ctx context.Context, acc *auth.Account) context.Context {
	return context.WithValue(ctx, ctxAccountKey, acc)
}

func extractBearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}
