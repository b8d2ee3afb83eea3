package middleware

import (
	"context"
	"net/http"
	"strings"

	"hav/internal/ledger"
	"hav/internal/utils"
)

type contextKey string

// CallerKey holds the authenticated ledger.Address of the request sender.
const CallerKey contextKey = "caller"

// AuthJWT requires a bearer token whose subject is an account address.
func AuthJWT(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				utils.Fail(w, http.StatusUnauthorized, "missing bearer token")
				return
			}
			sub, err := utils.ParseJWT(token, secret)
			if err != nil {
				utils.Fail(w, http.StatusUnauthorized, "invalid token")
				return
			}
			addr, err := ledger.ParseAddress(sub)
			if err != nil {
				utils.Fail(w, http.StatusUnauthorized, "invalid token subject")
				return
			}
			ctx := context.WithValue(r.Context(), CallerKey, addr)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Caller returns the sender stored by AuthJWT.
func Caller(ctx context.Context) (ledger.Address, bool) {
	addr, ok := ctx.Value(CallerKey).(ledger.Address)
	return addr, ok
}
