package authn

import (
	"log/slog"
	"net/http"
	"strings"
)

// Middleware attaches the principal from the Authorization header to the
// request context. A missing or invalid token is not rejected here: the
// guard downstream answers NotAuthenticated, so public routes (invitation
// validation) can share the stack.
func Middleware(parser *TokenParser, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}
			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			principal, err := parser.Parse(raw)
			if err != nil {
				if logger != nil {
					logger.Warn("reject bearer token", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithPrincipal(r.Context(), principal)))
		})
	}
}
