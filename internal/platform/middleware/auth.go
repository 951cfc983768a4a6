// Package middleware guards operator routes with signed bearer tokens.
package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"caredex/internal/platform/token"
	derrors "caredex/pkg/domain-errors"
	"caredex/pkg/platform/httputil"
	"caredex/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	Validate(tokenString string) (*token.Claims, error)
}

// RequireRole authenticates the request with a bearer token and checks its
// role claim. The authenticated subject lands in the context so services can
// attribute audited actions. Admin tokens satisfy every role.
func RequireRole(validator TokenValidator, role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "missing bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, derrors.New(derrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.Validate(raw)
			if err != nil {
				logger.WarnContext(ctx, "token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}

			if claims.Role != role && claims.Role != token.RoleAdmin {
				logger.WarnContext(ctx, "insufficient role",
					"subject", claims.Subject,
					"role", claims.Role,
					"required", role,
				)
				httputil.WriteError(w, derrors.New(derrors.CodeForbidden, "insufficient role"))
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithSubject(ctx, claims.Subject)))
		})
	}
}
