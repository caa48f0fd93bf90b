package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"

	apperrors "licport/internal/errors"
	"licport/internal/infrastructure"
	"licport/pkg/contracts/domain"
)

const callerKey contextKey = "caller"

// authClaims is the token payload issued by the external identity
// service. The subject carries the user ID.
type authClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies the bearer token on each request and attaches
// the resolved caller to the context. Tokens are HS256, signed by the
// identity service with the shared secret.
func Authenticator(secret string, logger *slog.Logger) func(next http.Handler) http.Handler {
	key := []byte(secret)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			token, err := bearerToken(r)
			if err != nil {
				logger.WarnContext(ctx, "missing or malformed authorization header",
					"method", r.Method,
					"path", r.URL.Path,
				)
				renderUnauthorized(w, r, err.Error())
				return
			}

			caller, err := parseCaller(token, key)
			if err != nil {
				logger.WarnContext(ctx, "token rejected",
					"method", r.Method,
					"path", r.URL.Path,
					"error", err.Error(),
				)
				renderUnauthorized(w, r, "invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, callerKey, caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects requests whose caller does not hold the admin
// role. Must run after Authenticator. The service layer re-checks the
// role as well; this is the transport edge of the same rule.
func RequireAdmin(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			caller, ok := CallerFromContext(ctx)
			if !ok {
				renderUnauthorized(w, r, "authentication required")
				return
			}
			if !caller.IsAdmin() {
				logger.WarnContext(ctx, "admin route denied",
					"method", r.Method,
					"path", r.URL.Path,
					"caller_id", caller.ID,
				)
				problem := apperrors.NewProblemDetails(
					http.StatusForbidden,
					"/errors/forbidden",
					"Forbidden",
					"This operation requires the admin role",
					r.URL.Path,
				).WithExtension("trace_id", infrastructure.GetTraceID(ctx))
				render.Render(w, r, problem)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// CallerFromContext returns the caller attached by Authenticator.
func CallerFromContext(ctx context.Context) (domain.Caller, bool) {
	caller, ok := ctx.Value(callerKey).(domain.Caller)
	return caller, ok
}

// WithCaller attaches a caller to the context. Intended for tests and
// internal invocations that bypass the HTTP edge.
func WithCaller(ctx context.Context, caller domain.Caller) context.Context {
	return context.WithValue(ctx, callerKey, caller)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing authorization header")
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", fmt.Errorf("authorization header must be: Bearer <token>")
	}

	return parts[1], nil
}

func parseCaller(raw string, key []byte) (domain.Caller, error) {
	parsed, err := jwt.ParseWithClaims(raw, &authClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return domain.Caller{}, err
	}

	claims, ok := parsed.Claims.(*authClaims)
	if !ok || !parsed.Valid {
		return domain.Caller{}, fmt.Errorf("invalid token claims")
	}
	if claims.Subject == "" {
		return domain.Caller{}, fmt.Errorf("token has no subject")
	}

	role := domain.Role(claims.Role)
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}

	return domain.Caller{ID: claims.Subject, Role: role}, nil
}

func renderUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	problem := apperrors.NewProblemDetails(
		http.StatusUnauthorized,
		"/errors/unauthorized",
		"Unauthorized",
		detail,
		r.URL.Path,
	).WithExtension("trace_id", infrastructure.GetTraceID(r.Context()))
	render.Render(w, r, problem)
}
