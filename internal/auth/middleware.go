package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/respond"
)

// contextKey is unexported so only this package can read or write the
// account stored in a request context.
type contextKey string

const accountKey contextKey = "account"

// IdentityResolver loads the account a validated token refers to.
// It returns an error wrapping apperror.ErrUnauthorized when the account
// no longer exists.
type IdentityResolver interface {
	Identity(ctx context.Context, claims *Claims) (*model.Account, error)
}

// GuardConfig configures RequireAuth.
type GuardConfig struct {
	// HeaderPrefix is the scheme in "Authorization: <prefix> <token>". It is
	// matched case-insensitively. "JWT" is always accepted as well.
	HeaderPrefix string
	// Realm is reported in the WWW-Authenticate header of 401 responses.
	Realm string
}

// RequireAuth returns a decorator that rejects requests without a valid
// token with 401 and otherwise puts the resolved account in the context.
//
// Failures, in the order they are checked:
//
//	no Authorization header        -> "request does not contain an access token"
//	scheme other than the prefix   -> "unsupported authorization type"
//	scheme without a token         -> "token missing"
//	more than one token            -> "token contains spaces"
//	bad signature, issuer, claims  -> "invalid token"
//	exp in the past                -> "token has expired"
//	identity no longer in the db   -> "user does not exist"
func RequireAuth(tokens *TokenService, resolver IdentityResolver, cfg GuardConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	if cfg.HeaderPrefix == "" {
		cfg.HeaderPrefix = "Bearer"
	}
	if cfg.Realm == "" {
		cfg.Realm = "Login Required"
	}
	challenge := fmt.Sprintf(`%s realm=%q`, cfg.HeaderPrefix, cfg.Realm)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := bearerToken(r, cfg.HeaderPrefix)
			if err != nil {
				logger.Debug("auth rejected", zap.String("path", r.URL.Path), zap.Error(err))
				unauthorized(w, challenge, err)
				return
			}

			claims, err := tokens.Validate(raw)
			if err != nil {
				logger.Debug("token rejected", zap.String("path", r.URL.Path), zap.Error(err))
				msg := "invalid token"
				if errors.Is(err, ErrTokenExpired) {
					msg = "token has expired"
				}
				unauthorized(w, challenge, apperror.Unauthorized(msg))
				return
			}

			account, err := resolver.Identity(r.Context(), claims)
			if err != nil {
				if !errors.Is(err, apperror.ErrUnauthorized) {
					logger.Error("resolving token identity",
						zap.Int64("identity", claims.Identity), zap.Error(err))
					respond.Error(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
					return
				}
				logger.Warn("token for unknown identity", zap.Int64("identity", claims.Identity))
				unauthorized(w, challenge, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccount(r.Context(), account)))
		})
	}
}

// WithAccount returns a copy of ctx carrying account.
func WithAccount(ctx context.Context, account *model.Account) context.Context {
	return context.WithValue(ctx, accountKey, account)
}

// AccountFromContext returns the account bound by RequireAuth. ok is false
// on routes that are not protected.
func AccountFromContext(ctx context.Context) (*model.Account, bool) {
	a, ok := ctx.Value(accountKey).(*model.Account)
	return a, ok && a != nil
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request, prefix string) (string, error) {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 0 {
		return "", apperror.Unauthorized("request does not contain an access token")
	}
	if !strings.EqualFold(parts[0], prefix) && !strings.EqualFold(parts[0], "JWT") {
		return "", apperror.Unauthorized("unsupported authorization type")
	}
	switch len(parts) {
	case 1:
		return "", apperror.Unauthorized("token missing")
	case 2:
		return parts[1], nil
	default:
		return "", apperror.Unauthorized("token contains spaces")
	}
}

func unauthorized(w http.ResponseWriter, challenge string, err error) {
	msg := "valid authentication required"
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		msg = appErr.Message
	}
	w.Header().Set("WWW-Authenticate", challenge)
	respond.Error(w, http.StatusUnauthorized, "unauthorized", msg)
}
