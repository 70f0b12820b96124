// Package auth issues and verifies access tokens, hashes passwords, and
// provides the middleware that binds the current account to a request.
//
// LOGIN FLOW:
//  1. Client POSTs {"username","password"} to the auth URL (default /auth)
//  2. The service checks the bcrypt hash and asks TokenService for a token
//  3. Client sends "Authorization: Bearer <token>" on protected requests
//  4. RequireAuth validates the token, loads the account named by the
//     identity claim, and stores it in the request context
//
// TOKEN PAYLOAD:
//
//	{"identity": 1, "iat": ..., "nbf": ..., "exp": ..., "iss": "podcasts", "jti": "..."}
//
// identity is the account's primary key. Tokens are stateless: nothing about
// them is stored server side, so a token stays valid until exp even if the
// account changes. A deleted account is caught at resolve time instead.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

var (
	ErrInvalidToken = errors.New("auth: invalid token")
	ErrTokenExpired = errors.New("auth: token has expired")
)

// TokenConfig tunes token issuance. Zero values fall back to the defaults
// listed next to each field.
type TokenConfig struct {
	Issuer     string        // "podcasts"
	Expiration time.Duration // 5m
	NotBefore  time.Duration // 0: usable immediately
	Leeway     time.Duration // 10s of allowed clock skew on exp/nbf
}

// TokenService signs and validates HS256 tokens with a single shared secret.
type TokenService struct {
	secret []byte
	cfg    TokenConfig
	now    func() time.Time
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters; generate one with `openssl rand -hex 32`.
func NewTokenService(secret string, cfg TokenConfig) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "podcasts"
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = 5 * time.Minute
	}
	if cfg.Leeway < 0 {
		cfg.Leeway = 0
	}
	return &TokenService{secret: []byte(secret), cfg: cfg, now: time.Now}, nil
}

// Claims is the token payload. Identity is kept as its own claim rather than
// "sub" because sub must be a string and the account key is numeric.
type Claims struct {
	Identity int64 `json:"identity"`
	jwt.RegisteredClaims
}

// Generate issues a token for the given account id.
func (s *TokenService) Generate(identity int64) (string, error) {
	if identity <= 0 {
		return "", fmt.Errorf("auth: identity must be positive, got %d", identity)
	}
	now := s.now()

	c := Claims{
		Identity: identity,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now.Add(s.cfg.NotBefore)),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.Expiration)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenStr and returns its claims.
//
// Checked: HS256 signature (no other algorithm, "none" included), issuer,
// exp present and in the future, nbf in the past, both within Leeway, and a
// positive identity. Expiry is reported as ErrTokenExpired; every other
// failure is ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(s.cfg.Leeway),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if c.Identity <= 0 {
		return nil, fmt.Errorf("%w: missing identity", ErrInvalidToken)
	}
	return c, nil
}

// Expiration is the lifetime given to newly issued tokens.
func (s *TokenService) Expiration() time.Duration { return s.cfg.Expiration }
