package handler

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/service"
)

// TokenIssuer is the part of service.AuthService the handler uses.
type TokenIssuer interface {
	Login(ctx context.Context, username, password string) (service.AccessToken, error)
}

// AuthHandler exchanges credentials for an access token.
type AuthHandler struct {
	auth   TokenIssuer
	logger *zap.Logger
}

func NewAuthHandler(auth TokenIssuer, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"` // seconds
}

// Login checks the credentials and returns a signed token.
//
// HTTP: POST /auth
// Body: {"username": "ab", "password": "pw"}
// Resp: {"access_token": "eyJ...", "expires_in": 300}
//
// Anything other than exactly {username, password} is a failed login and
// answers 401, like wrong credentials. Only a body over the server limit
// keeps its 400. Clients send the token back as "Authorization: Bearer <token>".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		if !errors.Is(err, errBodyTooLarge) {
			h.logger.Debug("malformed login body", zap.Error(err))
			err = apperror.Unauthorized("invalid credentials")
		}
		writeError(w, h.logger, err)
		return
	}

	token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{
		AccessToken: token.Token,
		ExpiresIn:   int64(token.ExpiresIn.Seconds()),
	})
}
