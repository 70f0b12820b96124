// Package handler turns HTTP requests into service calls.
//
// Handlers own no business rules: they decode, call a service, and encode
// the result. Each resource exposes one function per HTTP method; the server
// registers them on a methodview.View along with any per-method decorators.
package handler

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/auth"
	"github.com/sakif/podcast-api/internal/model"
	"github.com/sakif/podcast-api/internal/service"
)

// AccountRegistrar is the part of service.AccountService the handler uses.
type AccountRegistrar interface {
	Register(ctx context.Context, in service.RegisterInput) (*model.Account, error)
}

// AccountHandler serves /account/.
type AccountHandler struct {
	accounts AccountRegistrar
	logger   *zap.Logger
}

func NewAccountHandler(accounts AccountRegistrar, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{accounts: accounts, logger: logger}
}

// Get returns the caller's own account without the password hash.
//
// HTTP: GET /account/  (RequireAuth)
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	account, ok := auth.AccountFromContext(r.Context())
	if !ok {
		// Only reachable if the route was registered without RequireAuth.
		writeError(w, h.logger, apperror.Unauthorized("request does not contain an access token"))
		return
	}
	writeJSON(w, http.StatusOK, account.Public())
}

// Post creates an account.
//
// HTTP: POST /account/
// Body: {"first_name": "A", "last_name": "B", "username": "ab", "password": "pw"}
func (h *AccountHandler) Post(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, h.logger, err)
		return
	}

	if _, err := h.accounts.Register(r.Context(), in); err != nil {
		writeError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}
