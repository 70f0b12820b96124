package handler

// RESPONSE HELPERS:
// Every response from the API goes through writeJSON, and every failure
// through writeError. Both sit on package respond, which the auth guard and
// the method dispatcher use too, so all error bodies share one shape:
//
//	{"error": "conflict", "message": "account with this username already exists"}
//
// Service errors carry a sentinel from apperror; writeError is the only place
// those sentinels become HTTP status codes.

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/respond"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse = respond.ErrorBody

func writeJSON(w http.ResponseWriter, status int, data any) {
	respond.JSON(w, status, data)
}

// writeError maps err onto a status code. Errors without an AppError in
// their chain are logged and answered with a generic 500 so SQL or file
// paths never reach the client.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status = http.StatusConflict
			errorType = "conflict"
		}

		respond.Error(w, status, errorType, appErr.Message)
		return
	}

	logger.Error("unhandled error", zap.Error(err))
	respond.Error(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
}

// errBodyTooLarge is joined into the error decodeJSON returns when the
// body limit was hit, so callers that hide decode details can still tell.
var errBodyTooLarge = errors.New("request body too large")

// decodeJSON reads exactly one JSON object from r into dst. Unknown fields,
// trailing data and bodies over the server limit are validation errors.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return apperror.ValidationFailed("body", "request body must not be empty")
		case errors.As(err, &maxErr):
			return fmt.Errorf("%w: %w", errBodyTooLarge,
				apperror.ValidationFailed("body", fmt.Sprintf("request body must be %d bytes or fewer", maxErr.Limit)))
		case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
			return apperror.ValidationFailed("body", "request body is not valid JSON")
		case errors.As(err, &typeErr):
			return apperror.ValidationFailed(typeErr.Field, fmt.Sprintf("%s must be a %s", typeErr.Field, typeErr.Type))
		default:
			// DisallowUnknownFields reports `json: unknown field "x"`.
			return apperror.ValidationFailed("body", err.Error())
		}
	}

	if dec.More() {
		return apperror.ValidationFailed("body", "request body must contain a single JSON object")
	}
	return nil
}

// NotFound answers unknown paths with the standard error body instead of
// net/http's plain-text 404.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respond.Error(w, http.StatusNotFound, "not_found", fmt.Sprintf("no resource at %s", r.URL.Path))
}
