package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("account", "7"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("username", "username is required"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("account", "username"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "Unauthorized wraps ErrUnauthorized",
			err:       Unauthorized("invalid credentials"),
			target:    ErrUnauthorized,
			wantMatch: true,
		},
		{
			name:      "wrapped Conflict still matches",
			err:       fmt.Errorf("sqlstore: creating account: %w", Conflict("account", "username")),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "NotFound does not match ErrValidation",
			err:       NotFound("content", "3"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "Unauthorized does not match ErrNotFound",
			err:       Unauthorized("user does not exist"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("account", "42"),
			wantMessage: "account not found with id 42",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("password", "password is required"),
			wantMessage: "password is required",
		},
		{
			name:        "Conflict names the field",
			err:         Conflict("account", "username"),
			wantMessage: "account with this username already exists",
		},
		{
			name:        "Unauthorized uses custom message",
			err:         Unauthorized("user does not exist"),
			wantMessage: "user does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := Unauthorized("invalid token")
	if err.Unwrap() != ErrUnauthorized {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), ErrUnauthorized)
	}
}

func TestFieldIsRecorded(t *testing.T) {
	if err := ValidationFailed("first_name", "first_name is required"); err.Field != "first_name" {
		t.Errorf("ValidationFailed Field = %q, want %q", err.Field, "first_name")
	}
	if err := Conflict("content", "file_path"); err.Field != "file_path" {
		t.Errorf("Conflict Field = %q, want %q", err.Field, "file_path")
	}
}
