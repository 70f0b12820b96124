package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/podcast-api/internal/apperror"
)

func validRegistration() RegisterInput {
	return RegisterInput{FirstName: "A", LastName: "B", Username: "ab", Password: "pw"}
}

func TestRegister_StoresHashedPassword(t *testing.T) {
	repo := newFakeAccountRepo()
	passwords := newTestPasswords(t)
	svc := NewAccountService(repo, passwords, nopLogger)

	account, err := svc.Register(context.Background(), validRegistration())
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if account.ID != 1 {
		t.Errorf("ID = %d, want 1", account.ID)
	}

	stored := repo.byID[account.ID]
	if stored.Password == "pw" {
		t.Fatal("password stored in plaintext")
	}
	if !strings.HasPrefix(stored.Password, "$2") {
		t.Errorf("stored password %q is not a bcrypt hash", stored.Password)
	}
	if err := passwords.Verify(stored.Password, "pw"); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*RegisterInput)
		wantField string
	}{
		{"missing first name", func(in *RegisterInput) { in.FirstName = "" }, "first_name"},
		{"blank last name", func(in *RegisterInput) { in.LastName = "   " }, "last_name"},
		{"missing username", func(in *RegisterInput) { in.Username = "" }, "username"},
		{"missing password", func(in *RegisterInput) { in.Password = "" }, "password"},
		{"first name too long", func(in *RegisterInput) { in.FirstName = strings.Repeat("a", 256) }, "first_name"},
		{"username too long", func(in *RegisterInput) { in.Username = strings.Repeat("u", 81) }, "username"},
		{"password over bcrypt limit", func(in *RegisterInput) { in.Password = strings.Repeat("p", 73) }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeAccountRepo()
			svc := NewAccountService(repo, newTestPasswords(t), nopLogger)

			in := validRegistration()
			tt.mutate(&in)
			_, err := svc.Register(context.Background(), in)

			var appErr *apperror.AppError
			if !errors.As(err, &appErr) || !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("Register() error = %v, want validation error", err)
			}
			if appErr.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", appErr.Field, tt.wantField)
			}
			if len(repo.byID) != 0 {
				t.Error("invalid input must not be stored")
			}
		})
	}
}

func TestRegister_UsernameAtLimit(t *testing.T) {
	svc := NewAccountService(newFakeAccountRepo(), newTestPasswords(t), nopLogger)

	in := validRegistration()
	in.Username = strings.Repeat("ü", 80) // 80 runes, 160 bytes
	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc := NewAccountService(newFakeAccountRepo(), newTestPasswords(t), nopLogger)

	if _, err := svc.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	_, err := svc.Register(context.Background(), validRegistration())
	if !errors.Is(err, apperror.ErrConflict) {
		t.Fatalf("second Register() error = %v, want ErrConflict", err)
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.createErr = errors.New("database is on fire")
	svc := NewAccountService(repo, newTestPasswords(t), nopLogger)

	_, err := svc.Register(context.Background(), validRegistration())
	if err == nil {
		t.Fatal("Register() should propagate repository errors")
	}
	if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrValidation) {
		t.Errorf("repository failure classified as client error: %v", err)
	}
}
