package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/podcast-api/internal/apperror"
	"github.com/sakif/podcast-api/internal/auth"
)

// newTestAuthService registers "ab"/"pw" and returns an AuthService over
// the same repository.
func newTestAuthService(t *testing.T) (*AuthService, *fakeAccountRepo, *auth.TokenService) {
	t.Helper()
	repo := newFakeAccountRepo()
	passwords := newTestPasswords(t)
	tokens := newTestTokens(t)

	accounts := NewAccountService(repo, passwords, nopLogger)
	if _, err := accounts.Register(context.Background(), validRegistration()); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return NewAuthService(repo, tokens, passwords, nopLogger), repo, tokens
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
	}{
		{name: "correct credentials", username: "ab", password: "pw"},
		{name: "wrong password", username: "ab", password: "nope", wantErr: true},
		{name: "unknown username", username: "zz", password: "pw", wantErr: true},
		{name: "username is case sensitive", username: "AB", password: "pw", wantErr: true},
		{name: "empty username", username: "", password: "pw", wantErr: true},
		{name: "empty password", username: "ab", password: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestAuthService(t)

			account, err := svc.Authenticate(context.Background(), tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, apperror.ErrUnauthorized) {
					t.Fatalf("Authenticate() error = %v, want ErrUnauthorized", err)
				}
				if err.Error() != "invalid credentials" {
					t.Errorf("error message = %q, want %q", err.Error(), "invalid credentials")
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if account.ID != 1 {
				t.Errorf("account.ID = %d, want 1", account.ID)
			}
		})
	}
}

func TestAuthenticate_RepositoryError(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)
	repo.getErr = errors.New("connection refused")

	_, err := svc.Authenticate(context.Background(), "ab", "pw")
	if err == nil {
		t.Fatal("Authenticate() should propagate repository errors")
	}
	if errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("repository failure reported as bad credentials: %v", err)
	}
}

func TestLogin_TokenCarriesIdentity(t *testing.T) {
	svc, _, tokens := newTestAuthService(t)

	token, err := svc.Login(context.Background(), "ab", "pw")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if token.ExpiresIn != tokens.Expiration() {
		t.Errorf("ExpiresIn = %v, want %v", token.ExpiresIn, tokens.Expiration())
	}

	claims, err := tokens.Validate(token.Token)
	if err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if claims.Identity != 1 {
		t.Errorf("claims.Identity = %d, want 1", claims.Identity)
	}
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, _ := newTestAuthService(t)

	token, err := svc.Login(context.Background(), "ab", "wrong")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Login() error = %v, want ErrUnauthorized", err)
	}
	if token.Token != "" {
		t.Errorf("Login() token = %q on failure, want empty", token.Token)
	}
}

func TestIdentity(t *testing.T) {
	svc, repo, _ := newTestAuthService(t)

	account, err := svc.Identity(context.Background(), &auth.Claims{Identity: 1})
	if err != nil {
		t.Fatalf("Identity() error = %v", err)
	}
	if account.Username != "ab" {
		t.Errorf("Username = %q, want %q", account.Username, "ab")
	}

	_, err = svc.Identity(context.Background(), &auth.Claims{Identity: 99})
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Identity(99) error = %v, want ErrUnauthorized", err)
	}
	if err.Error() != "user does not exist" {
		t.Errorf("error message = %q", err.Error())
	}

	repo.getErr = errors.New("timeout")
	_, err = svc.Identity(context.Background(), &auth.Claims{Identity: 1})
	if err == nil || errors.Is(err, apperror.ErrUnauthorized) {
		t.Errorf("Identity() with broken repo error = %v, want non-auth error", err)
	}
}
