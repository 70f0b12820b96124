package auth

// PASSWORD STORAGE:
// Account passwords are stored as bcrypt hashes, never as plaintext. The hash
// string carries its own salt and cost:
//
//	$2a$12$<22-char salt><31-char hash>
//
// so verification needs nothing but the stored column.

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the work factor used when none is configured.
const DefaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer inputs are rejected
// rather than silently truncated.
const MaxPasswordBytes = 72

var (
	ErrPasswordTooLong  = fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	ErrPasswordMismatch = errors.New("auth: invalid password")
)

// PasswordService hashes and verifies passwords. It is a struct so the cost
// can be lowered in tests (bcrypt.MinCost = 4).
type PasswordService struct {
	cost int

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordService returns a service hashing at cost. A cost of zero
// selects DefaultCost.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost == 0 {
		cost = DefaultCost
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d outside [%d,%d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordService{cost: cost}, nil
}

// Hash returns the bcrypt hash of plaintext.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrPasswordMismatch when
// it does not. A malformed hash is reported as a distinct error.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}

// VerifyNothing spends the same bcrypt work as Verify against a throwaway
// hash. Login calls it for unknown usernames so response time does not reveal
// which usernames exist.
func (p *PasswordService) VerifyNothing(plaintext string) {
	p.dummyOnce.Do(func() {
		p.dummy, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), p.cost)
	})
	_ = bcrypt.CompareHashAndPassword(p.dummy, []byte(plaintext))
}
