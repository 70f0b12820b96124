// Package model defines the entities persisted by the catalog and their
// serialized forms.
//
// SERIALIZATION:
// Every entity exposes an explicit Serialize method returning a map keyed by
// column name. There is no reflection over struct tags: the keys a client sees
// are spelled out once, next to the type, and a new column only reaches the
// wire when someone adds it here.
package model

// Account is a registered listener.
//
// Password always holds a bcrypt hash once the account has been stored. The
// plaintext only exists between request decoding and hashing in the service.
type Account struct {
	ID        int64  `db:"id"`
	FirstName string `db:"first_name"`
	LastName  string `db:"last_name"`
	Username  string `db:"username"`
	Password  string `db:"password"`
}

// Column limits, mirrored by the migrations.
const (
	MaxNameLength     = 255
	MaxUsernameLength = 80
)

// Serialize returns every column of the account, password hash included.
// Use Public for anything that leaves the server.
func (a *Account) Serialize() map[string]any {
	return map[string]any{
		"id":         a.ID,
		"first_name": a.FirstName,
		"last_name":  a.LastName,
		"username":   a.Username,
		"password":   a.Password,
	}
}

// Public is Serialize without the password.
func (a *Account) Public() map[string]any {
	m := a.Serialize()
	delete(m, "password")
	return m
}
