package brokerage

import (
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Role grants access to the administrative operations.
type Role string

const (
	RoleClient Role = "client"
	RoleAdmin  Role = "admin"
)

// StartingBalance is credited to every newly registered client.
const StartingBalance = 10000

// User is an account holder. Values returned by the Ledger are copies.
type User struct {
	ID      string
	Email   string
	Role    Role
	Balance Money
	// Opening is the balance the user was created with; Reconcile starts from it.
	Opening Money

	secret string // bcrypt hash
}

// IsAdmin reports whether the user may review requests and adjust balances.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// checkSecret compares a candidate secret with the stored hash.
func (u User) checkSecret(secret string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.secret), []byte(secret)) == nil
}

// hashSecret returns the bcrypt hash of secret.
func hashSecret(secret string, cost int) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", fmt.Errorf("cannot hash secret: %w", err)
	}
	return string(h), nil
}

// MarshalJSON persists the user, including the secret hash.
func (u User) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", u.ID)
	w.Append("email", u.Email)
	w.Append("secret", u.secret)
	w.Append("role", u.Role)
	w.Append("balance", u.Balance)
	w.Append("opening", u.Opening)
	return w.MarshalJSON()
}

// jsonUser is the persisted form. Password is the plaintext field of legacy
// snapshots; it is hashed on load.
type jsonUser struct {
	ID       string          `json:"id"`
	Email    string          `json:"email"`
	Secret   string          `json:"secret"`
	Password string          `json:"password"`
	Role     Role            `json:"role"`
	Balance  json.RawMessage `json:"balance"`
	Opening  json.RawMessage `json:"opening"`
}

// decodeMoney accepts either {"currency":..,"amount":..} or a bare number.
func decodeMoney(raw json.RawMessage, currency string) (m Money, present bool, err error) {
	if len(raw) == 0 || string(raw) == "null" {
		return M(0, currency), false, nil
	}
	if raw[0] == '{' {
		err = json.Unmarshal(raw, &m)
	} else {
		var a amountField
		err = json.Unmarshal(raw, &a.Amount)
		m = a.Money()
	}
	if err != nil {
		return Money{}, false, err
	}
	m, ok := m.in(currency)
	if !ok {
		return Money{}, false, fmt.Errorf("amount in %s, ledger is in %s", m.Currency(), currency)
	}
	return m, true, nil
}
