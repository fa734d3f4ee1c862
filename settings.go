package brokerage

import (
	"encoding/json"
	"fmt"
	"time"
)

// PaymentMethod is a destination clients send deposits to, e.g. a wallet
// phone number or a bank account.
type PaymentMethod struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Details string `json:"details"`
}

// ContactInfo is how clients reach the platform support.
type ContactInfo struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Adjustment records an administrator's direct balance override. It is not a
// Transaction: the conservation of balances over transactions excludes it,
// and Reconcile accounts for it separately.
type Adjustment struct {
	ID     string
	UserID string
	Delta  Money
	At     time.Time
}

func (a Adjustment) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	w.Append("id", a.ID)
	w.Append("userId", a.UserID)
	w.Append("delta", a.Delta)
	w.Append("at", a.At.UTC().Format(time.RFC3339Nano))
	return w.MarshalJSON()
}

func decodeAdjustment(data []byte, currency string) (Adjustment, error) {
	var j struct {
		ID     string          `json:"id"`
		UserID string          `json:"userId"`
		Delta  json.RawMessage `json:"delta"`
		At     string          `json:"at"`
	}
	if err := json.Unmarshal(data, &j); err != nil {
		return Adjustment{}, fmt.Errorf("could not decode adjustment: %w", err)
	}
	delta, _, err := decodeMoney(j.Delta, currency)
	if err != nil {
		return Adjustment{}, fmt.Errorf("adjustment %s: %w", j.ID, err)
	}
	at, err := decodeTime(j.At)
	if err != nil {
		return Adjustment{}, fmt.Errorf("adjustment %s: %w", j.ID, err)
	}
	return Adjustment{ID: j.ID, UserID: j.UserID, Delta: delta, At: at}, nil
}
