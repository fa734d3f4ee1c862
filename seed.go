package brokerage

import (
	"time"

	"github.com/shopspring/decimal"
)

// SeedSnapshot returns the demo dataset a Ledger starts from when its store
// holds nothing usable. Transaction dates are relative to now. Passwords
// are hashed with cost.
func SeedSnapshot(now time.Time, currency string, cost int) (*Snapshot, error) {
	day := 24 * time.Hour
	usd := func(v string) Money { return M(decimal.RequireFromString(v), currency) }

	type seedUser struct {
		id, email, password string
		role                Role
		balance             string
	}
	seedUsers := []seedUser{
		{"user-1", "admin@example.com", "admin", RoleAdmin, "0"},
		{"user-2", "client@example.com", "client", RoleClient, "50000.75"},
		{"user-3", "ahmed@example.com", "password", RoleClient, "12345.67"},
	}

	s := &Snapshot{
		Version:  snapshotVersion,
		Currency: currency,
		PaymentMethods: []PaymentMethod{
			{ID: "pm-1", Name: "Vodafone Cash", Details: "01012345678"},
			{ID: "pm-2", Name: "Bank transfer (CIB)", Details: "SA03 8000 0000 6080 1016 7519"},
			{ID: "pm-3", Name: "Etisalat Cash", Details: "01112345678"},
		},
		ContactInfo: ContactInfo{
			Email: "support@alraed-trading.com",
			Phone: "+966 11 123 4567 | +20 2 123 4567",
		},
	}

	btc := fill{symbol: "BTC/USD", quantity: Q(decimal.RequireFromString("0.05")), price: usd("50000")}
	s.Transactions = []Transaction{
		Deposit{base: base{id: "tx-1", userID: "user-2", status: StatusApproved, amount: usd("10000"), created: now.Add(-5 * day), details: "Vodafone Cash"}, methodID: "pm-1", proofRef: "seed/tx-1.png"},
		Buy{base: base{id: "tx-2", userID: "user-2", status: StatusApproved, amount: usd("2500"), created: now.Add(-4 * day), details: btc.describe()}, fill: btc},
		Deposit{base: base{id: "tx-3", userID: "user-3", status: StatusPending, amount: usd("5000"), created: now.Add(-2 * day), details: "Bank transfer (CIB)"}, methodID: "pm-2", proofRef: "seed/tx-3.png"},
		Withdrawal{base: base{id: "tx-4", userID: "user-2", status: StatusRejected, amount: usd("1000"), created: now.Add(-1 * day), details: EWallet.Label()}, destination: Destination{Kind: EWallet, Account: "01012345678"}},
		Deposit{base: base{id: "tx-5", userID: "user-3", status: StatusApproved, amount: usd("2000"), created: now.Add(-6 * day), details: "Etisalat Cash"}, methodID: "pm-3", proofRef: "seed/tx-5.png"},
		Withdrawal{base: base{id: "tx-6", userID: "user-2", status: StatusPending, amount: usd("2000"), created: now, details: EWallet.Label()}, destination: Destination{Kind: EWallet, Account: "01012345678"}},
	}

	for _, su := range seedUsers {
		h, err := hashSecret(su.password, cost)
		if err != nil {
			return nil, err
		}
		u := User{ID: su.id, Email: su.email, Role: su.role, Balance: usd(su.balance), secret: h}
		u.Opening = u.Balance.Sub(effects(u.ID, s.Transactions, nil))
		s.Users = append(s.Users, u)
	}
	return s, nil
}
