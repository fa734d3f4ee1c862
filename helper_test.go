package brokerage

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// USD is a helper for test to create usd money from const
func USD(v float64) Money { return M(v, "USD") }

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

const (
	adminID = "user-admin"
	aliceID = "user-alice"
)

// fixtureSeed returns a seed with an admin, a client alice holding balance
// and one payment method "pm-1".
func fixtureSeed(balance float64) SeedFunc {
	return func(now time.Time, currency string, cost int) (*Snapshot, error) {
		s := &Snapshot{
			Version:        snapshotVersion,
			Currency:       currency,
			PaymentMethods: []PaymentMethod{{ID: "pm-1", Name: "Vodafone Cash", Details: "01012345678"}},
			ContactInfo:    ContactInfo{Email: "support@example.com"},
		}
		for _, u := range []struct {
			id, email, secret string
			role              Role
			balance           float64
		}{
			{adminID, "admin@example.com", "admin", RoleAdmin, 0},
			{aliceID, "alice@example.com", "alice", RoleClient, balance},
		} {
			h, err := hashSecret(u.secret, cost)
			if err != nil {
				return nil, err
			}
			b := M(u.balance, currency)
			s.Users = append(s.Users, User{ID: u.id, Email: u.email, Role: u.role, Balance: b, Opening: b, secret: h})
		}
		return s, nil
	}
}

// newTestLedger opens a ledger on store with a fixed clock, a cheap hash
// and a discarded log. Options given last win.
func newTestLedger(t *testing.T, store Store, opts ...Option) *Ledger {
	t.Helper()
	if store == nil {
		store = &MemoryStore{}
	}
	base := []Option{
		WithClock(func() time.Time { return testNow }),
		WithHashCost(bcrypt.MinCost),
		WithLogger(slog.New(slog.DiscardHandler)),
	}
	l, err := Open(context.Background(), store, append(base, opts...)...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return l
}

// fixture is a ledger seeded by fixtureSeed.
func fixture(t *testing.T, balance float64) *Ledger {
	t.Helper()
	return newTestLedger(t, nil, WithSeed(fixtureSeed(balance)))
}

func balanceOf(t *testing.T, l *Ledger, userID string) Money {
	t.Helper()
	u, ok := l.User(userID)
	if !ok {
		t.Fatalf("User(%q) not found", userID)
	}
	return u.Balance
}

// failingStore fails every Save while fail is set.
type failingStore struct {
	MemoryStore
	fail bool
}

var errDiskFull = errors.New("disk full")

func (s *failingStore) Save(ctx context.Context, data []byte) error {
	if s.fail {
		return errDiskFull
	}
	return s.MemoryStore.Save(ctx, data)
}

// fixedQuoter quotes the same price for every listed symbol.
type fixedQuoter map[string]float64

func (q fixedQuoter) Quote(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := q[symbol]
	if !ok {
		return decimal.Decimal{}, ErrUnknownSymbol
	}
	return newDecimal(p), nil
}
