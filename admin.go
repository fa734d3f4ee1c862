package brokerage

import (
	"context"
	"fmt"
	"slices"
	"strings"
)

// AdjustBalance adds delta directly to the balance of userID. No Transaction
// is created: the override is kept apart in the adjustments trail, where
// Reconcile accounts for it.
func (l *Ledger) AdjustBalance(ctx context.Context, userID string, delta Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.users[userID]
	if !ok {
		return &AdjustError{UserID: userID, Kind: ErrUserNotFound}
	}
	d, ok := l.amount(delta)
	if !ok {
		return &AdjustError{UserID: userID, Kind: fmt.Errorf("%w: %s, ledger is in %s", ErrInvalidAmount, delta.Currency(), l.currency)}
	}
	u := &l.state.Users[i]
	u.Balance = u.Balance.Add(d)
	a := Adjustment{ID: newID("adj"), UserID: userID, Delta: d, At: l.now()}
	l.state.Adjustments = append(l.state.Adjustments, a)
	l.log.Warn("balance overridden", "user", userID, "delta", d.SignedString(), "balance", u.Balance.String())
	return l.commit(ctx, "adjust")
}

// AddPaymentMethod appends a payment method and returns it with its new id.
func (l *Ledger) AddPaymentMethod(ctx context.Context, name, details string) (PaymentMethod, error) {
	pm := PaymentMethod{Name: strings.TrimSpace(name), Details: strings.TrimSpace(details)}
	if pm.Name == "" || pm.Details == "" {
		return PaymentMethod{}, ErrInvalidPaymentMethod
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	pm.ID = newID("pm")
	l.state.PaymentMethods = append(l.state.PaymentMethods, pm)
	l.log.Info("payment method added", "method", pm.ID, "name", pm.Name)
	return pm, l.commit(ctx, "add payment method")
}

// UpdatePaymentMethod replaces the name and details of the payment method
// with the same id. Past deposits keep the name they were made with.
func (l *Ledger) UpdatePaymentMethod(ctx context.Context, pm PaymentMethod) error {
	pm.Name, pm.Details = strings.TrimSpace(pm.Name), strings.TrimSpace(pm.Details)
	if pm.Name == "" || pm.Details == "" {
		return ErrInvalidPaymentMethod
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.methodIndex(pm.ID)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, pm.ID)
	}
	l.state.PaymentMethods[i] = pm
	l.log.Info("payment method updated", "method", pm.ID)
	return l.commit(ctx, "update payment method")
}

// RemovePaymentMethod deletes a payment method. Deposits already made
// through it are unaffected.
func (l *Ledger) RemovePaymentMethod(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.methodIndex(id)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, id)
	}
	l.state.PaymentMethods = slices.Delete(l.state.PaymentMethods, i, i+1)
	l.log.Info("payment method removed", "method", id)
	return l.commit(ctx, "remove payment method")
}

// SetContactInfo replaces the support contact.
func (l *Ledger) SetContactInfo(ctx context.Context, c ContactInfo) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.ContactInfo = ContactInfo{Email: strings.TrimSpace(c.Email), Phone: strings.TrimSpace(c.Phone)}
	l.log.Info("contact info updated", "email", l.state.ContactInfo.Email)
	return l.commit(ctx, "set contact info")
}
