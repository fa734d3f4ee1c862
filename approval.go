package brokerage

import (
	"context"
	"fmt"
)

// SetTransactionStatus moves a pending transaction to approved or rejected.
// Approval applies the transaction effect to the owner's balance; a
// withdrawal is approved only while the balance still covers it, otherwise
// it stays pending. Rejection never touches a balance.
func (l *Ledger) SetTransactionStatus(ctx context.Context, txID string, status Status) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	fail := func(kind error) error { return &ApprovalError{TxID: txID, Kind: kind} }
	i, ok := l.txs[txID]
	if !ok {
		return fail(ErrNotFound)
	}
	tx := l.state.Transactions[i]
	if tx.Status() != StatusPending {
		return fail(fmt.Errorf("%w: it is %s", ErrNotPending, tx.Status()))
	}

	switch status {
	case StatusApproved:
		j, ok := l.users[tx.UserID()]
		if !ok {
			return fail(ErrUserNotFound)
		}
		u := &l.state.Users[j]
		next := u.Balance.Add(tx.Effect())
		if tx.Type() == TypeWithdrawal && next.IsNegative() {
			return fail(ErrInsufficientBalance)
		}
		u.Balance = next
	case StatusRejected:
	default:
		return fail(fmt.Errorf("cannot move a transaction to %q", status))
	}

	l.state.Transactions[i] = tx.withStatus(status)
	l.log.Info("transaction reviewed", "tx", txID, "user", tx.UserID(), "type", tx.Type(), "status", status)
	return l.commit(ctx, "review")
}

// Approve is SetTransactionStatus(ctx, txID, StatusApproved).
func (l *Ledger) Approve(ctx context.Context, txID string) error {
	return l.SetTransactionStatus(ctx, txID, StatusApproved)
}

// Reject is SetTransactionStatus(ctx, txID, StatusRejected).
func (l *Ledger) Reject(ctx context.Context, txID string) error {
	return l.SetTransactionStatus(ctx, txID, StatusRejected)
}
