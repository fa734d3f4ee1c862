package brokerage

import (
	"context"
	"fmt"
	"strings"
)

// SubmitTrade records an executed trade at price. It is approved from
// creation and moves the balance at once: a buy debits the notional, a sell
// credits it. Holdings are not tracked, so a sell needs no position.
func (l *Ledger) SubmitTrade(ctx context.Context, userID string, side Side, quantity Quantity, price Money, symbol string) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fail := func(kind error) (Transaction, error) {
		return nil, &RequestError{Op: string(side), UserID: userID, Kind: kind}
	}
	if side != SideBuy && side != SideSell {
		return fail(fmt.Errorf("unknown order side %q", side))
	}
	i, ok := l.users[userID]
	if !ok {
		return fail(ErrUserNotFound)
	}
	if !quantity.IsPositive() {
		return fail(fmt.Errorf("%w: quantity %s must be positive", ErrInvalidAmount, quantity))
	}
	p, ok := price.in(l.currency)
	if !ok {
		return fail(fmt.Errorf("%w: price in %s, ledger is in %s", ErrInvalidAmount, price.Currency(), l.currency))
	}
	if !p.IsPositive() {
		return fail(fmt.Errorf("%w: price %s must be positive", ErrInvalidAmount, p))
	}
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return fail(ErrUnknownSymbol)
	}
	notional := p.Mul(quantity).Round()
	if !notional.IsPositive() {
		return fail(fmt.Errorf("%w: notional rounds to zero", ErrInvalidAmount))
	}

	u := &l.state.Users[i]
	if side == SideBuy && u.Balance.LessThan(notional) {
		return fail(ErrInsufficientBalance)
	}
	tx := newTrade(newID("tx"), userID, side, fill{symbol: symbol, quantity: quantity, price: p}, notional, l.now())
	u.Balance = u.Balance.Add(tx.Effect())
	l.appendTx(tx)
	l.log.Info("trade executed", "tx", tx.ID(), "user", userID, "side", side, "details", tx.Details(), "amount", notional.String())
	return tx, l.commit(ctx, string(side))
}

// PlaceOrder executes a trade at the price the Quoter gives for symbol.
func (l *Ledger) PlaceOrder(ctx context.Context, userID string, side Side, quantity Quantity, symbol string) (Transaction, error) {
	if l.quoter == nil {
		return nil, &RequestError{Op: string(side), UserID: userID, Kind: ErrNoQuote}
	}
	p, err := l.quoter.Quote(ctx, symbol)
	if err != nil {
		return nil, &RequestError{Op: string(side), UserID: userID, Kind: fmt.Errorf("%w: %w", ErrNoQuote, err)}
	}
	return l.SubmitTrade(ctx, userID, side, quantity, M(p, l.currency), symbol)
}

// SubmitDepositRequest records a pending deposit sent through the payment
// method methodID. The balance moves only when an administrator approves it.
func (l *Ledger) SubmitDepositRequest(ctx context.Context, userID string, amount Money, methodID, proofRef string) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fail := func(kind error) (Transaction, error) {
		return nil, &RequestError{Op: string(TypeDeposit), UserID: userID, Kind: kind}
	}
	if _, ok := l.users[userID]; !ok {
		return fail(ErrUserNotFound)
	}
	amt, ok := l.amount(amount)
	if !ok || !amt.IsPositive() {
		return fail(fmt.Errorf("%w: %s", ErrInvalidAmount, amount))
	}
	proofRef = strings.TrimSpace(proofRef)
	if proofRef == "" {
		return fail(ErrMissingProof)
	}
	j := l.methodIndex(methodID)
	if j < 0 {
		return fail(fmt.Errorf("%w: %q", ErrUnknownPaymentMethod, methodID))
	}
	pm := l.state.PaymentMethods[j]

	tx := Deposit{
		base:     base{id: newID("tx"), userID: userID, status: StatusPending, amount: amt, created: l.now(), details: pm.Name},
		methodID: pm.ID,
		proofRef: proofRef,
	}
	l.appendTx(tx)
	l.log.Info("deposit requested", "tx", tx.ID(), "user", userID, "amount", amt.String(), "method", pm.ID)
	return tx, l.commit(ctx, string(TypeDeposit))
}

// SubmitWithdrawalRequest records a pending withdrawal to dest. The amount
// must fit in the available balance, that is the balance minus the pending
// withdrawals. The balance moves only when an administrator approves it.
func (l *Ledger) SubmitWithdrawalRequest(ctx context.Context, userID string, amount Money, dest Destination) (Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	fail := func(kind error) (Transaction, error) {
		return nil, &RequestError{Op: string(TypeWithdrawal), UserID: userID, Kind: kind}
	}
	i, ok := l.users[userID]
	if !ok {
		return fail(ErrUserNotFound)
	}
	amt, ok := l.amount(amount)
	if !ok || !amt.IsPositive() {
		return fail(fmt.Errorf("%w: %s", ErrInvalidAmount, amount))
	}
	if l.available(i).LessThan(amt) {
		return fail(ErrInsufficientBalance)
	}
	dest.Account = strings.TrimSpace(dest.Account)
	if dest.Account == "" {
		return fail(ErrMissingDestination)
	}
	if dest.Kind == "" {
		dest.Kind = EWallet
	}
	if dest.Kind != EWallet && dest.Kind != BankAccount {
		return fail(fmt.Errorf("%w: unknown kind %q", ErrMissingDestination, dest.Kind))
	}

	tx := Withdrawal{
		base:        base{id: newID("tx"), userID: userID, status: StatusPending, amount: amt, created: l.now(), details: dest.Kind.Label()},
		destination: dest,
	}
	l.appendTx(tx)
	l.log.Info("withdrawal requested", "tx", tx.ID(), "user", userID, "amount", amt.String(), "destination", dest.Kind)
	return tx, l.commit(ctx, string(TypeWithdrawal))
}

// Available returns the balance of userID minus its pending withdrawals.
func (l *Ledger) Available(userID string) (Money, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.users[userID]
	if !ok {
		return Money{}, false
	}
	return l.available(i), true
}

func (l *Ledger) available(i int) Money {
	u := l.state.Users[i]
	avail := u.Balance
	for _, tx := range l.state.Transactions {
		if tx.UserID() == u.ID && tx.Type() == TypeWithdrawal && tx.Status() == StatusPending {
			avail = avail.Sub(tx.Amount())
		}
	}
	return avail
}
