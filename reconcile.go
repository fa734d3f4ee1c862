package brokerage

import (
	"cmp"
	"slices"
)

// Reconciliation compares a stored balance with the one its history implies.
type Reconciliation struct {
	UserID      string
	Opening     Money
	Deposits    Money // approved
	Withdrawals Money // approved
	Buys        Money
	Sells       Money
	Adjustments Money
	// Expected is Opening + Deposits - Withdrawals - Buys + Sells + Adjustments.
	Expected Money
	Balance  Money
}

// Drift is Balance - Expected; it is zero for a consistent ledger.
func (r Reconciliation) Drift() Money { return r.Balance.Sub(r.Expected) }

// Balanced reports whether the balance matches its history.
func (r Reconciliation) Balanced() bool { return r.Drift().IsZero() }

// TransactionsOnly is the balance the transaction log alone implies, leaving
// out the administrator overrides.
func (r Reconciliation) TransactionsOnly() Money { return r.Expected.Sub(r.Adjustments) }

// Reconcile recomputes the balance of userID from its opening balance, its
// approved transactions and its adjustments.
func (l *Ledger) Reconcile(userID string) (Reconciliation, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.users[userID]
	if !ok {
		return Reconciliation{}, false
	}
	return l.reconcile(l.state.Users[i]), true
}

// ReconcileAll reconciles every user in creation order.
func (l *Ledger) ReconcileAll() []Reconciliation {
	l.mu.Lock()
	defer l.mu.Unlock()
	list := make([]Reconciliation, 0, len(l.state.Users))
	for _, u := range l.state.Users {
		list = append(list, l.reconcile(u))
	}
	return list
}

func (l *Ledger) reconcile(u User) Reconciliation {
	zero := M(0, l.currency)
	r := Reconciliation{
		UserID: u.ID, Opening: u.Opening, Balance: u.Balance,
		Deposits: zero, Withdrawals: zero, Buys: zero, Sells: zero, Adjustments: zero,
	}
	for _, tx := range l.state.Transactions {
		if tx.UserID() != u.ID || !applied(tx) {
			continue
		}
		switch tx.Type() {
		case TypeDeposit:
			r.Deposits = r.Deposits.Add(tx.Amount())
		case TypeWithdrawal:
			r.Withdrawals = r.Withdrawals.Add(tx.Amount())
		case TypeBuy:
			r.Buys = r.Buys.Add(tx.Amount())
		case TypeSell:
			r.Sells = r.Sells.Add(tx.Amount())
		}
	}
	for _, a := range l.state.Adjustments {
		if a.UserID == u.ID {
			r.Adjustments = r.Adjustments.Add(a.Delta)
		}
	}
	r.Expected = r.Opening.Add(r.Deposits).Sub(r.Withdrawals).Sub(r.Buys).Add(r.Sells).Add(r.Adjustments)
	return r
}

// Position is the net quantity of a symbol a user has traded.
type Position struct {
	Symbol   string
	Quantity Quantity
	Bought   Money // sum of buy notionals
	Sold     Money // sum of sell notionals
}

// Positions returns the net traded quantity per symbol of userID, sorted by
// symbol. Holdings are not enforced, so a quantity may be negative.
func (l *Ledger) Positions(userID string) []Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	bySymbol := make(map[string]*Position)
	for _, tx := range l.state.Transactions {
		if tx.UserID() != userID || !applied(tx) {
			continue
		}
		var f fill
		switch t := tx.(type) {
		case Buy:
			f = t.fill
		case Sell:
			f = t.fill
		default:
			continue
		}
		p, ok := bySymbol[f.symbol]
		if !ok {
			zero := M(0, l.currency)
			p = &Position{Symbol: f.symbol, Bought: zero, Sold: zero}
			bySymbol[f.symbol] = p
		}
		if tx.Type() == TypeBuy {
			p.Quantity = p.Quantity.Add(f.quantity)
			p.Bought = p.Bought.Add(tx.Amount())
		} else {
			p.Quantity = p.Quantity.Sub(f.quantity)
			p.Sold = p.Sold.Add(tx.Amount())
		}
	}
	list := make([]Position, 0, len(bySymbol))
	for _, p := range bySymbol {
		list = append(list, *p)
	}
	slices.SortFunc(list, func(a, b Position) int { return cmp.Compare(a.Symbol, b.Symbol) })
	return list
}
