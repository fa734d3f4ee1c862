package brokerage

import (
	"fmt"
	"strings"
	"time"
)

// TxType identifies the kind of a transaction; it is the discriminator of
// the persisted form.
type TxType string

const (
	TypeDeposit    TxType = "deposit"
	TypeWithdrawal TxType = "withdrawal"
	TypeBuy        TxType = "buy"
	TypeSell       TxType = "sell"
)

// Status is the lifecycle state of a transaction.
//
//	pending --approve--> approved
//	pending --reject---> rejected
//
// approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus parses a status name.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	default:
		return "", fmt.Errorf("unknown transaction status %q", s)
	}
}

// Terminal reports whether no transition leaves this status.
func (s Status) Terminal() bool { return s == StatusApproved || s == StatusRejected }

// Transaction is an immutable record of a financial or trade event carrying a
// lifecycle status. It is implemented by Deposit, Withdrawal, Buy and Sell.
type Transaction interface {
	ID() string
	UserID() string
	Type() TxType
	Status() Status
	Amount() Money // positive
	CreatedAt() time.Time
	Details() string

	// Effect is the signed change the transaction makes to the owner's
	// balance once approved.
	Effect() Money

	withStatus(Status) Transaction
}

// base holds the fields shared by every transaction.
type base struct {
	id      string
	userID  string
	status  Status
	amount  Money
	created time.Time
	details string
}

func (b base) ID() string           { return b.id }
func (b base) UserID() string       { return b.userID }
func (b base) Status() Status       { return b.status }
func (b base) Amount() Money        { return b.amount }
func (b base) CreatedAt() time.Time { return b.created }
func (b base) Details() string      { return b.details }

// write appends the shared fields after the type discriminator.
func (b base) write(w *jsonObjectWriter, t TxType) {
	w.Append("id", b.id)
	w.Append("userId", b.userID)
	w.Append("type", t)
	w.Append("status", b.status)
	w.EmbedFrom(b.amount)
	w.Append("createdAt", b.created.UTC().Format(time.RFC3339Nano))
	w.Optional("details", b.details)
}

// Deposit is a request to credit money sent through a payment method. It is
// created pending and credited on approval.
type Deposit struct {
	base
	methodID string
	proofRef string
}

func (t Deposit) Type() TxType { return TypeDeposit }
func (t Deposit) Effect() Money { return t.amount }

// MethodID is the payment method the money was sent through.
func (t Deposit) MethodID() string { return t.methodID }

// ProofRef is an opaque reference to the proof of payment.
func (t Deposit) ProofRef() string { return t.proofRef }

func (t Deposit) withStatus(s Status) Transaction { t.status = s; return t }

func (t Deposit) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.write(&w, TypeDeposit)
	w.Optional("paymentMethodId", t.methodID)
	w.Append("proofOfPaymentRef", t.proofRef)
	return w.MarshalJSON()
}

// DestinationKind is where a withdrawal is paid to.
type DestinationKind string

const (
	EWallet     DestinationKind = "ewallet"
	BankAccount DestinationKind = "bank"
)

// ParseDestinationKind parses "ewallet" or "bank".
func ParseDestinationKind(s string) (DestinationKind, error) {
	switch k := DestinationKind(strings.ToLower(strings.TrimSpace(s))); k {
	case EWallet, BankAccount:
		return k, nil
	default:
		return "", fmt.Errorf("unknown destination kind %q (want ewallet or bank)", s)
	}
}

// Label is the human description used as withdrawal details.
func (k DestinationKind) Label() string {
	if k == BankAccount {
		return "bank account"
	}
	return "e-wallet"
}

// Destination identifies where withdrawn money goes: a wallet phone number
// or a bank account number.
type Destination struct {
	Kind    DestinationKind `json:"kind"`
	Account string          `json:"account"`
}

func (d Destination) String() string { return d.Kind.Label() + " " + d.Account }

// Withdrawal is a request to pay money out. It is created pending and
// debited on approval.
type Withdrawal struct {
	base
	destination Destination
}

func (t Withdrawal) Type() TxType { return TypeWithdrawal }
func (t Withdrawal) Effect() Money { return t.amount.Neg() }
func (t Withdrawal) Destination() Destination { return t.destination }
func (t Withdrawal) withStatus(s Status) Transaction { t.status = s; return t }

func (t Withdrawal) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.write(&w, TypeWithdrawal)
	w.Append("withdrawalDestination", t.destination)
	return w.MarshalJSON()
}

// Side is the direction of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// fill holds the execution of a trade.
type fill struct {
	symbol   string
	quantity Quantity
	price    Money
}

func (f fill) Symbol() string     { return f.symbol }
func (f fill) Quantity() Quantity { return f.quantity }
func (f fill) Price() Money       { return f.price }

// describe is the details text of a trade: "0.0500 BTC/USD @ 50000.00".
func (f fill) describe() string {
	return fmt.Sprintf("%s %s @ %s", f.quantity.value.StringFixed(4), f.symbol, f.price.value.StringFixed(2))
}

func (f fill) writeFill(w *jsonObjectWriter) {
	w.Append("symbol", f.symbol)
	w.Append("quantity", f.quantity)
	w.Append("price", f.price.value)
}

// Buy is an executed purchase; it is approved from creation.
type Buy struct {
	base
	fill
}

func (t Buy) Type() TxType  { return TypeBuy }
func (t Buy) Effect() Money { return t.amount.Neg() }
func (t Buy) withStatus(s Status) Transaction { t.status = s; return t }

func (t Buy) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.write(&w, TypeBuy)
	t.writeFill(&w)
	return w.MarshalJSON()
}

// Sell is an executed sale; it is approved from creation.
type Sell struct {
	base
	fill
}

func (t Sell) Type() TxType  { return TypeSell }
func (t Sell) Effect() Money { return t.amount }
func (t Sell) withStatus(s Status) Transaction { t.status = s; return t }

func (t Sell) MarshalJSON() ([]byte, error) {
	var w jsonObjectWriter
	t.write(&w, TypeSell)
	t.writeFill(&w)
	return w.MarshalJSON()
}

// newTrade builds the executed trade for side.
func newTrade(id, userID string, side Side, f fill, notional Money, at time.Time) Transaction {
	b := base{id: id, userID: userID, status: StatusApproved, amount: notional, created: at, details: f.describe()}
	if side == SideBuy {
		return Buy{base: b, fill: f}
	}
	return Sell{base: b, fill: f}
}

// applied reports whether tx counts toward its owner's balance.
func applied(tx Transaction) bool { return tx.Status() == StatusApproved }
