package brokerage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// jsonTx has every field a persisted transaction may carry.
type jsonTx struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	Type        TxType          `json:"type"`
	Status      Status          `json:"status"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	CreatedAt   string          `json:"createdAt"`
	Date        string          `json:"date"` // legacy name of createdAt
	Details     string          `json:"details"`
	MethodID    string          `json:"paymentMethodId"`
	ProofRef    string          `json:"proofOfPaymentRef"`
	ProofURL    string          `json:"proofOfPaymentUrl"` // legacy name of proofOfPaymentRef
	Destination json.RawMessage `json:"withdrawalDestination"`
	Legacy      string          `json:"withdrawalDetails"` // legacy free text destination
	Symbol      string          `json:"symbol"`
	Quantity    decimal.Decimal `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// DecodeTransaction decodes a single transaction persisted by its
// MarshalJSON. Amounts without a currency adopt currency.
func DecodeTransaction(data []byte, currency string) (Transaction, error) {
	var j jsonTx
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("could not decode transaction %q: %w", string(data), err)
	}
	if j.ID == "" || j.UserID == "" {
		return nil, fmt.Errorf("transaction %q misses its id or owner", string(data))
	}
	status, err := ParseStatus(string(j.Status))
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", j.ID, err)
	}
	amount, ok := M(j.Amount, j.Currency).in(currency)
	if !ok {
		return nil, fmt.Errorf("transaction %s is in %s, ledger is in %s", j.ID, amount.Currency(), currency)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("transaction %s: %w: amount %s must be positive", j.ID, ErrInvalidAmount, amount)
	}
	if (j.Type == TypeBuy || j.Type == TypeSell) && status != StatusApproved {
		return nil, fmt.Errorf("transaction %s: a %s is executed, it cannot be %s", j.ID, j.Type, status)
	}
	created, err := decodeTime(j.CreatedAt, j.Date)
	if err != nil {
		return nil, fmt.Errorf("transaction %s: %w", j.ID, err)
	}
	b := base{id: j.ID, userID: j.UserID, status: status, amount: amount, created: created, details: j.Details}

	switch j.Type {
	case TypeDeposit:
		proof := j.ProofRef
		if proof == "" {
			proof = j.ProofURL
		}
		return Deposit{base: b, methodID: j.MethodID, proofRef: proof}, nil
	case TypeWithdrawal:
		dest := Destination{Kind: EWallet, Account: j.Legacy}
		if len(j.Destination) > 0 && string(j.Destination) != "null" {
			if err := json.Unmarshal(j.Destination, &dest); err != nil {
				return nil, fmt.Errorf("transaction %s destination: %w", j.ID, err)
			}
		}
		return Withdrawal{base: b, destination: dest}, nil
	case TypeBuy, TypeSell:
		f := fill{symbol: j.Symbol, quantity: Q(j.Quantity), price: M(j.Price, amount.Currency())}
		if j.Symbol == "" {
			f = parseFill(j.Details, amount.Currency())
		}
		if j.Type == TypeBuy {
			return Buy{base: b, fill: f}, nil
		}
		return Sell{base: b, fill: f}, nil
	default:
		return nil, fmt.Errorf("transaction %s has unknown type %q", j.ID, j.Type)
	}
}

// parseFill recovers the fill from trade details ("0.05 BTC/USD @ 50000")
// when the structured fields are missing. Unparseable details give an empty fill.
func parseFill(details, currency string) fill {
	var f fill
	lhs, price, ok := strings.Cut(details, "@")
	if !ok {
		return f
	}
	fields := strings.Fields(lhs)
	if len(fields) != 2 {
		return f
	}
	q, errQ := decimal.NewFromString(fields[0])
	p, errP := decimal.NewFromString(strings.TrimSpace(price))
	if errQ != nil || errP != nil {
		return f
	}
	return fill{symbol: fields[1], quantity: Q(q), price: M(p, currency)}
}

func decodeTime(values ...string) (time.Time, error) {
	for _, v := range values {
		if v == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", v, err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("missing createdAt")
}
