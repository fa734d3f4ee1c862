package price

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Condition is the side of the target an alert waits for.
type Condition string

const (
	Above Condition = "above" // price >= target
	Below Condition = "below" // price <= target
)

// AlertStatus is active until the condition is met once.
type AlertStatus string

const (
	Active    AlertStatus = "active"
	Triggered AlertStatus = "triggered"
)

type Alert struct {
	ID        string
	Symbol    string
	Target    decimal.Decimal
	Condition Condition
	Status    AlertStatus
}

func (a Alert) String() string {
	op := ">="
	if a.Condition == Below {
		op = "<="
	}
	return fmt.Sprintf("%s %s %s", a.Symbol, op, a.Target)
}

// met reports whether price satisfies the condition.
func (a Alert) met(price decimal.Decimal) bool {
	switch a.Condition {
	case Above:
		return price.GreaterThanOrEqual(a.Target)
	case Below:
		return price.LessThanOrEqual(a.Target)
	}
	return false
}

// ParseAlert reads "SYMBOL>PRICE" or "SYMBOL<PRICE".
func ParseAlert(s string) (symbol string, cond Condition, target decimal.Decimal, err error) {
	i := strings.IndexAny(s, "<>")
	if i <= 0 {
		return "", "", decimal.Zero, fmt.Errorf("alert %q: want SYMBOL>PRICE or SYMBOL<PRICE", s)
	}
	cond = Above
	if s[i] == '<' {
		cond = Below
	}
	target, err = decimal.NewFromString(strings.TrimSpace(s[i+1:]))
	if err != nil {
		return "", "", decimal.Zero, fmt.Errorf("alert %q: %w", s, err)
	}
	return strings.TrimSpace(s[:i]), cond, target, nil
}

// Alerts is a set of price alerts. It is safe for concurrent use.
type Alerts struct {
	mu   sync.Mutex
	list []Alert
}

// Add registers an active alert.
func (as *Alerts) Add(symbol string, cond Condition, target decimal.Decimal) (Alert, error) {
	if cond != Above && cond != Below {
		return Alert{}, fmt.Errorf("unknown alert condition %q", cond)
	}
	if !target.IsPositive() {
		return Alert{}, fmt.Errorf("alert target %s must be positive", target)
	}
	a := Alert{ID: "alert-" + uuid.NewString(), Symbol: symbol, Target: target, Condition: cond, Status: Active}
	as.mu.Lock()
	defer as.mu.Unlock()
	as.list = append(as.list, a)
	return a, nil
}

// Remove deletes the alert with id.
func (as *Alerts) Remove(id string) bool {
	as.mu.Lock()
	defer as.mu.Unlock()
	for i, a := range as.list {
		if a.ID == id {
			as.list = append(as.list[:i], as.list[i+1:]...)
			return true
		}
	}
	return false
}

// List returns the alerts in creation order.
func (as *Alerts) List() []Alert {
	as.mu.Lock()
	defer as.mu.Unlock()
	return append([]Alert(nil), as.list...)
}

// Observe triggers the active alerts of t.Symbol whose condition t meets and
// returns them. An alert triggers once.
func (as *Alerts) Observe(t Tick) []Alert {
	as.mu.Lock()
	defer as.mu.Unlock()
	var fired []Alert
	for i, a := range as.list {
		if a.Status != Active || a.Symbol != t.Symbol || !a.met(t.Price) {
			continue
		}
		as.list[i].Status = Triggered
		fired = append(fired, as.list[i])
	}
	return fired
}
