package price

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/etnz/brokerage"
	"github.com/shopspring/decimal"
)

// Board keeps the latest tick of every symbol. It is safe for concurrent use.
type Board struct {
	mu     sync.RWMutex
	latest map[string]Tick
	first  map[string]decimal.Decimal
}

// NewBoard returns a board quoting every asset at its base price.
func NewBoard(assets ...Asset) *Board {
	b := &Board{latest: make(map[string]Tick), first: make(map[string]decimal.Decimal)}
	for _, a := range assets {
		b.latest[a.Symbol] = Tick{Symbol: a.Symbol, Price: a.Base}
		b.first[a.Symbol] = a.Base
	}
	return b
}

// Observe records t unless the board already holds a more recent tick for
// the symbol. It reports whether t was kept.
func (b *Board) Observe(t Tick) bool {
	if !t.Price.IsPositive() {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur, ok := b.latest[t.Symbol]
	if ok && t.At.Before(cur.At) {
		return false
	}
	if _, ok := b.first[t.Symbol]; !ok {
		b.first[t.Symbol] = t.Price
	}
	b.latest[t.Symbol] = t
	return true
}

// Latest returns the last tick of symbol.
func (b *Board) Latest(symbol string) (Tick, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.latest[symbol]
	return t, ok
}

// Change is the move in percent since the first price of symbol, rounded to
// two decimals.
func (b *Board) Change(symbol string) (decimal.Decimal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	t, ok := b.latest[symbol]
	first := b.first[symbol]
	if !ok || first.IsZero() {
		return decimal.Zero, false
	}
	return t.Price.Sub(first).Div(first).Shift(2).Round(2), true
}

// Symbols returns the quoted symbols in alphabetical order.
func (b *Board) Symbols() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	list := make([]string, 0, len(b.latest))
	for s := range b.latest {
		list = append(list, s)
	}
	slices.Sort(list)
	return list
}

// Quote returns the latest price of symbol.
func (b *Board) Quote(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	t, ok := b.Latest(symbol)
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", brokerage.ErrUnknownSymbol, symbol)
	}
	return t.Price, nil
}

var _ brokerage.Quoter = (*Board)(nil)
