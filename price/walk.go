package price

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Source produces the ticks observed at now.
type Source interface {
	Next(now time.Time) []Tick
}

// SourceFunc adapts a function to Source.
type SourceFunc func(now time.Time) []Tick

func (f SourceFunc) Next(now time.Time) []Tick { return f(now) }

// Walk is a Source moving every price by a small random factor per step.
// The walk drifts slightly upward: factor = (r - 0.49) * 0.01, r in [0, 1).
type Walk struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	order  []string
	prices map[string]decimal.Decimal
}

// NewWalk starts a walk at the base price of assets. The same seed gives
// the same sequence.
func NewWalk(seed uint64, assets []Asset) *Walk {
	w := &Walk{
		rnd:    rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		prices: make(map[string]decimal.Decimal, len(assets)),
	}
	for _, a := range assets {
		w.order = append(w.order, a.Symbol)
		w.prices[a.Symbol] = a.Base
	}
	return w
}

var (
	drift = decimal.RequireFromString("0.49")
	step  = decimal.RequireFromString("0.01")
	floor = decimal.New(1, -6)
)

// Next moves every price one step.
func (w *Walk) Next(now time.Time) []Tick {
	w.mu.Lock()
	defer w.mu.Unlock()
	ticks := make([]Tick, 0, len(w.order))
	for _, s := range w.order {
		r := decimal.NewFromFloat(w.rnd.Float64())
		factor := r.Sub(drift).Mul(step)
		p := w.prices[s].Mul(decimal.NewFromInt(1).Add(factor)).Round(6)
		if p.LessThan(floor) {
			p = floor
		}
		w.prices[s] = p
		ticks = append(ticks, Tick{Symbol: s, Price: p, At: now})
	}
	return ticks
}

// Run sends the ticks of src to out every period until ctx is done. Sends
// never block: when out is full the tick is dropped, the next one
// supersedes it.
func Run(ctx context.Context, every time.Duration, src Source, out chan<- Tick) error {
	if every <= 0 {
		return errors.New("price: tick period must be positive")
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	dropped := 0
	for {
		select {
		case <-ctx.Done():
			if dropped > 0 {
				slog.Debug("price ticks dropped", "count", dropped)
			}
			return nil
		case now := <-ticker.C:
			for _, t := range src.Next(now) {
				select {
				case out <- t:
				default:
					dropped++
				}
			}
		}
	}
}
