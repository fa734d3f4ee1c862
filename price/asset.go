// Package price produces and tracks the market quotes a ledger trades at.
//
// Prices are best-effort observations: a Board keeps the latest one per
// symbol and implements brokerage.Quoter, a Walk simulates a market and Run
// feeds ticks from a Source on a timer.
package price

import (
	"time"

	"github.com/shopspring/decimal"
)

// Class groups assets in listings.
type Class string

const (
	Crypto     Class = "crypto"
	Commodity  Class = "commodity"
	Forex      Class = "forex"
	RealEstate Class = "real_estate"
)

// Asset is a tradable symbol.
type Asset struct {
	Symbol string
	Name   string
	Class  Class
	Base   decimal.Decimal // opening price
}

// DefaultAssets lists the symbols offered for trading.
func DefaultAssets() []Asset {
	a := func(symbol, name string, class Class, base string) Asset {
		return Asset{Symbol: symbol, Name: name, Class: class, Base: decimal.RequireFromString(base)}
	}
	return []Asset{
		a("BTC/USD", "Bitcoin", Crypto, "68543.21"),
		a("ETH/USD", "Ethereum", Crypto, "3567.89"),
		a("XAU/USD", "Gold", Commodity, "2330.55"),
		a("WTI/USD", "Crude Oil", Commodity, "78.50"),
		a("SOL/USD", "Solana", Crypto, "165.43"),
		a("EUR/USD", "Euro", Forex, "1.08"),
		a("DOGE/USD", "DogeCoin", Crypto, "0.158"),
		a("REIT/USD", "Real Estate", RealEstate, "85.12"),
	}
}

// Tick is the price of a symbol observed at a point in time.
type Tick struct {
	Symbol string
	Price  decimal.Decimal
	At     time.Time
}
