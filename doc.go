// Package brokerage is the ledger of a small brokerage: client accounts,
// their cash balances, and the transactions that move them.
//
// The core functionalities include:
//   - Trading: buys and sells execute at once and move the balance by their
//     notional, quantity times price, rounded to the currency precision.
//   - Requests: deposits and withdrawals are filed pending and only move the
//     balance once an administrator approves them. A pending withdrawal holds
//     its amount, so clients cannot request more than they have.
//   - Administration: reviewing requests, overriding balances, and editing the
//     payment methods and support contact shown to clients.
//   - Reconciliation: every balance can be recomputed from the opening
//     balance, the approved transactions and the recorded overrides.
//   - Persistence: the whole state is one JSON snapshot written to a Store
//     after every change. A snapshot that cannot be read falls back to seed
//     data.
//
// A Ledger is safe for concurrent use. This package serves as the foundation
// of the `bkr` command-line tool.
package brokerage
