package brokerage

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// Quoter samples the current price of a symbol. The Ledger calls it only
// when an order is placed without a price.
type Quoter interface {
	Quote(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// SeedFunc builds the dataset used when the store holds nothing usable.
type SeedFunc func(now time.Time, currency string, cost int) (*Snapshot, error)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger; the default is slog.Default().
func WithLogger(log *slog.Logger) Option { return func(l *Ledger) { l.log = log } }

// WithClock sets the time source used to stamp transactions.
func WithClock(now func() time.Time) Option { return func(l *Ledger) { l.now = now } }

// WithHashCost sets the bcrypt cost used to hash secrets.
func WithHashCost(cost int) Option { return func(l *Ledger) { l.cost = cost } }

// WithCurrency sets the currency of a ledger created from seed data. A
// loaded snapshot keeps its own currency.
func WithCurrency(currency string) Option { return func(l *Ledger) { l.currency = currency } }

// WithQuoter sets the price source of PlaceOrder.
func WithQuoter(q Quoter) Option { return func(l *Ledger) { l.quoter = q } }

// WithSeed replaces SeedSnapshot.
func WithSeed(seed SeedFunc) Option { return func(l *Ledger) { l.seed = seed } }

// EmptySeed is a SeedFunc for a ledger with no data at all.
func EmptySeed(_ time.Time, currency string, _ int) (*Snapshot, error) {
	return &Snapshot{Version: snapshotVersion, Currency: currency}, nil
}

// Ledger owns users, the transaction log, payment methods and contact
// info. Every operation runs under a single lock, validates fully before it
// mutates anything, and then saves the whole state to the Store.
type Ledger struct {
	mu     sync.Mutex
	store  Store
	log    *slog.Logger
	now    func() time.Time
	cost   int
	quoter Quoter
	seed   SeedFunc

	currency string
	state    *Snapshot
	users    map[string]int // user id -> index in state.Users
	emails   map[string]int // email -> index in state.Users
	txs      map[string]int // transaction id -> index in state.Transactions
	dirty    bool           // the last save failed

	dummyOnce sync.Once
	dummy     string // hash compared against when the email is unknown
}

// Open loads the ledger from store. When the store is empty, unreadable or
// holds a malformed snapshot the ledger starts from seed data instead.
func Open(ctx context.Context, store Store, opts ...Option) (*Ledger, error) {
	l := &Ledger{
		store:    store,
		log:      slog.Default(),
		now:      time.Now,
		cost:     bcrypt.DefaultCost,
		currency: DefaultCurrency,
		seed:     SeedSnapshot,
	}
	for _, opt := range opts {
		opt(l)
	}
	s, err := l.load(ctx)
	if err != nil {
		return nil, err
	}
	l.reset(s)
	return l, nil
}

func (l *Ledger) load(ctx context.Context) (*Snapshot, error) {
	seed := func() (*Snapshot, error) { return l.seed(l.now(), l.currency, l.cost) }

	data, err := l.store.Load(ctx)
	if errors.Is(err, ErrNoSnapshot) {
		l.log.Info("no snapshot found, starting from seed data")
		return seed()
	}
	if err != nil {
		l.log.Warn("cannot load snapshot, starting from seed data", "error", err)
		return seed()
	}

	var seedErr error
	d := snapshotDecoder{cost: l.cost, seed: func() *Snapshot {
		s, err := seed()
		if err != nil {
			seedErr = err
			return &Snapshot{Currency: l.currency}
		}
		return s
	}}
	s, seeded, err := d.decode(data)
	if seedErr != nil {
		return nil, seedErr
	}
	if err != nil {
		l.log.Warn("malformed snapshot, starting from seed data", "error", err)
		return seed()
	}
	if len(seeded) > 0 {
		l.log.Info("snapshot keys missing, using seed data", "keys", seeded)
	}
	return s, nil
}

// reset replaces the state and rebuilds the indexes.
func (l *Ledger) reset(s *Snapshot) {
	if s.Currency == "" {
		s.Currency = l.currency
	}
	l.currency = s.Currency
	l.state = s
	l.users = make(map[string]int, len(s.Users))
	l.emails = make(map[string]int, len(s.Users))
	for i, u := range s.Users {
		l.users[u.ID] = i
		l.emails[u.Email] = i
	}
	l.txs = make(map[string]int, len(s.Transactions))
	for i, tx := range s.Transactions {
		l.txs[tx.ID()] = i
	}
}

// commit saves the state after a mutation. When the store fails the
// mutation stays applied in memory, the ledger is marked dirty and a
// *PersistenceError is returned.
func (l *Ledger) commit(ctx context.Context, op string) error {
	data, err := EncodeSnapshot(l.state)
	if err == nil {
		err = l.store.Save(ctx, data)
	}
	if err != nil {
		l.dirty = true
		l.log.Warn("cannot save snapshot", "op", op, "error", err)
		return &PersistenceError{Op: op, Err: err}
	}
	l.dirty = false
	return nil
}

// Flush retries saving the state when a previous save failed.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.dirty {
		return nil
	}
	return l.commit(ctx, "flush")
}

// Dirty reports whether the in-memory state is ahead of the store.
func (l *Ledger) Dirty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dirty
}

// Currency is the currency of every balance and amount in the ledger.
func (l *Ledger) Currency() string { return l.currency }

// newID returns an opaque id. Transaction ids are UUIDv7, ordered by creation.
func newID(prefix string) string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return prefix + "-" + id.String()
}

func (l *Ledger) appendTx(tx Transaction) {
	l.txs[tx.ID()] = len(l.state.Transactions)
	l.state.Transactions = append(l.state.Transactions, tx)
}

// amount normalizes m to the ledger currency and precision. ok is false for
// another currency.
func (l *Ledger) amount(m Money) (Money, bool) {
	m, ok := m.in(l.currency)
	return m.Round(), ok
}

// Users returns every user in creation order.
func (l *Ledger) Users() []User {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.state.Users)
}

// User returns the user with id.
func (l *Ledger) User(id string) (User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.users[id]
	if !ok {
		return User{}, false
	}
	return l.state.Users[i], true
}

// UserByEmail returns the user registered with exactly email.
func (l *Ledger) UserByEmail(email string) (User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.emails[email]
	if !ok {
		return User{}, false
	}
	return l.state.Users[i], true
}

// Transactions returns the whole log in creation order.
func (l *Ledger) Transactions() []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.state.Transactions)
}

// UserTransactions returns the transactions of userID in creation order.
func (l *Ledger) UserTransactions(userID string) []Transaction {
	return l.filter(func(tx Transaction) bool { return tx.UserID() == userID })
}

// Pending returns the requests waiting for an administrator.
func (l *Ledger) Pending() []Transaction {
	return l.filter(func(tx Transaction) bool { return tx.Status() == StatusPending })
}

func (l *Ledger) filter(accept func(Transaction) bool) []Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	var list []Transaction
	for _, tx := range l.state.Transactions {
		if accept(tx) {
			list = append(list, tx)
		}
	}
	return list
}

// Transaction returns the transaction with id.
func (l *Ledger) Transaction(id string) (Transaction, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.txs[id]
	if !ok {
		return nil, false
	}
	return l.state.Transactions[i], true
}

// PaymentMethods returns the configured payment methods.
func (l *Ledger) PaymentMethods() []PaymentMethod {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.state.PaymentMethods)
}

// PaymentMethod returns the payment method with id.
func (l *Ledger) PaymentMethod(id string) (PaymentMethod, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.methodIndex(id)
	if i < 0 {
		return PaymentMethod{}, false
	}
	return l.state.PaymentMethods[i], true
}

func (l *Ledger) methodIndex(id string) int {
	return slices.IndexFunc(l.state.PaymentMethods, func(pm PaymentMethod) bool { return pm.ID == id })
}

// ContactInfo returns the platform support contact.
func (l *Ledger) ContactInfo() ContactInfo {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.ContactInfo
}

// Adjustments returns the balance overrides applied to userID.
func (l *Ledger) Adjustments(userID string) []Adjustment {
	l.mu.Lock()
	defer l.mu.Unlock()
	var list []Adjustment
	for _, a := range l.state.Adjustments {
		if a.UserID == userID {
			list = append(list, a)
		}
	}
	return list
}

// Snapshot returns a copy of the whole state.
func (l *Ledger) Snapshot() *Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.clone()
}
