package brokerage

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"golang.org/x/crypto/bcrypt"
)

// snapshotVersion is written in every persisted snapshot.
const snapshotVersion = 1

// Snapshot is the full state of a Ledger: what the Store persists.
type Snapshot struct {
	Version        int
	Currency       string
	Users          []User
	CurrentUserID  string
	Transactions   []Transaction
	PaymentMethods []PaymentMethod
	ContactInfo    ContactInfo
	Adjustments    []Adjustment
}

// clone returns a copy that shares no slice with s.
func (s *Snapshot) clone() *Snapshot {
	c := *s
	c.Users = slices.Clone(s.Users)
	c.Transactions = slices.Clone(s.Transactions)
	c.PaymentMethods = slices.Clone(s.PaymentMethods)
	c.Adjustments = slices.Clone(s.Adjustments)
	return &c
}

// EncodeSnapshot serializes s as indented JSON.
func EncodeSnapshot(s *Snapshot) ([]byte, error) {
	var w jsonObjectWriter
	w.Append("version", snapshotVersion)
	w.Append("currency", s.Currency)
	w.Append("users", nonNil(s.Users))
	if s.CurrentUserID != "" {
		w.Append("currentUserId", s.CurrentUserID)
	} else {
		w.Append("currentUserId", nil)
	}
	w.Append("transactions", nonNil(s.Transactions))
	w.Append("paymentMethods", nonNil(s.PaymentMethods))
	w.Append("contactInfo", s.ContactInfo)
	w.Append("adjustments", nonNil(s.Adjustments))
	raw, err := w.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("could not encode snapshot: %w", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("could not indent snapshot: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// DecodeSnapshot parses a snapshot written by EncodeSnapshot. Keys that are
// missing or null take their value from seed. The names of those keys are
// returned in seeded.
func DecodeSnapshot(data []byte, seed *Snapshot) (s *Snapshot, seeded []string, err error) {
	d := snapshotDecoder{seed: func() *Snapshot { return seed }, cost: bcrypt.DefaultCost}
	return d.decode(data)
}

// snapshotDecoder builds the seed only when a key is missing.
type snapshotDecoder struct {
	seed func() *Snapshot
	cost int // for hashing legacy plaintext passwords
	memo *Snapshot
}

func (d *snapshotDecoder) fallback() *Snapshot {
	if d.memo == nil {
		d.memo = d.seed()
	}
	return d.memo
}

func (d *snapshotDecoder) decode(data []byte) (*Snapshot, []string, error) {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, nil, fmt.Errorf("malformed snapshot: %w", err)
	}
	if keys == nil {
		return nil, nil, fmt.Errorf("malformed snapshot: not an object")
	}
	present := func(k string) bool {
		v, ok := keys[k]
		return ok && len(v) > 0 && string(v) != "null"
	}
	var seeded []string
	s := &Snapshot{Version: snapshotVersion}

	if present("currency") {
		if err := json.Unmarshal(keys["currency"], &s.Currency); err != nil {
			return nil, nil, fmt.Errorf("malformed currency: %w", err)
		}
	} else {
		s.Currency = d.fallback().Currency
	}

	if present("transactions") {
		var raws []json.RawMessage
		if err := json.Unmarshal(keys["transactions"], &raws); err != nil {
			return nil, nil, fmt.Errorf("malformed transactions: %w", err)
		}
		ids := make(map[string]bool, len(raws))
		for _, raw := range raws {
			tx, err := DecodeTransaction(raw, s.Currency)
			if err != nil {
				return nil, nil, err
			}
			if ids[tx.ID()] {
				return nil, nil, fmt.Errorf("duplicate transaction id %q", tx.ID())
			}
			ids[tx.ID()] = true
			s.Transactions = append(s.Transactions, tx)
		}
	} else {
		seeded = append(seeded, "transactions")
		s.Transactions = slices.Clone(d.fallback().Transactions)
	}

	if present("adjustments") {
		var raws []json.RawMessage
		if err := json.Unmarshal(keys["adjustments"], &raws); err != nil {
			return nil, nil, fmt.Errorf("malformed adjustments: %w", err)
		}
		for _, raw := range raws {
			a, err := decodeAdjustment(raw, s.Currency)
			if err != nil {
				return nil, nil, err
			}
			s.Adjustments = append(s.Adjustments, a)
		}
	}

	if present("users") {
		users, err := d.decodeUsers(keys["users"], s)
		if err != nil {
			return nil, nil, err
		}
		s.Users = users
	} else {
		seeded = append(seeded, "users")
		s.Users = slices.Clone(d.fallback().Users)
	}

	if present("paymentMethods") {
		if err := json.Unmarshal(keys["paymentMethods"], &s.PaymentMethods); err != nil {
			return nil, nil, fmt.Errorf("malformed payment methods: %w", err)
		}
	} else {
		seeded = append(seeded, "paymentMethods")
		s.PaymentMethods = slices.Clone(d.fallback().PaymentMethods)
	}

	if present("contactInfo") {
		if err := json.Unmarshal(keys["contactInfo"], &s.ContactInfo); err != nil {
			return nil, nil, fmt.Errorf("malformed contact info: %w", err)
		}
	} else {
		seeded = append(seeded, "contactInfo")
		s.ContactInfo = d.fallback().ContactInfo
	}

	// The session key may hold an id or, in legacy snapshots, the user itself.
	session := keys["currentUserId"]
	if !present("currentUserId") && present("user") {
		session = keys["user"]
	}
	s.CurrentUserID = decodeSessionID(session)
	if !slices.ContainsFunc(s.Users, func(u User) bool { return u.ID == s.CurrentUserID }) {
		s.CurrentUserID = ""
	}
	return s, seeded, nil
}

func decodeSessionID(raw json.RawMessage) string {
	var id string
	if json.Unmarshal(raw, &id) == nil {
		return id
	}
	var u struct {
		ID string `json:"id"`
	}
	if json.Unmarshal(raw, &u) == nil {
		return u.ID
	}
	return ""
}

// decodeUsers reads the users of s. Transactions and adjustments must be
// decoded already: a user without an opening balance gets the one that makes
// it reconcile.
func (d *snapshotDecoder) decodeUsers(data json.RawMessage, s *Snapshot) ([]User, error) {
	var js []jsonUser
	if err := json.Unmarshal(data, &js); err != nil {
		return nil, fmt.Errorf("malformed users: %w", err)
	}
	users := make([]User, 0, len(js))
	emails := make(map[string]bool, len(js))
	ids := make(map[string]bool, len(js))
	for _, j := range js {
		if j.ID == "" || j.Email == "" {
			return nil, fmt.Errorf("user %q misses its id or email", j.ID)
		}
		if ids[j.ID] {
			return nil, fmt.Errorf("duplicate user id %q", j.ID)
		}
		ids[j.ID] = true
		if emails[j.Email] {
			return nil, fmt.Errorf("duplicate user email %q", j.Email)
		}
		emails[j.Email] = true
		if j.Role == "" {
			j.Role = RoleClient
		}
		if j.Role != RoleClient && j.Role != RoleAdmin {
			return nil, fmt.Errorf("user %s has unknown role %q", j.ID, j.Role)
		}
		u := User{ID: j.ID, Email: j.Email, Role: j.Role, secret: j.Secret}
		if u.secret == "" && j.Password != "" {
			h, err := hashSecret(j.Password, d.cost)
			if err != nil {
				return nil, err
			}
			u.secret = h
		}
		balance, _, err := decodeMoney(j.Balance, s.Currency)
		if err != nil {
			return nil, fmt.Errorf("user %s balance: %w", j.ID, err)
		}
		u.Balance = balance.Round()
		opening, ok, err := decodeMoney(j.Opening, s.Currency)
		if err != nil {
			return nil, fmt.Errorf("user %s opening balance: %w", j.ID, err)
		}
		if !ok {
			opening = u.Balance.Sub(effects(u.ID, s.Transactions, s.Adjustments))
		}
		u.Opening = opening
		users = append(users, u)
	}
	return users, nil
}

// effects sums what approved transactions and adjustments did to the
// balance of userID.
func effects(userID string, txs []Transaction, adjs []Adjustment) Money {
	var total Money
	for _, tx := range txs {
		if tx.UserID() == userID && applied(tx) {
			total = total.Add(tx.Effect())
		}
	}
	for _, a := range adjs {
		if a.UserID == userID {
			total = total.Add(a.Delta)
		}
	}
	return total
}
