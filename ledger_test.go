package brokerage

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestLedger_Scenarios(t *testing.T) {
	ctx := context.Background()

	t.Run("A buy debits the notional", func(t *testing.T) {
		l := fixture(t, 1000)
		tx, err := l.SubmitTrade(ctx, aliceID, SideBuy, Q(2), USD(100), "BTC/USD")
		if err != nil {
			t.Fatalf("SubmitTrade() error = %v", err)
		}
		if got, want := balanceOf(t, l, aliceID), USD(800); !got.Equal(want) {
			t.Errorf("balance = %v, want %v", got, want)
		}
		if tx.Type() != TypeBuy || tx.Status() != StatusApproved {
			t.Errorf("tx = %s/%s, want buy/approved", tx.Type(), tx.Status())
		}
		if got, want := tx.Amount(), USD(200); !got.Equal(want) {
			t.Errorf("tx.Amount() = %v, want %v", got, want)
		}
		if got, want := tx.Details(), "2.0000 BTC/USD @ 100.00"; got != want {
			t.Errorf("tx.Details() = %q, want %q", got, want)
		}
		if n := len(l.UserTransactions(aliceID)); n != 1 {
			t.Errorf("len(UserTransactions) = %d, want 1", n)
		}
	})

	t.Run("B withdrawal moves the balance on approval only", func(t *testing.T) {
		l := fixture(t, 1000)
		tx, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(500), Destination{Kind: EWallet, Account: "01012345678"})
		if err != nil {
			t.Fatalf("SubmitWithdrawalRequest() error = %v", err)
		}
		if tx.Status() != StatusPending {
			t.Errorf("status = %s, want pending", tx.Status())
		}
		if got, want := balanceOf(t, l, aliceID), USD(1000); !got.Equal(want) {
			t.Errorf("balance before approval = %v, want %v", got, want)
		}
		if err := l.Approve(ctx, tx.ID()); err != nil {
			t.Fatalf("Approve() error = %v", err)
		}
		if got, want := balanceOf(t, l, aliceID), USD(500); !got.Equal(want) {
			t.Errorf("balance after approval = %v, want %v", got, want)
		}
	})

	t.Run("C withdrawal above the balance", func(t *testing.T) {
		l := fixture(t, 1000)
		_, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(2000), Destination{Account: "01012345678"})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("SubmitWithdrawalRequest() error = %v, want %v", err, ErrInsufficientBalance)
		}
		var rerr *RequestError
		if !errors.As(err, &rerr) || rerr.Op != "withdrawal" {
			t.Errorf("error = %#v, want a withdrawal *RequestError", err)
		}
		if n := len(l.Transactions()); n != 0 {
			t.Errorf("len(Transactions) = %d, want 0", n)
		}
		if got, want := balanceOf(t, l, aliceID), USD(1000); !got.Equal(want) {
			t.Errorf("balance = %v, want %v", got, want)
		}
	})

	t.Run("D duplicate email", func(t *testing.T) {
		l := fixture(t, 1000)
		_, err := l.Register(ctx, "alice@example.com", "other")
		if !errors.Is(err, ErrEmailAlreadyExists) {
			t.Fatalf("Register() error = %v, want %v", err, ErrEmailAlreadyExists)
		}
		if n := len(l.Users()); n != 2 {
			t.Errorf("len(Users) = %d, want 2", n)
		}
	})

	t.Run("E rejected deposit", func(t *testing.T) {
		l := fixture(t, 1000)
		tx, err := l.SubmitDepositRequest(ctx, aliceID, USD(300), "pm-1", "receipts/300.png")
		if err != nil {
			t.Fatalf("SubmitDepositRequest() error = %v", err)
		}
		if err := l.Reject(ctx, tx.ID()); err != nil {
			t.Fatalf("Reject() error = %v", err)
		}
		got, _ := l.Transaction(tx.ID())
		if got.Status() != StatusRejected {
			t.Errorf("status = %s, want rejected", got.Status())
		}
		if got, want := balanceOf(t, l, aliceID), USD(1000); !got.Equal(want) {
			t.Errorf("balance = %v, want %v", got, want)
		}
	})
}

func TestLedger_Conservation(t *testing.T) {
	ctx := context.Background()
	l := fixture(t, 1000)
	dest := Destination{Kind: BankAccount, Account: "EG12 0001"}

	d1, _ := l.SubmitDepositRequest(ctx, aliceID, USD(250.5), "pm-1", "a")
	d2, _ := l.SubmitDepositRequest(ctx, aliceID, USD(99), "pm-1", "b")
	w1, _ := l.SubmitWithdrawalRequest(ctx, aliceID, USD(100), dest)
	w2, _ := l.SubmitWithdrawalRequest(ctx, aliceID, USD(40), dest)
	for _, id := range []string{d1.ID(), w1.ID()} {
		if err := l.Approve(ctx, id); err != nil {
			t.Fatalf("Approve(%s) error = %v", id, err)
		}
	}
	for _, id := range []string{d2.ID(), w2.ID()} {
		if err := l.Reject(ctx, id); err != nil {
			t.Fatalf("Reject(%s) error = %v", id, err)
		}
	}
	if _, err := l.SubmitTrade(ctx, aliceID, SideBuy, Q(3), USD(12.5), "ETH/USD"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.SubmitTrade(ctx, aliceID, SideSell, Q(1), USD(20), "ETH/USD"); err != nil {
		t.Fatal(err)
	}

	// 1000 + 250.5 - 100 - 37.5 + 20
	if got, want := balanceOf(t, l, aliceID), USD(1133); !got.Equal(want) {
		t.Errorf("balance = %v, want %v", got, want)
	}
	r, _ := l.Reconcile(aliceID)
	if !r.Balanced() {
		t.Errorf("Reconcile() drift = %v, want zero", r.Drift())
	}
}

func TestLedger_DoubleApproval(t *testing.T) {
	ctx := context.Background()
	l := fixture(t, 1000)
	tx, err := l.SubmitDepositRequest(ctx, aliceID, USD(300), "pm-1", "proof")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Approve(ctx, tx.ID()); err != nil {
		t.Fatalf("first Approve() error = %v", err)
	}
	for _, status := range []Status{StatusApproved, StatusRejected, StatusPending} {
		err := l.SetTransactionStatus(ctx, tx.ID(), status)
		if !errors.Is(err, ErrNotPending) {
			t.Errorf("SetTransactionStatus(%s) error = %v, want %v", status, err, ErrNotPending)
		}
	}
	if got, want := balanceOf(t, l, aliceID), USD(1300); !got.Equal(want) {
		t.Errorf("balance = %v, want %v", got, want)
	}
	if err := l.Approve(ctx, "tx-missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Approve(unknown) error = %v, want %v", err, ErrNotFound)
	}
}

func TestLedger_SubmitTrade_Errors(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name     string
		userID   string
		side     Side
		quantity Quantity
		price    Money
		symbol   string
		want     error
	}{
		{"insufficient", aliceID, SideBuy, Q(11), USD(100), "BTC/USD", ErrInsufficientBalance},
		{"zero quantity", aliceID, SideBuy, Q(0), USD(100), "BTC/USD", ErrInvalidAmount},
		{"negative quantity", aliceID, SideSell, Q(-1), USD(100), "BTC/USD", ErrInvalidAmount},
		{"zero price", aliceID, SideBuy, Q(1), USD(0), "BTC/USD", ErrInvalidAmount},
		{"other currency", aliceID, SideBuy, Q(1), M(10, "EUR"), "BTC/USD", ErrInvalidAmount},
		{"dust", aliceID, SideBuy, Q(0.0001), USD(1), "BTC/USD", ErrInvalidAmount},
		{"blank symbol", aliceID, SideBuy, Q(1), USD(1), "  ", ErrUnknownSymbol},
		{"unknown user", "user-x", SideBuy, Q(1), USD(1), "BTC/USD", ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := fixture(t, 1000)
			tx, err := l.SubmitTrade(ctx, tt.userID, tt.side, tt.quantity, tt.price, tt.symbol)
			if !errors.Is(err, tt.want) {
				t.Fatalf("SubmitTrade() error = %v, want %v", err, tt.want)
			}
			if tx != nil {
				t.Errorf("SubmitTrade() tx = %v, want nil", tx)
			}
			if n := len(l.Transactions()); n != 0 {
				t.Errorf("len(Transactions) = %d, want 0", n)
			}
			if got, want := balanceOf(t, l, aliceID), USD(1000); !got.Equal(want) {
				t.Errorf("balance = %v, want %v", got, want)
			}
		})
	}
}

func TestLedger_SellWithoutHolding(t *testing.T) {
	l := fixture(t, 0)
	if _, err := l.SubmitTrade(context.Background(), aliceID, SideSell, Q(0.5), USD(3000), "ETH/USD"); err != nil {
		t.Fatalf("SubmitTrade() error = %v", err)
	}
	if got, want := balanceOf(t, l, aliceID), USD(1500); !got.Equal(want) {
		t.Errorf("balance = %v, want %v", got, want)
	}
	pos := l.Positions(aliceID)
	if len(pos) != 1 || !pos[0].Quantity.Equal(Q(-0.5)) {
		t.Errorf("Positions() = %v, want ETH/USD -0.5", pos)
	}
}

func TestLedger_PlaceOrder(t *testing.T) {
	ctx := context.Background()
	l := newTestLedger(t, nil, WithSeed(fixtureSeed(1000)), WithQuoter(fixedQuoter{"XAU/USD": 250.125}))

	tx, err := l.PlaceOrder(ctx, aliceID, SideBuy, Q(2), "XAU/USD")
	if err != nil {
		t.Fatalf("PlaceOrder() error = %v", err)
	}
	if got, want := tx.Amount(), USD(500.25); !got.Equal(want) {
		t.Errorf("amount = %v, want %v", got, want)
	}
	if _, err := l.PlaceOrder(ctx, aliceID, SideBuy, Q(1), "DOGE/USD"); !errors.Is(err, ErrNoQuote) || !errors.Is(err, ErrUnknownSymbol) {
		t.Errorf("PlaceOrder(unquoted) error = %v, want %v and %v", err, ErrNoQuote, ErrUnknownSymbol)
	}

	bare := fixture(t, 1000)
	if _, err := bare.PlaceOrder(ctx, aliceID, SideBuy, Q(1), "XAU/USD"); !errors.Is(err, ErrNoQuote) {
		t.Errorf("PlaceOrder() without quoter error = %v, want %v", err, ErrNoQuote)
	}
}

func TestLedger_SubmitDepositRequest_Errors(t *testing.T) {
	tests := []struct {
		name     string
		amount   Money
		methodID string
		proof    string
		want     error
	}{
		{"zero", USD(0), "pm-1", "proof", ErrInvalidAmount},
		{"negative", USD(-5), "pm-1", "proof", ErrInvalidAmount},
		{"no proof", USD(5), "pm-1", " ", ErrMissingProof},
		{"unknown method", USD(5), "pm-9", "proof", ErrUnknownPaymentMethod},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := fixture(t, 1000)
			_, err := l.SubmitDepositRequest(context.Background(), aliceID, tt.amount, tt.methodID, tt.proof)
			if !errors.Is(err, tt.want) {
				t.Fatalf("SubmitDepositRequest() error = %v, want %v", err, tt.want)
			}
			if n := len(l.Transactions()); n != 0 {
				t.Errorf("len(Transactions) = %d, want 0", n)
			}
		})
	}
}

func TestLedger_Withdrawal(t *testing.T) {
	ctx := context.Background()

	t.Run("pending withdrawals are held", func(t *testing.T) {
		l := fixture(t, 1000)
		if _, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(600), Destination{Account: "0101"}); err != nil {
			t.Fatal(err)
		}
		if got, _ := l.Available(aliceID); !got.Equal(USD(400)) {
			t.Errorf("Available() = %v, want %v", got, USD(400))
		}
		_, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(500), Destination{Account: "0101"})
		if !errors.Is(err, ErrInsufficientBalance) {
			t.Errorf("second request error = %v, want %v", err, ErrInsufficientBalance)
		}
	})

	t.Run("approval re-checks the balance", func(t *testing.T) {
		l := fixture(t, 1000)
		w, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(800), Destination{Account: "0101"})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := l.SubmitTrade(ctx, aliceID, SideBuy, Q(5), USD(100), "SOL/USD"); err != nil {
			t.Fatal(err)
		}
		if err := l.Approve(ctx, w.ID()); !errors.Is(err, ErrInsufficientBalance) {
			t.Fatalf("Approve() error = %v, want %v", err, ErrInsufficientBalance)
		}
		got, _ := l.Transaction(w.ID())
		if got.Status() != StatusPending {
			t.Errorf("status = %s, want pending", got.Status())
		}
		if b := balanceOf(t, l, aliceID); !b.Equal(USD(500)) {
			t.Errorf("balance = %v, want %v", b, USD(500))
		}
		if err := l.Reject(ctx, w.ID()); err != nil {
			t.Errorf("Reject() error = %v", err)
		}
	})

	t.Run("destination", func(t *testing.T) {
		l := fixture(t, 1000)
		for _, d := range []Destination{{Account: "  "}, {Kind: "crypto", Account: "0x1"}} {
			if _, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(10), d); !errors.Is(err, ErrMissingDestination) {
				t.Errorf("SubmitWithdrawalRequest(%v) error = %v, want %v", d, err, ErrMissingDestination)
			}
		}
		tx, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(10), Destination{Account: " 0101 "})
		if err != nil {
			t.Fatal(err)
		}
		if got, want := tx.(Withdrawal).Destination(), (Destination{Kind: EWallet, Account: "0101"}); got != want {
			t.Errorf("Destination() = %v, want %v", got, want)
		}
	})
}

func TestLedger_AdjustBalance(t *testing.T) {
	ctx := context.Background()
	l := fixture(t, 1000)
	if err := l.AdjustBalance(ctx, aliceID, USD(-250)); err != nil {
		t.Fatalf("AdjustBalance() error = %v", err)
	}
	if got, want := balanceOf(t, l, aliceID), USD(750); !got.Equal(want) {
		t.Errorf("balance = %v, want %v", got, want)
	}
	if n := len(l.Transactions()); n != 0 {
		t.Errorf("AdjustBalance created %d transactions", n)
	}
	if n := len(l.Adjustments(aliceID)); n != 1 {
		t.Errorf("len(Adjustments) = %d, want 1", n)
	}
	r, _ := l.Reconcile(aliceID)
	if !r.Balanced() {
		t.Errorf("Reconcile() drift = %v, want zero", r.Drift())
	}
	if got, want := r.TransactionsOnly(), USD(1000); !got.Equal(want) {
		t.Errorf("TransactionsOnly() = %v, want %v", got, want)
	}
	if err := l.AdjustBalance(ctx, "user-x", USD(1)); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("AdjustBalance(unknown) error = %v, want %v", err, ErrUserNotFound)
	}
}

func TestLedger_Session(t *testing.T) {
	ctx := context.Background()
	l := fixture(t, 1000)

	for _, c := range []struct{ email, secret string }{
		{"alice@example.com", "wrong"},
		{"nobody@example.com", "alice"},
		{"Alice@example.com", "alice"},
	} {
		if _, err := l.Login(ctx, c.email, c.secret); !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%q, %q) error = %v, want %v", c.email, c.secret, err, ErrInvalidCredentials)
		}
	}
	if _, ok := l.CurrentUser(); ok {
		t.Errorf("CurrentUser() is set after failed logins")
	}

	u, err := l.Login(ctx, "alice@example.com", "alice")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if cur, _ := l.CurrentUser(); cur.ID != u.ID {
		t.Errorf("CurrentUser() = %q, want %q", cur.ID, u.ID)
	}

	if _, err := l.Register(ctx, "", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Register(blank) error = %v, want %v", err, ErrInvalidCredentials)
	}
	bob, err := l.Register(ctx, "bob@example.com", "bob")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if bob.Role != RoleClient || !bob.Balance.Equal(USD(StartingBalance)) {
		t.Errorf("Register() = %s %v, want client %v", bob.Role, bob.Balance, USD(StartingBalance))
	}
	if cur, _ := l.CurrentUser(); cur.ID != bob.ID {
		t.Errorf("CurrentUser() = %q, want the registered user", cur.ID)
	}
	if _, err := l.Login(ctx, "bob@example.com", "bob"); err != nil {
		t.Errorf("Login(registered) error = %v", err)
	}
	if got, ok := l.UserByEmail("bob@example.com"); !ok || got.ID != bob.ID {
		t.Errorf("UserByEmail(bob@example.com) = %q, %v, want %q", got.ID, ok, bob.ID)
	}
	if _, ok := l.UserByEmail("Bob@example.com"); ok {
		t.Errorf("UserByEmail(Bob@example.com) found a user, emails are case sensitive")
	}

	if err := l.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := l.CurrentUser(); ok {
		t.Errorf("CurrentUser() is set after Logout")
	}
}

func TestLedger_PaymentMethods(t *testing.T) {
	ctx := context.Background()
	l := fixture(t, 1000)

	if _, err := l.AddPaymentMethod(ctx, "Instapay", ""); !errors.Is(err, ErrInvalidPaymentMethod) {
		t.Errorf("AddPaymentMethod(no details) error = %v, want %v", err, ErrInvalidPaymentMethod)
	}
	pm, err := l.AddPaymentMethod(ctx, "Instapay", "alice@instapay")
	if err != nil {
		t.Fatal(err)
	}
	pm.Name = "InstaPay"
	if err := l.UpdatePaymentMethod(ctx, pm); err != nil {
		t.Fatalf("UpdatePaymentMethod() error = %v", err)
	}
	if got, _ := l.PaymentMethod(pm.ID); got.Name != "InstaPay" {
		t.Errorf("PaymentMethod().Name = %q, want InstaPay", got.Name)
	}
	dep, err := l.SubmitDepositRequest(ctx, aliceID, USD(10), pm.ID, "proof")
	if err != nil {
		t.Fatal(err)
	}
	if err := l.RemovePaymentMethod(ctx, pm.ID); err != nil {
		t.Fatalf("RemovePaymentMethod() error = %v", err)
	}
	if err := l.RemovePaymentMethod(ctx, pm.ID); !errors.Is(err, ErrUnknownPaymentMethod) {
		t.Errorf("second RemovePaymentMethod() error = %v, want %v", err, ErrUnknownPaymentMethod)
	}
	if got, _ := l.Transaction(dep.ID()); got.Details() != "InstaPay" {
		t.Errorf("deposit details = %q, want InstaPay", got.Details())
	}
	if n := len(l.PaymentMethods()); n != 1 {
		t.Errorf("len(PaymentMethods) = %d, want 1", n)
	}

	if err := l.SetContactInfo(ctx, ContactInfo{Email: "help@example.com", Phone: "+20 2 000"}); err != nil {
		t.Fatal(err)
	}
	if got := l.ContactInfo(); got.Email != "help@example.com" {
		t.Errorf("ContactInfo() = %v", got)
	}
}

func TestLedger_Reload(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(filepath.Join(t.TempDir(), "data", "ledger.json"))
	l := newTestLedger(t, store, WithSeed(fixtureSeed(1000)))

	if _, err := l.Login(ctx, "alice@example.com", "alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := l.SubmitTrade(ctx, aliceID, SideBuy, Q(0.01), USD(50000), "BTC/USD"); err != nil {
		t.Fatal(err)
	}
	dep, _ := l.SubmitDepositRequest(ctx, aliceID, USD(120.45), "pm-1", "proof")
	if _, err := l.SubmitWithdrawalRequest(ctx, aliceID, USD(10), Destination{Kind: BankAccount, Account: "EG00"}); err != nil {
		t.Fatal(err)
	}
	if err := l.Approve(ctx, dep.ID()); err != nil {
		t.Fatal(err)
	}
	if err := l.AdjustBalance(ctx, aliceID, USD(1.01)); err != nil {
		t.Fatal(err)
	}

	reopened := newTestLedger(t, store, WithSeed(EmptySeed))
	want, err := EncodeSnapshot(l.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	got, err := EncodeSnapshot(reopened.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("reloaded snapshot differs:\ngot  %s\nwant %s", got, want)
	}
	if cur, ok := reopened.CurrentUser(); !ok || cur.ID != aliceID {
		t.Errorf("CurrentUser() after reload = %q, want %q", cur.ID, aliceID)
	}
	if _, err := reopened.Login(ctx, "alice@example.com", "alice"); err != nil {
		t.Errorf("Login() after reload error = %v", err)
	}
}

func TestOpen_Fallback(t *testing.T) {
	ctx := context.Background()
	seed := WithSeed(fixtureSeed(1000))

	t.Run("malformed", func(t *testing.T) {
		for _, data := range []string{
			`{`,
			`[]`,
			`{"users":[{"id":"u"}]}`,
			`{"transactions":[{"id":"t","userId":"u","type":"gift","status":"pending","createdAt":"2025-01-01T00:00:00Z"}]}`,
			`{"users":[{"id":"u1","email":"a@x","password":"p","balance":1},{"id":"u1","email":"b@x","password":"p","balance":2}]}`,
			`{"transactions":[{"id":"t","userId":"user-alice","type":"buy","status":"pending","amount":50,"createdAt":"2025-01-01T00:00:00Z","details":"1 BTC/USD @ 50"}]}`,
			`{"transactions":[{"id":"t","userId":"user-alice","type":"deposit","status":"pending","amount":-70,"paymentMethodId":"pm-1","createdAt":"2025-01-01T00:00:00Z"}]}`,
		} {
			store := &MemoryStore{}
			store.Save(ctx, []byte(data))
			l := newTestLedger(t, store, seed)
			if n := len(l.Users()); n != 2 {
				t.Errorf("Open(%s) users = %d, want the 2 seed users", data, n)
			}
			if _, ok := l.User("u1"); ok {
				t.Errorf("Open(%s) kept a user of the malformed snapshot", data)
			}
			if _, ok := l.Transaction("t"); ok {
				t.Errorf("Open(%s) kept a transaction of the malformed snapshot", data)
			}
		}
	})

	t.Run("missing keys", func(t *testing.T) {
		store := &MemoryStore{}
		store.Save(ctx, []byte(`{"currency":"USD","paymentMethods":null,"transactions":[],"users":[{"id":"u-1","email":"x@example.com","password":"pw","balance":12.5}]}`))
		l := newTestLedger(t, store, seed)
		users := l.Users()
		if len(users) != 1 || users[0].ID != "u-1" {
			t.Fatalf("Users() = %v, want the stored user", users)
		}
		if !users[0].Balance.Equal(USD(12.5)) {
			t.Errorf("balance = %v, want %v", users[0].Balance, USD(12.5))
		}
		if _, err := l.Login(ctx, "x@example.com", "pw"); err != nil {
			t.Errorf("Login() with a legacy password error = %v", err)
		}
		if n := len(l.PaymentMethods()); n != 1 {
			t.Errorf("PaymentMethods() = %d, want the seed one", n)
		}
		if got := l.ContactInfo().Email; got != "support@example.com" {
			t.Errorf("ContactInfo().Email = %q, want the seed one", got)
		}
	})

	t.Run("seed dataset", func(t *testing.T) {
		l := newTestLedger(t, nil)
		if n := len(l.Transactions()); n != 6 {
			t.Errorf("len(Transactions) = %d, want 6", n)
		}
		for _, r := range l.ReconcileAll() {
			if !r.Balanced() {
				t.Errorf("seed user %s drifts by %v", r.UserID, r.Drift())
			}
		}
		if _, err := l.Login(ctx, "admin@example.com", "admin"); err != nil {
			t.Errorf("Login(seed admin) error = %v", err)
		}
	})
}

func TestLedger_PersistenceFailure(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	l := newTestLedger(t, store, WithSeed(fixtureSeed(1000)))

	store.fail = true
	tx, err := l.SubmitTrade(ctx, aliceID, SideBuy, Q(2), USD(100), "BTC/USD")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("SubmitTrade() error = %v, want a *PersistenceError", err)
	}
	if !errors.Is(err, ErrPersistence) || !errors.Is(err, errDiskFull) {
		t.Errorf("error = %v, want it to match %v and %v", err, ErrPersistence, errDiskFull)
	}
	if tx == nil {
		t.Fatal("SubmitTrade() lost the transaction")
	}
	if got, want := balanceOf(t, l, aliceID), USD(800); !got.Equal(want) {
		t.Errorf("in-memory balance = %v, want %v", got, want)
	}
	if !l.Dirty() {
		t.Error("Dirty() = false after a failed save")
	}

	store.fail = false
	if err := l.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if l.Dirty() {
		t.Error("Dirty() = true after Flush")
	}
	reopened := newTestLedger(t, store, WithSeed(EmptySeed))
	if got, want := balanceOf(t, reopened, aliceID), USD(800); !got.Equal(want) {
		t.Errorf("reloaded balance = %v, want %v", got, want)
	}
}
