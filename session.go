package brokerage

import (
	"context"
	"strings"
)

// Login authenticates email and secret and makes the user current. An
// unknown email and a wrong secret fail alike with ErrInvalidCredentials.
//
// A non-nil *PersistenceError comes with a valid user: the session is open
// in memory but was not saved.
func (l *Ledger) Login(ctx context.Context, email, secret string) (User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	i, ok := l.emails[email]
	if !ok {
		l.burnCompare(secret)
		l.log.Info("login refused", "email", email)
		return User{}, &AuthError{Email: email, Kind: ErrInvalidCredentials}
	}
	u := l.state.Users[i]
	if !u.checkSecret(secret) {
		l.log.Info("login refused", "email", email)
		return User{}, &AuthError{Email: email, Kind: ErrInvalidCredentials}
	}
	l.state.CurrentUserID = u.ID
	l.log.Info("user logged in", "user", u.ID)
	return u, l.commit(ctx, "login")
}

// burnCompare spends the time of a real comparison, so an unknown email
// cannot be told apart from a wrong secret.
func (l *Ledger) burnCompare(secret string) {
	l.dummyOnce.Do(func() {
		l.dummy, _ = hashSecret("unknown user", l.cost)
	})
	User{secret: l.dummy}.checkSecret(secret)
}

// Register creates a client with the starting balance and makes it current.
func (l *Ledger) Register(ctx context.Context, email, secret string) (User, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if strings.TrimSpace(email) == "" || secret == "" {
		return User{}, &AuthError{Email: email, Kind: ErrInvalidCredentials}
	}
	if _, exists := l.emails[email]; exists {
		return User{}, &AuthError{Email: email, Kind: ErrEmailAlreadyExists}
	}
	h, err := hashSecret(secret, l.cost)
	if err != nil {
		return User{}, &AuthError{Email: email, Kind: err}
	}
	start := M(StartingBalance, l.currency)
	u := User{
		ID:      newID("user"),
		Email:   email,
		Role:    RoleClient,
		Balance: start,
		Opening: start,
		secret:  h,
	}
	l.users[u.ID] = len(l.state.Users)
	l.emails[u.Email] = len(l.state.Users)
	l.state.Users = append(l.state.Users, u)
	l.state.CurrentUserID = u.ID
	l.log.Info("user registered", "user", u.ID, "email", u.Email)
	return u, l.commit(ctx, "register")
}

// Logout clears the current session. It is a no-op without one.
func (l *Ledger) Logout(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state.CurrentUserID == "" {
		return nil
	}
	l.log.Info("user logged out", "user", l.state.CurrentUserID)
	l.state.CurrentUserID = ""
	return l.commit(ctx, "logout")
}

// CurrentUser returns the user of the open session.
func (l *Ledger) CurrentUser() (User, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	i, ok := l.users[l.state.CurrentUserID]
	if !ok {
		return User{}, false
	}
	return l.state.Users[i], true
}
