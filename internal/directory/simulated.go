package directory

import (
	"context"
	"crypto/subtle"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

type simulatedAccount struct {
	account  Account
	password string
}

// Simulated is an in-memory Authority for development and tests.
type Simulated struct {
	mu       sync.Mutex
	accounts map[string]*simulatedAccount
	failures map[string]error
	calls    map[string]int
	usersOU  string
}

// NewSimulated creates an empty Simulated directory. usersOU is used to build DNs.
func NewSimulated(usersOU string) *Simulated {
	return &Simulated{
		accounts: make(map[string]*simulatedAccount),
		failures: make(map[string]error),
		calls:    make(map[string]int),
		usersOU:  usersOU,
	}
}

// Fail makes every call of op ("authenticate", "find", "create", "update",
// "delete", "reset-password") return err. A nil err clears the failure.
func (s *Simulated) Fail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.failures, op)
		return
	}

	s.failures[op] = err
}

// Calls returns how often op was invoked.
func (s *Simulated) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.calls[op]
}

// Emails returns the emails of all accounts, sorted.
func (s *Simulated) Emails() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.accounts))
	for email := range s.accounts {
		out = append(out, email)
	}

	sort.Strings(out)

	return out
}

// begin locks, counts the call and returns the injected failure for op.
// The caller must unlock.
func (s *Simulated) begin(ctx context.Context, op string) error {
	s.mu.Lock()
	s.calls[op]++

	if err := ctx.Err(); err != nil {
		return err
	}

	return s.failures[op]
}

// Authenticate compares password with the stored one.
func (s *Simulated) Authenticate(ctx context.Context, email, password string) (bool, error) {
	defer s.mu.Unlock()

	if err := s.begin(ctx, "authenticate"); err != nil {
		return false, err
	}

	a, ok := s.accounts[email]
	if !ok || password == "" || !a.account.Enabled {
		return false, nil
	}

	return subtle.ConstantTimeCompare([]byte(a.password), []byte(password)) == 1, nil
}

// FindAccount returns a copy of the account.
func (s *Simulated) FindAccount(ctx context.Context, email string) (*Account, error) {
	defer s.mu.Unlock()

	if err := s.begin(ctx, "find"); err != nil {
		return nil, Classify("find", err)
	}

	a, ok := s.accounts[email]
	if !ok {
		return nil, ErrNotFound
	}

	out := a.account

	return &out, nil
}

// CreateAccount adds an enabled account. An existing email is ErrAlreadyExists.
func (s *Simulated) CreateAccount(ctx context.Context, n NewAccount) error {
	defer s.mu.Unlock()

	if err := s.begin(ctx, "create"); err != nil {
		return Classify("create", err)
	}

	if _, ok := s.accounts[n.Email]; ok {
		return ErrAlreadyExists
	}

	accountName := n.AccountName
	if accountName == "" {
		accountName = AccountName(n.Email)
	}

	s.accounts[n.Email] = &simulatedAccount{
		account: Account{
			DN:            "CN=" + n.Name + "," + s.usersOU,
			DisplayName:   n.Name,
			CommonName:    n.Name,
			PrincipalName: n.Email,
			Email:         n.Email,
			AccountName:   accountName,
			Enabled:       true,
		},
		password: n.Password,
	}

	log.Debug().Str("email", n.Email).Msg("simulated directory account created")

	return nil
}

// UpdateAccount changes the display name.
func (s *Simulated) UpdateAccount(ctx context.Context, email string, changes AccountChanges) error {
	defer s.mu.Unlock()

	if err := s.begin(ctx, "update"); err != nil {
		return Classify("update", err)
	}

	a, ok := s.accounts[email]
	if !ok {
		return ErrNotFound
	}

	if changes.DisplayName != nil {
		a.account.DisplayName = *changes.DisplayName
	}

	return nil
}

// DeleteAccount removes the account.
func (s *Simulated) DeleteAccount(ctx context.Context, email string) error {
	defer s.mu.Unlock()

	if err := s.begin(ctx, "delete"); err != nil {
		return Classify("delete", err)
	}

	if _, ok := s.accounts[email]; !ok {
		return ErrNotFound
	}

	delete(s.accounts, email)

	return nil
}

// ResetPassword replaces the password and keeps the enabled flag.
func (s *Simulated) ResetPassword(ctx context.Context, email, password string) error {
	defer s.mu.Unlock()

	if err := s.begin(ctx, "reset-password"); err != nil {
		return Classify("reset-password", err)
	}

	a, ok := s.accounts[email]
	if !ok {
		return ErrNotFound
	}

	a.password = password

	return nil
}

// Disable marks the account as disabled. Disabled accounts fail Authenticate.
func (s *Simulated) Disable(email string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a, ok := s.accounts[email]; ok {
		a.account.Enabled = false
	}
}

// Ping always succeeds unless a failure is injected for "ping".
func (s *Simulated) Ping(ctx context.Context) error {
	defer s.mu.Unlock()

	return s.begin(ctx, "ping")
}
