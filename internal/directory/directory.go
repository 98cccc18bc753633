// Package directory talks to the external directory (LDAP or Active Directory)
// used for credential verification and as a provisioning target.
package directory

import (
	"context"
	"strings"
)

// Authority is the capability set of an external directory.
type Authority interface {
	// Authenticate reports whether password is the directory credential of email.
	// An unknown account or wrong password yields false and a nil error.
	Authenticate(ctx context.Context, email, password string) (bool, error)
	// FindAccount looks up the account by email. Absence is ErrNotFound.
	FindAccount(ctx context.Context, email string) (*Account, error)
	// CreateAccount adds an account. It does not check for existence first.
	CreateAccount(ctx context.Context, account NewAccount) error
	// UpdateAccount applies changes to the account of email.
	UpdateAccount(ctx context.Context, email string, changes AccountChanges) error
	// DeleteAccount removes the account of email.
	DeleteAccount(ctx context.Context, email string) error
	// ResetPassword sets a new credential without touching the enabled flag.
	ResetPassword(ctx context.Context, email, password string) error
}

// Pinger is implemented by authorities that can test their connection.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Account is a directory account as seen by this service. It is never persisted.
type Account struct {
	DN            string `json:"dn"`
	DisplayName   string `json:"displayName"`
	CommonName    string `json:"cn"`
	PrincipalName string `json:"userPrincipalName"`
	Email         string `json:"mail"`
	AccountName   string `json:"sAMAccountName"`
	Enabled       bool   `json:"enabled"`
}

// Name returns the best display name: display name, common name, then email.
func (a *Account) Name(fallback string) string {
	switch {
	case a == nil:
		return fallback
	case a.DisplayName != "":
		return a.DisplayName
	case a.CommonName != "":
		return a.CommonName
	default:
		return fallback
	}
}

// NewAccount is the input of CreateAccount. Password is used once and never stored.
type NewAccount struct {
	Name        string
	Email       string
	Password    string
	AccountName string
}

// GivenName returns the first word of Name.
func (n NewAccount) GivenName() string {
	given, _ := SplitName(n.Name)
	return given
}

// Surname returns everything after the first word of Name.
func (n NewAccount) Surname() string {
	_, sn := SplitName(n.Name)
	return sn
}

// AccountChanges lists the mutable directory attributes. Nil fields are untouched.
type AccountChanges struct {
	DisplayName *string
}

// Empty reports whether no change is requested.
func (c AccountChanges) Empty() bool {
	return c.DisplayName == nil
}

// SplitName splits a display name into given name and surname at the first space.
func SplitName(name string) (string, string) {
	fields := strings.Fields(name)

	switch len(fields) {
	case 0:
		return name, ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

const (
	maxAccountNameLen  = 20
	defaultAccountName = "user"
)

// AccountName derives a pre-Windows 2000 logon name from the local part of email:
// characters outside [A-Za-z0-9._-] are dropped, the result is cut to 20
// characters and leading or trailing dots are removed.
func AccountName(email string) string {
	local, _, _ := strings.Cut(email, "@")

	var b strings.Builder

	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > maxAccountNameLen {
		out = out[:maxAccountNameLen]
	}

	out = strings.Trim(out, ".")
	if out == "" {
		return defaultAccountName
	}

	return out
}
