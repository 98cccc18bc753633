package directory

import (
	"context"
	"crypto/tls"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf16"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/config"
)

const (
	attrDisplayName = "displayName"
	attrCN          = "cn"
	attrUPN         = "userPrincipalName"
	attrMail        = "mail"
	attrSAM         = "sAMAccountName"
	attrUAC         = "userAccountControl"
	attrGivenName   = "givenName"
	attrSurname     = "sn"
	attrUnicodePwd  = "unicodePwd"

	// userAccountControl flags
	uacAccountDisable = 0x0002
	uacNormalAccount  = 0x0200

	emailPlaceholder = "{email}"

	// rdnPrefix names new accounts the way the containers are written.
	rdnPrefix = "CN="
)

// conn is the part of *ldap.Conn the LDAP authority uses.
type conn interface {
	Bind(username, password string) error
	Search(searchRequest *ldap.SearchRequest) (*ldap.SearchResult, error)
	Add(addRequest *ldap.AddRequest) error
	Modify(modifyRequest *ldap.ModifyRequest) error
	Del(delRequest *ldap.DelRequest) error
	SetTimeout(timeout time.Duration)
	Close() error
}

type dialFunc func(ctx context.Context) (conn, error)

// LDAP is an Authority speaking the directory protocol natively.
type LDAP struct {
	cfg  config.Directory
	dial dialFunc
}

// NewLDAP creates an LDAP authority. No connection is made until the first call.
func NewLDAP(cfg config.Directory) *LDAP {
	l := &LDAP{cfg: cfg}
	l.dial = l.connect

	return l
}

// connect establishes a connection to the LDAP server.
func (l *LDAP) connect(ctx context.Context) (conn, error) {
	timeout := l.cfg.AuthTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}

	var tlsConfig *tls.Config

	ldaps := strings.HasPrefix(strings.ToLower(l.cfg.URL), "ldaps://")
	if ldaps || l.cfg.StartTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: l.cfg.SkipVerify, //nolint:gosec // operator decision for lab directories
			ServerName:         hostOf(l.cfg.URL),
			MinVersion:         tls.VersionTLS12,
		}
	}

	c, err := ldap.DialURL(l.cfg.URL,
		ldap.DialWithDialer(&net.Dialer{Timeout: timeout}),
		ldap.DialWithTLSConfig(tlsConfig),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !ldaps && l.cfg.StartTLS {
		if errStartTLS := c.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := c.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	return c, nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}

	return u.Hostname()
}

// withConn runs fn on a fresh service-bound connection. Cancelling ctx closes
// the connection, which aborts the operation in flight.
func (l *LDAP) withConn(ctx context.Context, fn func(c conn) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c, err := l.dial(ctx)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		c.SetTimeout(time.Until(deadline))
	}

	done := make(chan error, 1)

	go func() {
		if errBind := c.Bind(l.cfg.BindDN, l.cfg.BindPassword); errBind != nil {
			done <- fmt.Errorf("failed to bind with service account: %w", errBind)
			return
		}

		done <- fn(c)
	}()

	select {
	case err = <-done:
	case <-ctx.Done():
		err = ctx.Err()
	}

	if errClose := c.Close(); errClose != nil {
		log.Warn().Err(errClose).Msg("failed to close LDAP connection")
	}

	return err
}

// Ping binds with the service account.
func (l *LDAP) Ping(ctx context.Context) error {
	return l.withConn(ctx, func(conn) error { return nil })
}

// searchEntry searches the directory for email and returns a single entry.
func (l *LDAP) searchEntry(c conn, email string) (*ldap.Entry, error) {
	filter := l.cfg.UserFilter
	if filter == "" {
		filter = "(|(userPrincipalName={email})(mail={email}))"
	}

	searchRequest := ldap.NewSearchRequest(
		l.cfg.BaseDN,
		ldap.ScopeWholeSubtree,
		ldap.NeverDerefAliases,
		2, // more than one is an error
		int(l.cfg.AuthTimeout.Seconds()),
		false,
		strings.ReplaceAll(filter, emailPlaceholder, ldap.EscapeFilter(email)),
		[]string{attrDisplayName, attrCN, attrUPN, attrMail, attrSAM, attrUAC},
		nil,
	)

	result, err := c.Search(searchRequest)
	if err != nil && !ldap.IsErrorWithCode(err, ldap.LDAPResultSizeLimitExceeded) {
		return nil, fmt.Errorf("failed to search for account: %w", err)
	}

	if result == nil {
		return nil, ErrNotFound
	}

	switch len(result.Entries) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return result.Entries[0], nil
	default:
		return nil, ErrMultipleAccounts
	}
}

func accountFromEntry(e *ldap.Entry) *Account {
	a := &Account{
		DN:            e.DN,
		DisplayName:   e.GetAttributeValue(attrDisplayName),
		CommonName:    e.GetAttributeValue(attrCN),
		PrincipalName: e.GetAttributeValue(attrUPN),
		Email:         e.GetAttributeValue(attrMail),
		AccountName:   e.GetAttributeValue(attrSAM),
		Enabled:       true,
	}

	if uac, err := strconv.Atoi(e.GetAttributeValue(attrUAC)); err == nil {
		a.Enabled = uac&uacAccountDisable == 0
	}

	return a
}

// Authenticate binds as the account found for email.
func (l *LDAP) Authenticate(ctx context.Context, email, password string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}

	ok := false

	err := l.withConn(ctx, func(c conn) error {
		entry, err := l.searchEntry(c, email)
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err = c.Bind(entry.DN, password); err != nil {
			if ldap.IsErrorWithCode(err, ldap.LDAPResultInvalidCredentials) {
				return nil
			}

			return fmt.Errorf("authentication failed: %w", err)
		}

		ok = true

		return nil
	})
	if err != nil {
		return false, fmt.Errorf("ldap authenticate: %w", err)
	}

	return ok, nil
}

// FindAccount looks up email.
func (l *LDAP) FindAccount(ctx context.Context, email string) (*Account, error) {
	var account *Account

	err := l.withConn(ctx, func(c conn) error {
		entry, err := l.searchEntry(c, email)
		if err != nil {
			return err
		}

		account = accountFromEntry(entry)

		return nil
	})
	if err != nil {
		return nil, Classify("find", err)
	}

	return account, nil
}

// CreateAccount adds an enabled user object below the users container.
func (l *LDAP) CreateAccount(ctx context.Context, n NewAccount) error {
	accountName := n.AccountName
	if accountName == "" {
		accountName = AccountName(n.Email)
	}

	dn := rdnPrefix + ldap.EscapeDN(n.Name) + "," + l.cfg.UsersContainer()

	req := ldap.NewAddRequest(dn, nil)
	req.Attribute("objectClass", []string{"top", "person", "organizationalPerson", "user"})
	req.Attribute(attrCN, []string{n.Name})
	req.Attribute(attrDisplayName, []string{n.Name})
	req.Attribute(attrGivenName, []string{n.GivenName()})

	if sn := n.Surname(); sn != "" {
		req.Attribute(attrSurname, []string{sn})
	}

	req.Attribute(attrUPN, []string{n.Email})
	req.Attribute(attrMail, []string{n.Email})
	req.Attribute(attrSAM, []string{accountName})

	uac := uacNormalAccount
	if n.Password != "" {
		req.Attribute(attrUnicodePwd, []string{encodePassword(n.Password)})
	} else {
		uac |= uacAccountDisable
	}

	req.Attribute(attrUAC, []string{strconv.Itoa(uac)})

	err := l.withConn(ctx, func(c conn) error {
		return c.Add(req)
	})

	return Classify("create", err)
}

// modifyAccount finds email and applies the modification built by fn.
func (l *LDAP) modifyAccount(ctx context.Context, op, email string, fn func(req *ldap.ModifyRequest)) error {
	err := l.withConn(ctx, func(c conn) error {
		entry, err := l.searchEntry(c, email)
		if err != nil {
			return err
		}

		req := ldap.NewModifyRequest(entry.DN, nil)
		fn(req)

		return c.Modify(req)
	})

	return Classify(op, err)
}

// UpdateAccount replaces display, given and surname.
func (l *LDAP) UpdateAccount(ctx context.Context, email string, changes AccountChanges) error {
	if changes.Empty() {
		return nil
	}

	name := *changes.DisplayName
	given, sn := SplitName(name)

	return l.modifyAccount(ctx, "update", email, func(req *ldap.ModifyRequest) {
		req.Replace(attrDisplayName, []string{name})
		req.Replace(attrGivenName, []string{given})

		if sn != "" {
			req.Replace(attrSurname, []string{sn})
		} else {
			req.Replace(attrSurname, []string{})
		}
	})
}

// ResetPassword replaces unicodePwd. The directory requires an encrypted connection for this.
func (l *LDAP) ResetPassword(ctx context.Context, email, password string) error {
	return l.modifyAccount(ctx, "reset-password", email, func(req *ldap.ModifyRequest) {
		req.Replace(attrUnicodePwd, []string{encodePassword(password)})
	})
}

// DeleteAccount removes the entry of email.
func (l *LDAP) DeleteAccount(ctx context.Context, email string) error {
	err := l.withConn(ctx, func(c conn) error {
		entry, err := l.searchEntry(c, email)
		if err != nil {
			return err
		}

		return c.Del(ldap.NewDelRequest(entry.DN, nil))
	})

	return Classify("delete", err)
}

// encodePassword returns the quoted UTF-16LE form Active Directory expects in unicodePwd.
func encodePassword(password string) string {
	units := utf16.Encode([]rune(`"` + password + `"`))
	out := make([]byte, len(units)*2) //nolint:mnd

	for i, u := range units {
		binary.LittleEndian.PutUint16(out[i*2:], u)
	}

	return string(out)
}
