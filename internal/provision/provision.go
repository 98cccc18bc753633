// Package provision mirrors local account lifecycle events into the directory.
package provision

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/directory"
)

const reasonDisabled = "directory provisioning disabled"

var outcomes = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "directory_provisioning_total",
	Help: "Directory provisioning operations by operation and outcome.",
}, []string{"op", "outcome"})

// NewUser is the input of CreateAccount. Password is used once and discarded.
type NewUser struct {
	Name        string
	Email       string
	Password    string
	AccountName string
}

// Changes lists the mirrored profile fields. Nil fields are untouched.
type Changes struct {
	DisplayName *string
}

// Provisioner mirrors CredentialStore mutations into a directory.Authority.
type Provisioner struct {
	authority directory.Authority
	enabled   bool
	timeout   time.Duration
}

// New creates a Provisioner. authority may be nil, which disables provisioning.
func New(cfg config.Directory, authority directory.Authority) *Provisioner {
	timeout := cfg.ProvisionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Provisioner{
		authority: authority,
		enabled:   cfg.ProvisioningEnabled && authority != nil,
		timeout:   timeout,
	}
}

// Enabled reports whether lifecycle events reach the directory.
func (p *Provisioner) Enabled() bool {
	return p != nil && p.enabled
}

func (p *Provisioner) finish(op, email string, o Outcome) Outcome {
	outcomes.WithLabelValues(op, string(o.Kind)).Inc()

	event := log.Info()
	if o.Kind == KindFailed {
		event = log.Warn().Err(o.Err)
	}

	event.Str("op", op).Str("email", email).Str("outcome", string(o.Kind)).Msg("directory provisioning")

	return o
}

// CreateAccount creates the directory account unless one exists for the email.
func (p *Provisioner) CreateAccount(ctx context.Context, u NewUser) Outcome {
	const op = "create"

	if !p.Enabled() {
		return Skipped(reasonDisabled)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.authority.FindAccount(ctx, u.Email)

	switch {
	case err == nil:
		return p.finish(op, u.Email, Failed(directory.ErrAlreadyExists))
	case !errors.Is(err, directory.ErrNotFound):
		return p.finish(op, u.Email, Failed(directory.Classify("find", err)))
	}

	accountName := u.AccountName
	if accountName == "" {
		accountName = directory.AccountName(u.Email)
	}

	err = p.authority.CreateAccount(ctx, directory.NewAccount{
		Name:        u.Name,
		Email:       u.Email,
		Password:    u.Password,
		AccountName: accountName,
	})
	if err != nil {
		return p.finish(op, u.Email, Failed(directory.Classify(op, err)))
	}

	return p.finish(op, u.Email, Created())
}

// exists runs the existence gate shared by update, delete and reset.
func (p *Provisioner) exists(ctx context.Context, email string) error {
	_, err := p.authority.FindAccount(ctx, email)
	if err != nil {
		return directory.Classify("find", err)
	}

	return nil
}

// UpdateAccount mirrors a display name change.
func (p *Provisioner) UpdateAccount(ctx context.Context, email string, changes Changes) Outcome {
	const op = "update"

	if !p.Enabled() {
		return Skipped(reasonDisabled)
	}

	if changes.DisplayName == nil {
		return Skipped("no changes")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.exists(ctx, email); err != nil {
		return p.finish(op, email, Failed(err))
	}

	if err := p.authority.UpdateAccount(ctx, email, directory.AccountChanges{DisplayName: changes.DisplayName}); err != nil {
		return p.finish(op, email, Failed(directory.Classify(op, err)))
	}

	return p.finish(op, email, Updated())
}

// DeleteAccount removes the directory account. A missing account is ErrNotFound.
func (p *Provisioner) DeleteAccount(ctx context.Context, email string) Outcome {
	const op = "delete"

	if !p.Enabled() {
		return Skipped(reasonDisabled)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.exists(ctx, email); err != nil {
		return p.finish(op, email, Failed(err))
	}

	if err := p.authority.DeleteAccount(ctx, email); err != nil {
		return p.finish(op, email, Failed(directory.Classify(op, err)))
	}

	return p.finish(op, email, Deleted())
}

// ResetPassword sets a new directory credential. The enabled flag is untouched.
func (p *Provisioner) ResetPassword(ctx context.Context, email, password string) Outcome {
	const op = "reset-password"

	if !p.Enabled() {
		return Skipped(reasonDisabled)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.exists(ctx, email); err != nil {
		return p.finish(op, email, Failed(err))
	}

	if err := p.authority.ResetPassword(ctx, email, password); err != nil {
		return p.finish(op, email, Failed(directory.Classify(op, err)))
	}

	return p.finish(op, email, Updated())
}

// AccountExists reports whether the directory holds email. Any lookup error is false.
func (p *Provisioner) AccountExists(ctx context.Context, email string) bool {
	if !p.Enabled() {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	_, err := p.authority.FindAccount(ctx, email)
	if err != nil && !errors.Is(err, directory.ErrNotFound) {
		log.Debug().Err(err).Str("email", email).Msg("directory lookup failed")
	}

	return err == nil
}
