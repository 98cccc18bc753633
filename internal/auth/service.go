package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/config"
	"github.com/authenticator/authenticator/internal/db/controller/activity"
	"github.com/authenticator/authenticator/internal/db/models"
	"github.com/authenticator/authenticator/internal/directory"
)

const defaultAuthTimeout = 5 * time.Second

// Via names the credential authority that accepted a login.
type Via string

// Credential authorities.
const (
	ViaDirectory Via = "directory"
	ViaLocal     Via = "local"
)

var logins = promauto.NewCounterVec(prometheus.CounterOpts{ //nolint:gochecknoglobals
	Name: "auth_logins_total",
	Help: "Login attempts, differentiated by authority and result.",
}, []string{"via", "result"})

// ActivityLogger records audit entries on a best effort basis.
type ActivityLogger interface {
	Log(ctx context.Context, e activity.Entry)
}

// ClientInfo describes the caller of a login for the audit log.
type ClientInfo struct {
	IP        string
	UserAgent string
}

// Result of a successful login.
type Result struct {
	User *models.User
	Via  Via
}

// Authenticator decides logins according to the configured mode.
type Authenticator struct {
	mode      string
	timeout   time.Duration
	store     CredentialStore
	directory directory.Authority
	local     *LocalProvider
	activity  ActivityLogger
}

// NewAuthenticator creates an Authenticator. A nil authority means the directory
// is unavailable: directory mode rejects every login, hybrid mode goes local.
func NewAuthenticator(
	cfg *config.Config,
	store CredentialStore,
	authority directory.Authority,
	hasher Hasher,
	activities ActivityLogger,
) *Authenticator {
	timeout := cfg.Directory.AuthTimeout
	if timeout <= 0 {
		timeout = defaultAuthTimeout
	}

	mode := cfg.Auth.Mode
	if mode == "" {
		mode = config.AuthModeLocal
	}

	return &Authenticator{
		mode:      mode,
		timeout:   timeout,
		store:     store,
		directory: authority,
		local:     NewLocalProvider(store, hasher),
		activity:  activities,
	}
}

// Mode returns the effective authentication mode.
func (a *Authenticator) Mode() string {
	return a.mode
}

// Local returns the local credential provider.
func (a *Authenticator) Local() *LocalProvider {
	return a.local
}

// Login authenticates email and password. Every rejection is reported as
// ErrInvalidCredentials; errors wrapping ErrStore are server failures.
func (a *Authenticator) Login(ctx context.Context, email, password string, client ClientInfo) (*Result, error) {
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	if a.mode == config.AuthModeDirectory || a.mode == config.AuthModeHybrid {
		u, err := a.loginDirectory(ctx, email, password)
		if err == nil {
			return a.succeeded(ctx, u, ViaDirectory, client), nil
		}
		if errors.Is(err, ErrStore) {
			logins.WithLabelValues(string(ViaDirectory), "error").Inc()

			return nil, err
		}

		log.Info().Err(err).Str("email", email).Str("mode", a.mode).Msg("directory authentication failed")

		if a.mode == config.AuthModeDirectory {
			a.rejected(ctx, nil, email, ViaDirectory, client)

			return nil, ErrInvalidCredentials
		}

		log.Debug().Str("email", email).Msg("falling back to local authentication")
	}

	u, err := a.local.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, ErrStore) {
			logins.WithLabelValues(string(ViaLocal), "error").Inc()

			return nil, err
		}

		log.Info().Err(err).Str("email", email).Msg("local authentication failed")
		a.rejected(ctx, u, email, ViaLocal, client)

		return nil, ErrInvalidCredentials
	}

	return a.succeeded(ctx, u, ViaLocal, client), nil
}

func (a *Authenticator) loginDirectory(ctx context.Context, email, password string) (*models.User, error) {
	if a.directory == nil {
		return nil, ErrDirectoryUnavailable
	}

	account, err := a.bindAndFind(ctx, email, password)
	if err != nil {
		return nil, err
	}

	u, created, err := a.store.EnsureMirrored(ctx, email, account.Name(email))
	if err != nil {
		return nil, fmt.Errorf("%w: mirror directory account: %w", ErrStore, err)
	}

	if created {
		log.Info().Uint64("user_id", u.ID).Str("email", email).Msg("directory account mirrored into user store")
	}

	return u, nil
}

// bindAndFind runs the directory calls under the authentication timeout. Both
// the bind and the attribute lookup must succeed.
func (a *Authenticator) bindAndFind(ctx context.Context, email, password string) (*directory.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	ok, err := a.directory.Authenticate(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryUnavailable, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: directory rejected the credentials", ErrInvalidCredentials)
	}

	account, err := a.directory.FindAccount(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: read account attributes: %w", ErrDirectoryUnavailable, err)
	}

	return account, nil
}

func (a *Authenticator) succeeded(ctx context.Context, u *models.User, via Via, client ClientInfo) *Result {
	logins.WithLabelValues(string(via), "success").Inc()

	a.record(ctx, activity.Entry{
		UserID:      u.ID,
		Type:        models.ActivityLogin,
		Description: fmt.Sprintf("User logged in via %s", via),
		IPAddress:   client.IP,
		UserAgent:   client.UserAgent,
	})

	return &Result{User: u, Via: via}
}

// rejected audits a failed login when the account is known locally.
func (a *Authenticator) rejected(ctx context.Context, u *models.User, email string, via Via, client ClientInfo) {
	logins.WithLabelValues(string(via), "rejected").Inc()

	if u == nil {
		known, err := a.store.GetByEmail(ctx, email)
		if err != nil {
			return
		}

		u = known
	}

	a.record(ctx, activity.Entry{
		UserID:      u.ID,
		Type:        models.ActivityLoginFailed,
		Description: fmt.Sprintf("Failed login via %s", via),
		IPAddress:   client.IP,
		UserAgent:   client.UserAgent,
	})
}

func (a *Authenticator) record(ctx context.Context, e activity.Entry) {
	if a.activity == nil {
		return
	}

	a.activity.Log(ctx, e)
}
