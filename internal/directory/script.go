package directory

import (
	"bufio"
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/authenticator/authenticator/internal/config"
)

const (
	outputSuccess = "SUCCESS:"
	outputError   = "ERROR:"

	scriptCreate = "create.ps1"
	scriptUpdate = "update.ps1"
	scriptDelete = "delete.ps1"
	scriptReset  = "reset-password.ps1"

	killGrace = 2 * time.Second
)

//go:embed scripts/*.ps1
var embeddedScripts embed.FS

// errUnexpectedOutput is wrapped when the tool reported neither success nor error.
var errUnexpectedOutput = errors.New("automation tool reported neither success nor error")

// runFunc executes name with args, feeding stdin.
type runFunc func(ctx context.Context, name string, args []string, stdin []byte) (stdout, stderr []byte, err error)

// Script is an Authority that verifies credentials over LDAP and performs
// lifecycle mutations with an external automation tool, PowerShell with the
// ActiveDirectory module by default. Values are passed as separate arguments
// and secrets on stdin, never interpolated into the script text.
type Script struct {
	cfg    config.Directory
	lookup Authority
	run    runFunc
}

// NewScript creates a Script authority. lookup serves Authenticate and FindAccount.
func NewScript(cfg config.Directory, lookup Authority) *Script {
	return &Script{cfg: cfg, lookup: lookup, run: runCommand}
}

func runCommand(ctx context.Context, name string, args []string, stdin []byte) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = bytes.NewReader(stdin)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = killGrace

	err := cmd.Run()

	return stdout.Bytes(), stderr.Bytes(), err
}

// Ping checks the lookup connection.
func (s *Script) Ping(ctx context.Context) error {
	if p, ok := s.lookup.(Pinger); ok {
		return p.Ping(ctx)
	}

	return nil
}

// Authenticate delegates to the lookup authority.
func (s *Script) Authenticate(ctx context.Context, email, password string) (bool, error) {
	return s.lookup.Authenticate(ctx, email, password)
}

// FindAccount delegates to the lookup authority.
func (s *Script) FindAccount(ctx context.Context, email string) (*Account, error) {
	return s.lookup.FindAccount(ctx, email)
}

// CreateAccount runs the create script.
func (s *Script) CreateAccount(ctx context.Context, n NewAccount) error {
	accountName := n.AccountName
	if accountName == "" {
		accountName = AccountName(n.Email)
	}

	return s.execute(ctx, "create", scriptCreate, scriptParams(
		"Name", n.Name,
		"GivenName", n.GivenName(),
		"Surname", n.Surname(),
		"Email", n.Email,
		"AccountName", accountName,
		"Path", s.cfg.UsersContainer(),
	), n.Password)
}

// UpdateAccount runs the update script.
func (s *Script) UpdateAccount(ctx context.Context, email string, changes AccountChanges) error {
	if changes.Empty() {
		return nil
	}

	given, sn := SplitName(*changes.DisplayName)

	return s.execute(ctx, "update", scriptUpdate, scriptParams(
		"Email", email,
		"DisplayName", *changes.DisplayName,
		"GivenName", given,
		"Surname", sn,
	), "")
}

// DeleteAccount runs the delete script.
func (s *Script) DeleteAccount(ctx context.Context, email string) error {
	return s.execute(ctx, "delete", scriptDelete, scriptParams("Email", email), "")
}

// ResetPassword runs the reset script.
func (s *Script) ResetPassword(ctx context.Context, email, password string) error {
	return s.execute(ctx, "reset-password", scriptReset, scriptParams("Email", email), password)
}

// scriptParams renders name/value pairs as single -Name:value arguments, so a
// value starting with a dash is never bound as a parameter name. Pairs with an
// empty value are left out.
func scriptParams(pairs ...string) []string {
	out := make([]string, 0, len(pairs)/2) //nolint:mnd

	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}

		out = append(out, "-"+pairs[i]+":"+pairs[i+1])
	}

	return out
}

// execute writes the named script to a temporary file, runs it and removes the
// file before returning.
func (s *Script) execute(ctx context.Context, op, script string, params []string, secret string) error {
	body, err := embeddedScripts.ReadFile("scripts/" + script)
	if err != nil {
		return &TransportError{Op: op, Diagnostic: "missing script " + script, Err: err}
	}

	path, err := writeTemp(s.cfg.Script.TempDir, body)
	if err != nil {
		return &TransportError{Op: op, Diagnostic: "can't write script payload", Err: err}
	}

	defer func() {
		if errRemove := os.Remove(path); errRemove != nil && !errors.Is(errRemove, os.ErrNotExist) {
			log.Error().Err(errRemove).Str("path", path).Msg("can't remove script payload")
		}
	}()

	args := make([]string, 0, len(s.cfg.Script.Args)+1+len(params))
	args = append(args, s.cfg.Script.Args...)
	args = append(args, path)
	args = append(args, params...)

	var stdin []byte
	if secret != "" {
		stdin = []byte(secret + "\n")
	}

	start := time.Now()
	stdout, stderr, runErr := s.run(ctx, s.cfg.Script.Command, args, stdin)

	log.Debug().
		Str("op", op).
		Dur("took", time.Since(start)).
		Bool("ok", runErr == nil).
		Msg("directory script finished")

	if len(stderr) > 0 {
		log.Warn().Str("op", op).Str("stderr", strings.TrimSpace(string(stderr))).Msg("directory script wrote to stderr")
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return &TransportError{Op: op, Diagnostic: ctxErr.Error(), Err: ctxErr}
	}

	return parseOutput(op, stdout, stderr, runErr)
}

func writeTemp(dir string, body []byte) (string, error) {
	f, err := os.CreateTemp(dir, "authenticator-*.ps1")
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	path := f.Name()

	if _, err = f.Write(body); err != nil {
		_ = f.Close()       //nolint:errcheck
		_ = os.Remove(path) //nolint:errcheck

		return "", err //nolint:wrapcheck
	}

	if err = f.Close(); err != nil {
		_ = os.Remove(path) //nolint:errcheck

		return "", err //nolint:wrapcheck
	}

	return path, nil
}

// parseOutput maps the SUCCESS:/ERROR: protocol of the scripts to an error.
func parseOutput(op string, stdout, stderr []byte, runErr error) error {
	var success bool

	scanner := bufio.NewScanner(bytes.NewReader(stdout))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		switch {
		case strings.HasPrefix(line, outputError):
			return Classify(op, errors.New(strings.TrimSpace(strings.TrimPrefix(line, outputError))))
		case strings.HasPrefix(line, outputSuccess):
			success = true
		}
	}

	if success && runErr == nil {
		return nil
	}

	diagnostic := strings.TrimSpace(string(stderr))
	if diagnostic == "" {
		diagnostic = strings.TrimSpace(string(stdout))
	}

	if runErr == nil {
		runErr = errUnexpectedOutput
	}

	return &TransportError{Op: op, Diagnostic: diagnostic, Err: fmt.Errorf("%s: %w", op, runErr)}
}
