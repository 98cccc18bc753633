package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"
)

var (
	// ErrAlreadyExists is returned when the directory already holds the account.
	ErrAlreadyExists = errors.New("account already exists in directory")
	// ErrNotFound is returned when the directory has no such account.
	ErrNotFound = errors.New("account not found in directory")
	// ErrMultipleAccounts is returned when an email matches more than one entry.
	ErrMultipleAccounts = errors.New("multiple directory accounts match")
	// ErrNotConfigured is returned by New when connection parameters are missing.
	ErrNotConfigured = errors.New("directory connection is not configured")
)

// TransportError is any directory failure that is neither ErrAlreadyExists nor ErrNotFound.
type TransportError struct {
	// Op names the failed operation, e.g. "create".
	Op string
	// Diagnostic is the raw text reported by the directory or the automation tool.
	Diagnostic string
	Err        error
}

func (e *TransportError) Error() string {
	msg := "directory " + e.Op + " failed"
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}

	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

const opCreate = "create"

// diagnostics that identify an existing or missing account in tool output
var (
	alreadyExistsHints = []string{ //nolint:gochecknoglobals
		"already exists",
		"already in use",
		"entryalreadyexists",
	}
	notFoundHints = []string{ //nolint:gochecknoglobals
		"cannot find an object",
		"not found",
		"no such object",
		"does not exist",
	}
)

// Classify normalizes err from operation op into ErrAlreadyExists, ErrNotFound
// or a *TransportError. A nil err stays nil. Only a create can report an existing
// account, and a create never reports a missing one: a missing container or
// parent object during create is a *TransportError.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var te *TransportError
	if errors.As(err, &te) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TransportError{Op: op, Diagnostic: err.Error(), Err: err}
	}

	creating := op == opCreate

	switch {
	case creating && alreadyExists(err):
		if errors.Is(err, ErrAlreadyExists) {
			return err
		}

		return fmt.Errorf("%w: %s", ErrAlreadyExists, err.Error())
	case !creating && missing(err):
		if errors.Is(err, ErrNotFound) {
			return err
		}

		return fmt.Errorf("%w: %s", ErrNotFound, err.Error())
	}

	te = &TransportError{Op: op, Diagnostic: err.Error(), Err: err}
	if errors.Is(err, ErrAlreadyExists) || errors.Is(err, ErrNotFound) {
		// keep the text, drop the sentinel that does not apply to op
		te.Err = nil
	}

	return te
}

func alreadyExists(err error) bool {
	if errors.Is(err, ErrAlreadyExists) || ldap.IsErrorWithCode(err, ldap.LDAPResultEntryAlreadyExists) {
		return true
	}

	return containsAny(err, alreadyExistsHints)
}

func missing(err error) bool {
	if errors.Is(err, ErrNotFound) || ldap.IsErrorWithCode(err, ldap.LDAPResultNoSuchObject) {
		return true
	}

	return containsAny(err, notFoundHints)
}

func containsAny(err error, hints []string) bool {
	text := strings.ToLower(err.Error())

	for _, hint := range hints {
		if strings.Contains(text, hint) {
			return true
		}
	}

	return false
}
