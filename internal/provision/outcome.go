package provision

import (
	"errors"

	"github.com/authenticator/authenticator/internal/directory"
)

// Kind is the result class of a provisioning operation.
type Kind string

// Outcome kinds.
const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindSkipped Kind = "skipped"
	KindFailed  Kind = "failed"
)

// Outcome is the transient result of a provisioning operation. It is never persisted.
type Outcome struct {
	Kind   Kind
	Reason string
	Err    error
}

// Created returns a created outcome.
func Created() Outcome { return Outcome{Kind: KindCreated} }

// Updated returns an updated outcome.
func Updated() Outcome { return Outcome{Kind: KindUpdated} }

// Deleted returns a deleted outcome.
func Deleted() Outcome { return Outcome{Kind: KindDeleted} }

// Skipped returns a skipped outcome with reason.
func Skipped(reason string) Outcome { return Outcome{Kind: KindSkipped, Reason: reason} }

// Failed returns a failed outcome carrying err.
func Failed(err error) Outcome { return Outcome{Kind: KindFailed, Err: err} }

// Succeeded reports whether the directory was changed.
func (o Outcome) Succeeded() bool {
	return o.Kind == KindCreated || o.Kind == KindUpdated || o.Kind == KindDeleted
}

// Warning returns the operator facing message for a failed outcome, or "".
// Raw diagnostics stay in the operator log.
func (o Outcome) Warning() string {
	if o.Kind != KindFailed {
		return ""
	}

	var te *directory.TransportError

	switch {
	case errors.Is(o.Err, directory.ErrAlreadyExists):
		return "saved locally, but the account already exists in the directory"
	case errors.Is(o.Err, directory.ErrNotFound):
		return "saved locally, but the account was not found in the directory"
	case errors.As(o.Err, &te):
		return "saved locally, but the directory " + te.Op + " failed"
	default:
		return "saved locally, but the directory could not be updated"
	}
}

// Report is the JSON shape attached to administrative responses.
type Report struct {
	Status  Kind   `json:"status"`
	Reason  string `json:"reason,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Report returns the JSON representation of o.
func (o Outcome) Report() Report {
	return Report{Status: o.Kind, Reason: o.Reason, Warning: o.Warning()}
}
