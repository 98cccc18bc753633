package handler

import "errors"

const (
	// APIPath is the prefix of every JSON route.
	APIPath = "/api"

	// RouterRootPath is the root path of a route group.
	RouterRootPath = "/"

	// MsgDatabaseError is answered for store failures.
	MsgDatabaseError = "Database error"

	// MsgServerError is answered for unexpected failures.
	MsgServerError = "Internal server error"

	// MsgUserNotFound is answered when the addressed user does not exist.
	MsgUserNotFound = "User not found"

	// MsgEmailTaken is answered when an email belongs to another user.
	MsgEmailTaken = "Email already taken"
)

// ErrDepsInvalid is returned by Init when a dependency is missing.
var ErrDepsInvalid = errors.New("router or handler dependencies are nil")
