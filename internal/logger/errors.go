package logger

import (
	"errors"
	"fmt"
	"os"
)

var (
	// ErrAppNameIsEmpty is returned if Log.AppName was not defined.
	ErrAppNameIsEmpty = errors.New("config log.appname can not be empty")

	// ErrServiceNameIsEmpty is returned if Log.ServiceName was not defined.
	ErrServiceNameIsEmpty = errors.New("config log.servicename can not be empty")
)

// ErrorHandler is installed as zerolog.ErrorHandler and reports dropped events on stderr.
func ErrorHandler(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "authenticator: dropped log event: %v\n", err)
}
