// Package validate checks request input before any store or directory access.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/authenticator/authenticator/internal/db/models"
)

// MaxPasswordBytes is the longest password accepted, the input limit of bcrypt.
const MaxPasswordBytes = 72

const (
	tagPassword = "password"
	tagRole     = "role"
)

// Error lists the failed fields of one input.
type Error struct {
	// Fields maps the json field name to a human readable message.
	Fields map[string]string
	// order keeps Error() stable
	order []string
}

// Error returns the messages of all failed fields.
func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.order))
	for _, f := range e.order {
		msgs = append(msgs, e.Fields[f])
	}

	return strings.Join(msgs, "; ")
}

// Validator wraps a validator.Validate configured with the password policy.
type Validator struct {
	v         *validator.Validate
	minLength int
}

// New creates a Validator. minLength is the minimum password length.
func New(minLength int) *Validator {
	if minLength <= 0 {
		minLength = 6
	}

	v := validator.New(validator.WithRequiredStructEnabled())

	// report json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}

		return name
	})

	_ = v.RegisterValidation(tagPassword, func(fl validator.FieldLevel) bool { //nolint:errcheck
		pw := fl.Field().String()

		return len([]rune(pw)) >= minLength && len(pw) <= MaxPasswordBytes
	})

	_ = v.RegisterValidation(tagRole, func(fl validator.FieldLevel) bool { //nolint:errcheck
		return models.Role(fl.Field().String()).Valid()
	})

	return &Validator{v: v, minLength: minLength}
}

// MinLength returns the enforced minimum password length.
func (val *Validator) MinLength() int {
	return val.minLength
}

// Struct validates s and returns *Error when a field fails.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	out := &Error{Fields: make(map[string]string, len(verrs))}

	for _, fe := range verrs {
		field := fe.Field()
		if _, ok := out.Fields[field]; ok {
			continue
		}

		out.Fields[field] = val.message(fe)
		out.order = append(out.order, field)
	}

	return out
}

func (val *Validator) message(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case tagPassword:
		if pw, ok := fe.Value().(string); ok && len(pw) > MaxPasswordBytes {
			return fmt.Sprintf("%s must be at most %d bytes", field, MaxPasswordBytes)
		}

		return fmt.Sprintf("%s must be at least %d characters", field, val.minLength)
	case tagRole:
		return field + " must be user, admin, or superadmin"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "nefield":
		return field + " must be different from " + fe.Param()
	default:
		return field + " is invalid"
	}
}
