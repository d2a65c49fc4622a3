// Package services provides application-level orchestration services
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a requested model, record or variable does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidDay is returned for day keys that are not YYYYMMDD.
	ErrInvalidDay = errors.New("invalid day")
	// ErrInvalidInput is returned for unsafe or missing request values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRestricted is returned when private content is requested anonymously.
	ErrRestricted = errors.New("authentication required")
	// ErrInvalidCredentials is returned by Login for an unknown mail or a wrong password.
	ErrInvalidCredentials = errors.New("credenziali errate")
	// ErrUserExists is returned by AddUser for an already registered mail.
	ErrUserExists = errors.New("user already exists")
)

// checkSegment rejects values that could escape the model tree when joined
// into a path.
func checkSegment(kind, value string) error {
	switch {
	case value == "", value == ".", value == "..":
		return fmt.Errorf("%w: %s %q", ErrInvalidInput, kind, value)
	case strings.ContainsAny(value, "/\\\x00"):
		return fmt.Errorf("%w: %s %q", ErrInvalidInput, kind, value)
	}
	return nil
}
