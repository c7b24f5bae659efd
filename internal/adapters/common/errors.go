package common

import (
	"errors"
	"fmt"
)

// ErrTransient and ErrPermanent are sentinel errors adapters will use when
// classifying provider failures.
var (
	ErrTransient = errors.New("transient error")
	ErrPermanent = errors.New("permanent error")
)

// WrapTransient annotates an error so callers can detect transient failures. The
// original error stays reachable through errors.Is and errors.As.
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %w", ErrTransient, err)
}

// WrapPermanent annotates an error as permanent.
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// IsTransient reports whether err was classified as retryable by an adapter.
func IsTransient(err error) bool { return errors.Is(err, ErrTransient) }

// IsPermanent reports whether err was classified as non-retryable.
func IsPermanent(err error) bool { return errors.Is(err, ErrPermanent) }
