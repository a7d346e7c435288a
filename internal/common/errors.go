// Package common defines shared constants and sentinel errors used across
// walletvault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Credential record codec errors.
	ErrCorruptRecord      = errors.New("corrupt credential record")
	ErrUnsupportedVersion = errors.New("unsupported credential record version")
)
