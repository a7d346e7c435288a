// Package settings persists application settings as key/value pairs.
package settings

import "context"

// Keys used by the application.
const (
	// KeySessionTimeoutMinutes holds the session idle timeout; "0" disables it.
	KeySessionTimeoutMinutes = "session_timeout_minutes"
)

// Repository describes key/value settings storage.
type Repository interface {
	// Get returns the value for key, or common.ErrorNotFound.
	Get(ctx context.Context, key string) (string, error)

	// Set inserts or updates the value for key.
	Set(ctx context.Context, key string, value string) error

	// Delete removes a key; missing keys are not an error.
	Delete(ctx context.Context, key string) error
}
