// Package models holds the data structures shared between repositories and
// the CLI layer.
package models

import "time"

// Wallet is bookkeeping metadata for a managed wallet: a display name and
// the public chain address. Private key material never lives here; the
// single wallet secret is custody of the auth gate and the encrypted
// credential record.
type Wallet struct {
	ID        string // uuid
	Name      string
	Address   string
	CreatedAt time.Time
}
