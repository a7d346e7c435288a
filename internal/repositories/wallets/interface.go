// Package wallets stores wallet bookkeeping metadata (names and addresses).
package wallets

import (
	"context"

	"github.com/dmitrijs2005/walletvault/internal/models"
)

// Repository describes CRUD operations for wallet metadata.
type Repository interface {
	// Add inserts a new wallet. The caller assigns the ID.
	Add(ctx context.Context, w *models.Wallet) error

	// GetAll returns all wallets ordered by creation time.
	GetAll(ctx context.Context) ([]models.Wallet, error)

	// GetByID returns a wallet, or common.ErrorNotFound.
	GetByID(ctx context.Context, id string) (*models.Wallet, error)

	// DeleteByID removes a wallet; common.ErrorNotFound if absent.
	DeleteByID(ctx context.Context, id string) error
}
