// Package credentials persists the single encrypted credential record.
package credentials

import (
	"context"

	"github.com/dmitrijs2005/walletvault/internal/credential"
)

// Repository stores at most one credential record. Load returns
// common.ErrorNotFound while no record exists; Save replaces the record
// wholesale (the record is never partially mutated).
type Repository interface {
	Load(ctx context.Context) (*credential.Record, error)
	Save(ctx context.Context, r *credential.Record) error
	Delete(ctx context.Context) error
}
