package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/walletvault/internal/common"
	"github.com/dmitrijs2005/walletvault/internal/credential"
	"github.com/dmitrijs2005/walletvault/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). The record is stored in its encoded (versioned, hex-field)
// form in a single fixed row.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Load reads and decodes the credential record. Returns
// common.ErrorNotFound when no record has been saved yet.
func (r *SQLiteRepository) Load(ctx context.Context) (*credential.Record, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM credential WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load credential: %w", err)
	}
	return credential.Decode(data)
}

// Save encodes and upserts the credential record, replacing any previous
// one in a single statement.
func (r *SQLiteRepository) Save(ctx context.Context, rec *credential.Record) error {
	data, err := credential.Encode(rec)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO credential (id, data) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data
	`, data)
	if err != nil {
		return fmt.Errorf("failed to save credential: %w", err)
	}
	return nil
}

// Delete removes the credential record if present.
func (r *SQLiteRepository) Delete(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM credential WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
