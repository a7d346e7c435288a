// Package store opens the local SQLite database, applies schema
// migrations, and wires up the repositories.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/walletvault/internal/filex"
	"github.com/dmitrijs2005/walletvault/internal/repositories/credentials"
	"github.com/dmitrijs2005/walletvault/internal/repositories/settings"
	"github.com/dmitrijs2005/walletvault/internal/repositories/wallets"
	"github.com/dmitrijs2005/walletvault/internal/store/migrations"
	"github.com/pressly/goose/v3"
)

// Repositories bundles the storage collaborators backed by one database.
type Repositories struct {
	Credential credentials.Repository
	Settings   settings.Repository
	Wallet     wallets.Repository
	DB         *sql.DB
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens (creating if necessary) the SQLite database at dsn,
// applies migrations, restricts the file to owner-only permissions, and
// returns the repository set. The caller owns closing Repositories.DB.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// The credential blob must not be readable by other local users.
	if err := filex.RestrictToOwner(dsn); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repositories{
		Credential: credentials.NewSQLiteRepository(db),
		Settings:   settings.NewSQLiteRepository(db),
		Wallet:     wallets.NewSQLiteRepository(db),
		DB:         db,
	}, nil
}
