// Package cli implements the interactive walletvault shell: PIN setup and
// unlock, PIN change, wallet bookkeeping, and session control.
package cli

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/walletvault/internal/auth"
	"github.com/dmitrijs2005/walletvault/internal/common"
	"github.com/dmitrijs2005/walletvault/internal/config"
	"github.com/dmitrijs2005/walletvault/internal/filex"
	"github.com/dmitrijs2005/walletvault/internal/logging"
	"github.com/dmitrijs2005/walletvault/internal/repositories/settings"
	"github.com/dmitrijs2005/walletvault/internal/store"

	_ "modernc.org/sqlite"
)

// App wires the gate, the repositories, and the terminal together.
type App struct {
	config *config.Config
	repos  *store.Repositories
	gate   *auth.Gate
	log    logging.Logger
	reader *bufio.Reader
}

// NewApp opens the database, constructs the gate, and applies the stored
// session timeout (falling back to the configured default).
//
// A bare database filename is placed under an owner-only "data" directory
// next to the working directory; an explicit path is used as given.
func NewApp(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	dbPath := cfg.DatabasePath
	if filepath.Dir(dbPath) == "." {
		dir, err := filex.EnsureDataDir("data")
		if err != nil {
			log.Error(ctx, "error creating data directory", "error", err)
			return nil, err
		}
		dbPath = filepath.Join(dir, dbPath)
	}

	repos, err := store.InitDatabase(ctx, dbPath)
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	gate := auth.NewGate(repos.Credential, log)

	timeoutMinutes := int(cfg.SessionTimeout.Minutes())
	if stored, err := settings.GetInt(ctx, repos.Settings, settings.KeySessionTimeoutMinutes); err == nil {
		timeoutMinutes = stored
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}
	gate.SetSessionTimeout(timeoutMinutes)

	return &App{
		config: cfg,
		repos:  repos,
		gate:   gate,
		log:    log,
		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and blocks until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close locks the gate and releases the database.
func (a *App) Close() {
	a.gate.Lock()
	if a.repos != nil && a.repos.DB != nil {
		_ = a.repos.DB.Close()
	}
}

// touch refreshes the idle timer before a command runs.
func (a *App) touch() {
	a.gate.UpdateActivity()
}

func (a *App) isUnlocked() bool {
	return a.gate.CheckSession()
}
