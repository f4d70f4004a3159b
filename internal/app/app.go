// Package app wires the configuration, store, logging, and services into
// one assembled application.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/packrat-dev/packrat/internal/audit"
	"github.com/packrat-dev/packrat/internal/backup"
	"github.com/packrat-dev/packrat/internal/config"
	"github.com/packrat-dev/packrat/internal/csvio"
	"github.com/packrat-dev/packrat/internal/inventory"
	"github.com/packrat-dev/packrat/internal/logging"
	"github.com/packrat-dev/packrat/internal/store"
)

// App holds every assembled service. Build it with New and release it
// with Close.
type App struct {
	Config   config.Config
	Log      zerolog.Logger
	Store    *store.Store
	Audit    *audit.Logger
	Repo     *inventory.Repository
	Importer *csvio.Importer
	Exporter *csvio.Exporter
	Backups  *backup.Manager

	daily *logging.DailyWriter
}

// New opens the database and log stream and wires the services together.
func New(ctx context.Context, cfg config.Config, verbose bool) (*App, error) {
	daily, err := logging.NewDailyWriter(cfg.LogDir)
	if err != nil {
		return nil, err
	}
	var logOut io.Writer = daily
	if verbose {
		logOut = io.MultiWriter(daily, os.Stderr)
	}
	log := logging.New(logOut, verbose)

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		daily.Close()
		return nil, fmt.Errorf("open database %s: %w", cfg.DBPath, err)
	}
	st.EnsureIndexes(ctx, log)

	auditLog := audit.New(st.DB(), daily)
	repo := inventory.New(st, auditLog)

	return &App{
		Config:   cfg,
		Log:      log,
		Store:    st,
		Audit:    auditLog,
		Repo:     repo,
		Importer: csvio.NewImporter(repo, auditLog),
		Exporter: csvio.NewExporter(repo, auditLog),
		Backups:  backup.New(cfg.DBPath, cfg.BackupDir, auditLog),
		daily:    daily,
	}, nil
}

// BackupMaxAge returns the configured staleness threshold as a duration.
func (a *App) BackupMaxAge() time.Duration {
	return time.Duration(a.Config.BackupMaxAgeDays) * 24 * time.Hour
}

func (a *App) Close() error {
	err := a.Store.Close()
	if cerr := a.daily.Close(); err == nil {
		err = cerr
	}
	return err
}
