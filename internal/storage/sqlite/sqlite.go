// Package sqlitestorage implements the storage.Backend interface on SQLite.
// It wraps the GORM backend; the SQLite-specific parts are opening a file or
// private in-memory database and dumping the in-memory one to disk on Close.
package sqlitestorage

import (
	"fmt"
	"io"
	"log/slog"

	"gorm.io/gorm"

	"github.com/towerline/roundsim/internal/database"
	gormstorage "github.com/towerline/roundsim/internal/storage/gorm"
)

// Config holds configuration for the SQLite storage backend.
type Config struct {
	// Path is the database file. Empty keeps the database in memory.
	Path string

	// DumpPath receives a VACUUM INTO copy of an in-memory database on Close.
	DumpPath string
}

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db     *gorm.DB
	cfg    Config
	logger *slog.Logger
}

// New opens the database described by cfg.
func New(cfg Config, logger *slog.Logger) (*Backend, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	db, err := database.GetSqliteDB(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: db, Logger: logger}),
		db:      db,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// InMemory reports whether the database lives only in memory.
func (b *Backend) InMemory() bool {
	return b.cfg.Path == ""
}

// ExportedFilePath returns the file holding the rounds after Close.
func (b *Backend) ExportedFilePath() string {
	if b.InMemory() {
		return b.cfg.DumpPath
	}
	return b.cfg.Path
}

// Close dumps an in-memory database if a dump path is set, then closes the
// connection.
func (b *Backend) Close() error {
	if b.InMemory() && b.cfg.DumpPath != "" {
		if err := database.DumpMemoryDBToDisk(b.db, b.cfg.DumpPath); err != nil {
			b.logger.Error("Failed to dump SQLite DB", "path", b.cfg.DumpPath, "error", err)
			return err
		}
		b.logger.Info("Dumped SQLite DB", "path", b.cfg.DumpPath)
	}

	sqlDB, err := b.db.DB()
	if err != nil {
		return fmt.Errorf("failed to access sql interface: %w", err)
	}
	return sqlDB.Close()
}
