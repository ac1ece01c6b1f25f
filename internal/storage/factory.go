// internal/storage/factory.go
package storage

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/towerline/roundsim/internal/config"
	"github.com/towerline/roundsim/internal/database"
	"github.com/towerline/roundsim/internal/influx"
	"github.com/towerline/roundsim/internal/storage/memory"
	"github.com/towerline/roundsim/internal/storage/postgres"
	sqlitestorage "github.com/towerline/roundsim/internal/storage/sqlite"
)

// Compile-time interface checks
var (
	_ Backend  = (*memory.Backend)(nil)
	_ Exporter = (*memory.Backend)(nil)
	_ Backend  = (*sqlitestorage.Backend)(nil)
	_ Exporter = (*sqlitestorage.Backend)(nil)
	_ Backend  = (*postgres.Backend)(nil)
	_ Backend  = (*influx.Manager)(nil)
)

// SQLiteDumpPath is where an in-memory SQLite database is dumped for a
// session started at start.
func SQLiteDumpPath(cfg config.StorageConfig, start time.Time) string {
	name := fmt.Sprintf("roundsim_%s.db", start.Format("20060102_150405"))
	return filepath.Join(cfg.Memory.OutputDir, name)
}

// NewBackend creates a storage backend based on configuration
func NewBackend(cfg config.StorageConfig, db config.DBConfig, logger *slog.Logger) (Backend, error) {
	switch strings.ToLower(cfg.Type) {
	case "postgres":
		conn, err := database.GetPostgresDB(db)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return postgres.New(postgres.Dependencies{DB: conn, Logger: logger}), nil
	case "sqlite":
		sc := sqlitestorage.Config{Path: cfg.SQLite.Path}
		if sc.Path == "" {
			sc.DumpPath = SQLiteDumpPath(cfg, time.Now())
		}
		return sqlitestorage.New(sc, logger)
	case "memory", "":
		return memory.New(cfg.Memory), nil
	default:
		return nil, fmt.Errorf("unknown storage type: %s", cfg.Type)
	}
}
