// Package gormstorage implements the storage.Backend interface on any GORM
// dialector. The SQLite and Postgres backends embed it.
package gormstorage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/towerline/roundsim/internal/database"
	"github.com/towerline/roundsim/internal/model"
	"github.com/towerline/roundsim/internal/model/convert"
	"github.com/towerline/roundsim/pkg/core"
)

// ErrNoDB is returned by Init when no connection was injected.
var ErrNoDB = errors.New("gorm backend has no database connection")

// ErrUnstorable marks a result that can never be written, whatever the
// state of the database.
var ErrUnstorable = errors.New("round cannot be stored")

// Dependencies holds all dependencies for the GORM storage backend.
type Dependencies struct {
	DB     *gorm.DB
	Logger *slog.Logger
}

// Backend writes each result as one rounds row with its trails and breaches.
type Backend struct {
	deps Dependencies
}

// New creates a new GORM storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Backend{deps: deps}
}

// DB returns the underlying connection.
func (b *Backend) DB() *gorm.DB {
	return b.deps.DB
}

// Init migrates the schema.
func (b *Backend) Init() error {
	if b.deps.DB == nil {
		return ErrNoDB
	}
	b.deps.Logger.Info("Migrating schema", "dialect", b.deps.DB.Dialector.Name())
	return database.Migrate(b.deps.DB)
}

// Close is a no-op; the connection belongs to whoever opened it.
func (b *Backend) Close() error {
	return nil
}

// SaveRound inserts res in a single transaction.
func (b *Backend) SaveRound(res *core.RoundResult) error {
	if res == nil {
		return core.ErrNilResult
	}
	row, err := convert.ResultToRound(res)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnstorable, err)
	}

	err = b.deps.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&row).Error
	})
	if err != nil {
		b.deps.Logger.Error("Failed to save round", "id", res.ID, "error", err)
		return fmt.Errorf("failed to save round %s: %w", res.ID, err)
	}

	b.deps.Logger.Debug("Saved round",
		"id", res.ID,
		"label", res.Label,
		"trails", len(row.Trails),
		"breaches", len(row.Breaches))
	return nil
}

// Round loads a stored result by ID.
func (b *Backend) Round(id string) (core.RoundResult, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return core.RoundResult{}, fmt.Errorf("invalid round id %q: %w", id, err)
	}

	var row model.Round
	err = b.deps.DB.
		Preload("Trails", func(db *gorm.DB) *gorm.DB { return db.Order("stack_id") }).
		Preload("Breaches", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		First(&row, "id = ?", uid).Error
	if err != nil {
		return core.RoundResult{}, fmt.Errorf("failed to load round %s: %w", id, err)
	}
	return convert.RoundToResult(row)
}

// RoundIDs returns the IDs of every stored round with the given label, oldest
// first. An empty label matches all rounds.
func (b *Backend) RoundIDs(label string) ([]string, error) {
	q := b.deps.DB.Model(&model.Round{}).Order("started_at, id")
	if label != "" {
		q = q.Where("label = ?", label)
	}

	var ids []uuid.UUID
	if err := q.Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}

	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out, nil
}
