package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/towerline/roundsim/internal/definitions"
	"github.com/towerline/roundsim/internal/otel"
	"github.com/towerline/roundsim/internal/sim"
	"github.com/towerline/roundsim/internal/storage"
	"github.com/towerline/roundsim/pkg/core"
)

// DefaultCount is the pool size used when none is configured.
const DefaultCount = 4

// ErrNoTests is returned by RunBatch for an empty batch.
var ErrNoTests = errors.New("no test placements")

// Dependencies holds all dependencies for the worker manager
type Dependencies struct {
	Table  *definitions.Table
	Logger *slog.Logger

	// MaxFrames caps each round. Zero means sim.DefaultMaxFrames, negative no cap.
	MaxFrames int

	// Backend and Metrics are optional sinks for every finished round.
	Backend storage.Backend
	Metrics *otel.RoundMetrics
}

// Manager replays rounds on a bounded pool of goroutines
type Manager struct {
	deps  Dependencies
	count int

	// saveMu serializes backend writes; not every sink is safe for concurrent use.
	saveMu sync.Mutex
}

// NewManager creates a new worker manager. count <= 0 uses DefaultCount.
func NewManager(deps Dependencies, count int) *Manager {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Table == nil {
		deps.Table = definitions.Defaults()
	}
	if deps.MaxFrames == 0 {
		deps.MaxFrames = sim.DefaultMaxFrames
	}
	if count <= 0 {
		count = DefaultCount
	}
	return &Manager{deps: deps, count: count}
}

// Count returns the pool size.
func (m *Manager) Count() int {
	return m.count
}

// RunOne replays a single test against frame and hands the result to the sinks.
func (m *Manager) RunOne(ctx context.Context, frame core.Frame, test core.Placement) (*core.RoundResult, error) {
	logger := m.deps.Logger
	if test.Label != "" {
		logger = logger.With("label", test.Label)
	}

	r, err := sim.New(frame, test,
		sim.WithTable(m.deps.Table),
		sim.WithLogger(logger),
		sim.WithMaxFrames(m.deps.MaxFrames))
	if err != nil {
		return nil, fmt.Errorf("failed to load round: %w", err)
	}

	res, err := r.Run(ctx)
	if err != nil {
		return nil, err
	}

	if m.deps.Metrics != nil {
		m.deps.Metrics.Record(ctx, res)
	}
	if m.deps.Backend != nil {
		m.saveMu.Lock()
		err = m.deps.Backend.SaveRound(res)
		m.saveMu.Unlock()
		if err != nil {
			return res, fmt.Errorf("failed to save round %s: %w", res.ID, err)
		}
	}
	return res, nil
}
