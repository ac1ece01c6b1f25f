// Package postgres implements the storage.Backend interface on PostgreSQL.
// Results are queued and written in batches by a background goroutine.
package postgres

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/towerline/roundsim/internal/queue"
	gormstorage "github.com/towerline/roundsim/internal/storage/gorm"
	"github.com/towerline/roundsim/pkg/core"
)

// DefaultFlushInterval is how often queued results are written.
const DefaultFlushInterval = 2 * time.Second

// ErrClosed is returned by SaveRound after Close.
var ErrClosed = errors.New("postgres backend closed")

// Dependencies holds all dependencies for the Postgres storage backend.
type Dependencies struct {
	DB            *gorm.DB
	Logger        *slog.Logger
	FlushInterval time.Duration
}

// Backend queues results and flushes them through the GORM backend.
type Backend struct {
	*gormstorage.Backend
	deps Dependencies

	mu      sync.Mutex
	pending *queue.Queue[*core.RoundResult]
	closed  bool

	stopChan chan struct{}
	done     chan struct{}
}

// New creates a new Postgres storage backend.
func New(deps Dependencies) *Backend {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.FlushInterval <= 0 {
		deps.FlushInterval = DefaultFlushInterval
	}
	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{DB: deps.DB, Logger: deps.Logger}),
		deps:    deps,
		pending: queue.New[*core.RoundResult](),
	}
}

// Init migrates the schema and starts the writer goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return fmt.Errorf("failed to setup DB: %w", err)
	}

	b.stopChan = make(chan struct{})
	b.done = make(chan struct{})
	go b.writeLoop()
	return nil
}

// SaveRound queues res for the next flush.
func (b *Backend) SaveRound(res *core.RoundResult) error {
	if res == nil {
		return core.ErrNilResult
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrClosed
	}
	b.pending.Push(res)
	return nil
}

// Pending returns the number of queued results.
func (b *Backend) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending.Len()
}

// Flush writes every queued result now.
func (b *Backend) Flush() error {
	b.mu.Lock()
	batch := b.pending.Items()
	b.pending.Clear()
	b.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	start := time.Now()
	var errs []error
	var retry []*core.RoundResult
	for _, res := range batch {
		if err := b.Backend.SaveRound(res); err != nil {
			errs = append(errs, err)
			if !errors.Is(err, gormstorage.ErrUnstorable) {
				retry = append(retry, res)
			}
		}
	}
	if len(retry) > 0 {
		b.requeue(retry)
	}
	b.deps.Logger.Debug("Flushed rounds",
		"count", len(batch),
		"failed", len(errs),
		"requeued", len(retry),
		"duration", time.Since(start))
	return errors.Join(errs...)
}

// requeue puts failed results back in front of anything queued since the
// flush started.
func (b *Backend) requeue(failed []*core.RoundResult) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending.Reset(append(failed, b.pending.Items()...))
}

// Close stops the writer goroutine and writes whatever is still queued.
func (b *Backend) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.mu.Unlock()

	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
	}
	return b.Flush()
}

func (b *Backend) writeLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.deps.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.Flush(); err != nil {
				b.deps.Logger.Error("Failed to write rounds", "error", err)
			}
		}
	}
}
