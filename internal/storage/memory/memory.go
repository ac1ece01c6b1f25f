// internal/storage/memory/memory.go
package memory

import (
	"sync"
	"time"

	"github.com/towerline/roundsim/internal/config"
	"github.com/towerline/roundsim/pkg/core"
)

// Backend keeps round results in memory and exports them to JSON on Close
type Backend struct {
	cfg       config.MemoryConfig
	startedAt time.Time

	results []*core.RoundResult

	lastExportPath string
	mu             sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init stamps the session start used in the export file name
func (b *Backend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.startedAt = time.Now()
	b.results = nil
	b.lastExportPath = ""
	return nil
}

// Close exports every stored result. Nothing is written when no round was saved.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.results) == 0 {
		return nil
	}
	return b.exportJSON()
}

// SaveRound stores a result
func (b *Backend) SaveRound(res *core.RoundResult) error {
	if res == nil {
		return core.ErrNilResult
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.results = append(b.results, res)
	return nil
}

// Results returns the stored results in save order
func (b *Backend) Results() []*core.RoundResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]*core.RoundResult, len(b.results))
	copy(out, b.results)
	return out
}

// ExportedFilePath returns the path of the last export, or "" before Close
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastExportPath
}
