package storage

import (
	"errors"

	"github.com/towerline/roundsim/pkg/core"
)

// Multi fans every call out to several backends. A failing backend does not
// stop the others; errors are joined.
type Multi struct {
	backends []Backend
}

// NewMulti combines backends, skipping nils.
func NewMulti(backends ...Backend) *Multi {
	m := &Multi{}
	for _, b := range backends {
		if b != nil {
			m.backends = append(m.backends, b)
		}
	}
	return m
}

// Len returns the number of wrapped backends.
func (m *Multi) Len() int { return len(m.backends) }

func (m *Multi) each(fn func(Backend) error) error {
	var errs []error
	for _, b := range m.backends {
		if err := fn(b); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *Multi) Init() error {
	return m.each(Backend.Init)
}

func (m *Multi) Close() error {
	return m.each(Backend.Close)
}

func (m *Multi) SaveRound(res *core.RoundResult) error {
	return m.each(func(b Backend) error { return b.SaveRound(res) })
}

// ExportedFilePaths returns the export paths of every Exporter backend.
func (m *Multi) ExportedFilePaths() []string {
	var out []string
	for _, b := range m.backends {
		if e, ok := b.(Exporter); ok && e.ExportedFilePath() != "" {
			out = append(out, e.ExportedFilePath())
		}
	}
	return out
}
