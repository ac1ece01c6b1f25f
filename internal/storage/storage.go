// internal/storage/storage.go
package storage

import "github.com/towerline/roundsim/pkg/core"

// Backend is the interface all storage implementations must satisfy
type Backend interface {
	// Lifecycle
	Init() error
	Close() error

	// SaveRound stores one finished replay. Backends may buffer until Close.
	SaveRound(res *core.RoundResult) error
}

// Exporter is an optional interface for backends that write a file on Close.
type Exporter interface {
	ExportedFilePath() string
}
