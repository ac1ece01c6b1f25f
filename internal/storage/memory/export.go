// internal/storage/memory/export.go
package memory

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/towerline/roundsim/pkg/core"
)

// ExportVersion is bumped whenever RoundsExport changes shape
const ExportVersion = 1

// RoundsExport is the root JSON structure
type RoundsExport struct {
	Version    int               `json:"version"`
	StartedAt  time.Time         `json:"startedAt"`
	ExportedAt time.Time         `json:"exportedAt"`
	Rounds     []RoundExportJSON `json:"rounds"`
}

// RoundExportJSON is one result plus its derived outcome
type RoundExportJSON struct {
	*core.RoundResult
	Outcome string `json:"outcome"`
}

// ExportFileName returns roundsim_<timestamp>.json, with .gz when compressed
func ExportFileName(start time.Time, compress bool) string {
	name := fmt.Sprintf("roundsim_%s.json", start.Format("20060102_150405"))
	if compress {
		name += ".gz"
	}
	return name
}

// exportJSON writes the stored results; callers hold the lock
func (b *Backend) exportJSON() error {
	export := b.buildExport()
	outputPath := filepath.Join(b.cfg.OutputDir, ExportFileName(b.startedAt, b.cfg.CompressOutput))

	// Ensure output directory exists
	if err := os.MkdirAll(b.cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if b.cfg.CompressOutput {
		if err := writeGzipJSON(outputPath, export); err != nil {
			return err
		}
	} else {
		if err := writeJSON(outputPath, export); err != nil {
			return err
		}
	}

	b.lastExportPath = outputPath
	return nil
}

func (b *Backend) buildExport() RoundsExport {
	export := RoundsExport{
		Version:    ExportVersion,
		StartedAt:  b.startedAt,
		ExportedAt: time.Now(),
		Rounds:     make([]RoundExportJSON, 0, len(b.results)),
	}
	for _, res := range b.results {
		export.Rounds = append(export.Rounds, RoundExportJSON{RoundResult: res, Outcome: res.Outcome()})
	}
	return export
}

func writeJSON(path string, data RoundsExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	if err := encode(f, data); err != nil {
		return err
	}
	return f.Close()
}

func writeGzipJSON(path string, data RoundsExport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}
	defer f.Close()

	gz := gzip.NewWriter(f)
	if err := encode(gz, data); err != nil {
		return err
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("failed to finish gzip stream: %w", err)
	}
	return f.Close()
}

func encode(w io.Writer, data RoundsExport) error {
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return fmt.Errorf("failed to encode export: %w", err)
	}
	return nil
}
