package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/towerline/roundsim/pkg/core"
)

func readJSONFile[T any](path, what string) (T, error) {
	var v T
	data, err := os.ReadFile(path)
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", what, err)
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("failed to decode %s %s: %w", what, path, err)
	}
	return v, nil
}

func readFrame(path string) (core.Frame, error) {
	return readJSONFile[core.Frame](path, "frame")
}

func readTest(path string) (core.Placement, error) {
	return readJSONFile[core.Placement](path, "test")
}

// readTests decodes an array of placements. A file holding a single
// placement object is accepted as a batch of one.
func readTests(path string) ([]core.Placement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tests: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var one core.Placement
		if err := json.Unmarshal(trimmed, &one); err != nil {
			return nil, fmt.Errorf("failed to decode tests %s: %w", path, err)
		}
		return []core.Placement{one}, nil
	}

	var tests []core.Placement
	if err := json.Unmarshal(trimmed, &tests); err != nil {
		return nil, fmt.Errorf("failed to decode tests %s: %w", path, err)
	}
	return tests, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeJSONTo writes v to path, or to w when path is empty.
func writeJSONTo(path string, w io.Writer, v any) error {
	if path == "" {
		return writeJSON(w, v)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := writeJSON(f, v); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
