package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGELFHandler dials a Graylog UDP input and returns a JSON handler writing
// one GELF message per record, plus the writer to close on shutdown.
func NewGELFHandler(address, level string) (slog.Handler, *gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to graylog at %s: %w", address, err)
	}
	w.Facility = "roundsim"
	return slog.NewJSONHandler(w, handlerOptions(parseLevel(level))), w, nil
}
