package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/towerline/roundsim/internal/sim"
	"github.com/towerline/roundsim/pkg/core"
)

type workspace struct {
	dir    string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	t.Cleanup(viper.Reset)
	return &workspace{dir: t.TempDir()}
}

func (w *workspace) path(name string) string {
	return filepath.Join(w.dir, name)
}

func (w *workspace) writeJSON(t *testing.T, name string, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	p := w.path(name)
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}

// exec runs a command with the workspace as config, logs and output dir.
func (w *workspace) exec(args ...string) error {
	viper.Reset()
	w.stdout.Reset()
	w.stderr.Reset()
	full := append([]string{}, args...)
	if len(args) > 0 {
		full = append(full, "--config-dir", w.dir, "--logs-dir", w.path("logs"))
	}
	return execute(context.Background(), full, &w.stdout, &w.stderr)
}

func baseFrame() core.Frame {
	return core.Frame{
		P1Stats: []float64{30, 10, 5, 1200},
		P2Stats: []float64{30, 8, 3, 900},
	}
}

func demolishers(label string, n int) core.Placement {
	p := core.Placement{Label: label}
	for i := 0; i < n; i++ {
		p.P1Units[core.Demolisher] = append(p.P1Units[core.Demolisher], core.UnitRecord{X: 14, Y: 26})
	}
	return p
}

func offBoard(label string) core.Placement {
	p := core.Placement{Label: label}
	p.P1Units[core.Wall] = []core.UnitRecord{{X: 0, Y: 0}}
	return p
}

func TestExecute_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer

	err := execute(context.Background(), nil, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, stderr.String(), "usage: roundsim")

	err = execute(context.Background(), []string{"fly"}, &stdout, &stderr)
	assert.ErrorIs(t, err, errUsage)
	assert.Contains(t, err.Error(), `"fly"`)
}

func TestExecute_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	require.NoError(t, execute(context.Background(), []string{"version"}, &stdout, &stderr))
	assert.Contains(t, stdout.String(), AppName+" "+CurrentVersion)
}

func TestExecute_HelpIsNotAnError(t *testing.T) {
	w := newWorkspace(t)
	assert.NoError(t, w.exec("run", "--help"))
	assert.Contains(t, w.stderr.String(), "--frame")
}

func TestRun_PrintsSummary(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())
	test := w.writeJSON(t, "test.json", demolishers("pair", 2))

	require.NoError(t, w.exec("run", "--frame", frame, "--test", test, "--output-dir", w.path("results")))

	var summary core.Summary
	require.NoError(t, json.Unmarshal(w.stdout.Bytes(), &summary))
	assert.Equal(t, 26.0, summary.P2Stats[0])
	assert.Empty(t, summary.P1Units[core.Demolisher], "every demolisher breached")

	exports, err := filepath.Glob(w.path("results/roundsim_*.json.gz"))
	require.NoError(t, err)
	assert.Len(t, exports, 1)
	assert.Contains(t, w.stderr.String(), "results written to")

	logs, err := filepath.Glob(w.path("logs/roundsim.*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "Round finished")
}

func TestRun_OutFile(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())
	test := w.writeJSON(t, "test.json", demolishers("", 1))
	out := w.path("summary.json")

	require.NoError(t, w.exec("run", "--frame", frame, "--test", test, "--out", out, "--output-dir", w.path("results")))
	assert.Empty(t, w.stdout.String())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var summary core.Summary
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 28.0, summary.P2Stats[0])
}

func TestRun_MissingFlags(t *testing.T) {
	w := newWorkspace(t)
	assert.ErrorIs(t, w.exec("run", "--frame", "f.json"), errUsage)
	assert.ErrorIs(t, w.exec("run", "--bogus"), errUsage)
}

func TestRun_InvalidPlacement(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())
	test := w.writeJSON(t, "test.json", offBoard("bad"))

	err := w.exec("run", "--frame", frame, "--test", test, "--output-dir", w.path("results"))
	assert.ErrorIs(t, err, sim.ErrInvalidPlacement)
	assert.Empty(t, w.stdout.String())
}

func TestRun_ConfigFileSetsFrameCap(t *testing.T) {
	w := newWorkspace(t)
	w.writeJSON(t, "roundsim.cfg.json", map[string]any{
		"sim":     map[string]any{"maxFrames": 2},
		"storage": map[string]any{"memory": map[string]any{"outputDir": w.path("results")}},
	})
	frame := w.writeJSON(t, "frame.json", baseFrame())
	test := w.writeJSON(t, "test.json", demolishers("slow", 1))

	err := w.exec("run", "--frame", frame, "--test", test)
	assert.ErrorIs(t, err, sim.ErrFrameLimit)

	// flags win over the file
	require.NoError(t, w.exec("run", "--frame", frame, "--test", test, "--max-frames", "10"))
}

func TestRun_MetricsExportedToLogFile(t *testing.T) {
	w := newWorkspace(t)
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })
	w.writeJSON(t, "roundsim.cfg.json", map[string]any{
		"otel":    map[string]any{"enabled": true, "serviceName": "roundsim-cli", "exportInterval": "1h"},
		"storage": map[string]any{"memory": map[string]any{"outputDir": w.path("results")}},
	})
	frame := w.writeJSON(t, "frame.json", baseFrame())
	test := w.writeJSON(t, "test.json", demolishers("metered", 1))

	require.NoError(t, w.exec("run", "--frame", frame, "--test", test))

	logs, err := filepath.Glob(w.path("logs/roundsim.*.log"))
	require.NoError(t, err)
	require.Len(t, logs, 1)
	data, err := os.ReadFile(logs[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "roundsim.rounds")
	assert.Contains(t, string(data), "roundsim-cli")
}

func TestBatch_ReportKeepsInputOrder(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())
	tests := w.writeJSON(t, "tests.json", []core.Placement{
		demolishers("one", 1),
		offBoard("broken"),
		demolishers("three", 3),
	})

	err := w.exec("batch", "--frame", frame, "--tests", tests, "--workers", "2", "--output-dir", w.path("results"))
	require.Error(t, err)
	assert.ErrorIs(t, err, sim.ErrInvalidPlacement)
	assert.Contains(t, err.Error(), "1 of 3 rounds failed")

	var report []batchLine
	require.NoError(t, json.Unmarshal(w.stdout.Bytes(), &report))
	require.Len(t, report, 3)
	for i, want := range []string{"one", "broken", "three"} {
		assert.Equal(t, i, report[i].Index)
		assert.Equal(t, want, report[i].Label)
	}
	assert.Equal(t, core.OutcomeBreached, report[0].Outcome)
	assert.NotEmpty(t, report[1].Error)
	assert.Empty(t, report[1].ID)
	assert.Equal(t, 5, report[2].Frames)
}

func TestBatch_SingleObjectIsBatchOfOne(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())
	tests := w.writeJSON(t, "tests.json", demolishers("solo", 1))

	require.NoError(t, w.exec("batch", "--frame", frame, "--tests", tests, "--output-dir", w.path("results")))

	var report []batchLine
	require.NoError(t, json.Unmarshal(w.stdout.Bytes(), &report))
	require.Len(t, report, 1)
	assert.Equal(t, "solo", report[0].Label)
}

func TestBatch_SQLiteThenShow(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())
	tests := w.writeJSON(t, "tests.json", []core.Placement{
		demolishers("a", 1),
		demolishers("b", 2),
		demolishers("a", 3),
	})
	db := w.path("rounds.db")

	require.NoError(t, w.exec("batch", "--frame", frame, "--tests", tests, "--storage", "sqlite", "--sqlite", db))
	var report []batchLine
	require.NoError(t, json.Unmarshal(w.stdout.Bytes(), &report))
	require.Len(t, report, 3)

	require.NoError(t, w.exec("show", "--sqlite", db, "--label", "a"))
	var rounds []core.RoundResult
	require.NoError(t, json.Unmarshal(w.stdout.Bytes(), &rounds))
	require.Len(t, rounds, 2)
	for _, r := range rounds {
		assert.Equal(t, "a", r.Label)
		assert.NotEmpty(t, r.Trails)
	}

	require.NoError(t, w.exec("show", "--sqlite", db, report[1].ID))
	require.NoError(t, json.Unmarshal(w.stdout.Bytes(), &rounds))
	require.Len(t, rounds, 1)
	assert.Equal(t, "b", rounds[0].Label)
	assert.Equal(t, 4.0, rounds[0].BreachDamage(core.Player2))
}

func TestShow_NeedsDatabase(t *testing.T) {
	w := newWorkspace(t)
	assert.ErrorIs(t, w.exec("show"), errUsage)
	assert.ErrorIs(t, w.exec("show", "--sqlite", w.path("missing.db")), os.ErrNotExist)
}

func TestPath_PrintsRoute(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())

	require.NoError(t, w.exec("path", "--frame", frame, "--x", "13", "--y", "0", "--player", "1"))

	var path []core.Coordinate
	require.NoError(t, json.Unmarshal(w.stdout.Bytes(), &path))
	require.NotEmpty(t, path)
	assert.GreaterOrEqual(t, path[len(path)-1].Y, 14, "player 1 walks to the top half")
}

func TestPath_BadArguments(t *testing.T) {
	w := newWorkspace(t)
	frame := w.writeJSON(t, "frame.json", baseFrame())

	assert.ErrorIs(t, w.exec("path", "--frame", frame, "--x", "13"), errUsage)
	assert.ErrorIs(t, w.exec("path", "--frame", frame, "--x", "13", "--y", "0", "--player", "3"), errUsage)
}
