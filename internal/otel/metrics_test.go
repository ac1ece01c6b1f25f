package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/towerline/roundsim/pkg/core"
)

type point struct {
	value   int64
	outcome string
}

// recorder captures values per instrument name.
type recorder map[string][]point

type fakeCounter struct {
	noop.Int64Counter
	name string
	rec  recorder
}

func (c fakeCounter) Add(_ context.Context, v int64, opts ...metric.AddOption) {
	set := metric.NewAddConfig(opts).Attributes()
	outcome, _ := set.Value("outcome")
	c.rec[c.name] = append(c.rec[c.name], point{v, outcome.AsString()})
}

type fakeHistogram struct {
	noop.Int64Histogram
	name string
	rec  recorder
}

func (h fakeHistogram) Record(_ context.Context, v int64, opts ...metric.RecordOption) {
	set := metric.NewRecordConfig(opts).Attributes()
	outcome, _ := set.Value("outcome")
	h.rec[h.name] = append(h.rec[h.name], point{v, outcome.AsString()})
}

type fakeMeter struct {
	noop.Meter
	rec recorder
}

func (m fakeMeter) Int64Counter(name string, _ ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	return fakeCounter{name: name, rec: m.rec}, nil
}

func (m fakeMeter) Int64Histogram(name string, _ ...metric.Int64HistogramOption) (metric.Int64Histogram, error) {
	return fakeHistogram{name: name, rec: m.rec}, nil
}

func TestRoundMetrics_Record(t *testing.T) {
	rec := recorder{}
	m, err := NewRoundMetrics(fakeMeter{rec: rec})
	require.NoError(t, err)

	m.Record(context.Background(), &core.RoundResult{Frames: 14, StructuresDestroyed: 2})
	m.Record(context.Background(), &core.RoundResult{
		Frames:   9,
		Breaches: []core.Breach{{StackID: 1}, {StackID: 2}},
	})

	assert.Equal(t, []point{{1, core.OutcomeHeld}, {1, core.OutcomeBreached}}, rec["roundsim.rounds"])
	assert.Equal(t, []point{{14, core.OutcomeHeld}, {9, core.OutcomeBreached}}, rec["roundsim.round.frames"])
	assert.Equal(t, []point{{0, core.OutcomeHeld}, {2, core.OutcomeBreached}}, rec["roundsim.breaches"])
	assert.Equal(t, []point{{2, core.OutcomeHeld}, {0, core.OutcomeBreached}}, rec["roundsim.structures.destroyed"])
}

func TestNewRoundMetrics_GlobalNoop(t *testing.T) {
	m, err := NewRoundMetrics(nil)
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		m.Record(context.Background(), &core.RoundResult{Frames: 3})
	})
}

func TestNewRoundMetrics_NoopProvider(t *testing.T) {
	m, err := NewRoundMetrics(noop.NewMeterProvider().Meter("test"))
	require.NoError(t, err)
	m.Record(context.Background(), &core.RoundResult{})
}
