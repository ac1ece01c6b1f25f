package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/towerline/roundsim/pkg/core"
)

// Outcome is the replay of one test in a batch.
type Outcome struct {
	Index  int
	Label  string
	Result *core.RoundResult
	Err    error
}

type job struct {
	index int
	test  core.Placement
}

// RunBatch replays every test against frame on the pool. Outcomes are
// returned in input order whatever order the rounds finish in. A failing
// round does not stop the others; cancelling ctx does.
func (m *Manager) RunBatch(ctx context.Context, frame core.Frame, tests []core.Placement) ([]Outcome, error) {
	if len(tests) == 0 {
		return nil, ErrNoTests
	}

	start := time.Now()
	outcomes := make([]Outcome, len(tests))
	jobs := make(chan job)

	workers := min(m.count, len(tests))
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				res, err := m.RunOne(ctx, frame, j.test)
				outcomes[j.index] = Outcome{Index: j.index, Label: j.test.Label, Result: res, Err: err}
			}
		}()
	}

feed:
	for i, t := range tests {
		select {
		case jobs <- job{index: i, test: t}:
		case <-ctx.Done():
			for k := i; k < len(tests); k++ {
				outcomes[k] = Outcome{Index: k, Label: tests[k].Label, Err: ctx.Err()}
			}
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	m.deps.Logger.Info("batch finished",
		"tests", len(tests),
		"failed", failed,
		"workers", workers,
		"duration", time.Since(start))

	if err := ctx.Err(); err != nil {
		return outcomes, err
	}
	return outcomes, nil
}

// Errors joins the errors of every failed outcome.
func Errors(outcomes []Outcome) error {
	var errs []error
	for _, o := range outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}
