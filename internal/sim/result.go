package sim

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/towerline/roundsim/pkg/core"
)

// Run steps the round to completion. Cancellation is checked between frames.
func (r *Round) Run(ctx context.Context) (*core.RoundResult, error) {
	started := time.Now()
	for r.state == Running {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("round stopped at frame %d: %w", r.frame, err)
		}
		if _, err := r.Step(); err != nil {
			return nil, err
		}
	}

	res := r.Result()
	res.StartedAt = started
	res.Duration = time.Since(started)

	r.logger.Info("round finished",
		"id", res.ID,
		"label", res.Label,
		"frames", res.Frames,
		"outcome", res.Outcome(),
		"breaches", len(res.Breaches),
		"structuresDestroyed", res.StructuresDestroyed,
		"duration", res.Duration)
	return res, nil
}

// Result snapshots the round. Trails are ordered by stack ID.
func (r *Round) Result() *core.RoundResult {
	trails := slices.Clone(r.trails)
	slices.SortStableFunc(trails, func(a, b core.StackTrail) int { return a.StackID - b.StackID })

	return &core.RoundResult{
		ID:                  uuid.NewString(),
		Label:               r.label,
		StartedAt:           time.Now(),
		Frames:              r.frame,
		Initial:             r.initial,
		Final:               r.stats,
		StructuresDestroyed: r.destroyed,
		Breaches:            slices.Clone(r.breaches),
		Trails:              trails,
		Summary:             r.Summary(),
	}
}

// Summary renders the board in the frame format: one record per standing
// structure and live stack, carrying its front health.
func (r *Round) Summary() core.Summary {
	var slots [2]core.UnitSlots
	for p := range slots {
		for i := range slots[p] {
			slots[p][i] = []core.UnitRecord{}
		}
	}

	for _, s := range r.structures {
		if !s.Alive() {
			continue
		}
		slots[s.Owner][s.Type] = append(slots[s.Owner][s.Type], core.UnitRecord{
			X:      s.Position.X,
			Y:      s.Position.Y,
			Health: s.Health,
			ID:     s.ID,
		})
	}
	for _, s := range r.stacks {
		if !s.Alive() {
			continue
		}
		slots[s.Owner][s.Type] = append(slots[s.Owner][s.Type], core.UnitRecord{
			X:      s.Position.X,
			Y:      s.Position.Y,
			Health: s.FrontHealth(),
		})
	}

	return core.Summary{
		P1Stats: r.stats[core.Player1].Line(),
		P2Stats: r.stats[core.Player2].Line(),
		P1Units: slots[core.Player1],
		P2Units: slots[core.Player2],
	}
}
