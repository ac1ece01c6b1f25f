package convert

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/towerline/roundsim/internal/model"
	"github.com/towerline/roundsim/pkg/core"
)

func statsToCore(s model.Stats) core.PlayerStats {
	return core.PlayerStats{Health: s.Health, SP: s.SP, MP: s.MP}
}

func unitType(name string) (core.UnitType, error) {
	t, ok := core.ParseUnitType(name)
	if !ok {
		return 0, fmt.Errorf("unknown unit type %q", name)
	}
	return t, nil
}

// RoundToResult rebuilds a replay result from a stored round. Trails and
// breaches must be preloaded.
func RoundToResult(r model.Round) (core.RoundResult, error) {
	res := core.RoundResult{
		ID:                  r.ID.String(),
		Label:               r.Label,
		StartedAt:           r.StartedAt,
		Duration:            time.Duration(r.DurationMs) * time.Millisecond,
		Frames:              r.Frames,
		Initial:             [2]core.PlayerStats{statsToCore(r.P1Initial), statsToCore(r.P2Initial)},
		Final:               [2]core.PlayerStats{statsToCore(r.P1Final), statsToCore(r.P2Final)},
		StructuresDestroyed: r.StructuresDestroyed,
	}

	if len(r.Summary) > 0 {
		if err := json.Unmarshal(r.Summary, &res.Summary); err != nil {
			return core.RoundResult{}, fmt.Errorf("failed to decode summary: %w", err)
		}
	}

	for _, st := range r.Trails {
		t, err := unitType(st.UnitType)
		if err != nil {
			return core.RoundResult{}, err
		}
		edge, ok := core.ParseEdge(st.TargetEdge)
		if !ok {
			return core.RoundResult{}, fmt.Errorf("unknown edge %q", st.TargetEdge)
		}
		trail := core.StackTrail{
			StackID:     st.StackID,
			Type:        t,
			Owner:       core.Player(st.Owner),
			Units:       st.Units,
			TargetEdge:  edge,
			Fate:        core.Fate(st.Fate),
			FinishFrame: st.FinishFrame,
		}
		if len(st.Cells) > 0 {
			if err := json.Unmarshal(st.Cells, &trail.Cells); err != nil {
				return core.RoundResult{}, fmt.Errorf("failed to decode trail of stack %d: %w", st.StackID, err)
			}
		}
		res.Trails = append(res.Trails, trail)
	}

	for _, b := range r.Breaches {
		t, err := unitType(b.UnitType)
		if err != nil {
			return core.RoundResult{}, err
		}
		res.Breaches = append(res.Breaches, core.Breach{
			Frame:   b.Frame,
			StackID: b.StackID,
			Type:    t,
			Owner:   core.Player(b.Owner),
			Units:   b.Units,
			Damage:  b.Damage,
			At:      core.Coordinate{X: b.X, Y: b.Y},
		})
	}
	return res, nil
}
