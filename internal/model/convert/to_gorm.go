// Package convert maps replay results to and from the GORM models
package convert

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	geom "github.com/peterstace/simplefeatures/geom"
	"gorm.io/datatypes"

	"github.com/towerline/roundsim/internal/model"
	"github.com/towerline/roundsim/pkg/core"
)

func statsToModel(s core.PlayerStats) model.Stats {
	return model.Stats{Health: s.Health, SP: s.SP, MP: s.MP}
}

// trailToWKT renders board cells as a LineString in cell units
func trailToWKT(cells []core.Coordinate) string {
	coords := make([]float64, 0, len(cells)*2)
	for _, c := range cells {
		coords = append(coords, float64(c.X), float64(c.Y))
	}
	seq := geom.NewSequence(coords, geom.DimXY)
	return geom.NewLineString(seq).AsText()
}

// ResultToRound converts a replay result into its GORM row with children.
func ResultToRound(res *core.RoundResult) (model.Round, error) {
	id, err := uuid.Parse(res.ID)
	if err != nil {
		return model.Round{}, fmt.Errorf("invalid round id %q: %w", res.ID, err)
	}

	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return model.Round{}, fmt.Errorf("failed to encode summary: %w", err)
	}

	r := model.Round{
		ID:                  id,
		Label:               res.Label,
		StartedAt:           res.StartedAt,
		DurationMs:          res.Duration.Milliseconds(),
		Frames:              res.Frames,
		Outcome:             res.Outcome(),
		StructuresDestroyed: res.StructuresDestroyed,
		P1Initial:           statsToModel(res.Initial[core.Player1]),
		P2Initial:           statsToModel(res.Initial[core.Player2]),
		P1Final:             statsToModel(res.Final[core.Player1]),
		P2Final:             statsToModel(res.Final[core.Player2]),
		Summary:             datatypes.JSON(summary),
	}

	for _, tr := range res.Trails {
		cells, err := json.Marshal(tr.Cells)
		if err != nil {
			return model.Round{}, fmt.Errorf("failed to encode trail of stack %d: %w", tr.StackID, err)
		}
		r.Trails = append(r.Trails, model.StackTrace{
			RoundID:     id,
			StackID:     tr.StackID,
			UnitType:    tr.Type.String(),
			Owner:       uint8(tr.Owner),
			Units:       tr.Units,
			TargetEdge:  tr.TargetEdge.String(),
			Fate:        string(tr.Fate),
			Breached:    tr.Fate == core.FateBreached,
			FinishFrame: tr.FinishFrame,
			Path:        trailToWKT(tr.Cells),
			Cells:       datatypes.JSON(cells),
		})
	}

	for _, b := range res.Breaches {
		r.Breaches = append(r.Breaches, model.BreachEvent{
			RoundID:  id,
			Frame:    b.Frame,
			StackID:  b.StackID,
			UnitType: b.Type.String(),
			Owner:    uint8(b.Owner),
			Units:    b.Units,
			Damage:   b.Damage,
			X:        b.At.X,
			Y:        b.At.Y,
		})
	}
	return r, nil
}
