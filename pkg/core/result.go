// pkg/core/result.go
package core

import (
	"errors"
	"time"
)

// ErrNilResult is returned by sinks handed a nil result.
var ErrNilResult = errors.New("nil round result")

// Fate records how a mobile stack left the board.
type Fate string

const (
	FateBreached     Fate = "breached"
	FateDestroyed    Fate = "destroyed"
	FateSelfDestruct Fate = "self_destruct"
	FateStranded     Fate = "stranded"
)

// Outcome labels for a whole round.
const (
	OutcomeHeld     = "held"
	OutcomeBreached = "breached"
)

// Breach is a stack reaching its target edge.
type Breach struct {
	Frame   int        `json:"frame"`
	StackID int        `json:"stackId"`
	Type    UnitType   `json:"type"`
	Owner   Player     `json:"owner"`
	Units   int        `json:"units"`
	Damage  float64    `json:"damage"`
	At      Coordinate `json:"at"`
}

// StackTrail is the movement history of one mobile stack.
type StackTrail struct {
	StackID     int          `json:"stackId"`
	Type        UnitType     `json:"type"`
	Owner       Player       `json:"owner"`
	Units       int          `json:"units"`
	TargetEdge  Edge         `json:"targetEdge"`
	Cells       []Coordinate `json:"cells"`
	Fate        Fate         `json:"fate"`
	FinishFrame int          `json:"finishFrame"`
}

// RoundResult is everything a replayed round produced.
type RoundResult struct {
	ID                  string         `json:"id"`
	Label               string         `json:"label,omitempty"`
	StartedAt           time.Time      `json:"startedAt"`
	Duration            time.Duration  `json:"duration"`
	Frames              int            `json:"frames"`
	Initial             [2]PlayerStats `json:"initial"`
	Final               [2]PlayerStats `json:"final"`
	StructuresDestroyed int            `json:"structuresDestroyed"`
	Breaches            []Breach       `json:"breaches"`
	Trails              []StackTrail   `json:"trails"`
	Summary             Summary        `json:"summary"`
}

// Outcome returns OutcomeBreached if any stack scored, else OutcomeHeld.
func (r *RoundResult) Outcome() string {
	if len(r.Breaches) > 0 {
		return OutcomeBreached
	}
	return OutcomeHeld
}

// BreachDamage returns the total breach damage dealt to p.
func (r *RoundResult) BreachDamage(p Player) float64 {
	total := 0.0
	for _, b := range r.Breaches {
		if b.Owner.Opponent() == p {
			total += b.Damage
		}
	}
	return total
}
