// Package targeting picks which enemy an attacker shoots each frame.
package targeting

import (
	"github.com/towerline/roundsim/internal/grid"
	"github.com/towerline/roundsim/internal/units"
	"github.com/towerline/roundsim/pkg/core"
)

// Board is the view of the grid targeting reads.
type Board interface {
	LocationsInRange(c core.Coordinate, radius float64) ([]core.Coordinate, error)
	At(c core.Coordinate) []units.Occupant
}

// Attacker describes the entity choosing a target.
type Attacker struct {
	Type     core.UnitType
	Owner    core.Player
	Position core.Coordinate
	Range    float64
}

// Candidate is an occupant under consideration.
type Candidate struct {
	Target   units.Occupant
	Position core.Coordinate
	Health   float64
	// DistanceSq is the squared distance to the attacker.
	DistanceSq int
}

// Comparator returns a positive value when cand beats best, negative when it
// loses and zero on a tie.
type Comparator func(a Attacker, cand, best Candidate) int

// Chain is the tie-break order. Each comparator only sees ties left by the
// ones before it.
var Chain = []Comparator{
	ByDistance,
	ByHealth,
	ByAdvance,
	ByEdgeDistance,
}

// ByDistance prefers the closer candidate.
func ByDistance(_ Attacker, cand, best Candidate) int {
	return best.DistanceSq - cand.DistanceSq
}

// ByHealth prefers the weaker candidate. Health is compared exactly.
func ByHealth(_ Attacker, cand, best Candidate) int {
	switch {
	case cand.Health < best.Health:
		return 1
	case cand.Health > best.Health:
		return -1
	}
	return 0
}

// ByAdvance prefers the candidate deeper into the attacker's own half:
// smaller y for player 1, larger y for player 2.
func ByAdvance(a Attacker, cand, best Candidate) int {
	d := best.Position.Y - cand.Position.Y
	if a.Owner == core.Player2 {
		d = -d
	}
	return d
}

// ByEdgeDistance prefers the candidate closer to the outer edge of its quadrant.
func ByEdgeDistance(_ Attacker, cand, best Candidate) int {
	return grid.NearestEdgeSquared(best.Position) - grid.NearestEdgeSquared(cand.Position)
}

// Eligible reports whether a may shoot o: an enemy with health left, and
// never a structure when the attacker is a turret.
func Eligible(a Attacker, o units.Occupant) bool {
	if o == nil || o.OwnedBy() == a.Owner {
		return false
	}
	if a.Type == core.Turret && o.UnitType().IsStructure() {
		return false
	}
	return o.FrontHealth() > 0
}

// Better runs the chain and reports whether cand strictly beats best.
func Better(a Attacker, cand, best Candidate) bool {
	for _, cmp := range Chain {
		if r := cmp(a, cand, best); r != 0 {
			return r > 0
		}
	}
	return false
}

// Best returns the target a shoots, or nil when nothing eligible is in range.
// Cells are scanned in range-query order and occupants in cell order; the
// first candidate stands until a later one strictly beats it.
func Best(board Board, a Attacker) (units.Occupant, error) {
	cells, err := board.LocationsInRange(a.Position, a.Range)
	if err != nil {
		return nil, err
	}

	var best *Candidate
	for _, c := range cells {
		for _, o := range board.At(c) {
			if !Eligible(a, o) {
				continue
			}
			cand := Candidate{
				Target:     o,
				Position:   c,
				Health:     o.FrontHealth(),
				DistanceSq: grid.DistanceSquared(a.Position, c),
			}
			if best == nil || Better(a, cand, *best) {
				best = &cand
			}
		}
	}
	if best == nil {
		return nil, nil
	}
	return best.Target, nil
}
