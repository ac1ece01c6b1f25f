// Package units models the entities that occupy the board: stationary
// structures and mobile unit stacks.
package units

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/towerline/roundsim/internal/definitions"
	"github.com/towerline/roundsim/internal/queue"
	"github.com/towerline/roundsim/pkg/core"
)

var (
	ErrNotStructure = errors.New("unit type is not a structure")
	ErrNotMobile    = errors.New("unit type is not mobile")
)

// Occupant is either a *Structure or a *Stack. The set is closed; callers
// switch on the concrete type.
type Occupant interface {
	UnitType() core.UnitType
	OwnedBy() core.Player
	At() core.Coordinate
	// FrontHealth is the health the next hit lands on. An empty stack reports 0.
	FrontHealth() float64
	occupant()
}

// Structure is a wall, support or turret.
type Structure struct {
	ID       string
	Type     core.UnitType
	Owner    core.Player
	Position core.Coordinate
	Health   float64
	Upgraded bool
	Stats    definitions.UnitStats

	// shielded holds the stack IDs a support has already shielded this round.
	shielded map[int]struct{}
	table    *definitions.Table
}

// NewStructure builds a structure from a placement record. A health of zero
// or less means the record carried none and the start health is used.
func NewStructure(id string, t core.UnitType, owner core.Player, pos core.Coordinate, health float64, table *definitions.Table) (*Structure, error) {
	if !t.IsStructure() {
		return nil, fmt.Errorf("%w: %s", ErrNotStructure, t)
	}
	stats := table.Stats(t, false)
	if health <= 0 {
		health = stats.StartHealth
	}
	s := &Structure{
		ID:       id,
		Type:     t,
		Owner:    owner,
		Position: pos,
		Health:   health,
		Stats:    stats,
		table:    table,
	}
	if t == core.Support {
		s.shielded = make(map[int]struct{})
	}
	return s, nil
}

func (s *Structure) UnitType() core.UnitType { return s.Type }
func (s *Structure) OwnedBy() core.Player { return s.Owner }
func (s *Structure) At() core.Coordinate { return s.Position }
func (s *Structure) FrontHealth() float64 { return s.Health }
func (s *Structure) occupant() {}

// Alive reports whether the structure still has health.
func (s *Structure) Alive() bool { return s.Health > 0 }

// Upgrade switches to the upgraded stats. Current health is kept. Calling it
// twice has no further effect.
func (s *Structure) Upgrade() {
	if s.Upgraded {
		return
	}
	s.Upgraded = true
	s.Stats = s.table.Stats(s.Type, true)
}

// TakeDamage subtracts d and reports whether the structure died.
func (s *Structure) TakeDamage(d float64) bool {
	s.Health -= d
	return s.Health <= 0
}

// HasShielded reports whether the support already shielded stack id.
func (s *Structure) HasShielded(id int) bool {
	_, ok := s.shielded[id]
	return ok
}

// MarkShielded records that stack id received this support's shield.
func (s *Structure) MarkShielded(id int) {
	if s.shielded == nil {
		s.shielded = make(map[int]struct{})
	}
	s.shielded[id] = struct{}{}
}

// ShieldAmount is what the support grants each unit of a stack at target.
func (s *Structure) ShieldAmount(target core.Coordinate) float64 {
	dy := math.Abs(float64(s.Position.Y - target.Y))
	return s.Stats.Shield.PerUnit + s.Stats.Shield.BonusPerY*dy
}

// Stack is a group of same-type same-owner mobile units on one cell. Health
// index 0 is the front unit, the one that dies first.
type Stack struct {
	ID         int
	Type       core.UnitType
	Owner      core.Player
	Position   core.Coordinate
	Health     []float64
	TargetEdge core.Edge
	Stats      definitions.UnitStats

	// Steps counts tiles travelled, used for the self-destruct threshold.
	Steps int

	// Trail is every cell the stack occupied, starting cell first.
	Trail []core.Coordinate

	path *queue.Queue[core.Coordinate]
}

// NewStack creates a single-unit stack. A health of zero or less selects the
// start health.
func NewStack(id int, t core.UnitType, owner core.Player, pos core.Coordinate, health float64, table *definitions.Table) (*Stack, error) {
	if !t.IsMobile() {
		return nil, fmt.Errorf("%w: %s", ErrNotMobile, t)
	}
	stats := table.Stats(t, false)
	if health <= 0 {
		health = stats.StartHealth
	}
	return &Stack{
		ID:         id,
		Type:       t,
		Owner:      owner,
		Position:   pos,
		Health:     []float64{health},
		TargetEdge: TargetEdge(owner, pos),
		Stats:      stats,
		Trail:      []core.Coordinate{pos},
		path:       queue.New[core.Coordinate](),
	}, nil
}

// TargetEdge is the edge a mobile unit created at pos heads for. Player 1
// attacks the top edges, player 2 the bottom ones, each crossing to the
// opposite side of the board centre line.
func TargetEdge(owner core.Player, pos core.Coordinate) core.Edge {
	right := pos.X >= 14
	if owner == core.Player2 {
		if right {
			return core.BottomLeft
		}
		return core.BottomRight
	}
	if right {
		return core.TopLeft
	}
	return core.TopRight
}

func (s *Stack) UnitType() core.UnitType { return s.Type }
func (s *Stack) OwnedBy() core.Player { return s.Owner }
func (s *Stack) At() core.Coordinate { return s.Position }
func (s *Stack) occupant() {}

func (s *Stack) FrontHealth() float64 {
	if len(s.Health) == 0 {
		return 0
	}
	return s.Health[0]
}

// Units is the number of live units in the stack.
func (s *Stack) Units() int { return len(s.Health) }

// Alive reports whether any unit remains.
func (s *Stack) Alive() bool { return len(s.Health) > 0 }

// Add appends one more unit to the back of the stack.
func (s *Stack) Add(health float64) {
	if health <= 0 {
		health = s.Stats.StartHealth
	}
	s.Health = append(s.Health, health)
}

// Shield adds amount to every unit.
func (s *Stack) Shield(amount float64) {
	for i := range s.Health {
		s.Health[i] += amount
	}
}

// TakeDamage hits the front unit and pops it if it died. It reports whether
// a unit was removed.
func (s *Stack) TakeDamage(d float64) bool {
	if len(s.Health) == 0 {
		return false
	}
	s.Health[0] -= d
	if s.Health[0] <= 0 {
		s.Health = slices.Delete(s.Health, 0, 1)
		return true
	}
	return false
}

// Kill removes every unit.
func (s *Stack) Kill() {
	s.Health = s.Health[:0]
}

// SetPath replaces the queued path.
func (s *Stack) SetPath(path []core.Coordinate) {
	s.path.Reset(path)
}

// Path returns a copy of the remaining path.
func (s *Stack) Path() []core.Coordinate {
	return s.path.Items()
}

// NextStep dequeues the next cell on the path.
func (s *Stack) NextStep() (core.Coordinate, bool) {
	return s.path.Pop()
}

// MoveTo relocates the stack and records the step.
func (s *Stack) MoveTo(c core.Coordinate) {
	s.Position = c
	s.Steps++
	s.Trail = append(s.Trail, c)
}

// MoveInterval is the number of frames per tile step, ceil(1/speed). Zero means
// the stack never moves.
func (s *Stack) MoveInterval() int {
	if s.Stats.Speed <= 0 {
		return 0
	}
	return int(math.Ceil(1 / s.Stats.Speed))
}

// MovesOn reports whether the stack steps on the given frame.
func (s *Stack) MovesOn(frame int) bool {
	n := s.MoveInterval()
	return n > 0 && frame%n == 0
}
