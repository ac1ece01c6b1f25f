package targeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/towerline/roundsim/internal/definitions"
	"github.com/towerline/roundsim/internal/grid"
	"github.com/towerline/roundsim/internal/units"
	"github.com/towerline/roundsim/pkg/core"
)

func at(x, y int) core.Coordinate { return core.Coordinate{X: x, Y: y} }

type board struct {
	*grid.Grid
	table  *definitions.Table
	nextID int
}

func newBoard() *board {
	return &board{Grid: grid.New(nil), table: definitions.Defaults()}
}

func (b *board) structure(t *testing.T, ut core.UnitType, owner core.Player, c core.Coordinate, health float64) *units.Structure {
	t.Helper()
	s, err := units.NewStructure("", ut, owner, c, health, b.table)
	require.NoError(t, err)
	require.NoError(t, b.PlaceStructure(s))
	return s
}

func (b *board) stack(t *testing.T, ut core.UnitType, owner core.Player, c core.Coordinate, health float64) *units.Stack {
	t.Helper()
	b.nextID++
	s, err := units.NewStack(b.nextID, ut, owner, c, health, b.table)
	require.NoError(t, err)
	require.NoError(t, b.AddStack(s))
	return s
}

func scoutAt(c core.Coordinate, owner core.Player) Attacker {
	return Attacker{Type: core.Scout, Owner: owner, Position: c, Range: 4.5}
}

func TestBest_PrefersCloser(t *testing.T) {
	b := newBoard()
	b.structure(t, core.Wall, core.Player2, at(14, 13), 1)
	near := b.structure(t, core.Wall, core.Player2, at(14, 12), 40)

	got, err := Best(b, scoutAt(at(14, 10), core.Player1))
	require.NoError(t, err)
	assert.Same(t, near, got)
}

func TestBest_EqualDistancePrefersLowerHealth(t *testing.T) {
	b := newBoard()
	b.structure(t, core.Wall, core.Player2, at(12, 10), 30)
	weak := b.structure(t, core.Wall, core.Player2, at(16, 10), 10)

	got, err := Best(b, scoutAt(at(14, 10), core.Player1))
	require.NoError(t, err)
	assert.Same(t, weak, got)
}

func TestBest_EqualHealthPrefersAdvanced(t *testing.T) {
	b := newBoard()
	low := b.structure(t, core.Wall, core.Player2, at(14, 8), 40)
	b.structure(t, core.Wall, core.Player2, at(14, 12), 40)

	got, err := Best(b, scoutAt(at(14, 10), core.Player1))
	require.NoError(t, err)
	assert.Same(t, low, got, "player 1 prefers the smaller y")

	b2 := newBoard()
	b2.structure(t, core.Wall, core.Player1, at(14, 8), 40)
	high := b2.structure(t, core.Wall, core.Player1, at(14, 12), 40)

	got, err = Best(b2, scoutAt(at(14, 10), core.Player2))
	require.NoError(t, err)
	assert.Same(t, high, got, "player 2 prefers the larger y")
}

func TestBest_AllTiedPrefersNearerEdge(t *testing.T) {
	b := newBoard()
	b.structure(t, core.Wall, core.Player2, at(12, 10), 40)
	edgeward := b.structure(t, core.Wall, core.Player2, at(16, 10), 40)

	assert.Less(t, grid.NearestEdgeSquared(at(16, 10)), grid.NearestEdgeSquared(at(12, 10)))

	got, err := Best(b, scoutAt(at(14, 10), core.Player1))
	require.NoError(t, err)
	assert.Same(t, edgeward, got)
}

func TestBest_FirstCandidateStandsOnFullTie(t *testing.T) {
	b := newBoard()
	first := b.stack(t, core.Scout, core.Player2, at(14, 12), 5)
	b.stack(t, core.Demolisher, core.Player2, at(14, 12), 5)

	got, err := Best(b, scoutAt(at(14, 10), core.Player1))
	require.NoError(t, err)
	assert.Same(t, first, got, "stacks sharing a cell are considered in arrival order")
}

func TestBest_TurretIgnoresStructures(t *testing.T) {
	b := newBoard()
	b.structure(t, core.Wall, core.Player2, at(14, 11), 40)
	scout := b.stack(t, core.Scout, core.Player2, at(15, 12), 0)

	got, err := Best(b, Attacker{Type: core.Turret, Owner: core.Player1, Position: at(14, 10), Range: 2.5})
	require.NoError(t, err)
	assert.Same(t, scout, got)
}

func TestBest_SkipsOwnAndDead(t *testing.T) {
	b := newBoard()
	b.structure(t, core.Wall, core.Player1, at(14, 11), 40)
	dead := b.structure(t, core.Wall, core.Player2, at(14, 12), 40)
	dead.Health = 0
	empty := b.stack(t, core.Scout, core.Player2, at(15, 10), 0)
	empty.Kill()

	got, err := Best(b, scoutAt(at(14, 10), core.Player1))
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestBest_ComparesStackFrontHealth(t *testing.T) {
	b := newBoard()
	full := b.stack(t, core.Scout, core.Player2, at(12, 10), 0)
	hurt := b.stack(t, core.Scout, core.Player2, at(16, 10), 0)
	hurt.Add(12)
	hurt.Health[0] = 3
	full.Add(1)

	got, err := Best(b, scoutAt(at(14, 10), core.Player1))
	require.NoError(t, err)
	assert.Same(t, hurt, got, "the front unit is what counts")
}

func TestBest_InvalidPosition(t *testing.T) {
	b := newBoard()
	_, err := Best(b, scoutAt(at(0, 0), core.Player1))
	assert.ErrorIs(t, err, grid.ErrInvalidCoordinate)
}

func TestChainOrder(t *testing.T) {
	a := Attacker{Owner: core.Player1, Position: at(14, 10)}
	base := Candidate{Position: at(14, 12), Health: 10, DistanceSq: 4}

	tests := []struct {
		name     string
		cand     Candidate
		expected bool
	}{
		{"closer beats weaker", Candidate{Position: at(14, 11), Health: 40, DistanceSq: 1}, true},
		{"farther loses even if weaker", Candidate{Position: at(14, 13), Health: 1, DistanceSq: 9}, false},
		{"weaker at equal distance", Candidate{Position: at(16, 10), Health: 5, DistanceSq: 4}, true},
		{"tiny health difference is decisive", Candidate{Position: at(14, 8), Health: 10.000001, DistanceSq: 4}, false},
		{"advanced at equal health", Candidate{Position: at(14, 8), Health: 10, DistanceSq: 4}, true},
		{"identical is not better", base, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Better(a, tt.cand, base))
		})
	}
}
