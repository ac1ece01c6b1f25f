// Package grid is the 28x28 diamond board: geometry plus cell occupancy.
package grid

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"

	"github.com/towerline/roundsim/internal/units"
	"github.com/towerline/roundsim/pkg/core"
)

const (
	// Size is the board width and height.
	Size = 28
	// Half is the board half-width; it splits quadrants on both axes.
	Half = Size / 2
	// HitRadius is added to every range query.
	HitRadius = 0.01
)

var (
	ErrInvalidCoordinate = errors.New("coordinate is outside the board")
	ErrInvalidRange      = errors.New("range query radius out of expected bounds")
	ErrCellOccupied      = errors.New("cell is occupied")
)

type cell struct {
	structure *units.Structure
	// stacks are kept in arrival order
	stacks []*units.Stack
}

// Grid holds the board occupancy of one round.
type Grid struct {
	cells  [Size][Size]cell
	logger *slog.Logger
}

// New creates an empty board. A nil logger discards range warnings.
func New(logger *slog.Logger) *Grid {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Grid{logger: logger}
}

// InBounds reports whether c lies on the diamond. Row y in the bottom half
// holds 2*(y+1) cells centred on the board; the top half mirrors it.
func InBounds(c core.Coordinate) bool {
	if c.Y < 0 || c.Y >= Size {
		return false
	}
	row := c.Y + 1
	if c.Y >= Half {
		row = Size - c.Y
	}
	start := Half - row
	end := start + 2*row - 1
	return c.X >= start && c.X <= end
}

// QuadrantOf classifies c against the half-width on both axes.
func QuadrantOf(c core.Coordinate) core.Edge {
	if c.Y < Half {
		if c.X < Half {
			return core.BottomLeft
		}
		return core.BottomRight
	}
	if c.X < Half {
		return core.TopLeft
	}
	return core.TopRight
}

var edges = buildEdges()

func buildEdges() [4][]core.Coordinate {
	var out [4][]core.Coordinate
	for n := 0; n < Half; n++ {
		out[core.TopLeft] = append(out[core.TopLeft], core.Coordinate{X: Half - 1 - n, Y: Size - 1 - n})
		out[core.TopRight] = append(out[core.TopRight], core.Coordinate{X: Half + n, Y: Size - 1 - n})
		out[core.BottomLeft] = append(out[core.BottomLeft], core.Coordinate{X: Half - 1 - n, Y: n})
		out[core.BottomRight] = append(out[core.BottomRight], core.Coordinate{X: Half + n, Y: n})
	}
	return out
}

// EdgeLocations returns the outer boundary cells of quadrant e, starting at
// the cell nearest the vertical centre line. The order is stable and used as a
// pathfinding tie-break reference.
func EdgeLocations(e core.Edge) []core.Coordinate {
	if e < core.TopLeft || e > core.BottomRight {
		return nil
	}
	return slices.Clone(edges[e])
}

// IsEdge reports whether c belongs to EdgeLocations(e).
func IsEdge(c core.Coordinate, e core.Edge) bool {
	if e < core.TopLeft || e > core.BottomRight {
		return false
	}
	return slices.Contains(edges[e], c)
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b core.Coordinate) float64 {
	return math.Sqrt(float64(DistanceSquared(a, b)))
}

// DistanceSquared is the exact squared Euclidean distance.
func DistanceSquared(a, b core.Coordinate) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx + dy*dy
}

// NearestEdgeSquared is the squared distance from c to the closest cell on
// the outer edge of c's own quadrant.
func NearestEdgeSquared(c core.Coordinate) int {
	best := math.MaxInt
	for _, e := range edges[QuadrantOf(c)] {
		if d := DistanceSquared(c, e); d < best {
			best = d
		}
	}
	return best
}

// DistanceToNearestEdge is the distance from c to the closest cell on the
// outer edge of c's own quadrant.
func DistanceToNearestEdge(c core.Coordinate) float64 {
	return math.Sqrt(float64(NearestEdgeSquared(c)))
}

// LocationsInRange returns every board cell whose centre is closer to c than
// radius+HitRadius, scanned column by column across the bounding square. A
// radius outside [0, Size] is logged and the scan still runs.
func (g *Grid) LocationsInRange(c core.Coordinate, radius float64) ([]core.Coordinate, error) {
	if radius < 0 || radius > Size {
		g.logger.Warn("range query radius out of bounds",
			"error", ErrInvalidRange,
			"radius", radius,
			"max", Size)
	}
	if !InBounds(c) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCoordinate, c)
	}

	reach := int(math.Ceil(radius))
	limit := radius + HitRadius
	var out []core.Coordinate
	for x := c.X - reach; x <= c.X+reach; x++ {
		for y := c.Y - reach; y <= c.Y+reach; y++ {
			p := core.Coordinate{X: x, Y: y}
			if InBounds(p) && Distance(c, p) < limit {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

// PlaceStructure puts s on its cell. The cell must be on the board and empty.
func (g *Grid) PlaceStructure(s *units.Structure) error {
	c := s.Position
	if !InBounds(c) {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinate, c)
	}
	cl := &g.cells[c.X][c.Y]
	if cl.structure != nil || len(cl.stacks) > 0 {
		return fmt.Errorf("%w: %v", ErrCellOccupied, c)
	}
	cl.structure = s
	return nil
}

// AddStack puts s on its cell. The cell must be on the board and hold no
// structure; other stacks may share it.
func (g *Grid) AddStack(s *units.Stack) error {
	c := s.Position
	if !InBounds(c) {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinate, c)
	}
	cl := &g.cells[c.X][c.Y]
	if cl.structure != nil {
		return fmt.Errorf("%w: %v holds a %s", ErrCellOccupied, c, cl.structure.Type)
	}
	cl.stacks = append(cl.stacks, s)
	return nil
}

// RemoveStack takes s off the cell it currently sits on.
func (g *Grid) RemoveStack(s *units.Stack) {
	c := s.Position
	if !InBounds(c) {
		return
	}
	cl := &g.cells[c.X][c.Y]
	cl.stacks = slices.DeleteFunc(cl.stacks, func(o *units.Stack) bool { return o == s })
}

// MoveStack relocates s to to, keeping the board in sync.
func (g *Grid) MoveStack(s *units.Stack, to core.Coordinate) error {
	if !InBounds(to) {
		return fmt.Errorf("%w: %v", ErrInvalidCoordinate, to)
	}
	g.RemoveStack(s)
	s.MoveTo(to)
	cl := &g.cells[to.X][to.Y]
	cl.stacks = append(cl.stacks, s)
	return nil
}

// Remove clears a cell. Out-of-bounds coordinates are ignored.
func (g *Grid) Remove(c core.Coordinate) {
	if !InBounds(c) {
		return
	}
	g.cells[c.X][c.Y] = cell{}
}

// RemoveStructure clears the structure from c, leaving any stacks.
func (g *Grid) RemoveStructure(c core.Coordinate) {
	if !InBounds(c) {
		return
	}
	g.cells[c.X][c.Y].structure = nil
}

// At returns the occupants of c: the structure first, then stacks in arrival
// order. Empty and out-of-bounds cells return nil.
func (g *Grid) At(c core.Coordinate) []units.Occupant {
	if !InBounds(c) {
		return nil
	}
	cl := &g.cells[c.X][c.Y]
	var out []units.Occupant
	if cl.structure != nil {
		out = append(out, cl.structure)
	}
	for _, s := range cl.stacks {
		out = append(out, s)
	}
	return out
}

// StructureAt returns the structure on c, or nil.
func (g *Grid) StructureAt(c core.Coordinate) *units.Structure {
	if !InBounds(c) {
		return nil
	}
	return g.cells[c.X][c.Y].structure
}

// StacksAt returns the stacks on c in arrival order.
func (g *Grid) StacksAt(c core.Coordinate) []*units.Stack {
	if !InBounds(c) {
		return nil
	}
	return slices.Clone(g.cells[c.X][c.Y].stacks)
}

// StackAt returns the stack of type t owned by p on c, or nil.
func (g *Grid) StackAt(c core.Coordinate, t core.UnitType, p core.Player) *units.Stack {
	if !InBounds(c) {
		return nil
	}
	for _, s := range g.cells[c.X][c.Y].stacks {
		if s.Type == t && s.Owner == p {
			return s
		}
	}
	return nil
}

// HasStationary reports whether c holds a structure, dead or alive.
func (g *Grid) HasStationary(c core.Coordinate) bool {
	return g.StructureAt(c) != nil
}

// IsBlocked reports whether c holds a live structure. Structures at zero
// health are awaiting cleanup and no longer block movement.
func (g *Grid) IsBlocked(c core.Coordinate) bool {
	s := g.StructureAt(c)
	return s != nil && s.Alive()
}
