// Package navigation computes the tile-by-tile route a mobile stack takes
// towards its target edge.
//
// A search runs in two phases. An idealness pass floods the pocket of open
// cells around the start and picks the most desirable reachable cell: a
// target edge cell if any is reachable, otherwise the cell deepest in the
// direction of travel. A validation pass then labels every open cell with its
// hop count to that cell (or to every target cell at once), and the route is
// read back by always stepping to a neighbour with a smaller label.
package navigation

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/towerline/roundsim/internal/grid"
	"github.com/towerline/roundsim/internal/queue"
	"github.com/towerline/roundsim/pkg/core"
)

var (
	// ErrUnpathableStart is returned when the start cell holds a structure.
	ErrUnpathableStart = errors.New("path start is occupied by a structure")
	// ErrNoProgress is returned when reconstruction reaches a cell with no
	// neighbour closer to the goal.
	ErrNoProgress = errors.New("path reconstruction made no progress")
	ErrNoTargets  = errors.New("no target cells given")
)

// Board is the read-only view the pathfinder needs.
type Board interface {
	IsBlocked(c core.Coordinate) bool
}

type axis int

const (
	axisNone axis = iota
	axisHorizontal
	axisVertical
)

type node struct {
	visitedIdeal    bool
	visitedValidate bool
	blocked         bool
	pathLength      int
}

// search is the scratch state of one Navigate call.
type search struct {
	nodes     [grid.Size][grid.Size]node
	targets   []core.Coordinate
	direction [2]int
}

// Pathfinder routes stacks across a board. It keeps no state between calls.
type Pathfinder struct {
	board Board
}

// New returns a pathfinder reading occupancy from board.
func New(board Board) *Pathfinder {
	return &Pathfinder{board: board}
}

// Navigate returns the cells a stack at start walks through to reach one of
// targets, or the best reachable substitute when every target is walled off.
// The start cell is not included. targets must be a single edge in canonical
// order; its first cell sets the direction of travel.
func (p *Pathfinder) Navigate(start core.Coordinate, targets []core.Coordinate) ([]core.Coordinate, error) {
	if !grid.InBounds(start) {
		return nil, fmt.Errorf("%w: path start %v", grid.ErrInvalidCoordinate, start)
	}
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if p.board.IsBlocked(start) {
		return nil, fmt.Errorf("%w: %v", ErrUnpathableStart, start)
	}

	s := &search{targets: targets, direction: directionOf(targets[0])}
	for x := 0; x < grid.Size; x++ {
		for y := 0; y < grid.Size; y++ {
			s.nodes[x][y] = node{pathLength: -1}
			c := core.Coordinate{X: x, Y: y}
			if grid.InBounds(c) && p.board.IsBlocked(c) {
				s.nodes[x][y].blocked = true
			}
		}
	}

	ideal := s.idealnessSearch(start)
	s.validate(ideal)
	return s.path(start)
}

// directionOf returns the unit step pointing towards the quadrant of c.
func directionOf(c core.Coordinate) [2]int {
	d := [2]int{1, 1}
	if c.X < grid.Half {
		d[0] = -1
	}
	if c.Y < grid.Half {
		d[1] = -1
	}
	return d
}

// neighbours are listed up, down, right, left. The order is part of the
// tie-break behaviour.
func neighbours(c core.Coordinate) [4]core.Coordinate {
	return [4]core.Coordinate{c.Add(0, 1), c.Add(0, -1), c.Add(1, 0), c.Add(-1, 0)}
}

func (s *search) at(c core.Coordinate) *node {
	return &s.nodes[c.X][c.Y]
}

func (s *search) open(c core.Coordinate) bool {
	return grid.InBounds(c) && !s.at(c).blocked
}

func (s *search) isTarget(c core.Coordinate) bool {
	return slices.Contains(s.targets, c)
}

func (s *search) idealness(c core.Coordinate) int {
	if s.isTarget(c) {
		return math.MaxInt
	}
	score := 0
	if s.direction[1] == 1 {
		score += grid.Size * c.Y
	} else {
		score += grid.Size * (grid.Size - 1 - c.Y)
	}
	if s.direction[0] == 1 {
		score += c.X
	} else {
		score += grid.Size - 1 - c.X
	}
	return score
}

// idealnessSearch floods from start and returns the first cell found with the
// highest idealness.
func (s *search) idealnessSearch(start core.Coordinate) core.Coordinate {
	q := queue.New(start)
	best := s.idealness(start)
	s.at(start).visitedIdeal = true
	mostIdeal := start

	for {
		cur, ok := q.Pop()
		if !ok {
			break
		}
		for _, n := range neighbours(cur) {
			if !s.open(n) {
				continue
			}
			if score := s.idealness(n); score > best {
				best = score
				mostIdeal = n
			}
			if nd := s.at(n); !nd.visitedIdeal {
				nd.visitedIdeal = true
				q.Push(n)
			}
		}
	}
	return mostIdeal
}

// validate labels open cells with their hop count to the seed set. When the
// ideal cell is a target every target is a seed; blocked seeds are labelled
// but never expanded.
func (s *search) validate(ideal core.Coordinate) {
	q := queue.New[core.Coordinate]()
	seeds := []core.Coordinate{ideal}
	if s.isTarget(ideal) {
		seeds = s.targets
	}
	for _, c := range seeds {
		nd := s.at(c)
		nd.pathLength = 0
		nd.visitedValidate = true
		q.Push(c)
	}

	for {
		cur, ok := q.Pop()
		if !ok {
			break
		}
		cn := s.at(cur)
		if cn.blocked {
			continue
		}
		for _, n := range neighbours(cur) {
			if !s.open(n) {
				continue
			}
			if nd := s.at(n); !nd.visitedValidate {
				nd.pathLength = cn.pathLength + 1
				nd.visitedValidate = true
				q.Push(n)
			}
		}
	}
}

// path walks the labels down from start.
func (s *search) path(start core.Coordinate) ([]core.Coordinate, error) {
	if s.at(start).pathLength < 0 {
		return nil, fmt.Errorf("%w: start %v is not connected to the goal", ErrNoProgress, start)
	}

	var out []core.Coordinate
	cur := start
	prev := axisNone
	for s.at(cur).pathLength != 0 {
		next := s.nextMove(cur, prev)
		if next == cur {
			return nil, fmt.Errorf("%w: stuck at %v", ErrNoProgress, cur)
		}
		if next.X == cur.X {
			prev = axisVertical
		} else {
			prev = axisHorizontal
		}
		out = append(out, next)
		cur = next
	}
	return out, nil
}

// nextMove picks the neighbour with the smallest label, breaking ties by the
// previous axis of travel and then by the direction of travel.
func (s *search) nextMove(cur core.Coordinate, prev axis) core.Coordinate {
	best := cur
	bestLength := s.at(cur).pathLength
	for _, n := range neighbours(cur) {
		if !s.open(n) {
			continue
		}
		length := s.at(n).pathLength
		if length < 0 || length > bestLength {
			continue
		}
		if length == bestLength && !s.betterDirection(cur, n, best, prev) {
			continue
		}
		best = n
		bestLength = length
	}
	return best
}

// betterDirection reports whether a unit at from would rather step to
// candidate than to champion.
func (s *search) betterDirection(from, candidate, champion core.Coordinate, prev axis) bool {
	switch {
	case prev == axisHorizontal && candidate.X != champion.X:
		// Options differ by x after a horizontal move: prefer the one that turns.
		return from.Y != candidate.Y
	case prev == axisVertical && candidate.Y != champion.Y:
		return from.X != candidate.X
	case prev == axisNone:
		return from.Y != candidate.Y
	}

	// Same axis: prefer the one that advances along the direction of travel.
	if candidate.Y == champion.Y {
		return (s.direction[0] == 1 && candidate.X > champion.X) ||
			(s.direction[0] == -1 && candidate.X < champion.X)
	}
	if candidate.X == champion.X {
		return (s.direction[1] == 1 && candidate.Y > champion.Y) ||
			(s.direction[1] == -1 && candidate.Y < champion.Y)
	}
	return true
}
