// Package sim replays one round from a starting frame and a set of test
// placements. A Round is single-threaded and owns its board.
package sim

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/towerline/roundsim/internal/definitions"
	"github.com/towerline/roundsim/internal/grid"
	"github.com/towerline/roundsim/internal/navigation"
	"github.com/towerline/roundsim/internal/units"
	"github.com/towerline/roundsim/pkg/core"
)

var (
	ErrMalformedUpgradeTarget = errors.New("upgrade target is not a structure")
	ErrInvalidPlacement       = errors.New("invalid unit placement")
	ErrFrameLimit             = errors.New("round exceeded frame limit")
)

// DefaultMaxFrames bounds a round when no limit is configured.
const DefaultMaxFrames = 1000

// State is the round lifecycle.
type State int

const (
	Running State = iota
	RoundOver
)

func (s State) String() string {
	if s == RoundOver {
		return "round_over"
	}
	return "running"
}

// Option configures a Round.
type Option func(*config)

type config struct {
	table     *definitions.Table
	logger    *slog.Logger
	maxFrames int
}

// WithTable sets the unit stat table. The built-in table is used otherwise.
func WithTable(t *definitions.Table) Option {
	return func(c *config) {
		c.table = t
	}
}

// WithLogger sets the round logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithMaxFrames caps the number of frames. Zero or less removes the cap.
func WithMaxFrames(n int) Option {
	return func(c *config) {
		c.maxFrames = n
	}
}

// Round is the state of one replay.
type Round struct {
	table     *definitions.Table
	logger    *slog.Logger
	maxFrames int

	grid  *grid.Grid
	paths *navigation.Pathfinder

	label   string
	state   State
	frame   int
	initial [2]core.PlayerStats
	stats   [2]core.PlayerStats

	// structures and stacks are kept in creation order, which is also the
	// attack order.
	structures []*units.Structure
	stacks     []*units.Stack
	nextStack  int
	spawned    map[int]int

	destroyed int
	breaches  []core.Breach
	trails    []core.StackTrail
}

// New loads frame with test merged onto it and computes the initial paths.
func New(frame core.Frame, test core.Placement, opts ...Option) (*Round, error) {
	cfg := config{maxFrames: DefaultMaxFrames}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.table == nil {
		cfg.table = definitions.Defaults()
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	r := &Round{
		table:     cfg.table,
		logger:    cfg.logger,
		maxFrames: cfg.maxFrames,
		grid:      grid.New(cfg.logger),
		label:     test.Label,
		spawned:   make(map[int]int),
	}
	r.paths = navigation.New(r.grid)

	for _, p := range []core.Player{core.Player1, core.Player2} {
		st, err := frame.Stats(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s stats: %w", p, err)
		}
		r.stats[p] = st
	}
	r.initial = r.stats

	merged := frame.WithPlacement(test)
	if err := r.load(merged.P1Units, merged.P2Units); err != nil {
		return nil, err
	}

	for _, s := range r.stacks {
		r.spawned[s.ID] = s.Units()
		if err := r.route(s); err != nil {
			return nil, err
		}
	}
	if len(r.stacks) == 0 {
		r.state = RoundOver
	}

	r.logger.Debug("round loaded",
		"label", r.label,
		"structures", len(r.structures),
		"stacks", len(r.stacks))
	return r, nil
}

// load places units slot by slot: structures, then mobiles, then upgrades.
// Within a slot player 1 goes before player 2. Remove markers are ignored.
func (r *Round) load(p1, p2 core.UnitSlots) error {
	slots := [2]core.UnitSlots{p1, p2}

	for _, t := range []core.UnitType{core.Wall, core.Support, core.Turret} {
		for p, s := range slots {
			for _, rec := range s[t] {
				if err := r.placeStructure(t, core.Player(p), rec); err != nil {
					return err
				}
			}
		}
	}

	for _, t := range []core.UnitType{core.Scout, core.Demolisher, core.Interceptor} {
		for p, s := range slots {
			for _, rec := range s[t] {
				if err := r.placeMobile(t, core.Player(p), rec); err != nil {
					return err
				}
			}
		}
	}

	for p, s := range slots {
		for _, rec := range s[core.Upgrade] {
			if err := r.upgrade(core.Player(p), rec.Coordinate()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Round) placeStructure(t core.UnitType, owner core.Player, rec core.UnitRecord) error {
	s, err := units.NewStructure(rec.ID, t, owner, rec.Coordinate(), rec.Health, r.table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlacement, err)
	}
	if err := r.grid.PlaceStructure(s); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrInvalidPlacement, owner, t, err)
	}
	r.structures = append(r.structures, s)
	return nil
}

// placeMobile adds a unit to the same-type same-owner stack already on the
// cell, or starts a new stack. A cell holds at most one stack per player.
func (r *Round) placeMobile(t core.UnitType, owner core.Player, rec core.UnitRecord) error {
	c := rec.Coordinate()
	if existing := r.grid.StackAt(c, t, owner); existing != nil {
		existing.Add(rec.Health)
		return nil
	}
	for _, other := range r.grid.StacksAt(c) {
		if other.Owner == owner {
			return fmt.Errorf("%w: %s %s at %v joins a %s stack", ErrInvalidPlacement, owner, t, c, other.Type)
		}
	}

	r.nextStack++
	s, err := units.NewStack(r.nextStack, t, owner, c, rec.Health, r.table)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPlacement, err)
	}
	if err := r.grid.AddStack(s); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrInvalidPlacement, owner, t, err)
	}
	r.stacks = append(r.stacks, s)
	return nil
}

func (r *Round) upgrade(owner core.Player, c core.Coordinate) error {
	s := r.grid.StructureAt(c)
	if s == nil {
		what := "empty cell"
		if len(r.grid.StacksAt(c)) > 0 {
			what = "mobile stack"
		}
		return fmt.Errorf("%w: %s upgrade at %v hits %s", ErrMalformedUpgradeTarget, owner, c, what)
	}
	s.Upgrade()
	return nil
}

// route recomputes the queued path of s towards its target edge.
func (r *Round) route(s *units.Stack) error {
	path, err := r.paths.Navigate(s.Position, grid.EdgeLocations(s.TargetEdge))
	if err != nil {
		return fmt.Errorf("failed to route stack %d (%s %s at %v): %w", s.ID, s.Owner, s.Type, s.Position, err)
	}
	s.SetPath(path)
	return nil
}

// PreviewPath returns the path a new mobile unit of owner placed at c would
// take on the current board.
func (r *Round) PreviewPath(c core.Coordinate, owner core.Player) ([]core.Coordinate, error) {
	return r.paths.Navigate(c, grid.EdgeLocations(units.TargetEdge(owner, c)))
}

// State returns the lifecycle state.
func (r *Round) State() State { return r.state }

// Frames returns the number of frames run so far.
func (r *Round) Frames() int { return r.frame }

// Stats returns the current stats of p.
func (r *Round) Stats(p core.Player) core.PlayerStats { return r.stats[p] }

// Stacks returns the live mobile stacks in creation order.
func (r *Round) Stacks() []*units.Stack {
	out := make([]*units.Stack, len(r.stacks))
	copy(out, r.stacks)
	return out
}

// Structures returns the standing structures in creation order.
func (r *Round) Structures() []*units.Structure {
	out := make([]*units.Structure, len(r.structures))
	copy(out, r.structures)
	return out
}
