package sim

import (
	"fmt"
	"slices"

	"github.com/towerline/roundsim/internal/grid"
	"github.com/towerline/roundsim/internal/targeting"
	"github.com/towerline/roundsim/internal/units"
	"github.com/towerline/roundsim/pkg/core"
)

// tick is the per-frame scratch state shared by the phases.
type tick struct {
	frame int

	// structureDied is set when any structure reached zero health this frame.
	structureDied bool
}

// Step runs one frame. It reports whether the round is still running.
func (r *Round) Step() (bool, error) {
	if r.state == RoundOver {
		return false, nil
	}
	if r.maxFrames > 0 && r.frame >= r.maxFrames {
		return false, fmt.Errorf("%w: %d frames with %d stacks left", ErrFrameLimit, r.frame, len(r.stacks))
	}

	t := &tick{frame: r.frame}

	if err := r.shield(); err != nil {
		return false, err
	}
	if err := r.move(t); err != nil {
		return false, err
	}
	if err := r.attack(t); err != nil {
		return false, err
	}
	if t.structureDied {
		if err := r.reroute(); err != nil {
			return false, err
		}
	}
	r.cleanup(t)

	r.frame++
	if len(r.stacks) == 0 {
		r.state = RoundOver
		return false, nil
	}
	return true, nil
}

// shield lets every standing support shield own stacks in range, once per
// support and stack for the whole round.
func (r *Round) shield() error {
	for _, sup := range r.structures {
		if sup.Type != core.Support || !sup.Alive() {
			continue
		}
		cells, err := r.grid.LocationsInRange(sup.Position, sup.Stats.Shield.Range)
		if err != nil {
			return fmt.Errorf("shield from %v: %w", sup.Position, err)
		}
		for _, c := range cells {
			for _, s := range r.grid.StacksAt(c) {
				if s.Owner != sup.Owner || !s.Alive() || sup.HasShielded(s.ID) {
					continue
				}
				sup.MarkShielded(s.ID)
				s.Shield(sup.ShieldAmount(s.Position))
			}
		}
	}
	return nil
}

// move advances every stack whose speed allows a step this frame. Stacks on
// their target edge breach; stacks with nothing left to walk self-destruct.
func (r *Round) move(t *tick) error {
	remaining := r.stacks[:0]
	for _, s := range r.stacks {
		if !s.Alive() || !s.MovesOn(t.frame) {
			remaining = append(remaining, s)
			continue
		}

		if grid.IsEdge(s.Position, s.TargetEdge) {
			r.breach(t, s)
			continue
		}

		next, ok := s.NextStep()
		if !ok {
			if err := r.selfDestruct(t, s); err != nil {
				return err
			}
			continue
		}
		if err := r.grid.MoveStack(s, next); err != nil {
			return fmt.Errorf("failed to move stack %d: %w", s.ID, err)
		}
		remaining = append(remaining, s)
	}
	clear(r.stacks[len(remaining):])
	r.stacks = remaining
	return nil
}

func (r *Round) breach(t *tick, s *units.Stack) {
	damage := s.Stats.BreachDamage * float64(s.Units())
	opp := s.Owner.Opponent()
	r.stats[opp].Health -= damage
	r.stats[s.Owner].SP += damage

	r.breaches = append(r.breaches, core.Breach{
		Frame:   t.frame,
		StackID: s.ID,
		Type:    s.Type,
		Owner:   s.Owner,
		Units:   s.Units(),
		Damage:  damage,
		At:      s.Position,
	})
	r.grid.RemoveStack(s)
	r.finish(s, core.FateBreached, t.frame)

	r.logger.Debug("stack breached",
		"frame", t.frame,
		"stack", s.ID,
		"owner", s.Owner.String(),
		"type", s.Type.String(),
		"damage", damage)
}

// selfDestruct removes a stack whose path ran out off its target edge. If it
// walked far enough each of its units damages every enemy in range.
func (r *Round) selfDestruct(t *tick, s *units.Stack) error {
	sd := s.Stats.SelfDestruct
	fate := core.FateStranded
	r.grid.RemoveStack(s)

	if s.Steps >= sd.StepsRequired && sd.Range > 0 {
		fate = core.FateSelfDestruct
		cells, err := r.grid.LocationsInRange(s.Position, sd.Range)
		if err != nil {
			return fmt.Errorf("self-destruct of stack %d: %w", s.ID, err)
		}
		n := s.Units()
		for _, c := range cells {
			for _, o := range r.grid.At(c) {
				if o.OwnedBy() == s.Owner || o.FrontHealth() <= 0 {
					continue
				}
				switch target := o.(type) {
				case *units.Structure:
					if target.TakeDamage(sd.DamageStructure * float64(n)) {
						r.structureKilled(t, target)
					}
				case *units.Stack:
					for i := 0; i < n; i++ {
						target.TakeDamage(sd.DamageMobile)
					}
				}
			}
		}
	}

	s.Kill()
	r.finish(s, fate, t.frame)
	r.logger.Debug("stack ran out of path",
		"frame", t.frame,
		"stack", s.ID,
		"fate", string(fate),
		"steps", s.Steps)
	return nil
}

// attack resolves every attacker in creation order: turrets, then stacks.
// Each live unit of a stack fires once.
func (r *Round) attack(t *tick) error {
	for _, s := range r.structures {
		if !s.Alive() || s.Stats.AttackRange <= 0 {
			continue
		}
		a := targeting.Attacker{Type: s.Type, Owner: s.Owner, Position: s.Position, Range: s.Stats.AttackRange}
		if err := r.fire(t, a, s.Stats.DamageStructure, s.Stats.DamageMobile); err != nil {
			return err
		}
	}

	for _, s := range r.stacks {
		if !s.Alive() || s.Stats.AttackRange <= 0 {
			continue
		}
		a := targeting.Attacker{Type: s.Type, Owner: s.Owner, Position: s.Position, Range: s.Stats.AttackRange}
		for n := s.Units(); n > 0; n-- {
			if err := r.fire(t, a, s.Stats.DamageStructure, s.Stats.DamageMobile); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *Round) fire(t *tick, a targeting.Attacker, vsStructure, vsMobile float64) error {
	target, err := targeting.Best(r.grid, a)
	if err != nil {
		return fmt.Errorf("targeting from %v: %w", a.Position, err)
	}
	switch o := target.(type) {
	case *units.Structure:
		if o.TakeDamage(vsStructure) {
			r.structureKilled(t, o)
		}
	case *units.Stack:
		o.TakeDamage(vsMobile)
	}
	return nil
}

func (r *Round) structureKilled(t *tick, s *units.Structure) {
	t.structureDied = true
	r.destroyed++
	r.logger.Debug("structure destroyed",
		"frame", t.frame,
		"owner", s.Owner.String(),
		"type", s.Type.String(),
		"at", s.Position)
}

// reroute recomputes paths for every stack still alive. Dead structures no
// longer block, so routes through them open up before cleanup runs.
func (r *Round) reroute() error {
	for _, s := range r.stacks {
		if !s.Alive() {
			continue
		}
		if err := r.route(s); err != nil {
			return err
		}
	}
	return nil
}

// cleanup drops dead structures and emptied stacks from the board.
func (r *Round) cleanup(t *tick) {
	r.structures = slices.DeleteFunc(r.structures, func(s *units.Structure) bool {
		if s.Alive() {
			return false
		}
		r.grid.RemoveStructure(s.Position)
		return true
	})
	r.stacks = slices.DeleteFunc(r.stacks, func(s *units.Stack) bool {
		if s.Alive() {
			return false
		}
		r.grid.RemoveStack(s)
		r.finish(s, core.FateDestroyed, t.frame)
		return true
	})
}

func (r *Round) finish(s *units.Stack, fate core.Fate, frame int) {
	r.trails = append(r.trails, core.StackTrail{
		StackID:     s.ID,
		Type:        s.Type,
		Owner:       s.Owner,
		Units:       r.spawned[s.ID],
		TargetEdge:  s.TargetEdge,
		Cells:       slices.Clone(s.Trail),
		Fate:        fate,
		FinishFrame: frame,
	})
}
