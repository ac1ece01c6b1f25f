// Package definitions holds the per-unit-type stat table. A Table is built
// once, either from Defaults or from a game configuration file, and is never
// mutated afterwards.
package definitions

import (
	"errors"
	"fmt"

	"github.com/towerline/roundsim/pkg/core"
)

// ErrIncompleteTable is returned when a configuration file does not describe
// every placeable unit type.
var ErrIncompleteTable = errors.New("unit table is incomplete")

// combatTypes is the number of unit types with stats (wall through interceptor).
const combatTypes = int(core.Interceptor) + 1

// Shield describes a support's shielding.
type Shield struct {
	Range     float64
	PerUnit   float64
	BonusPerY float64
}

// SelfDestruct describes what a stranded mobile unit does when its path runs out.
type SelfDestruct struct {
	Range           float64
	DamageStructure float64
	DamageMobile    float64
	StepsRequired   int
}

// UnitStats are the resolved stats of one unit type, base or upgraded.
type UnitStats struct {
	Name            string
	Shorthand       string
	Cost            float64
	StartHealth     float64
	HitRadius       float64
	AttackRange     float64
	DamageStructure float64
	DamageMobile    float64
	Speed           float64
	BreachDamage    float64
	Shield          Shield
	SelfDestruct    SelfDestruct
}

// Table is the immutable stat table, indexed by core.UnitType.
type Table struct {
	base     [combatTypes]UnitStats
	upgraded [combatTypes]UnitStats
}

// Stats returns the stats for t. Types without stats (remove, upgrade markers)
// return the zero value.
func (t *Table) Stats(ut core.UnitType, upgraded bool) UnitStats {
	if ut < 0 || int(ut) >= combatTypes {
		return UnitStats{}
	}
	if upgraded {
		return t.upgraded[ut]
	}
	return t.base[ut]
}

// newTable resolves a decoded file into base and upgraded stats.
func newTable(file unitFile) (*Table, error) {
	if len(file.UnitInformation) < combatTypes {
		return nil, fmt.Errorf("%w: expected %d unit entries, got %d", ErrIncompleteTable, combatTypes, len(file.UnitInformation))
	}
	t := &Table{}
	for i := 0; i < combatTypes; i++ {
		info := file.UnitInformation[i]
		t.base[i] = info.resolve(UnitStats{})
		t.upgraded[i] = t.base[i]
		if info.Upgrade != nil {
			t.upgraded[i] = info.Upgrade.resolve(t.base[i])
		}
		if t.base[i].Name == "" {
			t.base[i].Name = core.UnitType(i).String()
			t.upgraded[i].Name = t.base[i].Name
		}
		if t.base[i].Shorthand == "" {
			t.base[i].Shorthand = core.UnitType(i).Shorthand()
			t.upgraded[i].Shorthand = t.base[i].Shorthand
		}
	}
	return t, nil
}

// Defaults returns the stock game table.
func Defaults() *Table {
	t, err := newTable(defaultFile())
	if err != nil {
		panic(err)
	}
	return t
}

func ptr(v float64) *float64 { return &v }

func iptr(v int) *int { return &v }

func defaultFile() unitFile {
	return unitFile{UnitInformation: []unitInfo{
		{
			Name: "wall", Shorthand: "FF", Cost: ptr(2), HitRadius: ptr(0.01), StartHealth: ptr(40),
			Upgrade: &unitInfo{StartHealth: ptr(120)},
		},
		{
			Name: "support", Shorthand: "EF", Cost: ptr(4), HitRadius: ptr(0.01), StartHealth: ptr(20),
			ShieldPerUnit: ptr(3), ShieldRange: ptr(2.5), ShieldBonusPerY: ptr(0),
			Upgrade: &unitInfo{ShieldRange: ptr(6), ShieldPerUnit: ptr(5), ShieldBonusPerY: ptr(0.3)},
		},
		{
			Name: "turret", Shorthand: "DF", Cost: ptr(3), HitRadius: ptr(0.01), StartHealth: ptr(75),
			AttackRange: ptr(2.5), AttackDamageMobile: ptr(6),
			Upgrade: &unitInfo{Cost: ptr(5), AttackRange: ptr(4.5), AttackDamageMobile: ptr(14)},
		},
		{
			Name: "scout", Shorthand: "PI", Cost: ptr(1), HitRadius: ptr(0.01), StartHealth: ptr(12),
			AttackRange: ptr(4.5), AttackDamageTower: ptr(2), AttackDamageMobile: ptr(2),
			PlayerBreachDamage: ptr(1), Speed: ptr(1),
			SelfDestructRange: ptr(1.5), SelfDestructDamageTower: ptr(15), SelfDestructDamageMobile: ptr(15),
			SelfDestructStepsRequired: iptr(5),
		},
		{
			Name: "demolisher", Shorthand: "EI", Cost: ptr(3), HitRadius: ptr(0.01), StartHealth: ptr(5),
			AttackRange: ptr(4.5), AttackDamageTower: ptr(8), AttackDamageMobile: ptr(8),
			PlayerBreachDamage: ptr(2), Speed: ptr(0.5),
			SelfDestructRange: ptr(1.5), SelfDestructDamageTower: ptr(5), SelfDestructDamageMobile: ptr(5),
			SelfDestructStepsRequired: iptr(5),
		},
		{
			Name: "interceptor", Shorthand: "SI", Cost: ptr(2), HitRadius: ptr(0.01), StartHealth: ptr(30),
			AttackRange: ptr(3.5), AttackDamageMobile: ptr(20),
			PlayerBreachDamage: ptr(1), Speed: ptr(0.25),
			SelfDestructRange: ptr(1.5), SelfDestructDamageTower: ptr(40), SelfDestructDamageMobile: ptr(40),
			SelfDestructStepsRequired: iptr(5),
		},
	}}
}
