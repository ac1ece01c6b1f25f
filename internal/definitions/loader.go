package definitions

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/towerline/roundsim/pkg/core"
	"gopkg.in/yaml.v3"
)

// ErrUnknownUnit is returned when a table entry names a unit type that does
// not belong in its slot.
var ErrUnknownUnit = errors.New("unknown unit type")

// unitFile is the "unitInformation" section of a game configuration file.
type unitFile struct {
	UnitInformation []unitInfo `json:"unitInformation" yaml:"unitInformation"`
}

// unitInfo mirrors one entry of the game configuration. Absent keys stay nil
// so that an upgrade block only overrides what it names.
type unitInfo struct {
	Name                      string    `json:"name" yaml:"name"`
	Shorthand                 string    `json:"shorthand" yaml:"shorthand"`
	Cost                      *float64  `json:"cost" yaml:"cost"`
	HitRadius                 *float64  `json:"getHitRadius" yaml:"getHitRadius"`
	StartHealth               *float64  `json:"startHealth" yaml:"startHealth"`
	AttackRange               *float64  `json:"attackRange" yaml:"attackRange"`
	AttackDamageTower         *float64  `json:"attackDamageTower" yaml:"attackDamageTower"`
	AttackDamageMobile        *float64  `json:"attackDamageMobile" yaml:"attackDamageMobile"`
	PlayerBreachDamage        *float64  `json:"playerBreachDamage" yaml:"playerBreachDamage"`
	Speed                     *float64  `json:"speed" yaml:"speed"`
	ShieldPerUnit             *float64  `json:"shieldPerUnit" yaml:"shieldPerUnit"`
	ShieldRange               *float64  `json:"shieldRange" yaml:"shieldRange"`
	ShieldBonusPerY           *float64  `json:"shieldBonusPerY" yaml:"shieldBonusPerY"`
	SelfDestructRange         *float64  `json:"selfDestructRange" yaml:"selfDestructRange"`
	SelfDestructDamageTower   *float64  `json:"selfDestructDamageTower" yaml:"selfDestructDamageTower"`
	SelfDestructDamageMobile  *float64  `json:"selfDestructDamageMobile" yaml:"selfDestructDamageMobile"`
	SelfDestructStepsRequired *int      `json:"selfDestructStepsRequired" yaml:"selfDestructStepsRequired"`
	Upgrade                   *unitInfo `json:"upgrade" yaml:"upgrade"`
}

// resolve overlays the keys present in u onto base.
func (u unitInfo) resolve(base UnitStats) UnitStats {
	s := base
	if u.Name != "" {
		s.Name = u.Name
	}
	if u.Shorthand != "" {
		s.Shorthand = u.Shorthand
	}
	set := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Cost, u.Cost)
	set(&s.HitRadius, u.HitRadius)
	set(&s.StartHealth, u.StartHealth)
	set(&s.AttackRange, u.AttackRange)
	set(&s.DamageStructure, u.AttackDamageTower)
	set(&s.DamageMobile, u.AttackDamageMobile)
	set(&s.BreachDamage, u.PlayerBreachDamage)
	set(&s.Speed, u.Speed)
	set(&s.Shield.PerUnit, u.ShieldPerUnit)
	set(&s.Shield.Range, u.ShieldRange)
	set(&s.Shield.BonusPerY, u.ShieldBonusPerY)
	set(&s.SelfDestruct.Range, u.SelfDestructRange)
	set(&s.SelfDestruct.DamageStructure, u.SelfDestructDamageTower)
	set(&s.SelfDestruct.DamageMobile, u.SelfDestructDamageMobile)
	if u.SelfDestructStepsRequired != nil {
		s.SelfDestruct.StepsRequired = *u.SelfDestructStepsRequired
	}
	return s
}

// LoadTable reads a game configuration file. Files ending in .yaml or .yml
// are decoded as YAML, everything else as JSON. An empty path returns the
// built-in table.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return Defaults(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read unit table: %w", err)
	}

	var file unitFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &file)
	default:
		err = json.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode unit table %s: %w", path, err)
	}

	if err := checkNames(file); err != nil {
		return nil, err
	}
	return newTable(file)
}

func checkNames(file unitFile) error {
	for i, info := range file.UnitInformation {
		if i >= combatTypes {
			break
		}
		if info.Name == "" {
			continue
		}
		ut, ok := core.ParseUnitType(info.Name)
		if !ok || int(ut) != i {
			return fmt.Errorf("%w: %q at index %d, expected %s", ErrUnknownUnit, info.Name, i, core.UnitType(i))
		}
	}
	return nil
}
