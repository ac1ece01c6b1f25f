package definitions

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/towerline/roundsim/pkg/core"
)

func TestDefaults_BaseStats(t *testing.T) {
	table := Defaults()

	tests := []struct {
		unit   core.UnitType
		health float64
		speed  float64
		breach float64
	}{
		{core.Wall, 40, 0, 0},
		{core.Support, 20, 0, 0},
		{core.Turret, 75, 0, 0},
		{core.Scout, 12, 1, 1},
		{core.Demolisher, 5, 0.5, 2},
		{core.Interceptor, 30, 0.25, 1},
	}
	for _, tt := range tests {
		t.Run(tt.unit.String(), func(t *testing.T) {
			s := table.Stats(tt.unit, false)
			assert.Equal(t, tt.health, s.StartHealth)
			assert.Equal(t, tt.speed, s.Speed)
			assert.Equal(t, tt.breach, s.BreachDamage)
			assert.Equal(t, 0.01, s.HitRadius)
			assert.Equal(t, tt.unit.Shorthand(), s.Shorthand)
		})
	}
}

func TestDefaults_UpgradeOverlay(t *testing.T) {
	table := Defaults()

	turret := table.Stats(core.Turret, true)
	assert.Equal(t, 4.5, turret.AttackRange)
	assert.Equal(t, 14.0, turret.DamageMobile)
	assert.Equal(t, 5.0, turret.Cost)
	assert.Equal(t, 75.0, turret.StartHealth, "keys absent from the upgrade block come from the base entry")

	support := table.Stats(core.Support, true)
	assert.Equal(t, Shield{Range: 6, PerUnit: 5, BonusPerY: 0.3}, support.Shield)

	wall := table.Stats(core.Wall, true)
	assert.Equal(t, 120.0, wall.StartHealth)

	scout := table.Stats(core.Scout, true)
	assert.Equal(t, table.Stats(core.Scout, false), scout, "units without an upgrade block are unchanged")
}

func TestDefaults_NoStatsForMarkers(t *testing.T) {
	table := Defaults()
	assert.Equal(t, UnitStats{}, table.Stats(core.Remove, false))
	assert.Equal(t, UnitStats{}, table.Stats(core.Upgrade, true))
}

func TestLoadTable_EmptyPathUsesDefaults(t *testing.T) {
	table, err := LoadTable("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), table)
}

func TestLoadTable_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.json")
	cfg := `{"unitInformation": [
		{"name": "wall", "startHealth": 60, "upgrade": {"startHealth": 200}},
		{"name": "support", "startHealth": 30, "shieldRange": 3, "shieldPerUnit": 4},
		{"name": "turret", "startHealth": 80, "attackRange": 3, "attackDamageMobile": 7},
		{"name": "scout", "startHealth": 15, "speed": 1, "playerBreachDamage": 1, "attackDamageTower": 3},
		{"name": "demolisher", "startHealth": 6, "speed": 0.5, "playerBreachDamage": 2},
		{"name": "interceptor", "startHealth": 40, "speed": 0.25, "selfDestructStepsRequired": 7}
	]}`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	assert.Equal(t, 60.0, table.Stats(core.Wall, false).StartHealth)
	assert.Equal(t, 200.0, table.Stats(core.Wall, true).StartHealth)
	assert.Equal(t, 3.0, table.Stats(core.Scout, false).DamageStructure)
	assert.Equal(t, 7, table.Stats(core.Interceptor, false).SelfDestruct.StepsRequired)
	assert.Equal(t, "EF", table.Stats(core.Support, false).Shorthand)
}

func TestLoadTable_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "game.yaml")
	cfg := `
unitInformation:
  - name: wall
    startHealth: 40
  - name: support
    startHealth: 20
    shieldRange: 2.5
    shieldPerUnit: 3
  - name: turret
    startHealth: 75
    attackRange: 2.5
    attackDamageMobile: 6
    upgrade:
      attackRange: 4.5
  - name: scout
    startHealth: 12
    speed: 1
  - name: demolisher
    startHealth: 5
    speed: 0.5
  - name: interceptor
    startHealth: 30
    speed: 0.25
`
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	table, err := LoadTable(path)
	require.NoError(t, err)

	assert.Equal(t, 2.5, table.Stats(core.Turret, false).AttackRange)
	assert.Equal(t, 4.5, table.Stats(core.Turret, true).AttackRange)
	assert.Equal(t, 6.0, table.Stats(core.Turret, true).DamageMobile)
	assert.Equal(t, 0.5, table.Stats(core.Demolisher, false).Speed)
}

func TestLoadTable_Errors(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.json")
	require.NoError(t, os.WriteFile(short, []byte(`{"unitInformation": [{"name": "wall"}]}`), 0644))

	swapped := filepath.Join(dir, "swapped.json")
	require.NoError(t, os.WriteFile(swapped, []byte(`{"unitInformation": [
		{"name": "support"}, {"name": "wall"}, {}, {}, {}, {}
	]}`), 0644))

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"unitInformation": [`), 0644))

	t.Run("incomplete", func(t *testing.T) {
		_, err := LoadTable(short)
		assert.ErrorIs(t, err, ErrIncompleteTable)
	})
	t.Run("misplaced entry", func(t *testing.T) {
		_, err := LoadTable(swapped)
		assert.ErrorIs(t, err, ErrUnknownUnit)
	})
	t.Run("malformed", func(t *testing.T) {
		_, err := LoadTable(broken)
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadTable(filepath.Join(dir, "nope.json"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
