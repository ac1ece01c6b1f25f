// pkg/core/units.go
package core

import "strings"

// UnitType identifies a unit kind. The numeric value is also the slot index
// used by the frame unit lists.
type UnitType int

const (
	Wall UnitType = iota
	Support
	Turret
	Scout
	Demolisher
	Interceptor
	Remove
	Upgrade
)

// SlotCount is the number of unit slots in a frame unit list.
const SlotCount = 8

var unitNames = [SlotCount]string{"wall", "support", "turret", "scout", "demolisher", "interceptor", "remove", "upgrade"}

// Shorthands used by the game's own configuration files.
var unitShorthands = [SlotCount]string{"FF", "EF", "DF", "PI", "EI", "SI", "RM", "UP"}

func (t UnitType) String() string {
	if t < 0 || int(t) >= SlotCount {
		return "unknown"
	}
	return unitNames[t]
}

// Shorthand returns the two-letter game code for the unit type.
func (t UnitType) Shorthand() string {
	if t < 0 || int(t) >= SlotCount {
		return ""
	}
	return unitShorthands[t]
}

// IsStructure reports whether the type is stationary (wall, support, turret).
func (t UnitType) IsStructure() bool {
	return t == Wall || t == Support || t == Turret
}

// IsMobile reports whether the type moves along a path (scout, demolisher, interceptor).
func (t UnitType) IsMobile() bool {
	return t == Scout || t == Demolisher || t == Interceptor
}

// ParseUnitType accepts either the long name or the shorthand, case-insensitively.
func ParseUnitType(s string) (UnitType, bool) {
	s = strings.TrimSpace(s)
	for i := 0; i < SlotCount; i++ {
		if strings.EqualFold(s, unitNames[i]) || strings.EqualFold(s, unitShorthands[i]) {
			return UnitType(i), true
		}
	}
	return 0, false
}

// Player is a zero-based player index. Player1 owns the bottom half of the
// board, Player2 the top half.
type Player int

const (
	Player1 Player = iota
	Player2
)

// Opponent returns the other player.
func (p Player) Opponent() Player {
	if p == Player1 {
		return Player2
	}
	return Player1
}

func (p Player) String() string {
	switch p {
	case Player1:
		return "p1"
	case Player2:
		return "p2"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the two players.
func (p Player) Valid() bool {
	return p == Player1 || p == Player2
}

// Edge names one of the four board quadrants and its outer boundary.
type Edge int

const (
	TopLeft Edge = iota
	TopRight
	BottomLeft
	BottomRight
)

func (e Edge) String() string {
	switch e {
	case TopLeft:
		return "top_left"
	case TopRight:
		return "top_right"
	case BottomLeft:
		return "bottom_left"
	case BottomRight:
		return "bottom_right"
	default:
		return "unknown"
	}
}

// ParseEdge is the inverse of Edge.String.
func ParseEdge(s string) (Edge, bool) {
	for e := TopLeft; e <= BottomRight; e++ {
		if s == e.String() {
			return e, true
		}
	}
	return 0, false
}

// Coordinate is a board cell.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Add returns the coordinate offset by dx, dy.
func (c Coordinate) Add(dx, dy int) Coordinate {
	return Coordinate{X: c.X + dx, Y: c.Y + dy}
}
