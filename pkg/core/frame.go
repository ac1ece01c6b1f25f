// pkg/core/frame.go
package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrMalformedRecord is returned when a unit record or stat line cannot be decoded.
var ErrMalformedRecord = errors.New("malformed frame record")

// UnitRecord is one [x, y, health, id] entry of a unit slot.
type UnitRecord struct {
	X      int
	Y      int
	Health float64
	ID     string
}

// Coordinate returns the record position.
func (r UnitRecord) Coordinate() Coordinate {
	return Coordinate{X: r.X, Y: r.Y}
}

// UnmarshalJSON decodes the positional array form. The id may be a string or
// a number, and may be absent.
func (r *UnitRecord) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if len(raw) < 2 {
		return fmt.Errorf("%w: expected at least [x, y], got %d fields", ErrMalformedRecord, len(raw))
	}

	var x, y float64
	if err := json.Unmarshal(raw[0], &x); err != nil {
		return fmt.Errorf("%w: x: %v", ErrMalformedRecord, err)
	}
	if err := json.Unmarshal(raw[1], &y); err != nil {
		return fmt.Errorf("%w: y: %v", ErrMalformedRecord, err)
	}
	if x != float64(int(x)) || y != float64(int(y)) {
		return fmt.Errorf("%w: non-integer position [%v, %v]", ErrMalformedRecord, x, y)
	}
	r.X, r.Y = int(x), int(y)
	r.Health = 0
	r.ID = ""

	if len(raw) > 2 {
		if err := json.Unmarshal(raw[2], &r.Health); err != nil {
			return fmt.Errorf("%w: health: %v", ErrMalformedRecord, err)
		}
	}
	if len(raw) > 3 {
		var id any
		if err := json.Unmarshal(raw[3], &id); err != nil {
			return fmt.Errorf("%w: id: %v", ErrMalformedRecord, err)
		}
		switch v := id.(type) {
		case string:
			r.ID = v
		case float64:
			r.ID = strconv.FormatFloat(v, 'f', -1, 64)
		case nil:
		default:
			return fmt.Errorf("%w: id of type %T", ErrMalformedRecord, id)
		}
	}
	return nil
}

// MarshalJSON encodes the positional array form.
func (r UnitRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.X, r.Y, r.Health, r.ID})
}

// UnitSlots holds one record list per unit type, indexed by UnitType.
type UnitSlots [SlotCount][]UnitRecord

// MarshalJSON writes empty slots as [] rather than null.
func (s UnitSlots) MarshalJSON() ([]byte, error) {
	out := make([][]UnitRecord, SlotCount)
	for i := range s {
		if s[i] == nil {
			out[i] = []UnitRecord{}
		} else {
			out[i] = s[i]
		}
	}
	return json.Marshal(out)
}

// Merge concatenates o onto s slot by slot.
func (s UnitSlots) Merge(o UnitSlots) UnitSlots {
	var merged UnitSlots
	for i := range merged {
		merged[i] = make([]UnitRecord, 0, len(s[i])+len(o[i]))
		merged[i] = append(merged[i], s[i]...)
		merged[i] = append(merged[i], o[i]...)
	}
	return merged
}

// Len returns the total number of records across all slots.
func (s UnitSlots) Len() int {
	n := 0
	for i := range s {
		n += len(s[i])
	}
	return n
}

// PlayerStats are the per-player health and resource pools.
type PlayerStats struct {
	Health float64 `json:"health"`
	SP     float64 `json:"sp"`
	MP     float64 `json:"mp"`
}

// statsFromLine reads [health, SP, MP, ...], ignoring trailing fields.
func statsFromLine(line []float64) (PlayerStats, error) {
	if len(line) < 3 {
		return PlayerStats{}, fmt.Errorf("%w: stat line needs 3 fields, got %d", ErrMalformedRecord, len(line))
	}
	return PlayerStats{Health: line[0], SP: line[1], MP: line[2]}, nil
}

// Line returns the summary form [health, SP, MP, 0].
func (s PlayerStats) Line() [4]float64 {
	return [4]float64{s.Health, s.SP, s.MP, 0}
}

// Frame is the "last action frame" a round starts from.
type Frame struct {
	TurnInfo []float64 `json:"turnInfo,omitempty"`
	P1Stats  []float64 `json:"p1Stats"`
	P2Stats  []float64 `json:"p2Stats"`
	P1Units  UnitSlots `json:"p1Units"`
	P2Units  UnitSlots `json:"p2Units"`
}

// Stats returns the decoded stat line for p.
func (f Frame) Stats(p Player) (PlayerStats, error) {
	switch p {
	case Player1:
		return statsFromLine(f.P1Stats)
	case Player2:
		return statsFromLine(f.P2Stats)
	default:
		return PlayerStats{}, fmt.Errorf("%w: unknown player %d", ErrMalformedRecord, p)
	}
}

// Units returns the unit slots of p.
func (f Frame) Units(p Player) UnitSlots {
	if p == Player2 {
		return f.P2Units
	}
	return f.P1Units
}

// WithPlacement returns a copy of the frame with the placement's unit lists
// merged slot by slot onto its own.
func (f Frame) WithPlacement(p Placement) Frame {
	out := f
	out.P1Units = f.P1Units.Merge(p.P1Units)
	out.P2Units = f.P2Units.Merge(p.P2Units)
	return out
}

// Placement is a "test": the units to place before replaying the round.
type Placement struct {
	Label   string    `json:"label,omitempty"`
	P1Units UnitSlots `json:"p1Units"`
	P2Units UnitSlots `json:"p2Units"`
}

// Summary is the result frame of a replayed round.
type Summary struct {
	P1Stats [4]float64 `json:"p1Stats"`
	P2Stats [4]float64 `json:"p2Stats"`
	P1Units UnitSlots  `json:"p1Units"`
	P2Units UnitSlots  `json:"p2Units"`
}
