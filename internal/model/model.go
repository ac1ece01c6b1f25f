package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

//////////////////////////
// DATABASE STRUCTURES //
//////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Round{},
	&StackTrace{},
	&BreachEvent{},
}

// Stats is the embedded form of core.PlayerStats
type Stats struct {
	Health float64 `json:"health"`
	SP     float64 `json:"sp"`
	MP     float64 `json:"mp"`
}

// Round is one replayed round
type Round struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `json:"createdAt"`
	Label     string    `json:"label" gorm:"size:127;index:idx_round_label"`
	StartedAt time.Time `json:"startedAt" gorm:"index:idx_round_started_at"`

	DurationMs          int64  `json:"durationMs"`
	Frames              int    `json:"frames"`
	Outcome             string `json:"outcome" gorm:"size:16;index:idx_round_outcome"`
	StructuresDestroyed int    `json:"structuresDestroyed"`

	P1Initial Stats `json:"p1Initial" gorm:"embedded;embeddedPrefix:p1_initial_"`
	P2Initial Stats `json:"p2Initial" gorm:"embedded;embeddedPrefix:p2_initial_"`
	P1Final   Stats `json:"p1Final" gorm:"embedded;embeddedPrefix:p1_final_"`
	P2Final   Stats `json:"p2Final" gorm:"embedded;embeddedPrefix:p2_final_"`

	// Summary is the result frame as written by the memory backend
	Summary datatypes.JSON `json:"summary"`

	Trails   []StackTrace  `json:"trails" gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Breaches []BreachEvent `json:"breaches" gorm:"foreignKey:RoundID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (*Round) TableName() string {
	return "rounds"
}

// StackTrace is the movement history of one mobile stack
type StackTrace struct {
	ID          uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RoundID     uuid.UUID `json:"roundId" gorm:"type:uuid;index:idx_stack_trace_round_id"`
	StackID     int       `json:"stackId"`
	UnitType    string    `json:"unitType" gorm:"size:16"`
	Owner       uint8     `json:"owner"`
	Units       int       `json:"units"`
	TargetEdge  string    `json:"targetEdge" gorm:"size:16"`
	Fate        string    `json:"fate" gorm:"size:16;index:idx_stack_trace_fate"`
	Breached    bool      `json:"breached"`
	FinishFrame int       `json:"finishFrame"`

	// Path is the trail as a WKT LineString in board cells
	Path string `json:"path" gorm:"type:text"`

	// Cells is the trail as [{x,y},...]
	Cells datatypes.JSON `json:"cells"`
}

func (*StackTrace) TableName() string {
	return "stack_traces"
}

// BreachEvent is a stack reaching its target edge
type BreachEvent struct {
	ID       uint      `json:"id" gorm:"primarykey;autoIncrement"`
	RoundID  uuid.UUID `json:"roundId" gorm:"type:uuid;index:idx_breach_event_round_id"`
	Frame    int       `json:"frame"`
	StackID  int       `json:"stackId"`
	UnitType string    `json:"unitType" gorm:"size:16"`
	Owner    uint8     `json:"owner"`
	Units    int       `json:"units"`
	Damage   float64   `json:"damage"`
	X        int       `json:"x"`
	Y        int       `json:"y"`
}

func (*BreachEvent) TableName() string {
	return "breach_events"
}
