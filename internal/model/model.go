package model

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

////////////////////////
// DATABASE STRUCTURES //
////////////////////////

// DatabaseModels is a list of all the structs exported here which represent tables in the database schema
var DatabaseModels = []interface{}{
	&Session{},
	&FrameSample{},
	&WorldEvent{},
}

// Session is one recorded run of the world.
type Session struct {
	gorm.Model
	Name       string         `json:"name" gorm:"size:127"`
	StartedAt  time.Time      `json:"startedAt" gorm:"index:idx_session_start"`
	EndedAt    sql.NullTime   `json:"endedAt"`
	Seed       int64          `json:"seed"`
	ClockHour  float64        `json:"clockHour"`
	TickRate   int            `json:"tickRate"`
	TruckRoute string         `json:"truckRoute" gorm:"size:2000"` // WKT line string
	Outcome    datatypes.JSON `json:"outcome"`

	FrameSamples []FrameSample `json:"-"`
	WorldEvents  []WorldEvent  `json:"-"`
}

func (*Session) TableName() string {
	return "sessions"
}

// CraneColumns is one crane's pose, embedded twice in FrameSample.
type CraneColumns struct {
	State     string  `json:"state" gorm:"size:16"`
	BoomRaise float64 `json:"boomRaise"`
	HookX     float64 `json:"hookX"`
	HookY     float64 `json:"hookY"`
}

// FrameSample is the model for a periodic copy of actor poses
type FrameSample struct {
	ID          uint         `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID   uint         `json:"sessionId" gorm:"index:idx_frame_session_tick,priority:1"`
	Tick        uint64       `json:"tick" gorm:"index:idx_frame_session_tick,priority:2"`
	Time        time.Time    `json:"time"`
	CarX        float64      `json:"carX"`
	CarY        float64      `json:"carY"`
	CarAngle    float64      `json:"carAngle"`
	CarSpeed    float64      `json:"carSpeed"`
	CrewPhase   int          `json:"crewPhase"`
	CrewDone    bool         `json:"crewDone"`
	TruckX      float64      `json:"truckX"`
	TruckY      float64      `json:"truckY"`
	TruckState  string       `json:"truckState" gorm:"size:16"`
	TruckAlpha  float64      `json:"truckAlpha"`
	DoorOpen    float64      `json:"doorOpen"`
	PoliceX     float64      `json:"policeX"`
	PoliceY     float64      `json:"policeY"`
	PoliceState string       `json:"policeState" gorm:"size:16"`
	CraneLeft   CraneColumns `json:"craneLeft" gorm:"embedded;embeddedPrefix:crane_left_"`
	CraneRight  CraneColumns `json:"craneRight" gorm:"embedded;embeddedPrefix:crane_right_"`
	Darkness    float64      `json:"darkness"`
	Lights      int          `json:"lights"`
}

func (*FrameSample) TableName() string {
	return "frame_samples"
}

// WorldEvent is the model for a discrete state change
type WorldEvent struct {
	ID        uint      `json:"id" gorm:"primarykey;autoIncrement;"`
	SessionID uint      `json:"sessionId" gorm:"index:idx_event_session_id"`
	Tick      uint64    `json:"tick" gorm:"index:idx_event_tick"`
	Time      time.Time `json:"time"`
	Kind      string    `json:"kind" gorm:"size:32;index:idx_event_kind"`
	Actor     string    `json:"actor" gorm:"size:64"`
	State     string    `json:"state" gorm:"size:32"`
}

func (*WorldEvent) TableName() string {
	return "world_events"
}
