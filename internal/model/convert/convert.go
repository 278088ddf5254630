// Package convert provides functions to convert between GORM models, core
// trace types and the live world.
package convert

import (
	"database/sql"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/moonlitstudios/backlot/internal/geo"
	"github.com/moonlitstudios/backlot/internal/model"
	"github.com/moonlitstudios/backlot/pkg/core"
)

func point(v geo.Vec2) core.Point {
	return core.Point{X: v.X, Y: v.Y}
}

// CoreToSession converts a core.Session to a GORM model.Session.
func CoreToSession(s core.Session) model.Session {
	outcome, _ := json.Marshal(s.Outcome)
	m := model.Session{
		Name:       s.Name,
		StartedAt:  s.StartedAt,
		Seed:       s.Seed,
		ClockHour:  s.ClockHour,
		TickRate:   s.TickRate,
		TruckRoute: s.TruckRoute,
		Outcome:    datatypes.JSON(outcome),
	}
	m.ID = s.ID
	if !s.EndedAt.IsZero() {
		m.EndedAt = sql.NullTime{Time: s.EndedAt, Valid: true}
	}
	return m
}

// SessionToCore converts a GORM model.Session back to core.
func SessionToCore(m model.Session) core.Session {
	s := core.Session{
		ID:         m.ID,
		Name:       m.Name,
		StartedAt:  m.StartedAt,
		Seed:       m.Seed,
		ClockHour:  m.ClockHour,
		TickRate:   m.TickRate,
		TruckRoute: m.TruckRoute,
	}
	if m.EndedAt.Valid {
		s.EndedAt = m.EndedAt.Time
	}
	if len(m.Outcome) > 0 {
		_ = json.Unmarshal(m.Outcome, &s.Outcome)
	}
	return s
}

func craneColumns(c core.CraneSample) model.CraneColumns {
	return model.CraneColumns{State: c.State, BoomRaise: c.BoomRaise, HookX: c.Hook.X, HookY: c.Hook.Y}
}

func craneSample(c model.CraneColumns) core.CraneSample {
	return core.CraneSample{State: c.State, BoomRaise: c.BoomRaise, Hook: core.Point{X: c.HookX, Y: c.HookY}}
}

// CoreToFrameSample converts a core.FrameSample to a GORM model.FrameSample.
func CoreToFrameSample(f core.FrameSample) model.FrameSample {
	return model.FrameSample{
		SessionID:   f.SessionID,
		Tick:        f.Tick,
		Time:        f.Time,
		CarX:        f.Car.X,
		CarY:        f.Car.Y,
		CarAngle:    f.CarAngle,
		CarSpeed:    f.CarSpeed,
		CrewPhase:   f.CrewPhase,
		CrewDone:    f.CrewDone,
		TruckX:      f.Truck.X,
		TruckY:      f.Truck.Y,
		TruckState:  f.TruckState,
		TruckAlpha:  f.TruckAlpha,
		DoorOpen:    f.DoorOpen,
		PoliceX:     f.Police.X,
		PoliceY:     f.Police.Y,
		PoliceState: f.PoliceState,
		CraneLeft:   craneColumns(f.Cranes[0]),
		CraneRight:  craneColumns(f.Cranes[1]),
		Darkness:    f.Darkness,
		Lights:      f.Lights,
	}
}

// FrameSampleToCore converts a GORM model.FrameSample back to core.
func FrameSampleToCore(m model.FrameSample) core.FrameSample {
	return core.FrameSample{
		SessionID:   m.SessionID,
		Tick:        m.Tick,
		Time:        m.Time,
		Car:         core.Point{X: m.CarX, Y: m.CarY},
		CarAngle:    m.CarAngle,
		CarSpeed:    m.CarSpeed,
		CrewPhase:   m.CrewPhase,
		CrewDone:    m.CrewDone,
		Truck:       core.Point{X: m.TruckX, Y: m.TruckY},
		TruckState:  m.TruckState,
		TruckAlpha:  m.TruckAlpha,
		DoorOpen:    m.DoorOpen,
		Police:      core.Point{X: m.PoliceX, Y: m.PoliceY},
		PoliceState: m.PoliceState,
		Cranes:      [2]core.CraneSample{craneSample(m.CraneLeft), craneSample(m.CraneRight)},
		Darkness:    m.Darkness,
		Lights:      m.Lights,
	}
}

// CoreToWorldEvent converts a core.WorldEvent to a GORM model.WorldEvent.
func CoreToWorldEvent(e core.WorldEvent) model.WorldEvent {
	return model.WorldEvent{
		SessionID: e.SessionID,
		Tick:      e.Tick,
		Time:      e.Time,
		Kind:      e.Kind,
		Actor:     e.Actor,
		State:     e.State,
	}
}

// WorldEventToCore converts a GORM model.WorldEvent back to core.
func WorldEventToCore(m model.WorldEvent) core.WorldEvent {
	return core.WorldEvent{
		SessionID: m.SessionID,
		Tick:      m.Tick,
		Time:      m.Time,
		Kind:      m.Kind,
		Actor:     m.Actor,
		State:     m.State,
	}
}
