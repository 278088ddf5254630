package world

import (
	"github.com/moonlitstudios/backlot/internal/choreo"
	"github.com/moonlitstudios/backlot/internal/geo"
)

// CraneSample is a crane's pose in a Sample.
type CraneSample struct {
	State     choreo.CraneState `json:"state"`
	BoomRaise float64           `json:"boomRaise"`
	Hook      geo.Vec2          `json:"hook"`
}

// Sample is a flat copy of the world's poses for diagnostics traces.
type Sample struct {
	Tick        uint64             `json:"tick"`
	Car         geo.Vec2           `json:"car"`
	CarAngle    float64            `json:"carAngle"`
	CarSpeed    float64            `json:"carSpeed"`
	CrewPhase   int                `json:"crewPhase"`
	CrewDone    bool               `json:"crewDone"`
	Truck       geo.Vec2           `json:"truck"`
	TruckState  choreo.TruckState  `json:"truckState"`
	TruckAlpha  float64            `json:"truckAlpha"`
	DoorOpen    float64            `json:"doorOpen"`
	Police      geo.Vec2           `json:"police"`
	PoliceState choreo.PoliceState `json:"policeState"`
	Cranes      [2]CraneSample     `json:"cranes"`
	Darkness    float64            `json:"darkness"`
	Lights      int                `json:"lights"`
}

// Sample captures the current poses.
func (w *World) Sample() Sample {
	d := w.Darkness()
	s := Sample{
		Tick:        w.tick,
		Car:         w.Car.Pos,
		CarAngle:    w.Car.Angle,
		CarSpeed:    w.Car.Speed,
		CrewPhase:   w.Crew.Phase(),
		CrewDone:    w.Crew.Done(),
		Truck:       w.Truck.Pos,
		TruckState:  w.Truck.State(),
		TruckAlpha:  w.Truck.Alpha,
		DoorOpen:    w.Door.OpenAmount(),
		Police:      w.Police.Pos,
		PoliceState: w.Police.State(),
		Darkness:    d,
		Lights:      len(w.Lights(d)),
	}
	for i, c := range w.Cranes {
		s.Cranes[i] = CraneSample{State: c.State(), BoomRaise: c.BoomRaise, Hook: c.Hook()}
	}
	return s
}
