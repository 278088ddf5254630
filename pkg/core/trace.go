package core

import "time"

// CraneSample is one crane's pose.
type CraneSample struct {
	State     string  `json:"state"`
	BoomRaise float64 `json:"boomRaise"`
	Hook      Point   `json:"hook"`
}

// FrameSample is a periodic copy of every actor's pose.
type FrameSample struct {
	SessionID   uint           `json:"sessionId"`
	Tick        uint64         `json:"tick"`
	Time        time.Time      `json:"time"`
	Car         Point          `json:"car"`
	CarAngle    float64        `json:"carAngle"`
	CarSpeed    float64        `json:"carSpeed"`
	CrewPhase   int            `json:"crewPhase"`
	CrewDone    bool           `json:"crewDone"`
	Truck       Point          `json:"truck"`
	TruckState  string         `json:"truckState"`
	TruckAlpha  float64        `json:"truckAlpha"`
	DoorOpen    float64        `json:"doorOpen"`
	Police      Point          `json:"police"`
	PoliceState string         `json:"policeState"`
	Cranes      [2]CraneSample `json:"cranes"`
	Darkness    float64        `json:"darkness"`
	Lights      int            `json:"lights"`
}

// WorldEvent is a discrete state change.
type WorldEvent struct {
	SessionID uint      `json:"sessionId"`
	Tick      uint64    `json:"tick"`
	Time      time.Time `json:"time"`
	Kind      string    `json:"kind"`
	Actor     string    `json:"actor"`
	State     string    `json:"state,omitempty"`
}
