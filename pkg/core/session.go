// Package core holds the backend-neutral diagnostics trace types shared by
// the storage backends and the streaming protocol.
package core

import "time"

// Point is a world position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Session is one run of the world, from start until the host stops it.
type Session struct {
	ID        uint      `json:"id"`
	Name      string    `json:"name"`
	StartedAt time.Time `json:"startedAt"`
	EndedAt   time.Time `json:"endedAt,omitempty"`
	Seed      int64     `json:"seed"`
	ClockHour float64   `json:"clockHour"`
	TickRate  int       `json:"tickRate"`
	// TruckRoute is the delivery route as WKT.
	TruckRoute string  `json:"truckRoute"`
	Outcome    Outcome `json:"outcome"`
}

// Outcome is filled in by the host before EndSession.
type Outcome struct {
	FinalTick      uint64 `json:"finalTick"`
	Delivered      bool   `json:"delivered"`
	Stage1ShowDone bool   `json:"stage1ShowDone"`
	Arrived        string `json:"arrived,omitempty"`
	Events         int    `json:"events"`
	Frames         int    `json:"frames"`
}
