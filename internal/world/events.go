package world

import (
	"fmt"
	"strconv"

	"github.com/moonlitstudios/backlot/internal/choreo"
)

// EventKind names a world event.
type EventKind string

const (
	EventCrewPhase      EventKind = "crew.phase"
	EventCrewDone       EventKind = "crew.done"
	EventItemPlaced     EventKind = "item.placed"
	EventItemPickedUp   EventKind = "item.picked_up"
	EventCraneState     EventKind = "crane.state"
	EventTruckState     EventKind = "truck.state"
	EventDoorState      EventKind = "door.state"
	EventStage1ShowDone EventKind = "stage1.show_done"
	EventPoliceState    EventKind = "police.state"
	EventBillboardFlash EventKind = "billboard.flash"
	EventLightning      EventKind = "lightning.strike"
	EventPanelPlaying   EventKind = "panel.playing"
	EventPanelPaused    EventKind = "panel.paused"
	EventZoneArrived    EventKind = "zone.arrived"

	EventScreeningEntered EventKind = "screening.entered"
	EventScreeningStep    EventKind = "screening.step"
	EventScreeningLeft    EventKind = "screening.left"
)

// Event is a discrete change recorded during a tick.
type Event struct {
	Tick  uint64    `json:"tick"`
	Kind  EventKind `json:"kind"`
	Actor string    `json:"actor"`
	State string    `json:"state,omitempty"`
}

func (e Event) String() string {
	if e.State == "" {
		return fmt.Sprintf("%d %s %s", e.Tick, e.Kind, e.Actor)
	}
	return fmt.Sprintf("%d %s %s=%s", e.Tick, e.Kind, e.Actor, e.State)
}

// Events drains the events recorded since the last call.
func (w *World) Events() []Event {
	out := w.events
	w.events = nil
	return out
}

func (w *World) emit(kind EventKind, actor, state string) {
	w.events = append(w.events, Event{Tick: w.tick, Kind: kind, Actor: actor, State: state})
}

// snapshot is the comparable part of actor state used to spot transitions.
type snapshot struct {
	crewPhase int
	crewDone  bool
	placed    [2]bool
	pickedUp  [2]bool
	cranes    [2]choreo.CraneState
	door      choreo.DoorState
	showDone  bool
	police    choreo.PoliceState
	// room is empty outside the screening room.
	room choreo.ScreeningStep
}

func (w *World) snapshot() snapshot {
	s := snapshot{
		crewPhase: w.Crew.Phase(),
		crewDone:  w.Crew.Done(),
		door:      w.Door.State(),
		showDone:  w.Door.ShowDone(),
		police:    w.Police.State(),
	}
	if w.inRoom {
		s.room = w.Screening.Step()
	}
	for i, it := range w.coord.Items {
		s.placed[i] = it.Placed()
		s.pickedUp[i] = it.PickedUp()
		s.cranes[i] = w.Cranes[i].State()
	}
	return s
}

// recordTransitions emits an event for every state that changed this tick,
// in update order.
func (w *World) recordTransitions() {
	now := w.snapshot()
	prev := w.last
	w.last = now

	if now.crewPhase != prev.crewPhase {
		w.emit(EventCrewPhase, "crew", strconv.Itoa(now.crewPhase))
	}
	if now.crewDone && !prev.crewDone {
		w.emit(EventCrewDone, "crew", "")
	}
	for i := range now.placed {
		if now.placed[i] && !prev.placed[i] {
			w.emit(EventItemPlaced, craneName(i), "")
		}
	}
	for _, s := range w.Truck.DrainTransitions() {
		w.emit(EventTruckState, "truck", string(s))
	}
	if now.door != prev.door {
		w.emit(EventDoorState, "door", string(now.door))
	}
	if now.showDone && !prev.showDone {
		w.emit(EventStage1ShowDone, "stage1", "")
	}
	if now.police != prev.police {
		w.emit(EventPoliceState, "police", string(now.police))
	}
	for i := range now.cranes {
		if now.pickedUp[i] && !prev.pickedUp[i] {
			w.emit(EventItemPickedUp, craneName(i), "")
		}
		if now.cranes[i] != prev.cranes[i] {
			w.emit(EventCraneState, craneName(i), string(now.cranes[i]))
		}
	}
	switch {
	case now.room == "":
	case prev.room == "":
		w.emit(EventScreeningEntered, "screening", string(now.room))
	case now.room != prev.room:
		w.emit(EventScreeningStep, "screening", string(now.room))
	}
}

func craneName(i int) string {
	if i == choreo.LeftCrane {
		return "crane.left"
	}
	return "crane.right"
}

func billboardName(i int) string {
	return "billboard." + strconv.Itoa(i)
}
