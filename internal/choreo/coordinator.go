package choreo

import "github.com/moonlitstudios/backlot/internal/geo"

// Crane sides. Index values match Coordinator.Items.
const (
	LeftCrane  = 0
	RightCrane = 1
)

// Signals is the read-only view of cross-actor state computed once per tick
// after the crew has moved. Each actor reads it; none writes to it.
type Signals struct {
	CrewPhase int
	CrewDone  bool
	// Inbound marks the cranes whose item is about to be carried over.
	Inbound     [2]bool
	TruckState  TruckState
	TruckTimer  float64
	TruckCursor int
	TruckGone   bool
}

// Coordinator owns the delivery items shared by the crew and the cranes
// and derives the per-tick Signals.
type Coordinator struct {
	Items [2]*DeliveryItem
}

// NewCoordinator creates the two items at their drop positions.
func NewCoordinator(leftDrop, rightDrop geo.Vec2) *Coordinator {
	return &Coordinator{
		Items: [2]*DeliveryItem{
			{Drop: leftDrop},
			{Drop: rightDrop},
		},
	}
}

// Signals derives this tick's signals from the crew and the truck.
func (c *Coordinator) Signals(crew *Crew, truck *Truck) Signals {
	s := Signals{
		CrewPhase: crew.Phase(),
		CrewDone:  crew.Done(),
	}
	if truck != nil {
		s.TruckState = truck.State()
		s.TruckTimer = truck.Timer()
		s.TruckCursor = truck.Cursor()
		s.TruckGone = truck.State() == TruckGone
	}

	if !s.CrewDone {
		right := c.Items[RightCrane]
		left := c.Items[LeftCrane]
		s.Inbound[RightCrane] = s.CrewPhase <= 1 && !right.Placed()
		s.Inbound[LeftCrane] = s.CrewPhase >= 4 && s.CrewPhase <= 5 && !left.Placed()
	}
	return s
}

// Delivered reports whether both items hang from their cranes.
func (c *Coordinator) Delivered() bool {
	return c.Items[LeftCrane].PickedUp() && c.Items[RightCrane].PickedUp()
}
