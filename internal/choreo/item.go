// Package choreo holds the scripted non-player actors and the coordinator
// that sequences them against each other.
package choreo

import "github.com/moonlitstudios/backlot/internal/geo"

// DeliveryItem is a light fixture carried from the truck to a crane.
// The crew is the only writer of placed, the crane the only writer of
// pickedUp.
type DeliveryItem struct {
	Drop     geo.Vec2
	placed   bool
	pickedUp bool
}

func (d *DeliveryItem) Placed() bool   { return d.placed }
func (d *DeliveryItem) PickedUp() bool { return d.pickedUp }

func (d *DeliveryItem) place() {
	d.placed = true
}

// pickUp refuses while the item is still being carried.
func (d *DeliveryItem) pickUp() bool {
	if !d.placed {
		return false
	}
	d.pickedUp = true
	return true
}
