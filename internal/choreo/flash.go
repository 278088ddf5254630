package choreo

import "math/rand"

// HalfCycle returns how many frames the sequencer holds its current value,
// given how many off-transitions have completed.
type HalfCycle func(count int) float64

// BillboardHalfCycle blinks fast for the first two cycles and slower after.
func BillboardHalfCycle(count int) float64 {
	if count < 2 {
		return 5
	}
	return 10
}

// LightningHalfCycle draws durations in [3,12] frames from rng.
func LightningHalfCycle(rng *rand.Rand) HalfCycle {
	return func(int) float64 {
		return float64(3 + rng.Intn(10))
	}
}

// FlashSequencer is a one-shot on/off oscillator. Once it has completed
// max cycles it freezes and ignores further triggers.
type FlashSequencer struct {
	halfCycle HalfCycle
	max       int

	triggered bool
	timer     float64
	hold      float64
	count     int
	on        bool
}

func NewFlashSequencer(max int, halfCycle HalfCycle) *FlashSequencer {
	return &FlashSequencer{halfCycle: halfCycle, max: max}
}

// NewBillboardFlash is the billboard fixture flicker: 4 cycles.
func NewBillboardFlash() *FlashSequencer {
	return NewFlashSequencer(4, BillboardHalfCycle)
}

// NewLightning is the stage window strike: 6 randomized cycles.
func NewLightning(rng *rand.Rand) *FlashSequencer {
	return NewFlashSequencer(6, LightningHalfCycle(rng))
}

func (f *FlashSequencer) On() bool        { return f.on }
func (f *FlashSequencer) Count() int      { return f.count }
func (f *FlashSequencer) Triggered() bool { return f.triggered }

// Finished reports whether all cycles have run.
func (f *FlashSequencer) Finished() bool { return f.count >= f.max }

// Active reports whether the sequencer is mid-flicker.
func (f *FlashSequencer) Active() bool { return f.triggered && !f.Finished() }

// Trigger starts the flicker from off. It reports false when the sequencer
// already ran.
func (f *FlashSequencer) Trigger() bool {
	if f.triggered {
		return false
	}
	f.triggered = true
	f.timer = 0
	f.count = 0
	f.on = false
	f.hold = f.halfCycle(0)
	return true
}

func (f *FlashSequencer) Advance(dt float64) {
	if !f.Active() {
		return
	}
	f.timer += dt
	for f.timer >= f.hold && !f.Finished() {
		f.timer -= f.hold
		f.on = !f.on
		if !f.on {
			f.count++
		}
		f.hold = f.halfCycle(f.count)
	}
	if f.Finished() {
		f.timer = 0
	}
}
