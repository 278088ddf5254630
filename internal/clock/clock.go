// Package clock derives ambient darkness and the dawn/dusk tint from the
// time of day.
package clock

import (
	"math"
	"time"
)

// MaxDarkness is the darkness applied through the night window.
const MaxDarkness = 0.7

const (
	dawnStart = 4.0
	dayStart  = 7.0
	dayEnd    = 17.0
	nightFrom = 20.0
)

// RGB is an 8-bit colour triple.
type RGB struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
}

// Tint is a warm wash laid over the whole scene around sunrise and sunset.
type Tint struct {
	Color RGB     `json:"color"`
	Alpha float64 `json:"alpha"`
}

// HourOf returns the fractional local hour of t.
func HourOf(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60
}

// Darkness returns the ambient darkness in [0, MaxDarkness] for t.
func Darkness(t time.Time) float64 {
	return DarknessAt(HourOf(t))
}

// DarknessAt is Darkness for a fractional hour.
func DarknessAt(h float64) float64 {
	switch {
	case h >= dayStart && h <= dayEnd:
		return 0
	case h >= nightFrom || h <= dawnStart:
		return MaxDarkness
	case h < dayStart:
		return MaxDarkness * (1 - (h-dawnStart)/(dayStart-dawnStart))
	default:
		return MaxDarkness * (h - dayEnd) / (nightFrom - dayEnd)
	}
}

// TintFor returns the dawn or dusk tint for t, if any.
func TintFor(t time.Time) (Tint, bool) {
	return TintAt(HourOf(t))
}

// TintAt is TintFor for a fractional hour.
func TintAt(h float64) (Tint, bool) {
	switch {
	case h > 5 && h < 7:
		f := 1 - math.Abs(h-6)
		return Tint{Color: RGB{R: 60, G: 20, B: 0}, Alpha: 0.15 * f}, true
	case h > 17 && h < 19:
		f := 1 - math.Abs(h-18)
		return Tint{Color: RGB{R: 80, G: 30, B: 0}, Alpha: 0.2 * f}, true
	}
	return Tint{}, false
}
