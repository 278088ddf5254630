package clock

import "time"

// Source supplies the time of day polled once per frame.
type Source interface {
	Now() time.Time
}

// Wall reads the local wall clock.
type Wall struct{}

func (Wall) Now() time.Time { return time.Now() }

// Fixed always reports the same time of day, on an arbitrary date.
type Fixed struct {
	Hour float64
}

func (f Fixed) Now() time.Time {
	minutes := int(f.Hour*60 + 0.5)
	return time.Date(2000, time.January, 1, 0, 0, 0, 0, time.Local).Add(time.Duration(minutes) * time.Minute)
}

// FromHour returns Wall for a negative hour, Fixed otherwise.
func FromHour(hour float64) Source {
	if hour < 0 {
		return Wall{}
	}
	return Fixed{Hour: hour}
}
