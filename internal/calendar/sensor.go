package calendar

import (
	"math"
	"time"
)

// Device is the input device a gesture originates from.
type Device string

const (
	DevicePointer Device = "pointer"
	DeviceTouch   Device = "touch"
)

// Default activation constraints.
const (
	DefaultPointerDistance = 8.0
	DefaultTouchDelay      = 250 * time.Millisecond
	DefaultTouchTolerance  = 5.0
)

// Sensors holds the activation constraint per device. A pointer drag activates
// after moving PointerDistance pixels; a touch drag activates once TouchDelay has
// passed while the finger stayed within TouchTolerance pixels.
type Sensors struct {
	PointerDistance float64
	TouchDelay      time.Duration
	TouchTolerance  float64
}

// DefaultSensors returns the default activation constraints.
func DefaultSensors() Sensors {
	return Sensors{
		PointerDistance: DefaultPointerDistance,
		TouchDelay:      DefaultTouchDelay,
		TouchTolerance:  DefaultTouchTolerance,
	}
}

type activation int

const (
	activationPending activation = iota
	activationActive
	activationAborted
)

// evaluate decides what a pending gesture becomes after moving to (dx, dy),
// elapsed after its start.
func (s Sensors) evaluate(device Device, dx, dy float64, elapsed time.Duration) activation {
	dist := math.Hypot(dx, dy)
	switch device {
	case DeviceTouch:
		if elapsed < s.TouchDelay {
			if dist > s.TouchTolerance {
				return activationAborted
			}
			return activationPending
		}
		// no move beyond tolerance was reported during the delay
		return activationActive
	default:
		if dist >= s.PointerDistance {
			return activationActive
		}
		return activationPending
	}
}
