// Package touch calibrates the resistive panel from four corner touches and
// maps raw panel readings to screen pixels.
package touch

import (
	"time"

	tr "temp_regulator"
)

const (
	ScreenWidth  = 320
	ScreenHeight = 240

	// HoldTime is how long a touch must persist before it is sampled.
	HoldTime = 150 * time.Millisecond
	// MinSpan is the smallest accepted raw extent on either axis.
	MinSpan = 200
)

// Point is a screen coordinate.
type Point struct{ X, Y int16 }

// Targets are the crosses shown to the operator, in capture order.
var Targets = [4]Point{{20, 40}, {300, 40}, {20, 220}, {300, 220}}

// Raw is one reading from the panel controller.
type Raw struct {
	X, Y    uint16
	Pressed bool
}

// Outcome tells the caller what a Tick did.
type Outcome int

const (
	Waiting Outcome = iota
	Captured
	Restarted
	Done
)

func (o Outcome) String() string {
	switch o {
	case Captured:
		return "captured"
	case Restarted:
		return "restarted"
	case Done:
		return "done"
	default:
		return "waiting"
	}
}

// Wizard walks through the four targets.
type Wizard struct {
	idx     int
	holding bool
	since   time.Time
	xs, ys  [4]uint16
}

func NewWizard() *Wizard { return &Wizard{} }

// Reset returns to the first target.
func (w *Wizard) Reset() {
	*w = Wizard{}
}

// Index is the target currently awaited, 0..3.
func (w *Wizard) Index() int { return w.idx }

// Tick feeds one panel reading. On Done the returned record is ready to persist.
func (w *Wizard) Tick(now time.Time, r Raw) (Outcome, tr.TouchCalibration) {
	if !r.Pressed {
		w.holding = false
		return Waiting, tr.TouchCalibration{}
	}
	if !w.holding {
		w.holding = true
		w.since = now
	}
	if now.Sub(w.since) < HoldTime {
		return Waiting, tr.TouchCalibration{}
	}

	w.xs[w.idx], w.ys[w.idx] = r.X, r.Y
	w.holding = false
	w.idx++
	if w.idx < len(Targets) {
		return Captured, tr.TouchCalibration{}
	}

	c, ok := Solve(w.xs, w.ys)
	if !ok {
		w.Reset()
		return Restarted, tr.TouchCalibration{}
	}
	w.idx = 0
	return Done, c
}

// Solve derives the extents from the four captured points. ok is false when
// either span is below MinSpan.
func Solve(xs, ys [4]uint16) (tr.TouchCalibration, bool) {
	swap := absDiff(ys[1], ys[0]) > absDiff(xs[1], xs[0])

	var left, right, top, bottom uint16
	if !swap {
		left, right = avg(xs[0], xs[2]), avg(xs[1], xs[3])
		top, bottom = avg(ys[0], ys[1]), avg(ys[2], ys[3])
	} else {
		left, right = avg(ys[0], ys[2]), avg(ys[1], ys[3])
		top, bottom = avg(xs[0], xs[1]), avg(xs[2], xs[3])
	}

	if absDiff(right, left) < MinSpan || absDiff(bottom, top) < MinSpan {
		return tr.TouchCalibration{}, false
	}
	return tr.TouchCalibration{
		Calibrated: true,
		SwapAxes:   swap,
		XMin:       left,
		XMax:       right,
		YMin:       top,
		YMax:       bottom,
	}, true
}

// MapClamped maps v linearly from [inMin,inMax] to [outMin,outMax], clamping
// inputs outside the range. Either range may be descending.
func MapClamped(v, inMin, inMax, outMin, outMax int32) int16 {
	if inMin == inMax {
		return int16(outMin)
	}
	lo, hi := inMin, inMax
	if lo > hi {
		lo, hi = hi, lo
	}
	if v < lo {
		v = lo
	}
	if v > hi {
		v = hi
	}
	return int16(outMin + (v-inMin)*(outMax-outMin)/(inMax-inMin))
}

// ToScreen converts a raw reading with the given calibration.
func ToScreen(c tr.TouchCalibration, x, y uint16) Point {
	if c.SwapAxes {
		x, y = y, x
	}
	return Point{
		X: MapClamped(int32(x), int32(c.XMin), int32(c.XMax), 0, ScreenWidth-1),
		Y: MapClamped(int32(y), int32(c.YMin), int32(c.YMax), 0, ScreenHeight-1),
	}
}

func avg(a, b uint16) uint16 { return uint16((uint32(a) + uint32(b)) / 2) }

func absDiff(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}
