// Package encoder decodes a quadrature rotary encoder with a push button.
//
// Edge and Button run in interrupt context (or the goroutine standing in for it);
// Read runs once per UI tick on the main loop. The only state shared between the
// two sides is an atomic click counter and an atomic press flag.
package encoder

import (
	"sync/atomic"
	"time"
)

const (
	// StepsPerClick is the number of consistent sub-steps that make one detent.
	StepsPerClick = 4
	// Debounce is the minimum spacing between two accepted button presses.
	Debounce = 50 * time.Millisecond
)

const noCode = 0xFF

// Decoder keeps the quadrature and button state.
type Decoder struct {
	// edge-side state, touched only by Edge.
	last  uint8
	accum int8

	// button-side state, touched only by Button.
	lastPress time.Duration
	pressedAt bool

	clicks  atomic.Int32
	pressed atomic.Bool
}

// New returns a decoder that has not seen any line state yet.
func New() *Decoder {
	return &Decoder{last: noCode}
}

func code(a, b bool) uint8 {
	var c uint8
	if a {
		c |= 0b10
	}
	if b {
		c |= 0b01
	}
	return c
}

// forward reports the Gray sequence 00 -> 01 -> 11 -> 10 -> 00.
func forward(from, to uint8) bool {
	switch from<<2 | to {
	case 0b00_01, 0b01_11, 0b11_10, 0b10_00:
		return true
	}
	return false
}

func backward(from, to uint8) bool {
	return forward(to, from)
}

// Edge is called on every change of either quadrature line.
func (d *Decoder) Edge(a, b bool) {
	s := code(a, b)
	if d.last == noCode {
		d.last = s
		return
	}
	switch {
	case forward(d.last, s):
		if d.accum < 0 {
			d.accum = 0
		}
		d.accum++
		if d.accum >= StepsPerClick {
			d.clicks.Add(1)
			d.accum = 0
		}
	case backward(d.last, s):
		if d.accum > 0 {
			d.accum = 0
		}
		d.accum--
		if d.accum <= -StepsPerClick {
			d.clicks.Add(-1)
			d.accum = 0
		}
	}
	d.last = s
}

// Button is called on every change of the button line. now is a monotonic timestamp.
func (d *Decoder) Button(level bool, now time.Duration) {
	if !level {
		return
	}
	if d.pressedAt && now-d.lastPress < Debounce {
		return
	}
	d.pressedAt = true
	d.lastPress = now
	d.pressed.Store(true)
}

// Read returns the clicks accumulated since the previous Read and whether the
// button was pressed in between. Both are cleared atomically.
func (d *Decoder) Read() (clicks int32, pressed bool) {
	return d.clicks.Swap(0), d.pressed.Swap(false)
}
