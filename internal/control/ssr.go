package control

import "time"

// Window is the time-proportioning period.
const Window = 1000 * time.Millisecond

// SSR holds the duty and the rolling window that gates a solid-state relay.
type SSR struct {
	window time.Duration
	start  time.Time
	duty   uint8
}

func NewSSR() *SSR {
	return &SSR{window: Window}
}

// SetDuty stores the drive level 0..255.
func (s *SSR) SetDuty(d uint8) { s.duty = d }

// SetOutput converts a PID output to a duty.
func (s *SSR) SetOutput(out float64) {
	switch {
	case out <= 0:
		s.duty = 0
	case out >= MaxOutput:
		s.duty = 255
	default:
		s.duty = uint8(out)
	}
}

func (s *SSR) Duty() uint8 { return s.duty }

// DutyPercent is the duty scaled to 0..100.
func (s *SSR) DutyPercent() float64 { return float64(s.duty) * 100 / 255 }

// Restart begins a new window at now.
func (s *SSR) Restart(now time.Time) { s.start = now }

// Off forces zero duty.
func (s *SSR) Off() { s.duty = 0 }

// Apply reports whether the relay must be energised at now: on for the first
// duty/255 of each window.
func (s *SSR) Apply(now time.Time) bool {
	if s.start.IsZero() || now.Sub(s.start) >= s.window || now.Before(s.start) {
		s.start = now
	}
	onTime := time.Duration(s.duty) * s.window / 255
	return now.Sub(s.start) < onTime
}
