// Package control turns temperature error into SSR drive: a plain PID
// followed by a time-proportioning window.
package control

import (
	"time"

	"go.einride.tech/pid"

	tr "temp_regulator"
)

const (
	// MinSetpointC and MaxSetpointC bound every setpoint assignment.
	MinSetpointC = 40.0
	MaxSetpointC = 500.0

	// MaxOutput is full drive.
	MaxOutput = 255.0
)

// PID is a textbook controller with an unbounded integral sum; only the
// output is clamped.
type PID struct {
	ctl      pid.Controller
	setpoint float64
	tick     time.Duration
}

// NewPID creates a controller evaluated once per tick.
func NewPID(c tr.PIDCoefficients, tick time.Duration) *PID {
	if tick <= 0 {
		tick = 100 * time.Millisecond
	}
	p := &PID{tick: tick}
	p.SetCoefficients(c)
	return p
}

func (p *PID) SetCoefficients(c tr.PIDCoefficients) {
	p.ctl.Config = pid.ControllerConfig{
		ProportionalGain: c.Kp,
		IntegralGain:     c.Ki,
		DerivativeGain:   c.Kd,
	}
}

func (p *PID) Coefficients() tr.PIDCoefficients {
	return tr.PIDCoefficients{
		Kp: p.ctl.Config.ProportionalGain,
		Ki: p.ctl.Config.IntegralGain,
		Kd: p.ctl.Config.DerivativeGain,
	}
}

// SetSetpoint clamps to [MinSetpointC, MaxSetpointC] and returns the stored value.
func (p *PID) SetSetpoint(c float64) float64 {
	p.setpoint = ClampSetpoint(c)
	return p.setpoint
}

func (p *PID) Setpoint() float64 { return p.setpoint }

// Reset drops the accumulated history.
func (p *PID) Reset() {
	p.ctl.State = pid.ControllerState{}
}

// Compute returns the drive level in [0, MaxOutput].
func (p *PID) Compute(measurement float64) float64 {
	p.ctl.Update(pid.ControllerInput{
		ReferenceSignal:  p.setpoint,
		ActualSignal:     measurement,
		SamplingInterval: p.tick,
	})
	out := p.ctl.State.ControlSignal
	if out < 0 {
		return 0
	}
	if out > MaxOutput {
		return MaxOutput
	}
	return out
}

func ClampSetpoint(c float64) float64 {
	if c < MinSetpointC {
		return MinSetpointC
	}
	if c > MaxSetpointC {
		return MaxSetpointC
	}
	return c
}
