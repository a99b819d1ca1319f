// Package autotune derives PID coefficients with the relay-feedback method:
// bang-bang drive around a target and Ziegler-Nichols rules applied to the
// resulting oscillation.
package autotune

import (
	"errors"
	"math"
	"time"

	tr "temp_regulator"
)

const (
	DefaultTargetC = 190.0
	MinTargetC     = 40.0
	MaxTargetC     = 500.0

	HysteresisC = 2.0
	Timeout     = 10 * time.Minute

	// MinCrossings needed before the period is trusted.
	MinCrossings = 6
	// RelayAmplitude is the d term of Ku = 4d/(πa).
	RelayAmplitude = 1.0
	minAmplitude   = 0.1
)

var (
	ErrBadTarget = errors.New("autotune: target out of range")
	ErrTimeout   = errors.New("autotune: timed out")
	ErrNotReady  = errors.New("autotune: not in setup")
)

type Phase int

const (
	Idle Phase = iota
	Setup
	Running
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Setup:
		return "setup"
	case Running:
		return "running"
	case Done:
		return "done"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

type crossing struct {
	at    time.Time
	value float64
}

// Engine runs one tuning session at a time.
type Engine struct {
	phase  Phase
	target float64

	started  time.Time
	lastTick time.Time
	relayOn  bool
	above    bool

	crossings []crossing
	min, max  float64

	result tr.PIDCoefficients
	err    error
}

func New() *Engine {
	return &Engine{target: DefaultTargetC}
}

// Setup arms the engine; the operator may then adjust the target.
func (e *Engine) Setup() {
	e.phase = Setup
	e.err = nil
	e.relayOn = false
}

func (e *Engine) Phase() Phase               { return e.phase }
func (e *Engine) Target() float64            { return e.target }
func (e *Engine) Result() tr.PIDCoefficients { return e.result }
func (e *Engine) Err() error                 { return e.err }
func (e *Engine) Crossings() int             { return len(e.crossings) }

// SetTarget rejects values outside [MinTargetC, MaxTargetC].
func (e *Engine) SetTarget(c float64) error {
	if c < MinTargetC || c > MaxTargetC || math.IsNaN(c) {
		return ErrBadTarget
	}
	e.target = c
	return nil
}

// AdjustTarget moves the target by delta, clamped to the bounds.
func (e *Engine) AdjustTarget(delta float64) {
	e.target = math.Max(MinTargetC, math.Min(MaxTargetC, e.target+delta))
}

// Start begins the relay experiment from measurement pv.
func (e *Engine) Start(now time.Time, pv float64) error {
	if e.phase != Setup {
		return ErrNotReady
	}
	if e.target < MinTargetC || e.target > MaxTargetC {
		return ErrBadTarget
	}
	e.phase = Running
	e.started = now
	e.lastTick = now
	e.crossings = e.crossings[:0]
	e.min, e.max = pv, pv
	e.above = pv > e.target
	e.relayOn = pv < e.target
	e.err = nil
	return nil
}

// Output is the drive level the SSR should hold.
func (e *Engine) Output() uint8 {
	if e.phase == Running && e.relayOn {
		return 255
	}
	return 0
}

// Tick feeds one measurement and returns the phase afterwards.
func (e *Engine) Tick(now time.Time, pv float64) Phase {
	if e.phase != Running {
		return e.phase
	}
	e.lastTick = now

	if e.relayOn && pv > e.target+HysteresisC {
		e.relayOn = false
	} else if !e.relayOn && pv < e.target-HysteresisC {
		e.relayOn = true
	}

	e.min = math.Min(e.min, pv)
	e.max = math.Max(e.max, pv)

	if above := pv > e.target; above != e.above {
		e.crossings = append(e.crossings, crossing{at: now, value: pv})
		e.above = above
	}

	if len(e.crossings) >= MinCrossings {
		e.result = e.compute()
		e.relayOn = false
		e.phase = Done
		return e.phase
	}

	if now.Sub(e.started) > Timeout {
		e.relayOn = false
		e.err = ErrTimeout
		e.phase = Failed
	}
	return e.phase
}

// Abort stops a session without producing coefficients.
func (e *Engine) Abort() {
	e.relayOn = false
	e.phase = Idle
}

// Period is the mean same-direction crossing interval.
func (e *Engine) Period() time.Duration {
	if len(e.crossings) < 3 {
		return 0
	}
	var sum time.Duration
	for i := 2; i < len(e.crossings); i++ {
		sum += e.crossings[i].at.Sub(e.crossings[i-2].at)
	}
	return sum / time.Duration(len(e.crossings)-2)
}

// Amplitude is half the observed swing, floored at 0.1.
func (e *Engine) Amplitude() float64 {
	return math.Max((e.max-e.min)/2, minAmplitude)
}

func (e *Engine) compute() tr.PIDCoefficients {
	return Rules(e.Period(), e.Amplitude())
}

// Rules applies the classic relay-method formulas.
func Rules(period time.Duration, amplitude float64) tr.PIDCoefficients {
	tu := period.Seconds()
	ku := 4 * RelayAmplitude / (math.Pi * amplitude)
	kp := 0.6 * ku
	ti := 0.5 * tu
	td := 0.125 * tu
	return tr.PIDCoefficients{Kp: kp, Ki: kp / ti, Kd: kp * td}
}

// Progress renders the session for telemetry.
func (e *Engine) Progress() tr.TuneProgress {
	p := tr.TuneProgress{Phase: e.phase.String(), TargetC: e.target, Crossings: len(e.crossings)}
	if e.phase == Running || e.phase == Done || e.phase == Failed {
		p.ElapsedS = int(e.lastTick.Sub(e.started) / time.Second)
	}
	return p
}
