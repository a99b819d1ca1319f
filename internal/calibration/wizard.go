// Package calibration implements the guided two-point thermocouple calibration.
package calibration

import (
	"errors"
	"fmt"
	"time"

	"github.com/chewxy/math32"

	tr "temp_regulator"
	"temp_regulator/internal/sensor"
)

const (
	MaxOutliers = 5
	MinADCDiff  = 120
	StableDelta = 8
	StableHold  = 2000 * time.Millisecond
	StepTimeout = 60 * time.Second

	DefaultRefLowC  = 25
	DefaultRefHighC = 100
	MinRefLowC      = -20
	MaxRefLowC      = 60
	RefLowStepC     = 0.5
)

var (
	ErrInsufficientSeparation = errors.New("calibration: insufficient adc separation")
	ErrSensorFault            = errors.New("calibration: thermocouple fault")
	ErrTimeout                = errors.New("calibration: step timed out")
	ErrNotStable              = errors.New("calibration: reading not stable")
	ErrWrongStep              = errors.New("calibration: command not valid in current step")
)

// Step is a wizard state.
type Step int

const (
	Idle Step = iota
	InputAmbient
	Measure1
	WaitStable
	Measure2
	CalcCoefficients
	Done
	Failed
)

var stepNames = map[Step]string{
	Idle:             "idle",
	InputAmbient:     "input_ambient",
	Measure1:         "measure_1",
	WaitStable:       "wait_stable",
	Measure2:         "measure_2",
	CalcCoefficients: "calc_coefficients",
	Done:             "done",
	Failed:           "error",
}

func (s Step) String() string { return stepNames[s] }

// Sampler is the filtered burst reader.
type Sampler interface {
	Sample() (sensor.Reading, error)
}

type Wizard struct {
	sampler Sampler

	step      Step
	stepStart time.Time

	refLow, refHigh float32
	adc1, adc2      uint16

	lastRaw     uint16
	stable      bool
	stableSince time.Time

	result tr.Calibration
	err    error
}

func NewWizard(s Sampler) *Wizard {
	return &Wizard{sampler: s, refLow: DefaultRefLowC, refHigh: DefaultRefHighC}
}

// Start enters InputAmbient with fresh defaults.
func (w *Wizard) Start(now time.Time) {
	*w = Wizard{sampler: w.sampler, refLow: DefaultRefLowC, refHigh: DefaultRefHighC}
	w.enter(InputAmbient, now)
}

func (w *Wizard) Step() Step                  { return w.step }
func (w *Wizard) Err() error                  { return w.err }
func (w *Wizard) Result() tr.Calibration      { return w.result }
func (w *Wizard) Stable() bool                { return w.stable }
func (w *Wizard) RefLow() float32             { return w.refLow }
func (w *Wizard) RefHigh() float32            { return w.refHigh }
func (w *Wizard) LastRaw() uint16             { return w.lastRaw }
func (w *Wizard) enter(s Step, now time.Time) { w.step, w.stepStart = s, now }

// Progress renders the wizard for telemetry.
func (w *Wizard) Progress() tr.CalibProgress {
	p := tr.CalibProgress{
		Step:     w.step.String(),
		RefLowC:  w.refLow,
		RefHighC: w.refHigh,
		LastRaw:  w.lastRaw,
		Stable:   w.stable,
	}
	if w.err != nil {
		p.LastError = w.err.Error()
	}
	return p
}

// AdjustRefLow nudges the ambient reference by delta, rounded to 0.5 °C and
// clamped to [-20, 60].
func (w *Wizard) AdjustRefLow(delta float32) error {
	if w.step != InputAmbient {
		return ErrWrongStep
	}
	v := math32.Round((w.refLow+delta)/RefLowStepC) * RefLowStepC
	w.refLow = math32.Max(MinRefLowC, math32.Min(MaxRefLowC, v))
	return nil
}

// Advance confirms the ambient reference; the first measurement runs on the next Tick.
func (w *Wizard) Advance(now time.Time) error {
	if w.step != InputAmbient {
		return ErrWrongStep
	}
	w.enter(Measure1, now)
	return nil
}

// Back returns from WaitStable to the ambient input step.
func (w *Wizard) Back(now time.Time) error {
	if w.step != WaitStable {
		return ErrWrongStep
	}
	w.stable = false
	w.stableSince = time.Time{}
	w.enter(InputAmbient, now)
	return nil
}

// Confirm accepts the high reference once the reading is stable. An unstable
// confirm cancels the wizard and returns ErrNotStable.
func (w *Wizard) Confirm(now time.Time) error {
	if w.step != WaitStable {
		return ErrWrongStep
	}
	if !w.stable {
		w.Cancel()
		return ErrNotStable
	}
	w.enter(Measure2, now)
	return nil
}

func (w *Wizard) Cancel() {
	w.step = Idle
}

// Tick advances the wizard. Terminal steps are sticky until Start.
func (w *Wizard) Tick(now time.Time) Step {
	switch w.step {
	case InputAmbient:
		w.checkTimeout(now)

	case Measure1:
		r, ok := w.sample()
		if !ok {
			break
		}
		w.adc1 = r.Raw
		w.refHigh = DefaultRefHighC
		w.lastRaw = r.Raw
		w.stable = false
		w.stableSince = time.Time{}
		w.enter(WaitStable, now)

	case WaitStable:
		r, ok := w.sample()
		if !ok {
			break
		}
		if absDiff(r.Raw, w.lastRaw) <= StableDelta {
			if w.stableSince.IsZero() {
				w.stableSince = now
			}
			if now.Sub(w.stableSince) >= StableHold {
				w.stable = true
			}
		} else {
			w.stable = false
			w.stableSince = time.Time{}
		}
		w.lastRaw = r.Raw
		w.checkTimeout(now)

	case Measure2:
		r, ok := w.sample()
		if !ok {
			break
		}
		w.adc2 = r.Raw
		w.lastRaw = r.Raw
		w.enter(CalcCoefficients, now)
		w.calc()

	case CalcCoefficients:
		w.calc()
	}
	return w.step
}

func (w *Wizard) calc() {
	c, err := Solve(w.refLow, w.adc1, w.refHigh, w.adc2)
	if err != nil {
		w.fail(err)
		return
	}
	w.result = c
	w.step = Done
}

func (w *Wizard) sample() (sensor.Reading, bool) {
	r, err := w.sampler.Sample()
	if err != nil {
		w.fail(fmt.Errorf("%w: %v", ErrSensorFault, err))
		return r, false
	}
	if r.Outliers > MaxOutliers {
		w.fail(ErrSensorFault)
		return r, false
	}
	return r, true
}

func (w *Wizard) checkTimeout(now time.Time) {
	if now.Sub(w.stepStart) > StepTimeout {
		w.fail(fmt.Errorf("%w: %s", ErrTimeout, w.step))
	}
}

func (w *Wizard) fail(err error) {
	w.err = err
	w.step = Failed
}

// Solve fits temp = offset + slope*adc through two reference points.
func Solve(temp1 float32, adc1 uint16, temp2 float32, adc2 uint16) (tr.Calibration, error) {
	if adc2 <= adc1 || adc2-adc1 < MinADCDiff {
		return tr.Calibration{}, fmt.Errorf("%w: adc1=%d adc2=%d", ErrInsufficientSeparation, adc1, adc2)
	}
	slope := (temp2 - temp1) / float32(adc2-adc1)
	return tr.Calibration{
		Calibrated: true,
		Slope:      slope,
		Offset:     temp1 - slope*float32(adc1),
	}, nil
}

func absDiff(a, b uint16) uint16 {
	if a > b {
		return a - b
	}
	return b - a
}
