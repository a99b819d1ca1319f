// Package device sequences the regulator through its operating modes. A single
// goroutine owns a Regulator and calls Tick; everyone else talks to it through
// Submit and reads Snapshot.
package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	tr "temp_regulator"
	"temp_regulator/internal/autotune"
	"temp_regulator/internal/calibration"
	"temp_regulator/internal/control"
	"temp_regulator/internal/logger"
	"temp_regulator/internal/profile"
	"temp_regulator/internal/sensor"
	"temp_regulator/internal/settings"
	"temp_regulator/internal/touch"
)

// DefaultSetpointC is the manual setpoint after boot.
const DefaultSetpointC = 210.0

const commandQueue = 16

// submitTicks bounds how many ticks Submit waits for a reply.
const submitTicks = 20

// Hardware is the part of the board the regulator drives.
type Hardware interface {
	ReadADC() (uint16, error)
	SetSSR(on bool) error
	TouchRaw() (touch.Raw, error)
}

// Knob is the encoder read contract.
type Knob interface {
	Read() (clicks int32, pressed bool)
}

// EventRecorder stores the device event log.
type EventRecorder interface {
	Append(ctx context.Context, e tr.DeviceEvent) error
}

// Options carries the collaborators. Nil stores disable persistence.
type Options struct {
	Tick     time.Duration
	Settings settings.Store
	Profiles profile.Store
	Events   EventRecorder
	Knob     Knob
	Log      *logger.Logger
	// Sleep paces the ADC burst; nil uses time.Sleep.
	Sleep func(time.Duration)
}

type Regulator struct {
	hw       Hardware
	store    settings.Store
	profiles profile.Store
	events   EventRecorder
	knob     Knob
	log      *logger.Logger

	state      State
	cfg        settings.Settings
	monitor    *sensor.Monitor
	pid        *control.PID
	ssr        *control.SSR
	calib      *calibration.Wizard
	tune       *autotune.Engine
	touchWiz   *touch.Wizard
	book       *profile.Book
	activeSlot int
	heating    bool
	pv         float64
	message    string

	alarmRaised bool
	touchDown   bool
	touchAt     touch.Point

	commands   chan Command
	submitWait time.Duration
	stopped    chan struct{}
	stopOnce   sync.Once

	snapMu sync.RWMutex
	snap   tr.Telemetry
}

func New(hw Hardware, opts Options) *Regulator {
	log := opts.Log
	if log == nil {
		log = logger.Nop()
	}
	if opts.Tick <= 0 {
		opts.Tick = 100 * time.Millisecond
	}
	sampler := sensor.NewSampler(hw)
	if opts.Sleep != nil {
		sampler.WithSleep(opts.Sleep)
	}

	r := &Regulator{
		hw:       hw,
		store:    opts.Settings,
		profiles: opts.Profiles,
		events:   opts.Events,
		knob:     opts.Knob,
		log:      log.Component("device"),
		state:    Init,
		cfg:      settings.Defaults(),
		ssr:      control.NewSSR(),
		tune:     autotune.New(),
		touchWiz: touch.NewWizard(),
		book:     profile.NewBook(profile.Defaults()),
		commands: make(chan Command, commandQueue),
		stopped:  make(chan struct{}),
	}
	r.submitWait = submitTicks * opts.Tick
	if r.submitWait < time.Second {
		r.submitWait = time.Second
	}
	r.monitor = sensor.NewMonitor(sampler, r.cfg.Calibration, log)
	r.monitor.OnAlarm(func() { r.alarmRaised = true })
	r.calib = calibration.NewWizard(sampler)
	r.pid = control.NewPID(r.cfg.PID, opts.Tick)
	r.pid.SetSetpoint(DefaultSetpointC)
	r.publish(time.Now())
	return r
}

// Boot loads persisted state and probes the sensor. It leaves the regulator in
// Ready, or in Alarm when the first acquisition fails.
func (r *Regulator) Boot(ctx context.Context, now time.Time) {
	r.loadSettings(ctx)
	r.loadProfiles(ctx)

	r.pid.SetCoefficients(r.cfg.PID)
	r.monitor.SetCalibration(r.cfg.Calibration)
	if err := r.hw.SetSSR(false); err != nil {
		r.log.Warnw("ssr_write_failed", "err", err)
	}

	ev := InitOk
	if _, err := r.monitor.Sampler().Sample(); err != nil {
		r.log.Errorw("sensor_probe_failed", "err", err)
		r.message = "initialisation failed"
		ev = InitFail
	}
	r.handleEvent(ctx, now, ev)
	r.publish(now)
}

func (r *Regulator) loadSettings(ctx context.Context) {
	if r.store == nil {
		return
	}
	s, err := r.store.Load(ctx)
	switch {
	case err == nil:
		r.cfg = s
		return
	case errors.Is(err, settings.ErrNotFound), errors.Is(err, settings.ErrVersionMismatch):
		r.log.Infow("settings_defaulted", "reason", err)
	default:
		r.log.Errorw("settings_load_failed", "err", err)
	}
	r.cfg = settings.Defaults()
	r.saveSettings(ctx)
}

func (r *Regulator) loadProfiles(ctx context.Context) {
	if r.profiles == nil {
		return
	}
	ps, err := r.profiles.List(ctx)
	if err != nil {
		r.log.Errorw("profiles_load_failed", "err", err)
		return
	}
	if len(ps) == 0 {
		for _, p := range profile.Defaults() {
			if err := r.profiles.Save(ctx, p); err != nil {
				r.log.Errorw("profile_save_failed", "slot", p.Slot, "err", err)
			}
		}
		return
	}
	r.book = profile.NewBook(ps)
}

func (r *Regulator) saveSettings(ctx context.Context) {
	if r.store == nil {
		return
	}
	if err := r.store.Save(ctx, r.cfg); err != nil {
		r.log.Errorw("settings_save_failed", "err", err)
	}
}

func (r *Regulator) record(ctx context.Context, now time.Time, typ, desc string, meta map[string]any) {
	if r.events == nil {
		return
	}
	e := tr.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  now.UTC(),
		Type:        typ,
		Description: desc,
		Metadata:    meta,
	}
	if err := r.events.Append(ctx, e); err != nil {
		r.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}

// Tick runs one main-loop iteration.
func (r *Regulator) Tick(ctx context.Context, now time.Time) {
	r.drain(ctx, now)
	r.readKnob(ctx, now)

	switch r.state {
	case Work, Manual:
		r.readTemperature()
		if r.heating {
			r.ssr.SetOutput(r.pid.Compute(r.pv))
		} else {
			r.ssr.Off()
		}

	case CalibrateSensor:
		r.ssr.Off()
		r.tickCalibration(ctx, now)

	case AutotunePid:
		r.readTemperature()
		r.tickAutotune(ctx, now)

	case TouchCalibrate:
		r.ssr.Off()
		r.tickTouchCalibration(ctx, now)

	case TouchTest:
		r.ssr.Off()
		r.tickTouchTest(ctx, now)

	default:
		r.ssr.Off()
		r.readTemperature()
	}

	if r.alarmRaised {
		r.alarmRaised = false
		r.enterAlarm(ctx, now, "thermocouple fault")
	}

	r.drive(now)
	r.publish(now)
}

func (r *Regulator) readTemperature() {
	r.pv = float64(r.monitor.ReadTemperatureC())
}

// drive writes the SSR level for this instant.
func (r *Regulator) drive(now time.Time) {
	on := r.state.heats() && r.ssr.Apply(now)
	if err := r.hw.SetSSR(on); err != nil {
		r.log.Warnw("ssr_write_failed", "err", err)
	}
}

// heaterOff zeroes the duty and opens the relay immediately.
func (r *Regulator) heaterOff() {
	r.heating = false
	r.ssr.Off()
	if err := r.hw.SetSSR(false); err != nil {
		r.log.Warnw("ssr_write_failed", "err", err)
	}
}

func (r *Regulator) tickCalibration(ctx context.Context, now time.Time) {
	before := r.calib.Step()
	step := r.calib.Tick(now)
	r.pv = float64(r.cfg.Calibration.Apply(r.calib.LastRaw()))
	if step == before {
		return
	}
	switch step {
	case calibration.Done:
		c := r.calib.Result()
		r.cfg.Calibration = c
		r.monitor.SetCalibration(c)
		r.saveSettings(ctx)
		r.message = "calibration complete"
		r.log.Infow("calibration_done", "slope", c.Slope, "offset", c.Offset)
		r.record(ctx, now, tr.EventCalibration, "Thermocouple calibrated", map[string]any{"slope": c.Slope, "offset": c.Offset})
	case calibration.Failed:
		r.message = r.calib.Err().Error()
		r.log.Warnw("calibration_failed", "err", r.calib.Err())
		r.record(ctx, now, tr.EventCalibration, "Calibration failed", map[string]any{"error": r.calib.Err().Error()})
	}
}

func (r *Regulator) tickAutotune(ctx context.Context, now time.Time) {
	if r.tune.Phase() != autotune.Running {
		r.ssr.Off()
		return
	}
	switch r.tune.Tick(now, r.pv) {
	case autotune.Running:
		r.ssr.SetDuty(r.tune.Output())
	case autotune.Done:
		c := r.tune.Result()
		r.cfg.PID = c
		r.pid.SetCoefficients(c)
		r.saveSettings(ctx)
		r.message = "autotune complete"
		r.log.Infow("autotune_done", "kp", c.Kp, "ki", c.Ki, "kd", c.Kd, "period_s", r.tune.Period().Seconds())
		r.record(ctx, now, tr.EventAutotune, "PID autotune complete", map[string]any{"kp": c.Kp, "ki": c.Ki, "kd": c.Kd})
		r.enter(ctx, now, Settings)
	case autotune.Failed:
		r.message = r.tune.Err().Error()
		r.log.Warnw("autotune_failed", "err", r.tune.Err())
		r.record(ctx, now, tr.EventAutotune, "PID autotune timed out", nil)
		r.enter(ctx, now, Settings)
	}
}

func (r *Regulator) tickTouchCalibration(ctx context.Context, now time.Time) {
	raw, err := r.hw.TouchRaw()
	if err != nil {
		r.log.Warnw("touch_read_failed", "err", err)
		return
	}
	outcome, c := r.touchWiz.Tick(now, raw)
	switch outcome {
	case touch.Restarted:
		r.message = "touch range too small, repeat calibration"
	case touch.Done:
		r.cfg.Touch = c
		r.saveSettings(ctx)
		r.message = "touch calibration complete"
		r.record(ctx, now, tr.EventSettings, "Touch panel calibrated", map[string]any{"swap_axes": c.SwapAxes})
		r.enter(ctx, now, Init)
		r.handleEvent(ctx, now, InitOk)
	}
}

// centre button of the touch test screen
var testButton = struct{ x0, y0, x1, y1 int16 }{90, 90, 230, 150}

func (r *Regulator) tickTouchTest(ctx context.Context, now time.Time) {
	raw, err := r.hw.TouchRaw()
	if err != nil {
		r.log.Warnw("touch_read_failed", "err", err)
		return
	}
	if raw.Pressed {
		r.touchDown = true
		r.touchAt = touch.ToScreen(r.cfg.Touch, raw.X, raw.Y)
		return
	}
	if !r.touchDown {
		return
	}
	r.touchDown = false
	p := r.touchAt
	if p.X >= testButton.x0 && p.X <= testButton.x1 && p.Y >= testButton.y0 && p.Y <= testButton.y1 {
		r.enter(ctx, now, Ready)
		return
	}
	r.enter(ctx, now, TouchCalibrate)
}

// Snapshot is the latest published telemetry.
func (r *Regulator) Snapshot() tr.Telemetry {
	r.snapMu.RLock()
	defer r.snapMu.RUnlock()
	return r.snap
}

func (r *Regulator) publish(now time.Time) {
	t := tr.Telemetry{
		State:         r.state.String(),
		StateLabel:    r.state.Label(),
		CurrentTempC:  r.pv,
		TargetTempC:   r.pid.Setpoint(),
		DutyPercent:   r.ssr.DutyPercent(),
		Heating:       r.heating,
		Alarm:         r.monitor.Alarm(),
		Calibrated:    r.cfg.Calibration.Calibrated,
		ActiveProfile: r.activeSlot,
		PID:           r.cfg.PID,
		Thermocouple:  r.cfg.Calibration,
		Message:       r.message,
		UpdatedAt:     now.UTC(),
	}
	if r.state == CalibrateSensor {
		t.Calib = r.calib.Progress()
	}
	if r.state == AutotunePid {
		t.Autotune = r.tune.Progress()
		t.TargetTempC = r.tune.Target()
	}
	r.snapMu.Lock()
	r.snap = t
	r.snapMu.Unlock()
}

// State is for the runner goroutine and tests.
func (r *Regulator) State() State { return r.state }

// Halt opens the relay and publishes the result. The runner calls it once its
// loop has stopped; pending and later Submit calls return ErrStopped.
func (r *Regulator) Halt(now time.Time) {
	r.heaterOff()
	r.publish(now)
	r.stopOnce.Do(func() { close(r.stopped) })
}
