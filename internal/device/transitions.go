package device

import (
	"context"
	"math"
	"time"

	tr "temp_regulator"
)

// handleEvent applies the transition table. Unmapped events are ignored.
func (r *Regulator) handleEvent(ctx context.Context, now time.Time, e Event) error {
	switch r.state {
	case Init:
		switch e {
		case InitOk:
			r.enter(ctx, now, Ready)
		case InitFail:
			r.enterAlarm(ctx, now, "initialisation failed")
		}

	case Ready:
		switch e {
		case ToSettings:
			r.enter(ctx, now, Settings)
		case ToProfiles:
			// list is rendered by the collaborator
		case ToProfileWork:
			r.enter(ctx, now, Work)
		case ToManual:
			r.enter(ctx, now, Manual)
		}

	case Settings:
		switch e {
		case ToCalib:
			r.enter(ctx, now, CalibrateSensor)
		case ToAutotune:
			if !r.cfg.Calibration.Calibrated {
				r.message = "calibrate the sensor before autotune"
				return ErrNotCalibrated
			}
			r.enter(ctx, now, AutotunePid)
		case Back:
			r.enter(ctx, now, Ready)
		}

	case Work, Manual:
		if e == Stop {
			r.enter(ctx, now, Ready)
		}

	case CalibrateSensor:
		if e == Back {
			r.calib.Cancel()
			r.enter(ctx, now, Settings)
		}

	case AutotunePid:
		if e == Back {
			r.tune.Abort()
			r.enter(ctx, now, Settings)
		}

	case TouchCalibrate, TouchTest, Alarm:
		// driven by their own tick logic or by acknowledgement
	}
	return nil
}

// enter switches state and runs the entry action of the new state. The heater
// is forced off whenever a heating state is left.
func (r *Regulator) enter(ctx context.Context, now time.Time, next State) {
	prev := r.state
	if prev.heats() {
		r.heaterOff()
	}
	r.state = next

	switch next {
	case Work:
		r.enterWork(now)
	case Manual:
		r.pid.SetCoefficients(r.cfg.PID)
		r.pid.Reset()
		r.ssr.Restart(now)
		r.heaterOff()
	case CalibrateSensor:
		r.calib.Start(now)
	case AutotunePid:
		r.tune.Setup()
	case TouchCalibrate:
		r.touchWiz.Reset()
	case TouchTest:
		r.touchDown = false
	}

	if prev != next {
		r.log.Infow("state_changed", "from", prev.String(), "to", next.String())
		r.record(ctx, now, tr.EventState, "State changed to "+next.Label(), map[string]any{"from": prev.String(), "to": next.String()})
	}
}

func (r *Regulator) enterWork(now time.Time) {
	target := r.pid.Setpoint()
	r.pid.SetCoefficients(r.cfg.PID)
	if p, ok := r.book.Get(r.activeSlot); ok && p.Available() {
		if p.HasPID() {
			r.pid.SetCoefficients(p.PID)
		}
		if p.StepCount() > 0 {
			target = float64(p.Step(0).EndC)
		}
	}
	r.pid.SetSetpoint(target)
	r.pid.Reset()
	r.ssr.Restart(now)
	r.heaterOff()
}

// enterAlarm preempts whatever runs and opens the relay in the same tick.
func (r *Regulator) enterAlarm(ctx context.Context, now time.Time, reason string) {
	r.heaterOff()
	r.tune.Abort()
	r.calib.Cancel()
	prev := r.state
	r.state = Alarm
	r.message = reason
	r.log.Errorw("alarm_entered", "from", prev.String(), "reason", reason, "temp_c", r.pv)
	r.record(ctx, now, tr.EventAlarm, "Alarm: "+reason, map[string]any{"from": prev.String(), "temp_c": r.pv})
}

// execute runs one command on the runner goroutine.
func (r *Regulator) execute(ctx context.Context, now time.Time, c Command) error {
	switch c.Kind {
	case CmdEvent:
		return r.handleEvent(ctx, now, c.Event)

	case CmdAdjustPID:
		return r.adjustPID(ctx, c.Index, c.Delta)
	case CmdResetPID:
		r.cfg.PID = tr.DefaultPIDCoefficients()
		r.pid.SetCoefficients(r.cfg.PID)
		r.saveSettings(ctx)
		r.record(ctx, now, tr.EventSettings, "PID coefficients reset", nil)
		return nil
	case CmdAdjustThermo:
		return r.adjustThermo(ctx, c.Index, float32(c.Delta))
	case CmdResetThermo:
		r.cfg.Calibration = tr.DefaultCalibration()
		r.monitor.SetCalibration(r.cfg.Calibration)
		r.saveSettings(ctx)
		r.record(ctx, now, tr.EventSettings, "Thermocouple coefficients reset", nil)
		return nil

	case CmdAdjustSetpoint:
		r.pid.SetSetpoint(r.pid.Setpoint() + c.Delta)
		return nil
	case CmdSetSetpoint:
		if math.IsNaN(c.Value) {
			return ErrBadTarget
		}
		r.pid.SetSetpoint(c.Value)
		return nil

	case CmdSelectProfile:
		return r.selectProfile(ctx, now, c.Slot)
	case CmdStoreProfile:
		return r.storeProfile(ctx, now, c)

	case CmdStartHeat, CmdStopHeat:
		if r.state != Work && r.state != Manual {
			return ErrWrongState
		}
		if c.Kind == CmdStopHeat {
			r.heaterOff()
			return nil
		}
		r.heating = true
		return nil

	case CmdAckAlarm:
		if r.state != Alarm {
			return ErrWrongState
		}
		r.monitor.Acknowledge()
		r.heaterOff()
		r.message = ""
		r.record(ctx, now, tr.EventAlarm, "Alarm acknowledged", nil)
		r.enter(ctx, now, Ready)
		return nil

	case CmdCalibAdjustRef, CmdCalibAdvance, CmdCalibBack, CmdCalibConfirm, CmdCalibCancel:
		return r.calibCommand(ctx, now, c)

	case CmdTuneAdjustTarget, CmdTuneSetTarget, CmdTuneStart, CmdTuneAbort:
		return r.tuneCommand(ctx, now, c)

	case CmdTouchReset:
		if r.state == Alarm {
			return ErrWrongState
		}
		r.cfg.Touch = tr.DefaultTouchCalibration()
		r.saveSettings(ctx)
		r.enter(ctx, now, TouchCalibrate)
		return nil
	case CmdTouchTest:
		if r.state != Ready && r.state != Settings {
			return ErrWrongState
		}
		r.enter(ctx, now, TouchTest)
		return nil

	case CmdWipe:
		return r.wipe(ctx, now)
	}
	return ErrUnknownCommand
}
