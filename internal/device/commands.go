package device

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/chewxy/math32"

	tr "temp_regulator"
	"temp_regulator/internal/autotune"
	"temp_regulator/internal/calibration"
	"temp_regulator/internal/settings"
)

// round1 rounds to one decimal, the resolution of the coefficient editors.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func (r *Regulator) adjustPID(ctx context.Context, idx int, delta float64) error {
	var target *float64
	switch idx {
	case 0:
		target = &r.cfg.PID.Kp
	case 1:
		target = &r.cfg.PID.Ki
	case 2:
		target = &r.cfg.PID.Kd
	default:
		return ErrBadIndex
	}
	*target = round1(*target + delta)
	r.pid.SetCoefficients(r.cfg.PID)
	r.saveSettings(ctx)
	return nil
}

func (r *Regulator) adjustThermo(ctx context.Context, idx int, delta float32) error {
	var target *float32
	switch idx {
	case 0:
		target = &r.cfg.Calibration.Slope
	case 1:
		target = &r.cfg.Calibration.Offset
	default:
		return ErrBadIndex
	}
	*target = math32.Round((*target+delta)*10) / 10
	r.monitor.SetCalibration(r.cfg.Calibration)
	r.saveSettings(ctx)
	return nil
}

// selectProfile makes slot the source for the next Work entry; 0 clears.
func (r *Regulator) selectProfile(ctx context.Context, now time.Time, slot int) error {
	if slot == 0 {
		r.activeSlot = 0
		return nil
	}
	p, ok := r.book.Get(slot)
	if !ok || !p.Available() {
		return fmt.Errorf("%w: slot %d", ErrProfileUnavailable, slot)
	}
	r.activeSlot = slot
	r.record(ctx, now, tr.EventProfile, "Profile selected: "+p.Name, map[string]any{"slot": slot})
	return nil
}

func (r *Regulator) storeProfile(ctx context.Context, now time.Time, c Command) error {
	p := c.Profile
	if err := p.Validate(); err != nil {
		return err
	}
	p = p.Normalize()
	if r.profiles != nil {
		if err := r.profiles.Save(ctx, p); err != nil {
			return fmt.Errorf("save profile %d: %w", p.Slot, err)
		}
	}
	r.book.Put(p)
	if p.Slot == r.activeSlot && !p.Available() {
		r.activeSlot = 0
	}
	r.record(ctx, now, tr.EventProfile, "Profile stored: "+p.Name, map[string]any{"slot": p.Slot})
	return nil
}

func (r *Regulator) calibCommand(ctx context.Context, now time.Time, c Command) error {
	if r.state != CalibrateSensor {
		return ErrWrongState
	}
	switch c.Kind {
	case CmdCalibAdjustRef:
		return r.calib.AdjustRefLow(float32(c.Delta))
	case CmdCalibAdvance:
		if r.calib.Step() == calibration.Done || r.calib.Step() == calibration.Failed {
			r.enter(ctx, now, Settings)
			return nil
		}
		return r.calib.Advance(now)
	case CmdCalibBack:
		return r.calib.Back(now)
	case CmdCalibConfirm:
		err := r.calib.Confirm(now)
		if errors.Is(err, calibration.ErrNotStable) {
			r.message = "reading not stable, calibration cancelled"
			r.enter(ctx, now, Ready)
		}
		return err
	case CmdCalibCancel:
		r.calib.Cancel()
		r.enter(ctx, now, Settings)
		return nil
	}
	return ErrUnknownCommand
}

func (r *Regulator) tuneCommand(ctx context.Context, now time.Time, c Command) error {
	if r.state != AutotunePid {
		return ErrWrongState
	}
	switch c.Kind {
	case CmdTuneAdjustTarget:
		if r.tune.Phase() != autotune.Setup {
			return ErrWrongState
		}
		r.tune.AdjustTarget(c.Delta)
		return nil
	case CmdTuneSetTarget:
		if r.tune.Phase() != autotune.Setup {
			return ErrWrongState
		}
		if err := r.tune.SetTarget(c.Value); err != nil {
			return fmt.Errorf("%w: %.1f", ErrBadTarget, c.Value)
		}
		return nil
	case CmdTuneStart:
		if !r.cfg.Calibration.Calibrated {
			return ErrNotCalibrated
		}
		r.readTemperature()
		if err := r.tune.Start(now, r.pv); err != nil {
			if errors.Is(err, autotune.ErrBadTarget) {
				return ErrBadTarget
			}
			return ErrWrongState
		}
		r.ssr.Restart(now)
		r.ssr.SetDuty(r.tune.Output())
		r.log.Infow("autotune_started", "target_c", r.tune.Target(), "temp_c", r.pv)
		r.record(ctx, now, tr.EventAutotune, "PID autotune started", map[string]any{"target_c": r.tune.Target()})
		return nil
	case CmdTuneAbort:
		r.tune.Abort()
		r.message = "autotune aborted"
		r.record(ctx, now, tr.EventAutotune, "PID autotune aborted", nil)
		r.enter(ctx, now, Settings)
		return nil
	}
	return ErrUnknownCommand
}

// wipe clears the stored blob, restores defaults and reboots the state machine.
// A latched alarm must be acknowledged first.
func (r *Regulator) wipe(ctx context.Context, now time.Time) error {
	if r.state.heats() || r.state == Alarm {
		return ErrWrongState
	}
	if r.store != nil {
		if err := r.store.Clear(ctx); err != nil {
			r.log.Errorw("settings_clear_failed", "err", err)
		}
	}
	r.cfg = settings.Defaults()
	r.pid.SetCoefficients(r.cfg.PID)
	r.monitor.SetCalibration(r.cfg.Calibration)
	r.saveSettings(ctx)
	r.message = "settings cleared"
	r.record(ctx, now, tr.EventSettings, "Settings wiped", nil)

	r.enter(ctx, now, Init)
	return r.handleEvent(ctx, now, InitOk)
}

// readKnob maps the encoder onto the active screen: clicks nudge the value
// being edited, a press toggles heating or acknowledges an alarm.
func (r *Regulator) readKnob(ctx context.Context, now time.Time) {
	if r.knob == nil {
		return
	}
	clicks, pressed := r.knob.Read()
	if clicks == 0 && !pressed {
		return
	}
	switch r.state {
	case Work, Manual:
		if clicks != 0 {
			r.pid.SetSetpoint(r.pid.Setpoint() + float64(clicks))
		}
		if pressed {
			kind := CmdStartHeat
			if r.heating {
				kind = CmdStopHeat
			}
			_ = r.execute(ctx, now, Command{Kind: kind})
		}
	case CalibrateSensor:
		if clicks != 0 {
			_ = r.calib.AdjustRefLow(float32(clicks) * calibration.RefLowStepC)
		}
		if pressed {
			_ = r.execute(ctx, now, Command{Kind: CmdCalibAdvance})
		}
	case AutotunePid:
		if clicks != 0 && r.tune.Phase() == autotune.Setup {
			r.tune.AdjustTarget(float64(clicks))
		}
		if pressed {
			_ = r.execute(ctx, now, Command{Kind: CmdTuneStart})
		}
	case Alarm:
		if pressed {
			_ = r.execute(ctx, now, Command{Kind: CmdAckAlarm})
		}
	case TouchTest:
		if pressed {
			r.enter(ctx, now, TouchCalibrate)
		}
	}
}
