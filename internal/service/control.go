package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"temp_regulator/internal/device"
	"temp_regulator/internal/profile"
)

// ErrBadRequest marks input rejected before it reaches the regulator.
var ErrBadRequest = errors.New("bad request")

type ControlService struct {
	dev Device
}

func NewControlService(dev Device) *ControlService {
	return &ControlService{dev: dev}
}

var pidIndex = map[string]int{"kp": 0, "ki": 1, "kd": 2}

var thermoIndex = map[string]int{"slope": 0, "offset": 1}

func (s *ControlService) submit(ctx context.Context, c device.Command) error {
	return s.dev.Submit(ctx, c)
}

// Dispatch forwards a navigation event by name, e.g. "to_settings".
func (s *ControlService) Dispatch(ctx context.Context, event string) error {
	e, err := device.ParseEvent(event)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.submit(ctx, device.Command{Kind: device.CmdEvent, Event: e})
}

func (s *ControlService) Coefficient(ctx context.Context, p CoefficientParams) error {
	set := strings.ToLower(strings.TrimSpace(p.Set))
	name := strings.ToLower(strings.TrimSpace(p.Name))

	switch set {
	case "pid":
		if p.Reset {
			return s.submit(ctx, device.Command{Kind: device.CmdResetPID})
		}
		idx, ok := pidIndex[name]
		if !ok {
			return fmt.Errorf("%w: unknown pid coefficient %q", ErrBadRequest, p.Name)
		}
		return s.submit(ctx, device.Command{Kind: device.CmdAdjustPID, Index: idx, Delta: p.Delta})
	case "thermo":
		if p.Reset {
			return s.submit(ctx, device.Command{Kind: device.CmdResetThermo})
		}
		idx, ok := thermoIndex[name]
		if !ok {
			return fmt.Errorf("%w: unknown thermocouple coefficient %q", ErrBadRequest, p.Name)
		}
		return s.submit(ctx, device.Command{Kind: device.CmdAdjustThermo, Index: idx, Delta: p.Delta})
	}
	return fmt.Errorf("%w: coefficient set must be pid or thermo", ErrBadRequest)
}

func (s *ControlService) Setpoint(ctx context.Context, p SetpointParams) error {
	if p.Value != nil {
		if math.IsNaN(*p.Value) || math.IsInf(*p.Value, 0) {
			return fmt.Errorf("%w: setpoint must be a finite number", ErrBadRequest)
		}
		return s.submit(ctx, device.Command{Kind: device.CmdSetSetpoint, Value: *p.Value})
	}
	return s.submit(ctx, device.Command{Kind: device.CmdAdjustSetpoint, Delta: p.Delta})
}

func (s *ControlService) SelectProfile(ctx context.Context, slot int) error {
	if slot < 0 || slot > profile.Slots {
		return fmt.Errorf("%w: slot must be 0..%d", ErrBadRequest, profile.Slots)
	}
	return s.submit(ctx, device.Command{Kind: device.CmdSelectProfile, Slot: slot})
}

func (s *ControlService) StoreProfile(ctx context.Context, p profile.Profile) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return s.submit(ctx, device.Command{Kind: device.CmdStoreProfile, Profile: p})
}

func (s *ControlService) Heat(ctx context.Context, on bool) error {
	kind := device.CmdStopHeat
	if on {
		kind = device.CmdStartHeat
	}
	return s.submit(ctx, device.Command{Kind: kind})
}

func (s *ControlService) AckAlarm(ctx context.Context) error {
	return s.submit(ctx, device.Command{Kind: device.CmdAckAlarm})
}

var calibrationActions = map[string]device.Kind{
	"adjust_ref": device.CmdCalibAdjustRef,
	"advance":    device.CmdCalibAdvance,
	"back":       device.CmdCalibBack,
	"confirm":    device.CmdCalibConfirm,
	"cancel":     device.CmdCalibCancel,
}

var autotuneActions = map[string]device.Kind{
	"adjust_target": device.CmdTuneAdjustTarget,
	"set_target":    device.CmdTuneSetTarget,
	"start":         device.CmdTuneStart,
	"abort":         device.CmdTuneAbort,
}

func (s *ControlService) Calibration(ctx context.Context, p WizardParams) error {
	kind, ok := calibrationActions[strings.ToLower(strings.TrimSpace(p.Action))]
	if !ok {
		return fmt.Errorf("%w: unknown calibration action %q", ErrBadRequest, p.Action)
	}
	return s.submit(ctx, device.Command{Kind: kind, Delta: p.Delta, Value: p.Value})
}

func (s *ControlService) Autotune(ctx context.Context, p WizardParams) error {
	kind, ok := autotuneActions[strings.ToLower(strings.TrimSpace(p.Action))]
	if !ok {
		return fmt.Errorf("%w: unknown autotune action %q", ErrBadRequest, p.Action)
	}
	return s.submit(ctx, device.Command{Kind: kind, Delta: p.Delta, Value: p.Value})
}

// Touch starts the panel recalibration ("reset") or the touch test ("test").
func (s *ControlService) Touch(ctx context.Context, action string) error {
	switch strings.ToLower(strings.TrimSpace(action)) {
	case "reset":
		return s.submit(ctx, device.Command{Kind: device.CmdTouchReset})
	case "test":
		return s.submit(ctx, device.Command{Kind: device.CmdTouchTest})
	}
	return fmt.Errorf("%w: touch action must be reset or test", ErrBadRequest)
}

func (s *ControlService) Wipe(ctx context.Context) error {
	return s.submit(ctx, device.Command{Kind: device.CmdWipe})
}
