package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"temp_regulator/internal/device"
	"temp_regulator/internal/profile"
)

func TestControlService_Translation(t *testing.T) {
	t.Parallel()

	v := 180.0
	cases := []struct {
		name string
		call func(s *ControlService) error
		want device.Command
	}{
		{
			name: "event by name",
			call: func(s *ControlService) error { return s.Dispatch(context.Background(), "To_Settings") },
			want: device.Command{Kind: device.CmdEvent, Event: device.ToSettings},
		},
		{
			name: "pid adjust",
			call: func(s *ControlService) error {
				return s.Coefficient(context.Background(), CoefficientParams{Set: "pid", Name: "Ki", Delta: -0.1})
			},
			want: device.Command{Kind: device.CmdAdjustPID, Index: 1, Delta: -0.1},
		},
		{
			name: "pid reset",
			call: func(s *ControlService) error {
				return s.Coefficient(context.Background(), CoefficientParams{Set: "pid", Reset: true})
			},
			want: device.Command{Kind: device.CmdResetPID},
		},
		{
			name: "thermo adjust",
			call: func(s *ControlService) error {
				return s.Coefficient(context.Background(), CoefficientParams{Set: "thermo", Name: "offset", Delta: 0.5})
			},
			want: device.Command{Kind: device.CmdAdjustThermo, Index: 1, Delta: 0.5},
		},
		{
			name: "setpoint value",
			call: func(s *ControlService) error { return s.Setpoint(context.Background(), SetpointParams{Value: &v}) },
			want: device.Command{Kind: device.CmdSetSetpoint, Value: 180},
		},
		{
			name: "setpoint delta",
			call: func(s *ControlService) error { return s.Setpoint(context.Background(), SetpointParams{Delta: -5}) },
			want: device.Command{Kind: device.CmdAdjustSetpoint, Delta: -5},
		},
		{
			name: "heat off",
			call: func(s *ControlService) error { return s.Heat(context.Background(), false) },
			want: device.Command{Kind: device.CmdStopHeat},
		},
		{
			name: "calibration confirm",
			call: func(s *ControlService) error {
				return s.Calibration(context.Background(), WizardParams{Action: "confirm"})
			},
			want: device.Command{Kind: device.CmdCalibConfirm},
		},
		{
			name: "autotune target",
			call: func(s *ControlService) error {
				return s.Autotune(context.Background(), WizardParams{Action: "set_target", Value: 220})
			},
			want: device.Command{Kind: device.CmdTuneSetTarget, Value: 220},
		},
		{
			name: "touch test",
			call: func(s *ControlService) error { return s.Touch(context.Background(), "test") },
			want: device.Command{Kind: device.CmdTouchTest},
		},
		{
			name: "select profile",
			call: func(s *ControlService) error { return s.SelectProfile(context.Background(), 3) },
			want: device.Command{Kind: device.CmdSelectProfile, Slot: 3},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			dev := &fakeDevice{}
			if err := tc.call(NewControlService(dev)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := dev.last(t)
			if got.Kind != tc.want.Kind || got.Event != tc.want.Event || got.Index != tc.want.Index ||
				got.Delta != tc.want.Delta || got.Value != tc.want.Value || got.Slot != tc.want.Slot {
				t.Fatalf("submitted %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestControlService_RejectsBadInput(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	calls := map[string]func(s *ControlService) error{
		"unknown event": func(s *ControlService) error { return s.Dispatch(context.Background(), "explode") },
		"unknown set": func(s *ControlService) error {
			return s.Coefficient(context.Background(), CoefficientParams{Set: "gain"})
		},
		"unknown pid name": func(s *ControlService) error {
			return s.Coefficient(context.Background(), CoefficientParams{Set: "pid", Name: "kx"})
		},
		"NaN setpoint":  func(s *ControlService) error { return s.Setpoint(context.Background(), SetpointParams{Value: &nan}) },
		"slot too high": func(s *ControlService) error { return s.SelectProfile(context.Background(), 11) },
		"bad profile":   func(s *ControlService) error { return s.StoreProfile(context.Background(), profile.Profile{Slot: 0}) },
		"calib action": func(s *ControlService) error {
			return s.Calibration(context.Background(), WizardParams{Action: "skip"})
		},
		"tune action":  func(s *ControlService) error { return s.Autotune(context.Background(), WizardParams{Action: "hurry"}) },
		"touch action": func(s *ControlService) error { return s.Touch(context.Background(), "wipe") },
	}
	for name, call := range calls {
		call := call
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			dev := &fakeDevice{}
			if err := call(NewControlService(dev)); !errors.Is(err, ErrBadRequest) {
				t.Fatalf("expected ErrBadRequest, got %v", err)
			}
			if len(dev.commands) != 0 {
				t.Fatalf("nothing should reach the device, got %+v", dev.commands)
			}
		})
	}
}

func TestControlService_PropagatesDeviceError(t *testing.T) {
	t.Parallel()

	dev := &fakeDevice{err: device.ErrNotCalibrated}
	err := NewControlService(dev).Dispatch(context.Background(), "to_autotune")
	if !errors.Is(err, device.ErrNotCalibrated) {
		t.Fatalf("expected ErrNotCalibrated, got %v", err)
	}
}
