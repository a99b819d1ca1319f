package device

import (
	"fmt"
	"strings"
)

// State is the top-level operating mode.
type State int

const (
	Init State = iota
	Ready
	Work
	Settings
	CalibrateSensor
	AutotunePid
	Alarm
	TouchCalibrate
	TouchTest
	Manual
)

var stateNames = [...]string{
	Init:            "init",
	Ready:           "ready",
	Work:            "work",
	Settings:        "settings",
	CalibrateSensor: "calibrate_sensor",
	AutotunePid:     "autotune_pid",
	Alarm:           "alarm",
	TouchCalibrate:  "touch_calibrate",
	TouchTest:       "touch_test",
	Manual:          "manual",
}

var stateLabels = [...]string{
	Init:            "Initialising",
	Ready:           "Ready",
	Work:            "Running profile",
	Settings:        "Settings",
	CalibrateSensor: "Sensor calibration",
	AutotunePid:     "PID autotune",
	Alarm:           "Alarm",
	TouchCalibrate:  "Touch calibration",
	TouchTest:       "Touch test",
	Manual:          "Manual control",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Label is the operator-facing name.
func (s State) Label() string {
	if s < 0 || int(s) >= len(stateLabels) {
		return s.String()
	}
	return stateLabels[s]
}

// heats reports whether the SSR may be driven in this state.
func (s State) heats() bool {
	return s == Work || s == Manual || s == AutotunePid
}

// Event is a discrete navigation request.
type Event int

const (
	InitOk Event = iota + 1
	InitFail
	ToSettings
	ToProfiles
	ToProfileWork
	ToManual
	ToCalib
	ToAutotune
	Stop
	Back
)

var eventNames = map[Event]string{
	InitOk:        "init_ok",
	InitFail:      "init_fail",
	ToSettings:    "to_settings",
	ToProfiles:    "to_profiles",
	ToProfileWork: "to_profile_work",
	ToManual:      "to_manual",
	ToCalib:       "to_calib",
	ToAutotune:    "to_autotune",
	Stop:          "stop",
	Back:          "back",
}

func (e Event) String() string {
	if n, ok := eventNames[e]; ok {
		return n
	}
	return fmt.Sprintf("event(%d)", int(e))
}

// ParseEvent accepts the snake_case names used by String.
func ParseEvent(s string) (Event, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for e, n := range eventNames {
		if n == s {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, s)
}
