package service

import "time"

// CoefficientParams edits one tunable. Set is "pid" or "thermo"; Name is
// kp|ki|kd or slope|offset. Reset restores the whole set to defaults.
type CoefficientParams struct {
	Set   string
	Name  string
	Delta float64
	Reset bool
}

// SetpointParams either replaces the setpoint (Value) or nudges it (Delta).
type SetpointParams struct {
	Value *float64
	Delta float64
}

// WizardParams drives the calibration or autotune wizard.
type WizardParams struct {
	Action string
	Delta  float64
	Value  float64
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", STATE, ALARM, CALIBRATION, AUTOTUNE, SETTINGS, PROFILE
}
