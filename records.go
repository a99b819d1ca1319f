package temp_regulator

import "time"

// Calibration maps a filtered ADC reading to degrees Celsius:
// temperature = Offset + Slope*raw.
type Calibration struct {
	Calibrated bool    `json:"calibrated"`
	Offset     float32 `json:"offset"`
	Slope      float32 `json:"slope"`
}

// DefaultCalibration is the uncalibrated identity mapping.
func DefaultCalibration() Calibration {
	return Calibration{Calibrated: false, Offset: 0, Slope: 1}
}

// Apply converts a filtered raw reading into °C.
func (c Calibration) Apply(raw uint16) float32 {
	return c.Offset + c.Slope*float32(raw)
}

// PIDCoefficients are the controller gains.
type PIDCoefficients struct {
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`
}

// DefaultPIDCoefficients returns {2, 5, 1}.
func DefaultPIDCoefficients() PIDCoefficients {
	return PIDCoefficients{Kp: 2.0, Ki: 5.0, Kd: 1.0}
}

// TouchCalibration holds the raw extents of the resistive panel.
type TouchCalibration struct {
	Calibrated bool   `json:"calibrated"`
	SwapAxes   bool   `json:"swap_axes"`
	XMin       uint16 `json:"x_min"`
	XMax       uint16 `json:"x_max"`
	YMin       uint16 `json:"y_min"`
	YMax       uint16 `json:"y_max"`
}

// DefaultTouchCalibration returns the factory extents used before the panel is calibrated.
func DefaultTouchCalibration() TouchCalibration {
	return TouchCalibration{XMin: 300, XMax: 3900, YMin: 200, YMax: 3900}
}

// Telemetry is the outbound snapshot rendered by the display and remote collaborators.
type Telemetry struct {
	State         string          `json:"state"`
	StateLabel    string          `json:"state_label"`
	CurrentTempC  float64         `json:"current_temp_c"`
	TargetTempC   float64         `json:"target_temp_c"`
	DutyPercent   float64         `json:"duty_percent"`
	Heating       bool            `json:"heating"`
	Alarm         bool            `json:"alarm"`
	Calibrated    bool            `json:"calibrated"`
	ActiveProfile int             `json:"active_profile"` // 1..10, 0 = none
	PID           PIDCoefficients `json:"pid"`
	Thermocouple  Calibration     `json:"thermocouple"`
	Calib         CalibProgress   `json:"calibration"`
	Autotune      TuneProgress    `json:"autotune"`
	Message       string          `json:"message,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// CalibProgress reports the thermocouple wizard to the operator.
type CalibProgress struct {
	Step      string  `json:"step"`
	RefLowC   float32 `json:"ref_low_c"`
	RefHighC  float32 `json:"ref_high_c"`
	LastRaw   uint16  `json:"last_raw"`
	Stable    bool    `json:"stable"`
	LastError string  `json:"last_error,omitempty"`
}

// TuneProgress reports the autotune engine to the operator.
type TuneProgress struct {
	Phase     string  `json:"phase"`
	TargetC   float64 `json:"target_c"`
	Crossings int     `json:"crossings"`
	ElapsedS  int     `json:"elapsed_s"`
}

// DeviceEvent is a single entry of the device event log.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // one of EventTypes
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// Event log categories.
const (
	EventState       = "STATE"
	EventAlarm       = "ALARM"
	EventCalibration = "CALIBRATION"
	EventAutotune    = "AUTOTUNE"
	EventSettings    = "SETTINGS"
	EventProfile     = "PROFILE"
)

// EventTypes lists every category the regulator records, in display order.
var EventTypes = []string{EventState, EventAlarm, EventCalibration, EventAutotune, EventSettings, EventProfile}

// IsEventType reports whether s is an exact, upper-case event category.
func IsEventType(s string) bool {
	for _, t := range EventTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Operator is an account allowed to drive the regulator remotely.
type Operator struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
}
