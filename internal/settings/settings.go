// Package settings holds the single versioned record aggregating every tunable
// and its flat key=value serialization.
package settings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	tr "temp_regulator"
)

// Version is the format tag written to and expected from every stored blob.
const Version = 1

var (
	// ErrVersionMismatch marks a blob written by another format; callers treat it as absent.
	ErrVersionMismatch = errors.New("settings: version mismatch")
	// ErrNotFound means nothing has been stored yet.
	ErrNotFound = errors.New("settings: no stored record")
)

// Settings is the persisted blob.
type Settings struct {
	Calibration tr.Calibration
	PID         tr.PIDCoefficients
	Touch       tr.TouchCalibration
}

// Defaults returns the documented factory record.
func Defaults() Settings {
	return Settings{
		Calibration: tr.DefaultCalibration(),
		PID:         tr.DefaultPIDCoefficients(),
		Touch:       tr.DefaultTouchCalibration(),
	}
}

// Store persists the blob. Load returns ErrNotFound or ErrVersionMismatch
// when the caller should fall back to Defaults and rewrite.
type Store interface {
	Load(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) error
	Clear(ctx context.Context) error
}

const header = "# temperature regulator persistent configuration"

// Blob keys. The touch bounds keep the names the firmware always used.
const (
	keyVersion         = "version"
	keyCalibrated      = "calibrated"
	keyOffset          = "offset"
	keySlope           = "slope"
	keyKp              = "kp"
	keyKi              = "ki"
	keyKd              = "kd"
	keyTouchCalibrated = "touch_calibrated"
	keyTouchSwap       = "touch_swap"
	keyTouchXMin       = "touch_tx_min"
	keyTouchXMax       = "touch_tx_max"
	keyTouchYMin       = "touch_ty_min"
	keyTouchYMax       = "touch_ty_max"
)

// Encode writes s as key=value lines under a comment header.
func Encode(w io.Writer, s Settings) error {
	fields := []struct {
		key string
		val any
	}{
		{keyVersion, Version},
		{keyCalibrated, boolFlag(s.Calibration.Calibrated)},
		{keyOffset, s.Calibration.Offset},
		{keySlope, s.Calibration.Slope},
		{keyKp, s.PID.Kp},
		{keyKi, s.PID.Ki},
		{keyKd, s.PID.Kd},
		{keyTouchCalibrated, boolFlag(s.Touch.Calibrated)},
		{keyTouchSwap, boolFlag(s.Touch.SwapAxes)},
		{keyTouchXMin, s.Touch.XMin},
		{keyTouchXMax, s.Touch.XMax},
		{keyTouchYMin, s.Touch.YMin},
		{keyTouchYMax, s.Touch.YMax},
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%s=%v\n", f.key, f.val); err != nil {
			return err
		}
	}
	return nil
}

// Marshal is Encode into a string.
func Marshal(s Settings) string {
	var b strings.Builder
	_ = Encode(&b, s)
	return b.String()
}

// Decode parses a blob through viper's dotenv reader. Unknown keys and
// malformed values are skipped and the field keeps its default. A missing or
// different version yields ErrVersionMismatch.
func Decode(r io.Reader) (Settings, error) {
	v := viper.New()
	v.SetConfigType("dotenv")
	if err := v.ReadConfig(r); err != nil {
		return Defaults(), fmt.Errorf("settings: parse: %w", err)
	}

	version, err := cast.ToIntE(v.Get(keyVersion))
	if !v.IsSet(keyVersion) || err != nil || version != Version {
		return Defaults(), ErrVersionMismatch
	}

	s := Defaults()
	readBool(v, keyCalibrated, &s.Calibration.Calibrated)
	readFloat32(v, keyOffset, &s.Calibration.Offset)
	readFloat32(v, keySlope, &s.Calibration.Slope)
	readFloat64(v, keyKp, &s.PID.Kp)
	readFloat64(v, keyKi, &s.PID.Ki)
	readFloat64(v, keyKd, &s.PID.Kd)
	readBool(v, keyTouchCalibrated, &s.Touch.Calibrated)
	readBool(v, keyTouchSwap, &s.Touch.SwapAxes)
	readUint16(v, keyTouchXMin, &s.Touch.XMin)
	readUint16(v, keyTouchXMax, &s.Touch.XMax)
	readUint16(v, keyTouchYMin, &s.Touch.YMin)
	readUint16(v, keyTouchYMax, &s.Touch.YMax)
	return s, nil
}

// Unmarshal is Decode from a string.
func Unmarshal(blob string) (Settings, error) {
	return Decode(strings.NewReader(blob))
}

func boolFlag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func readBool(v *viper.Viper, key string, out *bool) {
	if !v.IsSet(key) {
		return
	}
	if b, err := cast.ToBoolE(v.Get(key)); err == nil {
		*out = b
	}
}

func readFloat32(v *viper.Viper, key string, out *float32) {
	if !v.IsSet(key) {
		return
	}
	if f, err := cast.ToFloat32E(v.Get(key)); err == nil {
		*out = f
	}
}

func readFloat64(v *viper.Viper, key string, out *float64) {
	if !v.IsSet(key) {
		return
	}
	if f, err := cast.ToFloat64E(v.Get(key)); err == nil {
		*out = f
	}
}

// readUint16 clamps out-of-range integers into [0, 65535].
func readUint16(v *viper.Viper, key string, out *uint16) {
	if !v.IsSet(key) {
		return
	}
	n, err := cast.ToInt64E(v.Get(key))
	if err != nil {
		return
	}
	if n < 0 {
		n = 0
	}
	if n > 0xFFFF {
		n = 0xFFFF
	}
	*out = uint16(n)
}
