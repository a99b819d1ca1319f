package settings

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tr "temp_regulator"
)

func sample() Settings {
	return Settings{
		Calibration: tr.Calibration{Calibrated: true, Offset: -50, Slope: 0.075},
		PID:         tr.PIDCoefficients{Kp: 12.345678, Ki: 0.0625, Kd: 301.5},
		Touch:       tr.TouchCalibration{Calibrated: true, SwapAxes: true, XMin: 100, XMax: 4000, YMin: 150, YMax: 3950},
	}
}

func TestRoundTrip_PreservesEveryField(t *testing.T) {
	in := sample()
	out, err := Unmarshal(Marshal(in))
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecode_VersionMismatchYieldsDefaults(t *testing.T) {
	blob := strings.Replace(Marshal(sample()), "version=1", "version=7", 1)
	got, err := Unmarshal(blob)
	assert.ErrorIs(t, err, ErrVersionMismatch)
	assert.Equal(t, Defaults(), got)
}

func TestDecode_MissingVersionIsMismatch(t *testing.T) {
	_, err := Unmarshal("kp=3\n")
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestEncode_UsesFirmwareKeyNames(t *testing.T) {
	blob := Marshal(sample())
	assert.True(t, strings.HasPrefix(blob, header+"\n"))
	for _, line := range []string{
		"version=1", "calibrated=1", "touch_swap=1",
		"touch_tx_min=100", "touch_tx_max=4000", "touch_ty_min=150", "touch_ty_max=3950",
	} {
		assert.Contains(t, blob, line+"\n")
	}
	assert.NotContains(t, blob, "touch_x_min")
}

func TestDecode_MalformedLineIsAnError(t *testing.T) {
	got, err := Unmarshal("version=1\nthis is not a setting\n")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrVersionMismatch)
	assert.Equal(t, Defaults(), got)
}

func TestDecode_MissingAndUnknownFieldsDefault(t *testing.T) {
	got, err := Unmarshal("# comment\nversion=1\nkp=9.5\nfoo=bar\ntouch_tx_min=-5\ntouch_tx_max=70000\nslope=oops\ntouch_swap=maybe\n")
	require.NoError(t, err)

	want := Defaults()
	want.PID.Kp = 9.5
	want.Touch.XMin = 0
	want.Touch.XMax = 0xFFFF
	assert.Equal(t, want, got)
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	assert.False(t, d.Calibration.Calibrated)
	assert.Equal(t, float32(1), d.Calibration.Slope)
	assert.Equal(t, tr.PIDCoefficients{Kp: 2, Ki: 5, Kd: 1}, d.PID)
	assert.Equal(t, uint16(300), d.Touch.XMin)
	assert.Equal(t, uint16(3900), d.Touch.YMax)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.ini")
	st := NewFileStore(path)

	_, err := st.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, st.Save(ctx, sample()))
	got, err := st.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)

	require.NoError(t, os.WriteFile(path, []byte("version=0\n"), 0o644))
	_, err = st.Load(ctx)
	assert.ErrorIs(t, err, ErrVersionMismatch)

	require.NoError(t, st.Clear(ctx))
	require.NoError(t, st.Clear(ctx))
	_, err = st.Load(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}
