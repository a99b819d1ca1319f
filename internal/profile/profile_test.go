package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tr "temp_regulator"
)

func TestAvailable(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want bool
	}{
		{"blank", Empty(1), false},
		{"named without steps", Profile{Slot: 1, Name: "a", Visible: true}, false},
		{"steps without name", Profile{Slot: 1, Steps: []Step{{EndC: 100}}}, false},
		{"steps force visible", Profile{Slot: 1, Name: "a", Steps: []Step{{Minutes: 5}}}, true},
		{"zero rows only", Profile{Slot: 1, Name: "a", Visible: true, Steps: []Step{{}, {}}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Available())
		})
	}
}

func TestHasPIDAndStep(t *testing.T) {
	p := Profile{Slot: 3, PID: tr.PIDCoefficients{Kd: 0.1}, Steps: []Step{{StartC: 20, EndC: 150, Minutes: 10}}}
	assert.True(t, p.HasPID())
	assert.False(t, Empty(2).HasPID())
	assert.Equal(t, float32(150), p.Step(0).EndC)
	assert.Equal(t, Step{}, p.Step(4))
}

func TestBook(t *testing.T) {
	b := NewBook(Defaults())
	p, ok := b.Get(1)
	require.True(t, ok)
	assert.Equal(t, "Test profile", p.Name)
	assert.False(t, p.Available())

	assert.False(t, b.Put(Profile{Slot: 11}))
	assert.False(t, b.Put(Profile{Slot: 2, Steps: make([]Step, MaxSteps+1)}))
	assert.True(t, b.Put(Profile{Slot: 2, Name: "bake", Steps: []Step{{EndC: 180}}}))

	p, _ = b.Get(2)
	assert.True(t, p.Visible)
	_, ok = b.Get(0)
	assert.False(t, ok)
	assert.Len(t, b.All(), Slots)
}

func TestLoadSeed(t *testing.T) {
	doc := `
profiles:
  - slot: 1
    name: Reflow
    pid: {kp: 3.5, ki: 0.2, kd: 12}
    steps:
      - {start_c: 25, end_c: 150, minutes: 2}
      - {start_c: 150, end_c: 220, minutes: 1.5}
  - slot: 4
    name: Dry
    visible: true
`
	path := filepath.Join(t.TempDir(), "profiles.yml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	ps, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, ps, 2)
	assert.Equal(t, 3.5, ps[0].PID.Kp)
	assert.Equal(t, float32(220), ps[0].Step(1).EndC)
	assert.Equal(t, 1.0, ps[1].Thermocouple.Slope)
	assert.True(t, ps[0].Available())
	assert.False(t, ps[1].Available())

	_, err = ParseSeed([]byte("profiles:\n  - slot: 12\n"))
	assert.ErrorIs(t, err, ErrBadSlot)

	_, err = LoadSeed(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
