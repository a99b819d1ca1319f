package sensor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tr "temp_regulator"
	"temp_regulator/internal/logger"
)

type scriptedADC struct {
	bursts [][]uint16
	pos    int
	err    error
}

func (a *scriptedADC) ReadADC() (uint16, error) {
	if a.err != nil {
		return 0, a.err
	}
	burst := a.bursts[(a.pos/Samples)%len(a.bursts)]
	v := burst[a.pos%Samples]
	a.pos++
	return v, nil
}

func burst(base uint16, outliers int) []uint16 {
	b := make([]uint16, Samples)
	for i := range b {
		b[i] = base + uint16(i%3)
	}
	for i := 0; i < outliers; i++ {
		b[i*2] = base + 400
	}
	return b
}

func noSleep(time.Duration) {}

func TestFilter_CountsOutliersAndAveragesTheRest(t *testing.T) {
	samples := make([]uint16, Samples)
	for i := range samples {
		samples[i] = 1000
	}
	samples[0] = 1010
	samples[1] = 990
	samples[2] = 3000
	samples[3] = 10
	samples[4] = 1200

	r := Filter(samples)
	assert.Equal(t, 3, r.Outliers)
	// 16 samples at 1000 plus 1010 and 990
	assert.Equal(t, uint16(1000), r.Raw)
}

func TestFilter_WideSpreadKeepsOnlyMedian(t *testing.T) {
	samples := make([]uint16, Samples)
	for i := range samples {
		samples[i] = uint16(i * 200)
	}
	r := Filter(samples)
	// only the median itself is within threshold of the median
	assert.Equal(t, Samples-1, r.Outliers)
	assert.Equal(t, uint16(2000), r.Raw)
}

func TestSampler_TakesFixedBurst(t *testing.T) {
	adc := &scriptedADC{bursts: [][]uint16{burst(500, 0)}}
	slept := 0
	s := NewSampler(adc).WithSleep(func(d time.Duration) {
		assert.Equal(t, SampleDelay, d)
		slept++
	})

	r, err := s.Sample()
	require.NoError(t, err)
	assert.Equal(t, Samples, adc.pos)
	assert.Equal(t, Samples, slept)
	assert.Equal(t, 0, r.Outliers)
	assert.Equal(t, uint16(501), r.Raw)
}

func TestMonitor_LatchesAfterThreeNoisyReads(t *testing.T) {
	adc := &scriptedADC{bursts: [][]uint16{burst(1000, 6)}}
	m := NewMonitor(NewSampler(adc).WithSleep(noSleep), tr.Calibration{Calibrated: true, Offset: -50, Slope: 0.075}, logger.Nop())
	fired := 0
	m.OnAlarm(func() { fired++ })

	m.ReadTemperatureC()
	m.ReadTemperatureC()
	assert.False(t, m.Alarm())

	temp := m.ReadTemperatureC()
	assert.True(t, m.Alarm())
	assert.Equal(t, 1, fired)
	assert.InDelta(t, 25.0, temp, 0.2)

	// still noisy, still latched, no retrigger
	m.ReadTemperatureC()
	m.ReadTemperatureC()
	assert.Equal(t, 1, fired)

	m.Acknowledge()
	assert.False(t, m.Alarm())
	m.ReadTemperatureC()
	m.ReadTemperatureC()
	assert.False(t, m.Alarm())
	m.ReadTemperatureC()
	assert.True(t, m.Alarm())
	assert.Equal(t, 2, fired)
}

func TestMonitor_CleanReadResetsCounter(t *testing.T) {
	adc := &scriptedADC{bursts: [][]uint16{burst(1000, 6), burst(1000, 6), burst(1000, 5)}}
	m := NewMonitor(NewSampler(adc).WithSleep(noSleep), tr.DefaultCalibration(), logger.Nop())

	for i := 0; i < 9; i++ {
		m.ReadTemperatureC()
	}
	assert.False(t, m.Alarm())
}

func TestMonitor_ADCErrorCountsAsNoisy(t *testing.T) {
	adc := &scriptedADC{err: errors.New("bus down")}
	m := NewMonitor(NewSampler(adc).WithSleep(noSleep), tr.DefaultCalibration(), logger.Nop())
	for i := 0; i < AlarmConsecutive; i++ {
		m.ReadTemperatureC()
	}
	assert.True(t, m.Alarm())
}
