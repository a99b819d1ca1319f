package sensor

import (
	"sync"

	tr "temp_regulator"
	"temp_regulator/internal/logger"
)

const (
	// AlarmOutliers is the per-read outlier count above which a read counts as faulty.
	AlarmOutliers = 5
	// AlarmConsecutive faulty reads raise the alarm.
	AlarmConsecutive = 3
)

// Monitor converts filtered readings to °C and tracks the sensor fault.
type Monitor struct {
	sampler *Sampler
	log     *logger.Logger

	mu      sync.Mutex
	calib   tr.Calibration
	faulty  int
	alarm   bool
	onAlarm func()
	last    Reading
}

func NewMonitor(s *Sampler, calib tr.Calibration, log *logger.Logger) *Monitor {
	return &Monitor{sampler: s, calib: calib, log: log.Component("sensor")}
}

// OnAlarm registers the callback invoked once when the fault latches.
func (m *Monitor) OnAlarm(fn func()) { m.onAlarm = fn }

func (m *Monitor) SetCalibration(c tr.Calibration) {
	m.mu.Lock()
	m.calib = c
	m.mu.Unlock()
}

func (m *Monitor) Calibration() tr.Calibration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calib
}

// Sampler exposes the underlying burst reader for the calibration wizard.
func (m *Monitor) Sampler() *Sampler { return m.sampler }

// ReadTemperatureC samples once and returns offset+slope*raw even while the
// alarm is latched. An ADC error counts as a fully noisy read.
func (m *Monitor) ReadTemperatureC() float32 {
	r, err := m.sampler.Sample()
	if err != nil {
		m.log.Warnw("adc_read_failed", "err", err)
		r = Reading{Raw: m.last.Raw, Outliers: Samples}
	}

	m.mu.Lock()
	m.last = r
	fire := false
	if r.Outliers > AlarmOutliers {
		m.faulty++
		if m.faulty >= AlarmConsecutive && !m.alarm {
			m.alarm = true
			fire = true
		}
	} else {
		m.faulty = 0
	}
	c := m.calib
	m.mu.Unlock()

	if fire {
		m.log.Errorw("sensor_fault_latched", "outliers", r.Outliers, "raw", r.Raw)
		if m.onAlarm != nil {
			m.onAlarm()
		}
	}
	return c.Apply(r.Raw)
}

// Last returns the most recent filtered reading.
func (m *Monitor) Last() Reading {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Monitor) Alarm() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.alarm
}

// Acknowledge clears the latch and the consecutive counter.
func (m *Monitor) Acknowledge() {
	m.mu.Lock()
	m.alarm = false
	m.faulty = 0
	m.mu.Unlock()
}
