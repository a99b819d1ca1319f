// Package sensor reads the thermocouple amplifier through an oversampled,
// outlier-rejecting filter and escalates sustained noise into a latching fault.
package sensor

import (
	"fmt"
	"sort"
	"time"
)

const (
	// Samples is the number of raw conversions taken per Sample call.
	Samples = 21
	// OutlierThreshold is the maximum distance from the median, in ADC counts,
	// for a conversion to be averaged.
	OutlierThreshold = 50
	// SampleDelay separates consecutive conversions.
	SampleDelay = 2 * time.Millisecond
)

// ADC is the single analog input wired to the amplifier.
type ADC interface {
	ReadADC() (uint16, error)
}

// Reading is one filtered acquisition.
type Reading struct {
	Raw      uint16
	Outliers int
}

// Sampler takes bursts of conversions from an ADC.
type Sampler struct {
	adc   ADC
	sleep func(time.Duration)
}

func NewSampler(adc ADC) *Sampler {
	return &Sampler{adc: adc, sleep: time.Sleep}
}

// WithSleep replaces the inter-sample delay, mainly for tests.
func (s *Sampler) WithSleep(fn func(time.Duration)) *Sampler {
	s.sleep = fn
	return s
}

// Sample performs one burst and filters it.
func (s *Sampler) Sample() (Reading, error) {
	buf := make([]uint16, Samples)
	for i := range buf {
		v, err := s.adc.ReadADC()
		if err != nil {
			return Reading{}, fmt.Errorf("adc sample %d: %w", i, err)
		}
		buf[i] = v
		if s.sleep != nil {
			s.sleep(SampleDelay)
		}
	}
	return Filter(buf), nil
}

// Filter averages the samples lying within OutlierThreshold of the median.
// An empty burst yields a zero reading.
func Filter(samples []uint16) Reading {
	if len(samples) == 0 {
		return Reading{}
	}
	sorted := append([]uint16(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	med := int(sorted[len(sorted)/2])

	var acc, n uint32
	out := 0
	for _, v := range samples {
		d := int(v) - med
		if d < 0 {
			d = -d
		}
		if d <= OutlierThreshold {
			acc += uint32(v)
			n++
		} else {
			out++
		}
	}
	if n == 0 {
		return Reading{Raw: uint16(med), Outliers: out}
	}
	return Reading{Raw: uint16(acc / n), Outliers: out}
}
