package hal

import (
	"math/rand"
	"sync"
	"time"

	"temp_regulator/internal/touch"
)

// Plant constants for the simulated oven.
const (
	AmbientC        = 25.0
	HeatRateCPerSec = 3.0   // full-on heating rate
	LossPerSec      = 0.004 // fraction of the excess over ambient lost per second

	// The simulated amplifier maps counts to °C as offset+slope*raw.
	simSlope  = 0.125
	simOffset = 0.0
	noiseLSB  = 3
	spikeLSB  = 800
)

// Sim is a first-order thermal model behind the Hardware interface.
type Sim struct {
	mu sync.Mutex

	now    func() time.Time
	rnd    *rand.Rand
	last   time.Time
	tempC  float64
	ssrOn  bool
	fault  bool
	reads  uint64
	closed bool

	touch touch.Raw
	sink  EncoderSink
	code  uint8
	epoch time.Time
}

var _ Hardware = (*Sim)(nil)

// NewSim starts the plant at ambient.
func NewSim() *Sim {
	return NewSimWithClock(time.Now, 1)
}

// NewSimWithClock allows a fake clock and a fixed noise seed.
func NewSimWithClock(now func() time.Time, seed int64) *Sim {
	t := now()
	return &Sim{
		now:   now,
		rnd:   rand.New(rand.NewSource(seed)),
		last:  t,
		epoch: t,
		tempC: AmbientC,
	}
}

// advance integrates the plant up to the current clock. Caller holds mu.
func (s *Sim) advance() {
	now := s.now()
	dt := now.Sub(s.last).Seconds()
	if dt <= 0 {
		return
	}
	s.last = now
	if s.ssrOn {
		s.tempC += HeatRateCPerSec * dt
	}
	s.tempC -= (s.tempC - AmbientC) * LossPerSec * dt
	if s.tempC < AmbientC {
		s.tempC = AmbientC
	}
}

func (s *Sim) ReadADC() (uint16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}
	s.advance()

	raw := (s.tempC-simOffset)/simSlope + float64(s.rnd.Intn(2*noiseLSB+1)-noiseLSB)
	s.reads++
	if s.fault && s.reads%2 == 0 {
		if raw < ADCMax/2 {
			raw += spikeLSB
		} else {
			raw -= spikeLSB
		}
	}
	switch {
	case raw < 0:
		raw = 0
	case raw > ADCMax:
		raw = ADCMax
	}
	return uint16(raw), nil
}

func (s *Sim) SetSSR(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.advance()
	s.ssrOn = on
	return nil
}

func (s *Sim) TouchRaw() (touch.Raw, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touch, nil
}

// Attach wires the encoder lines and reports their current level.
func (s *Sim) Attach(sink EncoderSink) {
	s.mu.Lock()
	s.sink = sink
	c := gray[s.code]
	s.mu.Unlock()
	if sink != nil {
		sink.Edge(c&0b10 != 0, c&0b01 != 0)
	}
}

func (s *Sim) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// TemperatureC is the true plant temperature.
func (s *Sim) TemperatureC() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advance()
	return s.tempC
}

func (s *Sim) SSR() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ssrOn
}

// SetTemperature forces the plant temperature.
func (s *Sim) SetTemperature(c float64) {
	s.mu.Lock()
	s.advance()
	s.tempC = c
	s.mu.Unlock()
}

// SetFault displaces every second conversion far from the true value.
func (s *Sim) SetFault(on bool) {
	s.mu.Lock()
	s.fault = on
	s.mu.Unlock()
}

// Touch sets what the panel reports.
func (s *Sim) Touch(r touch.Raw) {
	s.mu.Lock()
	s.touch = r
	s.mu.Unlock()
}

// gray is the forward quadrature sequence as (a<<1 | b).
var gray = [4]uint8{0b00, 0b01, 0b11, 0b10}

// Rotate emits four edges per click to the attached sink; negative turns backwards.
func (s *Sim) Rotate(clicks int) {
	s.mu.Lock()
	sink := s.sink
	s.mu.Unlock()
	if sink == nil {
		return
	}
	step := 1
	if clicks < 0 {
		step, clicks = -1, -clicks
	}
	for i := 0; i < clicks*4; i++ {
		s.mu.Lock()
		idx := (int(s.code) + step + 4) % 4
		s.code = uint8(idx)
		c := gray[idx]
		s.mu.Unlock()
		sink.Edge(c&0b10 != 0, c&0b01 != 0)
	}
}

// Press emits a button edge at the current clock.
func (s *Sim) Press() {
	s.mu.Lock()
	sink := s.sink
	at := s.now().Sub(s.epoch)
	s.mu.Unlock()
	if sink != nil {
		sink.Button(true, at)
	}
}
