// Package hal is the hardware boundary of the regulator: the thermocouple
// ADC, the SSR output, the raw touch panel and the encoder lines.
package hal

import (
	"errors"
	"time"

	"temp_regulator/internal/touch"
)

// ADCMax is the full-scale reading of the 12-bit converter.
const ADCMax = 4095

var ErrClosed = errors.New("hal: closed")

// EncoderSink receives line changes as they happen. It is called from the
// driver's own goroutine.
type EncoderSink interface {
	Edge(a, b bool)
	Button(level bool, now time.Duration)
}

// Hardware is everything the control loop drives or reads.
type Hardware interface {
	ReadADC() (uint16, error)
	SetSSR(on bool) error
	TouchRaw() (touch.Raw, error)
	Attach(sink EncoderSink)
	Close() error
}
