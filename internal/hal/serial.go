package hal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"temp_regulator/internal/logger"
	"temp_regulator/internal/touch"
)

const (
	DefaultBaudRate = 115200
	// sampleBuffer holds streamed conversions between bursts.
	sampleBuffer = 64
	readTimeout  = 250 * time.Millisecond
)

var ErrNoSample = errors.New("hal: no adc sample within timeout")

// SerialBridge talks to a board that streams line-oriented reports:
//
//	A <raw>          one ADC conversion
//	Q <a><b>         quadrature line levels, e.g. "Q 01"
//	K <level> <ms>   button edge with the board's millisecond clock
//	T <x> <y> <p>    touch panel state
//
// and accepts "S1"/"S0" to drive the SSR.
type SerialBridge struct {
	conn io.ReadWriteCloser
	log  *logger.Logger

	samples chan uint16
	ctx     context.Context
	cancel  context.CancelFunc
	done    chan struct{}

	mu    sync.Mutex
	touch touch.Raw
	sink  EncoderSink
	ssr   bool
}

var _ Hardware = (*SerialBridge)(nil)

// OpenSerial opens the port and starts reading.
func OpenSerial(port string, baud int, log *logger.Logger) (*SerialBridge, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", port, err)
	}
	return NewSerialBridge(p, log), nil
}

// NewSerialBridge runs the protocol over an already open stream.
func NewSerialBridge(conn io.ReadWriteCloser, log *logger.Logger) *SerialBridge {
	ctx, cancel := context.WithCancel(context.Background())
	b := &SerialBridge{
		conn:    conn,
		log:     log.Component("serial"),
		samples: make(chan uint16, sampleBuffer),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go b.readLoop()
	return b
}

func (b *SerialBridge) readLoop() {
	defer close(b.done)
	sc := bufio.NewScanner(b.conn)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := b.dispatch(line); err != nil {
			b.log.Debugw("serial_line_rejected", "line", line, "err", err)
		}
		if b.ctx.Err() != nil {
			return
		}
	}
	if err := sc.Err(); err != nil && b.ctx.Err() == nil {
		b.log.Warnw("serial_read_failed", "err", err)
	}
}

func (b *SerialBridge) dispatch(line string) error {
	msg, err := parseLine(line)
	if err != nil {
		return err
	}
	switch m := msg.(type) {
	case adcMsg:
		select {
		case b.samples <- uint16(m):
		default:
			// drop the oldest so bursts see fresh data
			select {
			case <-b.samples:
			default:
			}
			b.samples <- uint16(m)
		}
	case quadMsg:
		if sink := b.encoder(); sink != nil {
			sink.Edge(m.a, m.b)
		}
	case buttonMsg:
		if sink := b.encoder(); sink != nil {
			sink.Button(m.level, m.at)
		}
	case touch.Raw:
		b.mu.Lock()
		b.touch = m
		b.mu.Unlock()
	}
	return nil
}

func (b *SerialBridge) encoder() EncoderSink {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sink
}

// ReadADC returns the next streamed conversion.
func (b *SerialBridge) ReadADC() (uint16, error) {
	t := time.NewTimer(readTimeout)
	defer t.Stop()
	select {
	case v := <-b.samples:
		return v, nil
	case <-b.ctx.Done():
		return 0, ErrClosed
	case <-t.C:
		return 0, ErrNoSample
	}
}

// SetSSR only writes when the requested level differs from the last one sent.
func (b *SerialBridge) SetSSR(on bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ctx.Err() != nil {
		return ErrClosed
	}
	if on == b.ssr {
		return nil
	}
	cmd := "S0\n"
	if on {
		cmd = "S1\n"
	}
	if _, err := b.conn.Write([]byte(cmd)); err != nil {
		return fmt.Errorf("write ssr command: %w", err)
	}
	b.ssr = on
	return nil
}

func (b *SerialBridge) TouchRaw() (touch.Raw, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.touch, nil
}

func (b *SerialBridge) Attach(sink EncoderSink) {
	b.mu.Lock()
	b.sink = sink
	b.mu.Unlock()
}

// Close stops the reader and releases the port.
func (b *SerialBridge) Close() error {
	b.mu.Lock()
	if b.ctx.Err() != nil {
		b.mu.Unlock()
		return nil
	}
	b.cancel()
	if _, err := b.conn.Write([]byte("S0\n")); err != nil {
		b.log.Warnw("serial_ssr_off_failed", "err", err)
	}
	b.mu.Unlock()

	err := b.conn.Close()
	<-b.done
	return err
}

type adcMsg uint16

type quadMsg struct{ a, b bool }

type buttonMsg struct {
	level bool
	at    time.Duration
}

// parseLine decodes one board report.
func parseLine(line string) (any, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, errors.New("empty line")
	}
	switch fields[0] {
	case "A":
		if len(fields) != 2 {
			return nil, fmt.Errorf("adc report: expected 1 value, got %d", len(fields)-1)
		}
		v, err := strconv.ParseUint(fields[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("adc report: %w", err)
		}
		if v > ADCMax {
			return nil, fmt.Errorf("adc report: %d out of range", v)
		}
		return adcMsg(v), nil

	case "Q":
		if len(fields) != 2 || len(fields[1]) != 2 {
			return nil, fmt.Errorf("quadrature report: malformed %q", line)
		}
		a, err := bit(fields[1][0])
		if err != nil {
			return nil, err
		}
		bb, err := bit(fields[1][1])
		if err != nil {
			return nil, err
		}
		return quadMsg{a: a, b: bb}, nil

	case "K":
		if len(fields) != 3 || len(fields[1]) != 1 {
			return nil, fmt.Errorf("button report: malformed %q", line)
		}
		level, err := bit(fields[1][0])
		if err != nil {
			return nil, err
		}
		ms, err := strconv.ParseUint(fields[2], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("button report: %w", err)
		}
		return buttonMsg{level: level, at: time.Duration(ms) * time.Millisecond}, nil

	case "T":
		if len(fields) != 4 || len(fields[3]) != 1 {
			return nil, fmt.Errorf("touch report: malformed %q", line)
		}
		x, err := strconv.ParseUint(fields[1], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("touch report x: %w", err)
		}
		y, err := strconv.ParseUint(fields[2], 10, 16)
		if err != nil {
			return nil, fmt.Errorf("touch report y: %w", err)
		}
		p, err := bit(fields[3][0])
		if err != nil {
			return nil, err
		}
		return touch.Raw{X: uint16(x), Y: uint16(y), Pressed: p}, nil
	}
	return nil, fmt.Errorf("unknown report %q", fields[0])
}

func bit(c byte) (bool, error) {
	switch c {
	case '0':
		return false, nil
	case '1':
		return true, nil
	}
	return false, fmt.Errorf("expected 0 or 1, got %q", c)
}
