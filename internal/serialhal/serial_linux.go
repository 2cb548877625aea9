//go:build linux

// Package serialhal adapts a real termios serial port to
// framing.SerialPlatformOps, so a host-side session can drive the protocol
// over a physical UART or USB-serial adapter instead of the fakes used by
// the package tests.
package serialhal

import (
	"errors"
	"syscall"
	"time"

	"github.com/daedaluz/goserial"

	"github.com/rjboer/xrce-client/internal/xrceerr"
)

// Port wraps a github.com/daedaluz/goserial.Port, tracking a monotonic
// clock origin so Millis() satisfies framing.SerialPlatformOps.
type Port struct {
	p       *serial.Port
	started time.Time
}

// standardBauds maps common decimal baud rates to the termios CBAUD
// constants SetSpeed expects; SetSpeed does not take a raw bit rate.
var standardBauds = map[int]serial.CFlag{
	9600:   serial.B9600,
	19200:  serial.B19200,
	38400:  serial.B38400,
	57600:  serial.B57600,
	115200: serial.B115200,
	230400: serial.B230400,
	460800: serial.B460800,
	921600: serial.B921600,
}

// Open opens name (e.g. "/dev/ttyUSB0") at baud (a standard rate such as
// 115200), returning a Port ready to hand to framing.NewTransport. The port
// is configured raw: no line discipline processing, no flow control.
func Open(name string, baud int) (*Port, error) {
	speed, ok := standardBauds[baud]
	if !ok {
		return nil, xrceerr.ErrInvalidData
	}
	// ReadSerialData always calls ReadTimeout explicitly with its own
	// budget, so the port-level default (block forever) is never used.
	p, err := serial.Open(name, serial.NewOptions())
	if err != nil {
		return nil, err
	}
	attrs, err := p.GetAttr()
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	attrs.MakeRaw()
	attrs.SetSpeed(speed)
	if err := p.SetAttr(serial.TCSANOW, attrs); err != nil {
		_ = p.Close()
		return nil, err
	}
	return &Port{p: p, started: time.Now()}, nil
}

// Close closes the underlying port.
func (s *Port) Close() error {
	return s.p.Close()
}

// WriteSerialData implements framing.SerialPlatformOps.
func (s *Port) WriteSerialData(buf []byte) (int, error) {
	n, err := s.p.Write(buf)
	if err != nil {
		return n, err
	}
	return n, nil
}

// ReadSerialData implements framing.SerialPlatformOps: it waits up to
// timeoutMs for at least one byte, returning (0, nil) on a clean timeout
// rather than an error, matching the HAL contract.
func (s *Port) ReadSerialData(buf []byte, maxLen int, timeoutMs int32) (int, error) {
	if maxLen < len(buf) {
		buf = buf[:maxLen]
	}
	n, err := s.p.ReadTimeout(buf, time.Duration(timeoutMs)*time.Millisecond)
	if err != nil {
		// the underlying poll wait reports a clean wait timeout as
		// ETIMEDOUT; that is not a transport failure.
		if errors.Is(err, syscall.ETIMEDOUT) {
			return 0, nil
		}
		return 0, xrceerr.ErrIO
	}
	return n, nil
}

// Millis implements framing.SerialPlatformOps with a free-running clock
// seeded at Open time; deltas fit in an int32 for any run shorter than
// about 24 days.
func (s *Port) Millis() int32 {
	return int32(time.Since(s.started) / time.Millisecond)
}
