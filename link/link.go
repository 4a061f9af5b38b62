// Package link wraps a raw serial backend with the line discipline the
// simulator protocol expects: 8N1, no parity, no flow control, raw mode,
// a flushed input queue, and retrying whole-buffer send/receive helpers.
package link

import (
	"fmt"

	"github.com/cubecore/simfw/serial"
)

// Backend is the subset of *serial.Port that Link depends on, kept small
// so tests can substitute an in-memory fake instead of a real device.
type Backend interface {
	Read(data []byte) (int, error)
	Write(data []byte) (int, error)
	Close() error
	GetAttr() (*serial.Termios, error)
	SetAttr(when serial.Action, attrs *serial.Termios) error
	MakeRaw() error
	Flush(queue serial.Queue) error
}

// Link is a thin, testable wrapper around a Backend.
type Link struct {
	backend Backend
}

// Open configures backend for 8N1, no flow control, raw mode, the
// requested baud on input and output, flushes pending input, and applies
// the attributes. It does not open the underlying device; callers obtain
// a Backend (typically *serial.Port via serial.Open) first.
func Open(backend Backend, baud serial.CFlag) (*Link, error) {
	attrs, err := backend.GetAttr()
	if err != nil {
		return nil, fmt.Errorf("link: get attr: %w", err)
	}
	attrs.MakeRaw()
	attrs.Cflag &^= serial.CSIZE | serial.PARENB | serial.CSTOPB | serial.CRTSCTS
	attrs.Cflag |= serial.CS8 | serial.CLOCAL | serial.CREAD
	attrs.SetSpeed(baud)

	if err := backend.Flush(serial.TCIFLUSH); err != nil {
		return nil, fmt.Errorf("link: flush input: %w", err)
	}
	if err := backend.SetAttr(serial.TCSANOW, attrs); err != nil {
		return nil, fmt.Errorf("link: set attr: %w", err)
	}
	return &Link{backend: backend}, nil
}

// SendAll retries short writes until buf is fully drained.
func (l *Link) SendAll(buf []byte) error {
	for len(buf) > 0 {
		n, err := l.backend.Write(buf)
		if err != nil {
			return fmt.Errorf("link: send: %w", err)
		}
		if n < 0 {
			return fmt.Errorf("link: send: negative write return")
		}
		buf = buf[n:]
	}
	return nil
}

// RecvExact retries short reads until buf is fully populated.
func (l *Link) RecvExact(buf []byte) error {
	for len(buf) > 0 {
		n, err := l.backend.Read(buf)
		if err != nil {
			return fmt.Errorf("link: recv: %w", err)
		}
		if n <= 0 {
			return fmt.Errorf("link: recv: non-positive read return")
		}
		buf = buf[n:]
	}
	return nil
}

// RecvSome performs a single read that may return fewer bytes than
// requested, so callers (the transport) can interleave framing work with
// I/O instead of blocking for a full buffer.
func (l *Link) RecvSome(buf []byte) (int, error) {
	n, err := l.backend.Read(buf)
	if err != nil {
		return 0, fmt.Errorf("link: recv_some: %w", err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("link: recv_some: non-positive read return")
	}
	return n, nil
}

// Close releases the underlying backend.
func (l *Link) Close() error {
	return l.backend.Close()
}

// OpenDevice opens the named serial device and configures it through
// Open. It is the real-hardware counterpart used by cmd/ entrypoints;
// tests use Open directly against a fake Backend.
func OpenDevice(device string, baud serial.CFlag) (*Link, error) {
	port, err := serial.Open(device, serial.NewOptions())
	if err != nil {
		return nil, fmt.Errorf("link: open device %s: %w", device, err)
	}
	l, err := Open(port, baud)
	if err != nil {
		port.Close()
		return nil, err
	}
	return l, nil
}
