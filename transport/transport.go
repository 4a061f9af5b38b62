// Package transport turns a stream of bytes on a link.Link into a stream
// of wire.Envelope messages and back, owning the whole COWS framing state
// machine: packet sync, multi-read assembly, and resync on failure.
package transport

import (
	"errors"
	"fmt"

	"github.com/cubecore/simfw/cows"
	"github.com/cubecore/simfw/internal/metrics"
	"github.com/cubecore/simfw/link"
	"github.com/cubecore/simfw/serial"
	"github.com/cubecore/simfw/wire"
)

// ErrOversizeFrame is returned when a frame grows past MaxPacketSize
// without a delimiter being found. The receive state is reset and the
// caller may retry.
var ErrOversizeFrame = errors.New("transport: frame exceeds max packet size")

// Linker is the subset of *link.Link the transport depends on.
type Linker interface {
	SendAll(buf []byte) error
	RecvSome(buf []byte) (int, error)
	Close() error
}

// Transport owns the framing state machine described for the simulator
// link: a send buffer, a receive buffer, and the packet-sync/accumulate
// state needed to recover frame boundaries from an arbitrary byte stream.
type Transport struct {
	link Linker

	maxPacketSize int
	sendBuf       []byte
	recvBuf       []byte
	synced        bool
	used          int
	metrics       *metrics.Metrics
}

// SetMetrics wires optional Prometheus instrumentation into this
// transport. A nil argument (the default) disables it.
func (t *Transport) SetMetrics(m *metrics.Metrics) {
	t.metrics = m
}

// Open opens a device through link.OpenDevice, writes the lone resync
// delimiter, and returns a ready Transport.
func Open(device string, baud serial.CFlag, maxPacketSize int) (*Transport, error) {
	if maxPacketSize%2 != 0 {
		return nil, fmt.Errorf("transport: max packet size must be even, got %d", maxPacketSize)
	}
	l, err := link.OpenDevice(device, baud)
	if err != nil {
		return nil, fmt.Errorf("transport: open link: %w", err)
	}
	t := newTransport(l, maxPacketSize)
	if err := t.link.SendAll([]byte{0, 0}); err != nil {
		l.Close()
		return nil, fmt.Errorf("transport: write resync delimiter: %w", err)
	}
	return t, nil
}

// New wraps an already-open Linker (typically a *link.Link, or a fake in
// tests) without performing the resync write Open does; this is used in
// gmock-style unit tests that drive the framing logic directly.
func New(l Linker, maxPacketSize int) *Transport {
	return newTransport(l, maxPacketSize)
}

func newTransport(l Linker, maxPacketSize int) *Transport {
	return &Transport{
		link:          l,
		maxPacketSize: maxPacketSize,
		sendBuf:       make([]byte, maxPacketSize),
		recvBuf:       make([]byte, maxPacketSize),
	}
}

// Close releases the underlying link.
func (t *Transport) Close() error {
	return t.link.Close()
}

// Send serializes msg, COWS-stuffs it, appends the ZERO-ZERO delimiter,
// and writes the frame.
func (t *Transport) Send(msg *wire.Envelope) error {
	payload, err := wire.Marshal(msg)
	if err != nil {
		return fmt.Errorf("transport: serialize: %w", err)
	}
	l := len(payload)
	cowsLen := l + 4
	paddedLen := cowsLen + (cowsLen % 2)
	if paddedLen >= t.maxPacketSize {
		return fmt.Errorf("transport: padded frame %d >= max packet size %d", paddedLen, t.maxPacketSize)
	}

	buf := t.sendBuf[:paddedLen]
	for i := range buf {
		buf[i] = 0
	}
	copy(buf[2:2+l], payload)

	if err := cows.StuffBytes(buf, paddedLen/2); err != nil {
		return fmt.Errorf("transport: stuff: %w", err)
	}
	buf[cowsLen-2] = 0
	buf[cowsLen-1] = 0

	if err := t.link.SendAll(buf[:cowsLen]); err != nil {
		return fmt.Errorf("transport: send: %w", err)
	}
	t.metrics.ObserveFrameSent()
	return nil
}

// Recv fills msg with the next framed envelope, performing packet sync if
// not already synced and assembling the frame across as many reads as
// needed.
func (t *Transport) Recv(msg *wire.Envelope) error {
	if !t.synced {
		if err := t.syncToPacket(); err != nil {
			return err
		}
	}

	packetEnd, err := t.accumulateFrame()
	if err != nil {
		return err
	}

	cowsEndWords := (packetEnd + packetEnd%2) / 2
	if err := cows.UnstuffBytes(t.recvBuf[:cowsEndWords*2], cowsEndWords); err != nil {
		return fmt.Errorf("transport: unstuff: %w", err)
	}

	if err := wire.Unmarshal(t.recvBuf[2:packetEnd], msg); err != nil {
		t.clearPacket(packetEnd)
		return fmt.Errorf("transport: parse: %w", err)
	}
	t.clearPacket(packetEnd)
	t.metrics.ObserveFrameReceived()
	return nil
}

// syncToPacket performs a byte-at-a-time search for the ZERO-ZERO
// delimiter so the receiver can align to a frame boundary after opening
// or after an I/O failure.
func (t *Transport) syncToPacket() error {
	window := make([]byte, 2)
	if _, err := t.recvSomeExact(window); err != nil {
		return fmt.Errorf("transport: sync: %w", err)
	}
	for window[0] != 0 || window[1] != 0 {
		window[0] = window[1]
		if _, err := t.recvSomeExact(window[1:]); err != nil {
			return fmt.Errorf("transport: sync: %w", err)
		}
	}
	t.synced = true
	t.used = 0
	return nil
}

// recvSomeExact loops RecvSome until buf is filled, without the broader
// transport-failure bookkeeping Recv does (sync has no framing state to
// reset on partial progress).
func (t *Transport) recvSomeExact(buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := t.link.RecvSome(buf[total:])
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

// accumulateFrame reads into recvBuf until a ZERO-ZERO delimiter is found,
// returning the index of the first zero of that delimiter.
func (t *Transport) accumulateFrame() (int, error) {
	// Bytes left over from a previous burst have not been searched yet, so
	// the first scan covers the whole buffered prefix.
	searchFrom := 0
	packetEnd := findEnd(t.recvBuf[:t.used], searchFrom)
	for packetEnd == 0 {
		if t.used == t.maxPacketSize {
			t.used = 0
			t.synced = false
			t.metrics.ObserveResync()
			return 0, ErrOversizeFrame
		}
		n, err := t.link.RecvSome(t.recvBuf[t.used:t.maxPacketSize])
		if err != nil {
			t.used = 0
			t.synced = false
			t.metrics.ObserveResync()
			return 0, fmt.Errorf("transport: recv: %w", err)
		}
		searchFrom = maxInt(t.used-1, 0)
		t.used += n
		packetEnd = findEnd(t.recvBuf[:t.used], searchFrom)
	}
	return packetEnd, nil
}

// findEnd scans buf for the ZERO-ZERO delimiter starting after start,
// returning the index of the delimiter's first byte (the end of the
// payload), or 0 if the delimiter hasn't arrived yet.
func findEnd(buf []byte, start int) int {
	for i := start + 1; i < len(buf); i++ {
		if buf[i-1] == 0 && buf[i] == 0 {
			return i - 1
		}
	}
	return 0
}

// clearPacket shifts any bytes after the consumed frame (plus its
// trailing delimiter) down to the start of the buffer, for the next
// recv to build on.
func (t *Transport) clearPacket(packetEnd int) {
	tailStart := packetEnd + 2
	remaining := t.used - tailStart
	if remaining > 0 {
		copy(t.recvBuf, t.recvBuf[tailStart:t.used])
	}
	if remaining < 0 {
		remaining = 0
	}
	t.used = remaining
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
