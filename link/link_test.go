package link

import (
	"errors"
	"testing"

	"github.com/cubecore/simfw/serial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	attrs     serial.Termios
	writes    [][]byte
	readChunks [][]byte
	flushed   []serial.Queue
	closed    bool
	writeErr  error
	readErr   error
	maxWrite  int // if > 0, Write accepts at most this many bytes per call
}

func (f *fakeBackend) Read(data []byte) (int, error) {
	if f.readErr != nil {
		return 0, f.readErr
	}
	if len(f.readChunks) == 0 {
		return 0, errors.New("fakeBackend: no more chunks")
	}
	chunk := f.readChunks[0]
	f.readChunks = f.readChunks[1:]
	n := copy(data, chunk)
	return n, nil
}

func (f *fakeBackend) Write(data []byte) (int, error) {
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	n := len(data)
	if f.maxWrite > 0 && n > f.maxWrite {
		n = f.maxWrite
	}
	cp := append([]byte(nil), data[:n]...)
	f.writes = append(f.writes, cp)
	return n, nil
}

func (f *fakeBackend) Close() error { f.closed = true; return nil }

func (f *fakeBackend) GetAttr() (*serial.Termios, error) { return &f.attrs, nil }

func (f *fakeBackend) SetAttr(when serial.Action, attrs *serial.Termios) error {
	f.attrs = *attrs
	return nil
}

func (f *fakeBackend) MakeRaw() error { return nil }

func (f *fakeBackend) Flush(queue serial.Queue) error {
	f.flushed = append(f.flushed, queue)
	return nil
}

func TestOpenConfiguresLine(t *testing.T) {
	backend := &fakeBackend{}
	l, err := Open(backend, serial.B115200)
	require.NoError(t, err)
	require.NotNil(t, l)

	assert.Contains(t, backend.flushed, serial.TCIFLUSH)
	assert.NotZero(t, backend.attrs.Cflag&serial.CS8)
	assert.NotZero(t, backend.attrs.Cflag&serial.CLOCAL)
	assert.NotZero(t, backend.attrs.Cflag&serial.CREAD)
	assert.Zero(t, backend.attrs.Cflag&serial.PARENB)
	assert.Zero(t, backend.attrs.Cflag&serial.CSTOPB)
}

func TestSendAllRetriesShortWrites(t *testing.T) {
	backend := &fakeBackend{maxWrite: 2}
	l, err := Open(backend, serial.B115200)
	require.NoError(t, err)

	require.NoError(t, l.SendAll([]byte("hello")))
	assert.Len(t, backend.writes, 3)
	assert.Equal(t, [][]byte{[]byte("he"), []byte("ll"), []byte("o")}, backend.writes)
}

func TestRecvExactAccumulatesAcrossShortReads(t *testing.T) {
	backend := &fakeBackend{
		readChunks: [][]byte{{1, 2}, {3, 4, 5}},
	}
	l, err := Open(backend, serial.B115200)
	require.NoError(t, err)

	buf := make([]byte, 5)
	require.NoError(t, l.RecvExact(buf))
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, buf)
}

func TestRecvSomeReturnsPartial(t *testing.T) {
	backend := &fakeBackend{readChunks: [][]byte{{9, 8}}}
	l, err := Open(backend, serial.B115200)
	require.NoError(t, err)

	buf := make([]byte, 4)
	n, err := l.RecvSome(buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSendAllPropagatesWriteError(t *testing.T) {
	backend := &fakeBackend{writeErr: errors.New("boom")}
	l, err := Open(backend, serial.B115200)
	require.NoError(t, err)

	err = l.SendAll([]byte("x"))
	assert.Error(t, err)
}
