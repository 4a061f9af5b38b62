package simulator

import (
	"errors"
	"testing"
	"time"

	"github.com/cubecore/simfw/events"
	"github.com/cubecore/simfw/queue"
	"github.com/cubecore/simfw/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	inbox   []*wire.Envelope
	sent    []*wire.Envelope
	recvErr error
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{}
}

func (f *fakeTransport) Recv(msg *wire.Envelope) error {
	for {
		if len(f.inbox) > 0 {
			next := f.inbox[0]
			f.inbox = f.inbox[1:]
			*msg = *next
			return nil
		}
		if f.recvErr != nil {
			return f.recvErr
		}
		time.Sleep(time.Millisecond)
	}
}

func (f *fakeTransport) Send(msg *wire.Envelope) error {
	cp := *msg
	f.sent = append(f.sent, &cp)
	return errStopAfterOneSend
}

// errStopAfterOneSend lets sendingLoop tests terminate Run deterministically.
var errStopAfterOneSend = errors.New("test: stop after one send")

func TestReceivingLoopDispatchesSystemShutdown(t *testing.T) {
	reg := queue.NewRegistry()
	sysData := queue.Fetch[events.Event](reg, "sim-sys", 4)
	dispatcher := events.NewDispatcher(events.KindSystem, sysData, nil, nil)

	ft := newFakeTransport()
	ft.inbox = append(ft.inbox, &wire.Envelope{System: &wire.SystemMessage{Shutdown: true}})
	ft.recvErr = errors.New("no more frames")

	mux := events.NewMultiplexer(queue.Fetch[events.EventNotification](reg, "sim-notify-1", 8))
	p := New(ft, mux, []*events.Dispatcher{dispatcher}, nil)

	err := p.receivingLoop()
	assert.ErrorIs(t, err, ft.recvErr)

	ev, err := sysData.DequeueBlocking()
	require.NoError(t, err)
	require.NotNil(t, ev.System)
	assert.True(t, ev.System.Shutdown)
}

func TestSendingLoopEncodesSelectedListener(t *testing.T) {
	reg := queue.NewRegistry()
	gfxData := queue.Fetch[events.Event](reg, "sim-gfx", 1)
	notify := queue.Fetch[events.EventNotification](reg, "sim-notify-2", 8)

	dispatcher := events.NewDispatcher(events.KindGraphics, gfxData, notify, nil)
	listener := events.NewListener(events.KindGraphics, gfxData, nil)

	mux := events.NewMultiplexer(notify)
	mux.AddListener(listener)

	require.NoError(t, dispatcher.Dispatch(events.Event{Graphics: &events.GraphicsEvent{
		Width: 4, Height: 4, Image: []byte{9, 9, 9, 9},
	}}))

	ft := newFakeTransport()
	p := New(ft, mux, nil, nil)

	err := p.sendingLoop()
	assert.ErrorIs(t, err, errStopAfterOneSend)

	require.Len(t, ft.sent, 1)
	require.NotNil(t, ft.sent[0].Graphics)
	assert.Equal(t, []byte{9, 9, 9, 9}, ft.sent[0].Graphics.Data)
}
