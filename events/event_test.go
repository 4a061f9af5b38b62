package events

import (
	"testing"
	"time"

	"github.com/cubecore/simfw/queue"
	"github.com/cubecore/simfw/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatchUnmultiplexedSkipsNotification(t *testing.T) {
	data := queue.Fetch[Event](queue.NewRegistry(), "sys", 4)
	d := NewDispatcher(KindSystem, data, nil, nil)

	require.NoError(t, d.Dispatch(Event{System: &SystemEvent{Shutdown: true}}))

	ev, err := data.DequeueBlocking()
	require.NoError(t, err)
	assert.Equal(t, KindSystem, ev.Kind)
	assert.True(t, ev.System.Shutdown)
}

func TestDispatchMultiplexedEnqueuesDataThenNotification(t *testing.T) {
	reg := queue.NewRegistry()
	data := queue.Fetch[Event](reg, "gfx", 1)
	notify := queue.Fetch[EventNotification](reg, "notify", 8)
	d := NewDispatcher(KindGraphics, data, notify, nil)

	require.NoError(t, d.Dispatch(Event{Graphics: &GraphicsEvent{Width: 1, Height: 1, Image: []byte{1, 2, 3}}}))

	// Data must already be present by the time the notification arrives.
	n, err := notify.DequeueBlocking()
	require.NoError(t, err)
	assert.Equal(t, KindGraphics, n.Kind)

	ev, ok, err := data.DequeueNonblocking()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, KindGraphics, ev.Kind)
}

func TestListenPanicsOnKindMismatch(t *testing.T) {
	data := queue.Fetch[Event](queue.NewRegistry(), "mismatch", 4)
	require.NoError(t, data.EnqueueBlocking(Event{Kind: KindGraphics}))
	l := NewListener(KindSystem, data, nil)

	assert.Panics(t, func() {
		_, _ = l.Listen()
	})
}

func TestGetReturnsFalseWhenEmpty(t *testing.T) {
	data := queue.Fetch[Event](queue.NewRegistry(), "empty", 4)
	l := NewListener(KindSystem, data, nil)

	_, ok, err := l.Get()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMultiplexerSelectDropsUnregisteredKinds(t *testing.T) {
	reg := queue.NewRegistry()
	notify := queue.Fetch[EventNotification](reg, "notify", 8)
	gfxData := queue.Fetch[Event](reg, "gfx", 1)

	mux := NewMultiplexer(notify)
	gfxListener := NewListener(KindGraphics, gfxData, nil)
	mux.AddListener(gfxListener)

	// A notification for an unregistered kind should be silently dropped.
	require.NoError(t, notify.EnqueueBlocking(EventNotification{Kind: KindSystem}))
	require.NoError(t, notify.EnqueueBlocking(EventNotification{Kind: KindGraphics}))
	require.NoError(t, gfxData.EnqueueBlocking(Event{Kind: KindGraphics, Graphics: &GraphicsEvent{}}))

	done := make(chan *Listener, 1)
	go func() {
		l, err := mux.Select()
		require.NoError(t, err)
		done <- l
	}()

	select {
	case l := <-done:
		assert.Same(t, gfxListener, l)
	case <-time.After(time.Second):
		t.Fatal("Select did not return after dropping the unregistered notification")
	}
}

func TestDispatchEncodedAndListenEncodedRoundTrip(t *testing.T) {
	reg := queue.NewRegistry()
	data := queue.Fetch[Event](reg, "gfx-wire", 1)
	d := NewDispatcher(KindGraphics, data, nil, nil)
	d.ForceMultiplex(false)
	require.True(t, d.Forced(), "ForceMultiplex should mark the override as taken")
	l := NewListener(KindGraphics, data, nil)

	in := &wire.Envelope{Graphics: &wire.GraphicsMessage{
		OpType: wire.OpPaint,
		Width:  2,
		Height: 2,
		Data:   []byte{1, 2, 3, 4},
	}}
	ok, err := d.DispatchEncoded(in)
	require.NoError(t, err)
	require.True(t, ok)

	var out wire.Envelope
	require.NoError(t, l.ListenEncoded(&out))
	require.NotNil(t, out.Graphics)
	assert.EqualValues(t, 2, out.Graphics.Width)
	assert.Equal(t, []byte{1, 2, 3, 4}, out.Graphics.Data)
}

func TestDispatchEncodedIgnoresAbsentSubMessage(t *testing.T) {
	data := queue.Fetch[Event](queue.NewRegistry(), "sys-wire", 4)
	d := NewDispatcher(KindSystem, data, nil, nil)

	ok, err := d.DispatchEncoded(&wire.Envelope{})
	require.NoError(t, err)
	assert.False(t, ok)
}
