// Package metrics exposes Prometheus instrumentation for the event bus
// and transport layer. It is purely observational: every call site works
// the same with a nil *Metrics (see the nil-receiver guards below), so
// tests that don't care about metrics can skip wiring it up.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the counters and gauges this module emits.
type Metrics struct {
	EventsDispatched  *prometheus.CounterVec
	EventsDropped     *prometheus.CounterVec
	QueueDepth        *prometheus.GaugeVec
	FramesSent        prometheus.Counter
	FramesReceived    prometheus.Counter
	TransportResyncs  prometheus.Counter
}

// New constructs and registers the metrics against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		EventsDispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simfw_events_dispatched_total",
			Help: "Events successfully dispatched, by kind.",
		}, []string{"kind"}),
		EventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "simfw_events_dropped_total",
			Help: "Events that failed to dispatch, by kind.",
		}, []string{"kind"}),
		QueueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "simfw_queue_depth",
			Help: "Best-effort sampled depth of a named queue.",
		}, []string{"queue"}),
		FramesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simfw_frames_sent_total",
			Help: "Frames written to the serial link.",
		}),
		FramesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simfw_frames_received_total",
			Help: "Frames parsed from the serial link.",
		}),
		TransportResyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "simfw_transport_resync_total",
			Help: "Times the transport lost and regained packet sync.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.EventsDispatched, m.EventsDropped, m.QueueDepth, m.FramesSent, m.FramesReceived, m.TransportResyncs)
	}
	return m
}

func (m *Metrics) dispatched(kind string) {
	if m == nil {
		return
	}
	m.EventsDispatched.WithLabelValues(kind).Inc()
}

func (m *Metrics) dropped(kind string) {
	if m == nil {
		return
	}
	m.EventsDropped.WithLabelValues(kind).Inc()
}

// ObserveDispatch records a dispatch outcome for kind.
func (m *Metrics) ObserveDispatch(kind string, ok bool) {
	if ok {
		m.dispatched(kind)
	} else {
		m.dropped(kind)
	}
}

// ObserveQueueDepth records a best-effort sample of a queue's depth.
func (m *Metrics) ObserveQueueDepth(queue string, depth int) {
	if m == nil {
		return
	}
	m.QueueDepth.WithLabelValues(queue).Set(float64(depth))
}

// ObserveFrameSent records one outgoing frame.
func (m *Metrics) ObserveFrameSent() {
	if m == nil {
		return
	}
	m.FramesSent.Inc()
}

// ObserveFrameReceived records one incoming frame.
func (m *Metrics) ObserveFrameReceived() {
	if m == nil {
		return
	}
	m.FramesReceived.Inc()
}

// ObserveResync records one transport resync.
func (m *Metrics) ObserveResync() {
	if m == nil {
		return
	}
	m.TransportResyncs.Inc()
}
