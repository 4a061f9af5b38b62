// Package simulator implements the Simulator Process: a receiving
// goroutine that turns incoming framed envelopes into dispatched events,
// and a sending goroutine that turns multiplexed events back into framed
// envelopes, sharing one Transport and one Multiplexer.
package simulator

import (
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/cubecore/simfw/events"
	"github.com/cubecore/simfw/wire"
)

// Transport is the subset of *transport.Transport the process depends
// on, kept narrow so tests can substitute a fake.
type Transport interface {
	Send(msg *wire.Envelope) error
	Recv(msg *wire.Envelope) error
}

// Process runs the two-goroutine simulator loop.
type Process struct {
	transport   Transport
	mux         *events.Multiplexer
	dispatchers []*events.Dispatcher
	log         *log.Logger
}

// New constructs a Process. dispatchers is consulted, in order, against
// every incoming envelope's sub-messages; mux must already have every
// outgoing kind's Listener registered via AddListener.
func New(t Transport, mux *events.Multiplexer, dispatchers []*events.Dispatcher, logger *log.Logger) *Process {
	if logger == nil {
		logger = log.Default()
	}
	return &Process{transport: t, mux: mux, dispatchers: dispatchers, log: logger}
}

// Run starts the receiving and sending goroutines and blocks until both
// have exited: the receiver on a Recv failure, the sender on a Send
// failure or a Select failure (notification queue closed). One goroutine
// exiting does not stop the other.
func (p *Process) Run() error {
	var wg sync.WaitGroup
	errs := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs <- p.receivingLoop()
	}()
	go func() {
		defer wg.Done()
		errs <- p.sendingLoop()
	}()

	wg.Wait()
	close(errs)

	var first error
	for err := range errs {
		if err != nil && first == nil {
			first = err
		}
	}
	return first
}

// receivingLoop repeatedly decodes the next envelope off the wire and
// dispatches any sub-message it recognizes.
func (p *Process) receivingLoop() error {
	for {
		var env wire.Envelope
		if err := p.transport.Recv(&env); err != nil {
			return fmt.Errorf("simulator: receive: %w", err)
		}
		if err := p.handleEnvelope(&env); err != nil {
			return err
		}
	}
}

func (p *Process) handleEnvelope(env *wire.Envelope) error {
	for _, d := range p.dispatchers {
		if _, err := d.DispatchEncoded(env); err != nil {
			p.log.Error("dispatch_encoded failed", "err", err)
		}
	}
	return nil
}

// sendingLoop repeatedly selects the next ready listener, encodes its
// event into a freshly-cleared outgoing envelope, and writes it.
func (p *Process) sendingLoop() error {
	var out wire.Envelope
	for {
		out.Clear()
		l, err := p.mux.Select()
		if err != nil {
			return fmt.Errorf("simulator: select: %w", err)
		}
		if err := l.ListenEncoded(&out); err != nil {
			p.log.Error("listen_encoded failed", "err", err)
			continue
		}
		if err := p.transport.Send(&out); err != nil {
			return fmt.Errorf("simulator: send: %w", err)
		}
	}
}
