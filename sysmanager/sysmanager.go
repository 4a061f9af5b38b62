// Package sysmanager implements the system-control consumer process: a
// single-threaded loop that waits for shutdown events and hands off to
// the platform's sync/halt primitives.
package sysmanager

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/cubecore/simfw/events"
)

// Platform abstracts the two syscalls a shutdown needs, so tests can
// inject a mock instead of actually halting the machine.
type Platform interface {
	Sync() error
	Halt() error
}

// Process runs the system manager's single-threaded event loop.
type Process struct {
	listener *events.Listener
	platform Platform
	log      *log.Logger
}

// New constructs a Process consuming from listener (which must be a
// KindSystem listener) and acting through platform.
func New(listener *events.Listener, platform Platform, logger *log.Logger) *Process {
	if logger == nil {
		logger = log.Default()
	}
	return &Process{listener: listener, platform: platform, log: logger}
}

// Run loops forever, consuming system events and halting on a shutdown
// request. It returns only on a listener error (queue closed) or a
// platform failure; halt() not returning is the success case on real
// hardware, so reaching Run's return at all is itself noteworthy.
func (p *Process) Run() error {
	for {
		if err := p.RunIteration(); err != nil {
			return err
		}
	}
}

// RunIteration performs a single listen-and-maybe-halt step; exported so
// tests can drive the loop one step at a time.
func (p *Process) RunIteration() error {
	ev, err := p.listener.Listen()
	if err != nil {
		return fmt.Errorf("sysmanager: listen: %w", err)
	}
	if ev.System == nil || !ev.System.Shutdown {
		return nil
	}
	p.log.Info("shutdown requested")
	if err := p.platform.Sync(); err != nil {
		p.log.Error("sync failed", "err", err)
	}
	if err := p.platform.Halt(); err != nil {
		return fmt.Errorf("sysmanager: halt: %w", err)
	}
	return nil
}
