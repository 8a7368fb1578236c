package runner

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// SignalManager derives a context cancelled by SIGINT or SIGTERM.
type SignalManager struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// NewSignalManager starts listening for signals on top of parent.
func NewSignalManager(parent context.Context) *SignalManager {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return &SignalManager{ctx: ctx, cancel: cancel}
}

// Context returns the signal-aware context.
func (sm *SignalManager) Context() context.Context {
	return sm.ctx
}

// Stop releases the signal listener and cancels the context.
func (sm *SignalManager) Stop() {
	sm.cancel()
}

// Interrupted reports whether the context ended because of a signal.
func (sm *SignalManager) Interrupted() bool {
	return sm.ctx.Err() != nil
}
