package sysstate

import (
	"context"
	"errors"
	"sync"
)

// ErrSignalClosed is returned by Acquire after Close.
var ErrSignalClosed = errors.New("state-change signal closed")

// Signal is a binary signal: its count never exceeds one. Releases while a
// wake-up is already pending are dropped, which is what makes rapid
// transition requests collapse into one wake-up of the controller.
type Signal struct {
	tokens    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewSignal returns a signal whose count starts at initial, clamped to 0 or 1.
func NewSignal(initial int) *Signal {
	s := &Signal{
		tokens: make(chan struct{}, 1),
		done:   make(chan struct{}),
	}
	if initial > 0 {
		s.tokens <- struct{}{}
	}
	return s
}

// Release sets the count to one unless a wake-up is already pending or the
// signal is closed. It never blocks and reports whether the count changed.
func (s *Signal) Release() bool {
	if s.Closed() {
		return false
	}
	select {
	case s.tokens <- struct{}{}:
		return true
	default:
		return false
	}
}

// Acquire blocks until the count is positive and decrements it.
func (s *Signal) Acquire(ctx context.Context) error {
	select {
	case <-s.tokens:
		return nil
	case <-s.done:
		return ErrSignalClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the current count.
func (s *Signal) Pending() int {
	return len(s.tokens)
}

// Closed reports whether Close was called.
func (s *Signal) Closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Close wakes any waiter with ErrSignalClosed. Later releases are dropped.
func (s *Signal) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}
