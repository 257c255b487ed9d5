package watchdog

import (
	"errors"
	"sync"
	"time"
)

// ErrNotRegistered is returned by Reload before Register.
var ErrNotRegistered = errors.New("watchdog not registered")

// ErrExpired is returned by Reload once the watchdog has fired.
var ErrExpired = errors.New("watchdog already expired")

// Soft is a software watchdog for hosts without watchdog hardware.
// If it is not reloaded within the timeout, onExpire runs once.
type Soft struct {
	onExpire func()

	mu      sync.Mutex
	timer   *time.Timer
	expired bool
}

// NewSoft returns a software watchdog that calls onExpire on expiry.
func NewSoft(onExpire func()) *Soft {
	return &Soft{onExpire: onExpire}
}

// Register arms the watchdog, replacing any earlier timer.
func (w *Soft) Register(timeout time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.expired = false
	w.timer = time.AfterFunc(timeout, w.fire)
	return nil
}

// Reload pushes the expiry timeout into the future.
func (w *Soft) Reload(timeout time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer == nil {
		return ErrNotRegistered
	}
	if w.expired {
		return ErrExpired
	}
	w.timer.Reset(timeout)
	return nil
}

// Expired reports whether the watchdog fired.
func (w *Soft) Expired() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expired
}

// Stop disarms the watchdog.
func (w *Soft) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Soft) fire() {
	w.mu.Lock()
	if w.expired {
		w.mu.Unlock()
		return
	}
	w.expired = true
	w.mu.Unlock()

	if w.onExpire != nil {
		w.onExpire()
	}
}
