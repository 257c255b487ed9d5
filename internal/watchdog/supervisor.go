// Package watchdog keeps an external watchdog fed from a periodic timer.
//
// The supervisor reloads slightly before the timeout expires. A missed
// reload is not handled here; the watchdog resetting the device is the
// intended outcome.
package watchdog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/logging"
)

// ReloadMargin is how long before the timeout each reload happens.
const ReloadMargin = 100 * time.Millisecond

// Watchdog is the hardware or software watchdog collaborator.
type Watchdog interface {
	Register(timeout time.Duration) error
	Reload(timeout time.Duration) error
}

// Supervisor reasserts liveness every timeout-ReloadMargin.
type Supervisor struct {
	wd      Watchdog
	timeout time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSupervisor returns a supervisor for wd. The timeout must exceed ReloadMargin.
func NewSupervisor(wd Watchdog, timeout time.Duration) (*Supervisor, error) {
	if timeout <= ReloadMargin {
		return nil, fmt.Errorf("watchdog timeout %s must exceed %s", timeout, ReloadMargin)
	}
	return &Supervisor{wd: wd, timeout: timeout}, nil
}

// Period returns the reload interval.
func (s *Supervisor) Period() time.Duration {
	return s.timeout - ReloadMargin
}

// Start registers the timeout with the watchdog and starts the reload timer.
func (s *Supervisor) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return errors.New("watchdog supervisor already started")
	}
	if err := s.wd.Register(s.timeout); err != nil {
		return fmt.Errorf("failed to register watchdog: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.loop(ctx, s.done)

	logging.Info("Watchdog supervisor started",
		zap.Duration("timeout", s.timeout),
		zap.Duration("period", s.Period()),
	)
	return nil
}

func (s *Supervisor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.wd.Reload(s.timeout); err != nil {
				logging.Warn("Watchdog reload failed", zap.Error(err))
			}
		}
	}
}

// Stop halts the reload timer and waits for it to exit.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}
