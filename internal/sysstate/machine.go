// Package sysstate is the system state machine: a single lifecycle state
// cell plus a coalescing signal, consumed by one controller loop that
// performs the power-affecting side effect of each state.
package sysstate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/notify"
)

// State is the requested lifecycle state.
type State int

const (
	Normal State = iota
	SoftReset
	RadioPowerDown
	Standby
)

func (s State) String() string {
	switch s {
	case Normal:
		return "normal"
	case SoftReset:
		return "soft-reset"
	case RadioPowerDown:
		return "radio-power-down"
	case Standby:
		return "standby"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ParseState accepts the names produced by String.
func ParseState(name string) (State, error) {
	for _, s := range []State{Normal, SoftReset, RadioPowerDown, Standby} {
		if s.String() == name {
			return s, nil
		}
	}
	return Normal, fmt.Errorf("unknown lifecycle state %q", name)
}

// Platform performs whole-device power actions.
type Platform interface {
	SoftReboot(ctx context.Context) error
	// EnterStandby does not return under normal operation.
	EnterStandby(ctx context.Context) error
	Sleep(ctx context.Context, d time.Duration)
}

// Radio powers the network radio down.
type Radio interface {
	PowerDown(ctx context.Context) error
}

// Broadcaster delivers notifications.
type Broadcaster interface {
	Dispatch(ctx context.Context, ev notify.Event) error
}

// Options set the grace intervals slept after the power-off notification.
type Options struct {
	ResetGrace   time.Duration
	StandbyGrace time.Duration
}

// DefaultOptions returns 500ms for reset and radio power-down, 200ms for standby.
func DefaultOptions() Options {
	return Options{
		ResetGrace:   500 * time.Millisecond,
		StandbyGrace: 200 * time.Millisecond,
	}
}

// Machine holds the state cell and runs the controller loop.
type Machine struct {
	platform Platform
	radio    Radio
	bus      Broadcaster
	signal   *Signal
	opts     Options

	mu    sync.Mutex
	state State
}

// New returns a machine in the Normal state. A nil signal is allowed:
// requests then only write the state cell and nothing consumes them.
func New(platform Platform, radio Radio, bus Broadcaster, signal *Signal, opts Options) *Machine {
	return &Machine{
		platform: platform,
		radio:    radio,
		bus:      bus,
		signal:   signal,
		opts:     opts,
	}
}

// Request writes s into the state cell and releases the signal once.
// Any state may follow any state; the last write before the controller
// reads wins.
func (m *Machine) Request(s State) {
	m.mu.Lock()
	m.state = s
	m.mu.Unlock()

	if m.signal == nil {
		logging.Debug("State requested without a signal", zap.Stringer("state", s))
		return
	}
	if m.signal.Closed() {
		logging.Warn("State requested after controller stopped", zap.Stringer("state", s))
		return
	}
	if !m.signal.Release() {
		logging.Debug("State request coalesced", zap.Stringer("state", s))
	}
}

// State returns the current content of the state cell.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Run blocks on the signal and performs one side effect per acquisition.
// It returns only when acquiring the signal fails.
func (m *Machine) Run(ctx context.Context) error {
	if m.signal == nil {
		return ErrSignalClosed
	}
	for {
		if err := m.signal.Acquire(ctx); err != nil {
			logging.Info("Lifecycle controller stopped", zap.Error(err))
			return err
		}

		s := m.State()
		logging.LogStateTransition(s.String(), "controller")
		if err := m.apply(ctx, s); err != nil {
			logging.Error("Lifecycle transition failed", zap.Stringer("state", s), zap.Error(err))
		}
	}
}

func (m *Machine) apply(ctx context.Context, s State) error {
	switch s {
	case SoftReset:
		m.powerOffNotice(ctx)
		m.platform.Sleep(ctx, m.opts.ResetGrace)
		return m.platform.SoftReboot(ctx)

	case RadioPowerDown:
		m.powerOffNotice(ctx)
		m.platform.Sleep(ctx, m.opts.ResetGrace)
		return m.radio.PowerDown(ctx)

	case Standby:
		logging.Info("Entering standby mode")
		m.powerOffNotice(ctx)
		m.platform.Sleep(ctx, m.opts.StandbyGrace)
		if err := m.radio.PowerDown(ctx); err != nil {
			logging.Warn("Radio power-down before standby failed", zap.Error(err))
		}
		return m.platform.EnterStandby(ctx)

	default:
		return nil
	}
}

// powerOffNotice is best effort; subscriber failures are already logged by the registry.
func (m *Machine) powerOffNotice(ctx context.Context) {
	_ = m.bus.Dispatch(ctx, notify.PowerOffEvent{})
}
