// Package platform implements the board and radio collaborators for a
// Linux/macOS host, so the lifecycle controller can run off-target.
package platform

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/logging"
)

// Host is the platform collaborator for a general-purpose host.
// A soft reboot re-executes the current binary.
type Host struct {
	// Reboot replaces the process. Defaults to re-executing os.Args.
	Reboot func() error

	mu           sync.Mutex
	mcuPowerSave bool
	standby      bool
}

// NewHost returns a host platform that reboots by re-executing itself.
func NewHost() *Host {
	return &Host{Reboot: reexec}
}

// Init logs the host identity.
func (h *Host) Init(ctx context.Context) error {
	hostname, _ := os.Hostname()
	logging.Info("Platform initialized",
		zap.String("platform", "host"),
		zap.String("hostname", hostname),
		zap.Int("pid", os.Getpid()),
	)
	return ctx.Err()
}

// SoftReboot flushes the log and calls Reboot.
func (h *Host) SoftReboot(context.Context) error {
	logging.Info("Soft reboot")
	logging.Sync()
	return h.Reboot()
}

// EnterStandby parks the caller until ctx is done, the host equivalent of a
// low-power mode that only a wake-up source leaves.
func (h *Host) EnterStandby(ctx context.Context) error {
	h.mu.Lock()
	h.standby = true
	h.mu.Unlock()

	logging.Info("Standby entered")
	<-ctx.Done()

	h.mu.Lock()
	h.standby = false
	h.mu.Unlock()
	return nil
}

// InStandby reports whether EnterStandby is currently parked.
func (h *Host) InStandby() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.standby
}

// Sleep waits for d or until ctx is done.
func (h *Host) Sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// SetMCUPowerSave records the power-save setting.
func (h *Host) SetMCUPowerSave(enabled bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mcuPowerSave = enabled
	logging.Debug("MCU power save", zap.Bool("enabled", enabled))
	return nil
}
