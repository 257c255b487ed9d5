package lifecycle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/sysstate"
)

// Triggers are the user-facing lifecycle requests: button presses, the
// local server's system commands and remote commands from the uplink.
type Triggers struct {
	dev *device.Context
}

// NewTriggers returns the lifecycle requests for dev.
func NewTriggers(dev *device.Context) *Triggers {
	return &Triggers{dev: dev}
}

// ShortPress clears the configured flag if set and requests a soft reset,
// so the device reboots into provisioning. The reset is requested even if
// persisting the flag fails.
func (t *Triggers) ShortPress() error {
	_, err := t.dev.Store.ClearConfiguredIfSet()
	if err != nil {
		logging.Error("Failed to persist unconfigured flag", zap.Error(err))
	}
	t.dev.Machine.Request(sysstate.SoftReset)
	return err
}

// LongPress restores the factory record and requests a soft reset.
func (t *Triggers) LongPress() error {
	err := t.dev.Store.RestoreDefaults()
	if err != nil {
		logging.Error("Failed to restore factory configuration", zap.Error(err))
	}
	t.dev.Machine.Request(sysstate.SoftReset)
	return err
}

// Standby requests low-power standby.
func (t *Triggers) Standby() {
	t.dev.Machine.Request(sysstate.Standby)
}

// RadioOff requests a radio power-down; the device keeps running.
func (t *Triggers) RadioOff() {
	t.dev.Machine.Request(sysstate.RadioPowerDown)
}

// ApplyCredentials is the provisioning intake: it persists the credentials
// with the configured flag set and reboots into connected operation.
func (t *Triggers) ApplyCredentials(creds deviceconfig.WiFiCredentials) error {
	if _, err := t.dev.Store.ApplyCredentials(creds); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}
	logging.Info("Credentials received, rebooting into connected mode", zap.String("ssid", creds.SSID))
	t.dev.Machine.Request(sysstate.SoftReset)
	return nil
}

// Execute runs a system command.
func (t *Triggers) Execute(cmd deviceconfig.SystemCommand) error {
	logging.Info("System command received", zap.String("command", string(cmd)))
	switch cmd {
	case deviceconfig.CommandReset:
		return t.ShortPress()
	case deviceconfig.CommandFactoryReset:
		return t.LongPress()
	case deviceconfig.CommandStandby:
		t.Standby()
		return nil
	case deviceconfig.CommandRadioOff:
		t.RadioOff()
		return nil
	default:
		_, err := deviceconfig.ParseSystemCommand(string(cmd))
		return err
	}
}
