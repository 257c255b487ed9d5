// Package lifecycle boots the device and wires its runtime behavior.
//
// Boot runs a fixed sequence: platform init, root context, record read,
// identity handler, network stack, watchdog, then either provisioning or
// the connected path. Run follows Boot with the system state controller
// loop, which only returns on shutdown.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/configstore"
	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/notify"
	"github.com/muurk/smartap-lifecycle/internal/version"
	"github.com/muurk/smartap-lifecycle/internal/watchdog"
)

// Boot step names reported in startup errors.
const (
	StepPlatform     = "platform-init"
	StepReadConfig   = "read-config"
	StepAppInfo      = "register-app-info"
	StepNetwork      = "network-init"
	StepWatchdog     = "watchdog"
	StepProvisioning = "provisioning"
	StepSubscribers  = "register-subscribers"
	StepApplication  = "application"
	StepConnect      = "connect"
)

// Deps are the collaborators the orchestrator drives. Watchdog,
// ConfigServer and Application may be nil.
type Deps struct {
	Platform     Platform
	Radio        Radio
	Backend      configstore.Backend
	Watchdog     watchdog.Watchdog
	Provisioner  Provisioner
	ConfigServer Service
	Application  Service
}

// Options tune the boot sequence.
type Options struct {
	Device          device.Options
	WatchdogTimeout time.Duration
	Provisioning    ProvisioningParams
	Identity        string
}

// Orchestrator runs the startup sequence.
type Orchestrator struct {
	deps Deps
	opts Options

	mu         sync.Mutex
	dev        *device.Context
	supervisor *watchdog.Supervisor
}

// New returns an orchestrator wired to deps. Nothing runs until Boot.
func New(deps Deps, opts Options) *Orchestrator {
	if opts.Identity == "" {
		opts.Identity = version.Identity()
	}
	return &Orchestrator{deps: deps, opts: opts}
}

// Device returns the root context once Boot has allocated it.
func (o *Orchestrator) Device() *device.Context {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.dev
}

// Boot runs every startup step up to, but not including, the state
// controller loop. Fatal failures are returned as startup errors naming
// the step.
func (o *Orchestrator) Boot(ctx context.Context) (*device.Context, error) {
	if err := o.deps.Platform.Init(ctx); err != nil {
		return nil, deviceconfig.NewStartupError(StepPlatform, err)
	}

	dev := device.New(o.deps.Backend, o.deps.Platform, o.deps.Radio, o.opts.Device)
	o.mu.Lock()
	o.dev = dev
	o.mu.Unlock()

	cfg, err := dev.Store.Read()
	if err != nil {
		return dev, deviceconfig.NewStartupError(StepReadConfig, err)
	}

	if err := dev.Registry.Register(notify.ReadAppInfo, notify.AppInfoResponder(o.opts.Identity)); err != nil {
		return dev, deviceconfig.NewStartupError(StepAppInfo, err)
	}

	if err := o.deps.Radio.Init(ctx, dev.Registry); err != nil {
		return dev, deviceconfig.NewStartupError(StepNetwork, err)
	}
	mac, err := o.deps.Radio.OwnAddress()
	if err != nil {
		return dev, deviceconfig.NewStartupError(StepNetwork, err)
	}
	dev.SetMAC(mac)
	logging.Info("Device identity",
		zap.String("app", o.opts.Identity),
		zap.String("network_library", o.deps.Radio.LibraryVersion()),
		logging.MAC("mac", mac),
		zap.String("session", dev.SessionID.String()),
	)

	if err := o.startWatchdog(ctx); err != nil {
		return dev, deviceconfig.NewStartupError(StepWatchdog, err)
	}

	if !cfg.IsConfigured() {
		return dev, o.startProvisioning(ctx, dev, cfg, mac)
	}
	return dev, o.startConnected(ctx, dev, cfg)
}

func (o *Orchestrator) startWatchdog(ctx context.Context) error {
	if o.deps.Watchdog == nil {
		logging.Info("Watchdog disabled")
		return nil
	}
	sup, err := watchdog.NewSupervisor(o.deps.Watchdog, o.opts.WatchdogTimeout)
	if err != nil {
		return err
	}
	if err := sup.Start(ctx); err != nil {
		return err
	}
	o.supervisor = sup
	return nil
}

func (o *Orchestrator) startProvisioning(ctx context.Context, dev *device.Context, cfg deviceconfig.SystemConfig, mac net.HardwareAddr) error {
	logging.Info("Empty configuration. Starting configuration mode...",
		zap.String("mode", o.opts.Provisioning.Mode),
		zap.Stringer("configured", cfg.Configured),
	)

	params := o.opts.Provisioning
	params.MAC = mac
	params.Name = cfg.Name
	params.Unconfigured = true
	params.Supports24GHz = true
	if params.FirmwareRevision == "" {
		params.FirmwareRevision = version.FirmwareRevision()
	}
	if params.HardwareRevision == "" {
		params.HardwareRevision = version.HardwareRevision
	}
	if params.Model == "" {
		params.Model = version.Model
	}
	if params.Manufacturer == "" {
		params.Manufacturer = version.Manufacturer
	}

	if err := o.deps.Provisioner.Start(ctx, dev, params); err != nil {
		return deviceconfig.NewStartupError(StepProvisioning, deviceconfig.NewProvisioningError("failed to start provisioning", err))
	}
	return nil
}

func (o *Orchestrator) startConnected(ctx context.Context, dev *device.Context, cfg deviceconfig.SystemConfig) error {
	logging.Info("Available configuration. Starting Wi-Fi connection...", zap.String("ssid", cfg.SSID))

	if err := registerRuntimeHandlers(dev); err != nil {
		return deviceconfig.NewStartupError(StepSubscribers, err)
	}

	if cfg.RFPowerSave {
		if err := o.deps.Radio.SetPowerSave(true); err != nil {
			logging.Warn("Failed to enable RF power save", zap.Error(err))
		}
	}
	if cfg.MCUPowerSave {
		if err := o.deps.Platform.SetMCUPowerSave(true); err != nil {
			logging.Warn("Failed to enable MCU power save", zap.Error(err))
		}
	}

	if cfg.ConfigServerEnabled && o.deps.ConfigServer != nil {
		if err := o.deps.ConfigServer.Start(ctx, dev); err != nil {
			logging.Warn("Unable to start the local configuration server", zap.Error(err))
		}
	}

	if o.deps.Application != nil {
		if err := o.deps.Application.Start(ctx, dev); err != nil {
			return deviceconfig.NewStartupError(StepApplication, err)
		}
	}

	req := dev.Store.Snapshot().ConnectionRequest()
	logging.Info("Connecting to access point",
		zap.String("ssid", req.AP.SSID),
		zap.Stringer("dhcp", req.DHCP),
	)
	if err := o.deps.Radio.Connect(ctx, req); err != nil {
		return deviceconfig.NewStartupError(StepConnect, err)
	}
	return nil
}

// Run boots the device and then runs the state controller until its
// signal wait fails. A context cancellation is a clean shutdown.
func (o *Orchestrator) Run(ctx context.Context) error {
	dev, err := o.Boot(ctx)
	if err != nil {
		o.Shutdown()
		return err
	}

	err = dev.Machine.Run(ctx)
	o.Shutdown()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("lifecycle controller exited: %w", err)
}

// Shutdown stops the watchdog supervisor and closes the state-change signal.
func (o *Orchestrator) Shutdown() {
	if o.supervisor != nil {
		o.supervisor.Stop()
	}
	if dev := o.Device(); dev != nil {
		dev.Signal.Close()
	}
}
