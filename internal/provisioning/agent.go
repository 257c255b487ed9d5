// Package provisioning brings an unconfigured device onto a network.
//
// The agent starts the credential intake (the local configuration server),
// advertises it over mDNS and closes the window after a timeout. In WAC
// mode the advertisement carries the accessory parameters as well.
package provisioning

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/config"
	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/discovery"
	"github.com/muurk/smartap-lifecycle/internal/lifecycle"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/notify"
	"github.com/muurk/smartap-lifecycle/internal/sysstate"
)

// Registration is a live mDNS advertisement.
type Registration interface {
	Shutdown()
}

// RegisterFunc publishes an advertisement.
type RegisterFunc func(ad discovery.Advertisement) (Registration, error)

// Agent implements lifecycle.Provisioner.
type Agent struct {
	intake   lifecycle.Service
	port     int
	register RegisterFunc

	mu  sync.Mutex
	reg Registration
}

var _ lifecycle.Provisioner = (*Agent)(nil)

// New returns an agent serving credentials through intake, advertised on port.
func New(intake lifecycle.Service, port int) *Agent {
	return &Agent{intake: intake, port: port, register: zeroconfRegister}
}

// WithRegister replaces the mDNS publisher.
func (a *Agent) WithRegister(fn RegisterFunc) *Agent {
	a.register = fn
	return a
}

// Start opens the provisioning window. It returns once the intake is
// serving and the advertisement is published; credentials arrive later
// through the intake, which reboots the device.
func (a *Agent) Start(ctx context.Context, dev *device.Context, params lifecycle.ProvisioningParams) error {
	switch params.Mode {
	case config.ProvisioningEasyLink, config.ProvisioningWAC:
	default:
		return fmt.Errorf("unsupported provisioning mode %q", params.Mode)
	}

	if a.intake != nil {
		if err := a.intake.Start(ctx, dev); err != nil {
			return fmt.Errorf("credential intake failed to start: %w", err)
		}
	}

	ad := Advertise(params, a.port)
	reg, err := a.register(ad)
	if err != nil {
		return fmt.Errorf("mDNS registration failed: %w", err)
	}

	a.mu.Lock()
	a.reg = reg
	a.mu.Unlock()

	// Withdraw the advertisement before any reboot or power-down.
	if err := dev.Registry.Register(notify.SysWillPowerOff, notify.OnPowerOff(func(context.Context) error {
		a.Stop()
		return nil
	})); err != nil {
		a.Stop()
		return err
	}

	logging.Info("Provisioning started",
		zap.String("mode", params.Mode),
		zap.String("instance", ad.Instance),
		zap.Int("port", a.port),
		zap.Duration("timeout", params.Timeout),
	)

	if params.Timeout > 0 {
		go a.expire(ctx, dev, params.Timeout)
	}
	return nil
}

// expire closes the window after timeout and reboots into a fresh one.
func (a *Agent) expire(ctx context.Context, dev *device.Context, timeout time.Duration) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		a.Stop()
	case <-timer.C:
		if !a.Active() {
			return
		}
		logging.Warn("Provisioning window expired without credentials", zap.Duration("timeout", timeout))
		a.Stop()
		dev.Machine.Request(sysstate.SoftReset)
	}
}

// Active reports whether the advertisement is published.
func (a *Agent) Active() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reg != nil
}

// Stop withdraws the advertisement. Safe to call more than once.
func (a *Agent) Stop() {
	a.mu.Lock()
	reg := a.reg
	a.reg = nil
	a.mu.Unlock()

	if reg != nil {
		reg.Shutdown()
		logging.Info("Provisioning advertisement withdrawn")
	}
}

// Advertise builds the mDNS advertisement for params.
func Advertise(params lifecycle.ProvisioningParams, port int) discovery.Advertisement {
	ad := discovery.Advertisement{
		Instance:     InstanceName(params.MAC),
		Port:         port,
		MAC:          params.MAC,
		Name:         params.Name,
		Mode:         params.Mode,
		Unconfigured: params.Unconfigured,
	}
	if params.Mode == config.ProvisioningWAC {
		ad.Accessory = &discovery.Accessory{
			FirmwareRevision: params.FirmwareRevision,
			HardwareRevision: params.HardwareRevision,
			Serial:           params.Serial,
			Model:            params.Model,
			Manufacturer:     params.Manufacturer,
			Supports24GHz:    params.Supports24GHz,
			Supports5GHz:     params.Supports5GHz,
		}
	}
	return ad
}

// InstanceName derives the mDNS instance from the last three MAC bytes,
// e.g. "eValve-7486a7".
func InstanceName(mac net.HardwareAddr) string {
	if len(mac) < 3 {
		return "eValve"
	}
	tail := mac[len(mac)-3:]
	return fmt.Sprintf("eValve-%02x%02x%02x", tail[0], tail[1], tail[2])
}

func zeroconfRegister(ad discovery.Advertisement) (Registration, error) {
	return zeroconf.Register(ad.Instance, discovery.ServiceType, discovery.ServiceDomain, ad.Port, ad.TXT(), nil)
}
