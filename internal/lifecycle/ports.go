package lifecycle

import (
	"context"
	"net"
	"time"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/notify"
	"github.com/muurk/smartap-lifecycle/internal/sysstate"
	"github.com/muurk/smartap-lifecycle/internal/watchdog"
)

// Platform is the board the controller runs on.
type Platform interface {
	sysstate.Platform
	Init(ctx context.Context) error
	SetMCUPowerSave(enabled bool) error
}

// Dispatcher is how the network stack delivers its notifications.
type Dispatcher = notify.Dispatcher

// Radio is the network/radio stack. Connect returns once the request is
// accepted; association and DHCP results arrive as notifications.
type Radio interface {
	sysstate.Radio
	Init(ctx context.Context, events Dispatcher) error
	OwnAddress() (net.HardwareAddr, error)
	Connect(ctx context.Context, req deviceconfig.ConnectionRequest) error
	SetPowerSave(enabled bool) error
	LibraryVersion() string
}

// ProvisioningParams describe the device to a provisioning agent.
type ProvisioningParams struct {
	Mode             string
	Timeout          time.Duration
	MAC              net.HardwareAddr
	Name             string
	FirmwareRevision string
	HardwareRevision string
	Serial           string
	Model            string
	Manufacturer     string
	Unconfigured     bool
	Supports24GHz    bool
	Supports5GHz     bool
}

// Provisioner obtains network credentials for an unconfigured device.
type Provisioner interface {
	Start(ctx context.Context, dev *device.Context, params ProvisioningParams) error
}

// Service is an optional subsystem started on the connected path:
// the local configuration server or the application layer.
type Service interface {
	Start(ctx context.Context, dev *device.Context) error
}

// Compile-time assertions for port conformance
var _ watchdog.Watchdog = (*watchdog.Soft)(nil)
var _ Dispatcher = (*notify.Registry)(nil)
