// Package device holds the root object of the lifecycle controller.
// One Context is created at boot and handed to every component; there is
// no package-level device state.
package device

import (
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/muurk/smartap-lifecycle/internal/configstore"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/notify"
	"github.com/muurk/smartap-lifecycle/internal/sysstate"
)

// Options size the state machine.
type Options struct {
	ResetGrace   time.Duration
	StandbyGrace time.Duration
	// SignalInitial is the starting count of the binary state-change signal.
	SignalInitial int
}

// Context owns the configuration store, the notification registry and the
// system state machine for the life of the process.
type Context struct {
	Store    *configstore.Store
	Registry *notify.Registry
	Machine  *sysstate.Machine
	Signal   *sysstate.Signal

	// SessionID identifies this boot in uplink and event stream messages.
	SessionID uuid.UUID
	BootTime  time.Time

	mu  sync.RWMutex
	mac net.HardwareAddr
}

// New allocates the root context. With the default SignalInitial of zero the
// controller blocks until the first request.
func New(backend configstore.Backend, platform sysstate.Platform, radio sysstate.Radio, opts Options) *Context {
	registry := notify.NewRegistry()
	signal := sysstate.NewSignal(opts.SignalInitial)

	return &Context{
		Store:    configstore.New(backend),
		Registry: registry,
		Signal:   signal,
		Machine: sysstate.New(platform, radio, registry, signal, sysstate.Options{
			ResetGrace:   opts.ResetGrace,
			StandbyGrace: opts.StandbyGrace,
		}),
		SessionID: uuid.New(),
		BootTime:  time.Now(),
	}
}

// SetMAC records the device's own hardware address.
func (c *Context) SetMAC(mac net.HardwareAddr) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mac = append(net.HardwareAddr(nil), mac...)
}

// MAC returns the hardware address in colon-hex, or "" before it is known.
func (c *Context) MAC() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.mac) == 0 {
		return ""
	}
	return c.mac.String()
}

// Status is the transient runtime status.
type Status struct {
	State     sysstate.State
	Net       deviceconfig.NetInfo
	MAC       string
	SessionID string
	Uptime    time.Duration
}

// Status returns a consistent copy of the runtime status.
func (c *Context) Status() Status {
	return Status{
		State:     c.Machine.State(),
		Net:       c.Store.NetStatus(),
		MAC:       c.MAC(),
		SessionID: c.SessionID.String(),
		Uptime:    time.Since(c.BootTime).Truncate(time.Second),
	}
}

// View renders the record and status for the local server and uplink.
func (c *Context) View(swVer, wnpVer string) *deviceconfig.DeviceView {
	st := c.Status()
	return deviceconfig.NewDeviceView(c.Store.Snapshot(), st.Net, st.MAC, st.State.String(), swVer, wnpVer)
}
