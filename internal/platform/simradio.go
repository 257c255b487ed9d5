package platform

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/lifecycle"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/notify"
	"github.com/muurk/smartap-lifecycle/internal/version"
)

var (
	_ lifecycle.Platform = (*Host)(nil)
	_ lifecycle.Radio    = (*SimRadio)(nil)
)

// ErrRadioOff is returned by Connect after PowerDown.
var ErrRadioOff = errors.New("radio is powered down")

// SimOptions describe the simulated access point and DHCP server.
type SimOptions struct {
	MAC        net.HardwareAddr // own address; derived from the host when nil
	BSSID      deviceconfig.BSSID
	Channel    int
	Lease      deviceconfig.NetInfo
	AssocDelay time.Duration
}

// DefaultSimOptions returns a simulated access point on channel 6 handing
// out 192.168.1.40/24.
func DefaultSimOptions() SimOptions {
	return SimOptions{
		BSSID:   deviceconfig.BSSID{0x02, 0x53, 0x4d, 0x54, 0x41, 0x50},
		Channel: 6,
		Lease: deviceconfig.NetInfo{
			IP:      "192.168.1.40",
			Mask:    "255.255.255.0",
			Gateway: "192.168.1.1",
			DNS:     "192.168.1.1",
		},
		AssocDelay: 50 * time.Millisecond,
	}
}

// SimRadio is a network stack that always associates. Connect returns at
// once; station-up, parameter and DHCP notifications follow asynchronously.
type SimRadio struct {
	opts SimOptions

	mu        sync.Mutex
	events    notify.Dispatcher
	mac       net.HardwareAddr
	powered   bool
	powerSave bool
	wg        sync.WaitGroup
}

// NewSimRadio returns a simulated radio configured by opts.
func NewSimRadio(opts SimOptions) *SimRadio {
	return &SimRadio{opts: opts}
}

// Init powers the radio up. The registry-backed dispatcher passed here
// receives every notification the radio produces.
func (r *SimRadio) Init(_ context.Context, events notify.Dispatcher) error {
	if events == nil {
		return errors.New("nil event dispatcher")
	}

	mac := r.opts.MAC
	if len(mac) == 0 {
		var err error
		if mac, err = hostMAC(); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = events
	r.mac = mac
	r.powered = true
	return nil
}

// OwnAddress returns the radio MAC once Init has run.
func (r *SimRadio) OwnAddress() (net.HardwareAddr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mac == nil {
		return nil, errors.New("radio not initialized")
	}
	return r.mac, nil
}

// LibraryVersion names the simulated network library.
func (r *SimRadio) LibraryVersion() string {
	return fmt.Sprintf("%s %s", version.NetworkLibrary, version.Version)
}

// SetPowerSave records the RF power-save setting.
func (r *SimRadio) SetPowerSave(enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.powerSave = enabled
	return nil
}

// Connect accepts the request and associates in the background.
func (r *SimRadio) Connect(ctx context.Context, req deviceconfig.ConnectionRequest) error {
	r.mu.Lock()
	powered, events := r.powered, r.events
	r.mu.Unlock()

	if !powered {
		return ErrRadioOff
	}
	if events == nil {
		return errors.New("radio not initialized")
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.associate(ctx, events, req)
	}()
	return nil
}

func (r *SimRadio) associate(ctx context.Context, events notify.Dispatcher, req deviceconfig.ConnectionRequest) {
	select {
	case <-time.After(r.opts.AssocDelay):
	case <-ctx.Done():
		return
	}
	if req.AP.SSID == "" {
		logging.Warn("Association failed: no SSID")
		_ = events.Dispatch(ctx, notify.WifiStatusEvent{Status: notify.StationDown})
		return
	}

	ap := req.AP
	if ap.BSSID.IsZero() {
		ap.BSSID = r.opts.BSSID
	}
	if ap.Channel == 0 {
		ap.Channel = r.opts.Channel
	}
	if ap.Security == deviceconfig.SecurityAuto {
		ap.Security = deviceconfig.SecurityWPA2AES
	}

	logging.Debug("Simulated association", zap.String("ssid", ap.SSID), zap.Stringer("bssid", ap.BSSID))
	_ = events.Dispatch(ctx, notify.WifiStatusEvent{Status: notify.StationUp})
	_ = events.Dispatch(ctx, notify.WifiParamsEvent{AP: ap, Key: req.Key})

	lease := req.Static
	if req.DHCP == deviceconfig.DHCPClient {
		lease = r.opts.Lease
	}
	_ = events.Dispatch(ctx, notify.DhcpEvent{Net: lease})
}

// PowerDown turns the radio off and reports station down.
func (r *SimRadio) PowerDown(ctx context.Context) error {
	r.mu.Lock()
	wasOn, events := r.powered, r.events
	r.powered = false
	r.mu.Unlock()

	if wasOn && events != nil {
		_ = events.Dispatch(ctx, notify.WifiStatusEvent{Status: notify.StationDown})
	}
	logging.Info("Radio powered down")
	return nil
}

// Wait blocks until background associations finish.
func (r *SimRadio) Wait() {
	r.wg.Wait()
}

// hostMAC picks the first hardware address of a non-loopback interface,
// falling back to a random locally administered address.
func hostMAC() (net.HardwareAddr, error) {
	ifaces, err := net.Interfaces()
	if err == nil {
		for _, iface := range ifaces {
			if iface.Flags&net.FlagLoopback == 0 && len(iface.HardwareAddr) == 6 {
				return iface.HardwareAddr, nil
			}
		}
	}

	mac := make(net.HardwareAddr, 6)
	if _, err := rand.Read(mac); err != nil {
		return nil, fmt.Errorf("failed to generate MAC: %w", err)
	}
	mac[0] = (mac[0] | 0x02) &^ 0x01
	return mac, nil
}
