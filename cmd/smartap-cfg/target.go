package main

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/config"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/discovery"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/ui"
)

// target is the device a command talks to.
type target struct {
	MAC  string
	IP   string
	Port int
}

func (t *target) String() string {
	if t.MAC != "" {
		return fmt.Sprintf("%s (%s:%d)", t.MAC, t.IP, t.Port)
	}
	return fmt.Sprintf("%s:%d", t.IP, t.Port)
}

func loadRegistry() (*config.Registry, error) {
	reg, err := config.LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}
	return reg, nil
}

func saveRegistry(reg *config.Registry) {
	if err := reg.Save(registryPath); err != nil {
		logging.Warn("Failed to save device list", zap.Error(err))
	}
}

// resolveTarget turns --device into an address. An IP is used as is; a MAC,
// nickname or advertised name is looked up in the device list; without
// --device the network is scanned and exactly one device must answer.
func resolveTarget(ctx context.Context, reg *config.Registry) (*target, error) {
	port := devicePort
	if port == 0 {
		port = deviceconfig.DefaultPort
	}

	if deviceRef != "" {
		if ip := net.ParseIP(deviceRef); ip != nil {
			return &target{IP: ip.String(), Port: port}, nil
		}
		mac, known, ok := reg.Lookup(deviceRef)
		if !ok {
			return nil, fmt.Errorf("unknown device %q: run 'smartap-cfg scan' first or pass its IP address", deviceRef)
		}
		if known.LastIP == "" {
			return nil, fmt.Errorf("no address known for %s: run 'smartap-cfg scan'", mac)
		}
		if devicePort == 0 && known.LastPort != 0 {
			port = known.LastPort
		}
		return &target{MAC: mac, IP: known.LastIP, Port: port}, nil
	}

	fmt.Println("No device specified, scanning the network...")
	devices, err := scan(ctx, reg, scanDuration(reg))
	if err != nil {
		return nil, err
	}
	switch len(devices) {
	case 0:
		return nil, fmt.Errorf("no devices found. Use --device to name one")
	case 1:
		d := devices[0]
		fmt.Printf("Found device: %s\n\n", d)
		return &target{MAC: strings.ToLower(d.MAC), IP: d.IP, Port: d.Port}, nil
	default:
		fmt.Print(ui.DeviceList(devices, nicknames(reg)))
		return nil, fmt.Errorf("multiple devices found. Use --device to choose one")
	}
}

// scan browses for devices and remembers every one found.
func scan(ctx context.Context, reg *config.Registry, timeout time.Duration) ([]*discovery.Device, error) {
	scanner := discovery.NewScanner()
	scanner.Timeout = timeout

	devices, err := scanner.ScanForDevices(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan failed: %w", err)
	}
	for _, d := range devices {
		reg.Remember(d.MAC, d.Name(), d.IP, d.Port)
	}
	if len(devices) > 0 {
		saveRegistry(reg)
	}
	return devices, nil
}

func scanDuration(reg *config.Registry) time.Duration {
	if scanTimeout > 0 {
		return time.Duration(scanTimeout) * time.Second
	}
	if reg.Preferences != nil && reg.Preferences.DiscoverTimeout > 0 {
		return time.Duration(reg.Preferences.DiscoverTimeout) * time.Second
	}
	return discovery.DefaultScanTimeout
}

func nicknames(reg *config.Registry) map[string]string {
	out := make(map[string]string)
	for _, mac := range reg.MACs() {
		if nick := reg.Devices[mac].Nickname; nick != "" {
			out[mac] = nick
		}
	}
	return out
}

func newClient(t *target, reg *config.Registry) *deviceconfig.Client {
	user := username
	if user == "" && reg.Preferences != nil {
		user = reg.Preferences.Username
	}
	if user == "" {
		user = deviceconfig.DefaultUsername
	}
	pass := password
	if pass == "" {
		pass = deviceconfig.DefaultPassword
	}

	client := deviceconfig.NewClient(t.IP, t.Port)
	client.SetAuth(user, pass)
	return client
}
