package discovery

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type of the local configuration server
	ServiceType = "_smartap-cfg._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for device discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the default configuration server port
	DefaultPort = 8080
)

// Scanner handles mDNS device discovery
type Scanner struct {
	// Timeout is the maximum time to wait for device discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForDevices browses until the timeout and returns every device seen,
// one entry per instance, sorted by instance name.
func (s *Scanner) ScanForDevices(ctx context.Context) ([]*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var mu sync.Mutex
	found := make(map[string]*Device)

	err := s.browse(ctx, func(d *Device) bool {
		mu.Lock()
		found[d.Instance] = d
		mu.Unlock()
		return false
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	devices := make([]*Device, 0, len(found))
	for _, d := range found {
		devices = append(devices, d)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].Instance < devices[j].Instance })
	return devices, nil
}

// WaitForDevice waits for the device with the given MAC address.
func (s *Scanner) WaitForDevice(ctx context.Context, mac string) (*Device, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	deviceChan := make(chan *Device, 1)
	err := s.browse(ctx, func(d *Device) bool {
		if d.MAC != mac {
			return false
		}
		select {
		case deviceChan <- d:
		default:
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	select {
	case device := <-deviceChan:
		return device, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("device %s not found within timeout", mac)
	}
}

// browse feeds parsed devices to fn until ctx ends or fn returns true.
func (s *Scanner) browse(ctx context.Context, fn func(*Device) bool) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if device := s.parseServiceEntry(entry); device != nil && fn(device) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to a Device.
// Entries without an address or a MAC in their TXT record are ignored.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Device {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	// Prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := ParseTXT(entry.Text)
	mac := metadata[TxtMAC]
	if mac == "" {
		return nil
	}

	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	return &Device{
		Instance:     entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         port,
		MAC:          mac,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
