package discovery

import (
	"fmt"
	"time"
)

// Device represents a device advertising the configuration service.
type Device struct {
	// Instance is the mDNS instance name (e.g., "eValve-aabbcc")
	Instance string

	// Hostname is the mDNS hostname (e.g., "smartap.local.")
	Hostname string

	// IP is the IPv4 address, or IPv6 when the device has none
	IP string

	// Port is the configuration server port
	Port int

	// MAC is the device MAC address from the TXT record
	MAC string

	// Metadata contains every TXT record pair
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("Smartap Device %s (%s) at %s:%d", d.Instance, d.MAC, d.IP, d.Port)
}

// BaseURL returns the HTTP base URL for the device
func (d *Device) BaseURL() string {
	return fmt.Sprintf("http://%s:%d", d.IP, d.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}

// Name returns the advertised device name.
func (d *Device) Name() string {
	return d.GetMetadata(TxtName)
}

// Unconfigured reports whether the device is waiting to be provisioned.
func (d *Device) Unconfigured() bool {
	return d.GetMetadata(TxtUnconfigured) == "1"
}
