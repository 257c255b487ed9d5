package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Registry is the configurator's list of devices it has seen.
// Key material is never stored here.
type Registry struct {
	Version     int                     `yaml:"version"`
	Devices     map[string]*KnownDevice `yaml:"devices,omitempty"` // Keyed by device MAC
	Preferences *Preferences            `yaml:"preferences,omitempty"`

	mu sync.Mutex
}

// KnownDevice is what the configurator remembers about one device.
type KnownDevice struct {
	Nickname string    `yaml:"nickname,omitempty"`
	Name     string    `yaml:"name,omitempty"` // Name advertised by the device
	LastIP   string    `yaml:"last_ip,omitempty"`
	LastPort int       `yaml:"last_port,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// Preferences represents configurator-wide preferences.
type Preferences struct {
	DiscoverTimeout int    `yaml:"discover_timeout"` // mDNS discovery timeout in seconds
	Username        string `yaml:"username"`         // Local server user; passwords are never stored
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*KnownDevice),
		Preferences: &Preferences{
			DiscoverTimeout: 5,
			Username:        "SmarTap",
		},
	}
}

// LoadRegistry loads the registry at path (DefaultRegistryPath when empty).
// A missing file yields a new default registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		p, err := DefaultRegistryPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get registry path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry: %w", err)
	}

	registry := NewRegistry()
	if err := yaml.Unmarshal(data, registry); err != nil {
		return nil, fmt.Errorf("failed to parse registry: %w", err)
	}
	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported registry version: %d (expected 1)", registry.Version)
	}
	if registry.Devices == nil {
		registry.Devices = make(map[string]*KnownDevice)
	}
	return registry, nil
}

// Save writes the registry to path atomically.
func (r *Registry) Save(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if path == "" {
		p, err := DefaultRegistryPath()
		if err != nil {
			return fmt.Errorf("failed to get registry path: %w", err)
		}
		path = p
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	header := []byte(`# Smartap configurator device list
# WiFi passwords and local server passwords are NEVER stored in this file.

`)
	return writeFileAtomic(path, append(header, data...))
}

// Remember records a sighting of a device.
func (r *Registry) Remember(mac, name, ip string, port int) *KnownDevice {
	r.mu.Lock()
	defer r.mu.Unlock()

	mac = strings.ToLower(mac)
	dev, ok := r.Devices[mac]
	if !ok {
		dev = &KnownDevice{}
		r.Devices[mac] = dev
	}
	dev.Name = name
	dev.LastIP = ip
	dev.LastPort = port
	dev.LastSeen = time.Now()
	return dev
}

// SetNickname sets a user-defined alias for a known device.
func (r *Registry) SetNickname(mac, nickname string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	dev, ok := r.Devices[strings.ToLower(mac)]
	if !ok {
		return fmt.Errorf("unknown device %s", mac)
	}
	dev.Nickname = nickname
	return nil
}

// Lookup finds a device by MAC, nickname or advertised name.
func (r *Registry) Lookup(ref string) (string, *KnownDevice, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dev, ok := r.Devices[strings.ToLower(ref)]; ok {
		return strings.ToLower(ref), dev, true
	}
	for _, mac := range r.macsLocked() {
		dev := r.Devices[mac]
		if strings.EqualFold(dev.Nickname, ref) || strings.EqualFold(dev.Name, ref) {
			return mac, dev, true
		}
	}
	return "", nil, false
}

// MACs returns the known device MACs in sorted order.
func (r *Registry) MACs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.macsLocked()
}

func (r *Registry) macsLocked() []string {
	macs := make([]string, 0, len(r.Devices))
	for mac := range r.Devices {
		macs = append(macs, mac)
	}
	sort.Strings(macs)
	return macs
}
