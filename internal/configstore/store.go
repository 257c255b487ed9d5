// Package configstore holds the in-memory shadow of the persisted device
// record and reconciles it with what the network stack observes.
//
// A single mutex guards the shadow, its dirty flag and the live network
// status fields. Merge and the flush decision happen in one critical
// section; the backing store is treated as single-writer, so the save
// itself also runs under the lock.
package configstore

import (
	"sync"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/logging"
)

// Backend is the persistent record collaborator.
type Backend interface {
	Load() (deviceconfig.SystemConfig, error)
	Save(deviceconfig.SystemConfig) error
}

// Store owns the shadow copy of the device record.
type Store struct {
	backend Backend

	mu     sync.Mutex
	shadow deviceconfig.SystemConfig
	dirty  bool
	net    deviceconfig.NetInfo
}

// New returns a store backed by b. The shadow holds factory defaults until Read.
func New(b Backend) *Store {
	return &Store{
		backend: b,
		shadow:  deviceconfig.DefaultSystemConfig(),
	}
}

// Read loads the persisted record into the shadow copy and returns it.
func (s *Store) Read() (deviceconfig.SystemConfig, error) {
	cfg, err := s.backend.Load()
	if err != nil {
		return deviceconfig.SystemConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.shadow = cfg
	s.dirty = false
	return cfg, nil
}

// Snapshot returns a copy of the shadow record.
func (s *Store) Snapshot() deviceconfig.SystemConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.shadow
}

// Dirty reports whether the shadow holds changes that are not yet persisted.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// MergeWifiParams reconciles the observed access point and key with the
// shadow. Every differing field is overwritten and marks the record dirty;
// a dirty record is flushed before the lock is released. It reports whether
// anything changed. A flush error is returned but the shadow keeps the new
// values and stays dirty.
func (s *Store) MergeWifiParams(observed deviceconfig.ApInfo, key deviceconfig.Key) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.mergeLocked(observed, key)
	if len(changed) == 0 {
		return false, nil
	}

	err := s.flushLocked()
	logging.LogConfigChange(changed, err == nil)
	return true, err
}

func (s *Store) mergeLocked(observed deviceconfig.ApInfo, key deviceconfig.Key) []string {
	var changed []string
	c := &s.shadow

	if ssid := deviceconfig.BoundString(observed.SSID, deviceconfig.MaxSSIDLen); c.SSID != ssid {
		c.SSID = ssid
		changed = append(changed, "ssid")
	}
	if c.BSSID != observed.BSSID {
		c.BSSID = observed.BSSID
		changed = append(changed, "bssid")
	}
	if c.Channel != observed.Channel {
		c.Channel = observed.Channel
		changed = append(changed, "channel")
	}
	if c.Security != observed.Security {
		c.Security = observed.Security
		changed = append(changed, "security")
	}
	if c.Key.Len() != key.Len() {
		changed = append(changed, "key_length")
	}
	if !c.Key.Equal(key) {
		c.Key = key
		changed = append(changed, "key")
	}

	if len(changed) > 0 {
		s.dirty = true
	}
	return changed
}

// FlushIfDirty persists the shadow when it holds unsaved changes.
func (s *Store) FlushIfDirty() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Store) flushLocked() error {
	if !s.dirty {
		return nil
	}
	if err := s.backend.Save(s.shadow); err != nil {
		return err
	}
	s.dirty = false
	return nil
}

// MarkUnconfiguredAndPersist clears the configured flag and saves the record
// unconditionally. The access point and key are kept so a later
// provisioning run can reuse them.
func (s *Store) MarkUnconfiguredAndPersist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shadow.Configured = deviceconfig.WLANUnconfigured
	s.dirty = true
	return s.flushLocked()
}

// ClearConfiguredIfSet marks a configured record WLANUnconfigured and saves
// it. The check and the save share one critical section, so credentials
// applied concurrently are either cleared with it or land afterwards. It
// reports whether the flag was set.
func (s *Store) ClearConfiguredIfSet() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.shadow.IsConfigured() {
		return false, nil
	}
	s.shadow.Configured = deviceconfig.WLANUnconfigured
	s.dirty = true
	err := s.flushLocked()
	logging.LogConfigChange([]string{"configured"}, err == nil)
	return true, err
}

// RestoreDefaults replaces the shadow with the factory record and saves it.
func (s *Store) RestoreDefaults() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.shadow = deviceconfig.DefaultSystemConfig()
	s.net = deviceconfig.NetInfo{}
	s.dirty = true
	return s.flushLocked()
}

// ApplyCredentials stores credentials handed over by a provisioning agent,
// sets the configured flag and flushes, all in one critical section.
// A stale BSSID and channel are cleared so the next connect scans afresh.
func (s *Store) ApplyCredentials(creds deviceconfig.WiFiCredentials) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := s.mergeLocked(deviceconfig.ApInfo{
		SSID:     creds.SSID,
		Security: creds.Security,
	}, creds.Key)

	if s.shadow.Configured != deviceconfig.Configured {
		s.shadow.Configured = deviceconfig.Configured
		s.dirty = true
		changed = append(changed, "configured")
	}
	if len(changed) == 0 {
		return false, nil
	}

	err := s.flushLocked()
	logging.LogConfigChange(changed, err == nil)
	return true, err
}

// SetNetStatus records the addressing reported by DHCP completion.
func (s *Store) SetNetStatus(info deviceconfig.NetInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.net = deviceconfig.NetInfo{
		IP:      deviceconfig.BoundString(info.IP, deviceconfig.MaxIPLen),
		Mask:    deviceconfig.BoundString(info.Mask, deviceconfig.MaxIPLen),
		Gateway: deviceconfig.BoundString(info.Gateway, deviceconfig.MaxIPLen),
		DNS:     deviceconfig.BoundString(info.DNS, deviceconfig.MaxIPLen),
	}
}

// NetStatus returns the live addressing.
func (s *Store) NetStatus() deviceconfig.NetInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.net
}
