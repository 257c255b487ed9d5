package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
)

// Backend persists the device configuration record.
// Load on a medium that holds no record returns the factory defaults.
type Backend interface {
	Load() (deviceconfig.SystemConfig, error)
	Save(deviceconfig.SystemConfig) error
}

// NewBackend returns the backend selected by the options.
func NewBackend(opts *Options) (Backend, error) {
	switch opts.Storage.Backend {
	case BackendYAML:
		return &FileStore{Path: opts.RecordPath()}, nil
	case BackendFlash:
		return &FlashStore{Path: opts.RecordPath()}, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", opts.Storage.Backend)
	}
}

// FileStore keeps the record as human-editable YAML.
// BSSID and key material are hex encoded.
type FileStore struct {
	Path string
}

type fileRecord struct {
	Configured string `yaml:"configured"`
	SSID       string `yaml:"ssid"`
	BSSID      string `yaml:"bssid,omitempty"`
	Channel    int    `yaml:"channel"`
	Security   string `yaml:"security"`
	Key        string `yaml:"key,omitempty"`

	DHCP      bool   `yaml:"dhcp"`
	LocalIP   string `yaml:"local_ip,omitempty"`
	NetMask   string `yaml:"netmask,omitempty"`
	Gateway   string `yaml:"gateway,omitempty"`
	DNSServer string `yaml:"dns_server,omitempty"`

	RFPowerSave  bool `yaml:"rf_power_save"`
	MCUPowerSave bool `yaml:"mcu_power_save"`
	ConfigServer bool `yaml:"config_server"`

	Name string `yaml:"name"`
}

// Load reads the record. A missing file is a factory-fresh device.
func (s *FileStore) Load() (deviceconfig.SystemConfig, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return deviceconfig.DefaultSystemConfig(), nil
	}
	if err != nil {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError("failed to read record", err)
	}

	var rec fileRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError("failed to parse record", err)
	}
	cfg, err := rec.toSystemConfig()
	if err != nil {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError("invalid record", err)
	}
	return cfg, nil
}

// Save replaces the record atomically.
func (s *FileStore) Save(cfg deviceconfig.SystemConfig) error {
	data, err := yaml.Marshal(newFileRecord(cfg))
	if err != nil {
		return deviceconfig.NewStorageError("failed to marshal record", err)
	}
	if err := writeFileAtomic(s.Path, data); err != nil {
		return deviceconfig.NewStorageError("failed to write record", err)
	}
	return nil
}

func newFileRecord(cfg deviceconfig.SystemConfig) fileRecord {
	rec := fileRecord{
		Configured:   cfg.Configured.String(),
		SSID:         cfg.SSID,
		Channel:      cfg.Channel,
		Security:     cfg.Security.String(),
		Key:          hex.EncodeToString(cfg.Key.Bytes()),
		DHCP:         cfg.DHCPEnabled,
		LocalIP:      cfg.LocalIP,
		NetMask:      cfg.NetMask,
		Gateway:      cfg.Gateway,
		DNSServer:    cfg.DNSServer,
		RFPowerSave:  cfg.RFPowerSave,
		MCUPowerSave: cfg.MCUPowerSave,
		ConfigServer: cfg.ConfigServerEnabled,
		Name:         cfg.Name,
	}
	if !cfg.BSSID.IsZero() {
		rec.BSSID = cfg.BSSID.String()
	}
	return rec
}

func (r fileRecord) toSystemConfig() (deviceconfig.SystemConfig, error) {
	flag, err := deviceconfig.ParseConfiguredFlag(r.Configured)
	if err != nil {
		return deviceconfig.SystemConfig{}, err
	}
	sec, err := deviceconfig.ParseSecurity(r.Security)
	if err != nil {
		return deviceconfig.SystemConfig{}, err
	}
	bssid, err := deviceconfig.ParseBSSID(r.BSSID)
	if err != nil {
		return deviceconfig.SystemConfig{}, err
	}
	raw, err := hex.DecodeString(r.Key)
	if err != nil {
		return deviceconfig.SystemConfig{}, fmt.Errorf("key is not hex: %w", err)
	}
	key, err := deviceconfig.NewKey(raw)
	if err != nil {
		return deviceconfig.SystemConfig{}, err
	}

	return deviceconfig.SystemConfig{
		Configured:          flag,
		SSID:                deviceconfig.BoundString(r.SSID, deviceconfig.MaxSSIDLen),
		BSSID:               bssid,
		Channel:             r.Channel,
		Security:            sec,
		Key:                 key,
		DHCPEnabled:         r.DHCP,
		LocalIP:             r.LocalIP,
		NetMask:             r.NetMask,
		Gateway:             r.Gateway,
		DNSServer:           r.DNSServer,
		RFPowerSave:         r.RFPowerSave,
		MCUPowerSave:        r.MCUPowerSave,
		ConfigServerEnabled: r.ConfigServer,
		Name:                deviceconfig.BoundString(r.Name, deviceconfig.MaxNameLen),
	}, nil
}

// flashImageVersion is bumped whenever flashImage changes incompatibly.
const flashImageVersion = 1

// FlashStore keeps the record as a compact CBOR image, the layout used on
// the device's serial flash. Integer map keys keep the image small.
type FlashStore struct {
	Path string
}

type flashImage struct {
	Version    uint8  `cbor:"0,keyasint"`
	Configured uint8  `cbor:"1,keyasint"`
	SSID       string `cbor:"2,keyasint"`
	BSSID      []byte `cbor:"3,keyasint,omitempty"`
	Channel    int    `cbor:"4,keyasint"`
	Security   uint8  `cbor:"5,keyasint"`
	Key        []byte `cbor:"6,keyasint,omitempty"`
	KeyLen     int    `cbor:"7,keyasint"`

	DHCP      bool   `cbor:"8,keyasint"`
	LocalIP   string `cbor:"9,keyasint,omitempty"`
	NetMask   string `cbor:"10,keyasint,omitempty"`
	Gateway   string `cbor:"11,keyasint,omitempty"`
	DNSServer string `cbor:"12,keyasint,omitempty"`

	RFPowerSave  bool `cbor:"13,keyasint"`
	MCUPowerSave bool `cbor:"14,keyasint"`
	ConfigServer bool `cbor:"15,keyasint"`

	Name string `cbor:"16,keyasint"`
}

var (
	flashEnc cbor.EncMode
	flashDec cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:        cbor.SortCanonical,
		IndefLength: cbor.IndefLengthForbidden,
	}
	flashEnc, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey: cbor.DupMapKeyEnforcedAPF,
	}
	flashDec, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create CBOR decoder mode: %v", err))
	}
}

// Load reads the flash image. A missing or erased image is a factory-fresh device.
func (s *FlashStore) Load() (deviceconfig.SystemConfig, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) || (err == nil && erased(data)) {
		return deviceconfig.DefaultSystemConfig(), nil
	}
	if err != nil {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError("failed to read flash image", err)
	}

	var img flashImage
	if err := flashDec.Unmarshal(data, &img); err != nil {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError("failed to decode flash image", err)
	}
	if img.Version != flashImageVersion {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError(
			fmt.Sprintf("unsupported flash image version %d (expected %d)", img.Version, flashImageVersion), nil)
	}

	flag := deviceconfig.ConfiguredFlag(img.Configured)
	if !flag.Valid() {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError(
			fmt.Sprintf("invalid flash image: unknown configured flag %d", img.Configured), nil)
	}
	sec := deviceconfig.Security(img.Security)
	if !sec.Valid() {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError(
			fmt.Sprintf("invalid flash image: unknown security mode %d", img.Security), nil)
	}
	bssid, err := deviceconfig.BSSIDFromBytes(img.BSSID)
	if err != nil {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError("invalid flash image", err)
	}
	key, err := deviceconfig.KeyFromBuffer(img.Key, img.KeyLen)
	if err != nil {
		return deviceconfig.SystemConfig{}, deviceconfig.NewStorageError("invalid flash image", err)
	}

	return deviceconfig.SystemConfig{
		Configured:          flag,
		SSID:                deviceconfig.BoundString(img.SSID, deviceconfig.MaxSSIDLen),
		BSSID:               bssid,
		Channel:             img.Channel,
		Security:            sec,
		Key:                 key,
		DHCPEnabled:         img.DHCP,
		LocalIP:             img.LocalIP,
		NetMask:             img.NetMask,
		Gateway:             img.Gateway,
		DNSServer:           img.DNSServer,
		RFPowerSave:         img.RFPowerSave,
		MCUPowerSave:        img.MCUPowerSave,
		ConfigServerEnabled: img.ConfigServer,
		Name:                deviceconfig.BoundString(img.Name, deviceconfig.MaxNameLen),
	}, nil
}

// Save writes a new flash image atomically.
func (s *FlashStore) Save(cfg deviceconfig.SystemConfig) error {
	img := flashImage{
		Version:      flashImageVersion,
		Configured:   uint8(cfg.Configured),
		SSID:         cfg.SSID,
		Channel:      cfg.Channel,
		Security:     uint8(cfg.Security),
		Key:          cfg.Key.Bytes(),
		KeyLen:       cfg.Key.Len(),
		DHCP:         cfg.DHCPEnabled,
		LocalIP:      cfg.LocalIP,
		NetMask:      cfg.NetMask,
		Gateway:      cfg.Gateway,
		DNSServer:    cfg.DNSServer,
		RFPowerSave:  cfg.RFPowerSave,
		MCUPowerSave: cfg.MCUPowerSave,
		ConfigServer: cfg.ConfigServerEnabled,
		Name:         cfg.Name,
	}
	if !cfg.BSSID.IsZero() {
		img.BSSID = cfg.BSSID[:]
	}

	data, err := flashEnc.Marshal(img)
	if err != nil {
		return deviceconfig.NewStorageError("failed to encode flash image", err)
	}
	if err := writeFileAtomic(s.Path, data); err != nil {
		return deviceconfig.NewStorageError("failed to write flash image", err)
	}
	return nil
}

// erased reports whether data looks like erased flash (empty or all 0xFF).
func erased(data []byte) bool {
	for _, b := range data {
		if b != 0xFF {
			return false
		}
	}
	return true
}
