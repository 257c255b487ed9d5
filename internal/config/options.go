package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends for the persisted device record.
const (
	BackendYAML  = "yaml"
	BackendFlash = "flash"
)

// Provisioning modes for an unconfigured device.
const (
	ProvisioningEasyLink = "easylink"
	ProvisioningWAC      = "wac"
)

// EnvPrefix prefixes every environment override of the options file.
const EnvPrefix = "SMARTAP_DEVICE_"

// Options are the daemon's runtime options.
type Options struct {
	DataDir      string              `yaml:"data_dir"`
	Storage      StorageOptions      `yaml:"storage"`
	Lifecycle    LifecycleOptions    `yaml:"lifecycle"`
	Watchdog     WatchdogOptions     `yaml:"watchdog"`
	Provisioning ProvisioningOptions `yaml:"provisioning"`
	Server       ServerOptions       `yaml:"server"`
	Uplink       UplinkOptions       `yaml:"uplink"`
	Log          LogOptions          `yaml:"log"`
}

type StorageOptions struct {
	Backend string `yaml:"backend"`
}

// LifecycleOptions tune the system state controller.
type LifecycleOptions struct {
	// ResetGrace is slept between the power-off notification and a reboot
	// or radio power-down.
	ResetGrace time.Duration `yaml:"reset_grace"`
	// StandbyGrace is the shorter sleep before entering standby.
	StandbyGrace time.Duration `yaml:"standby_grace"`
	// SignalInitial is the starting count of the state-change signal, 0 or 1.
	// The signal is binary whatever the starting count.
	SignalInitial int `yaml:"signal_initial"`
	// Identity overrides the application identity answered to ReadAppInfo.
	Identity string `yaml:"identity,omitempty"`
}

type WatchdogOptions struct {
	Enabled bool          `yaml:"enabled"`
	Timeout time.Duration `yaml:"timeout"`
}

type ProvisioningOptions struct {
	Mode    string        `yaml:"mode"`
	Timeout time.Duration `yaml:"timeout"`
	Serial  string        `yaml:"serial"`
}

// ServerOptions configure the local configuration server.
type ServerOptions struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// TLS is enabled when both files are set.
	CertFile string `yaml:"cert_file,omitempty"`
	KeyFile  string `yaml:"key_file,omitempty"`
}

// UplinkOptions configure the MQTT application layer. An empty Broker
// disables the uplink.
type UplinkOptions struct {
	Broker   string `yaml:"broker"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	QoS      byte   `yaml:"qos"`
}

type LogOptions struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty"`
}

// DefaultOptions returns the options used when no file exists.
func DefaultOptions() *Options {
	dataDir := filepath.Join(os.TempDir(), DeviceApp)
	if dir, err := GetConfigDir(DeviceApp); err == nil {
		dataDir = filepath.Join(dir, "data")
	}

	return &Options{
		DataDir: dataDir,
		Storage: StorageOptions{Backend: BackendYAML},
		Lifecycle: LifecycleOptions{
			ResetGrace:   500 * time.Millisecond,
			StandbyGrace: 200 * time.Millisecond,
		},
		Watchdog: WatchdogOptions{
			Enabled: true,
			Timeout: 5 * time.Second,
		},
		Provisioning: ProvisioningOptions{
			Mode:    ProvisioningEasyLink,
			Timeout: 1200 * time.Second,
		},
		Server: ServerOptions{
			Addr:     ":8080",
			Username: "SmarTap",
			Password: "yeswecan",
		},
		Log: LogOptions{Level: "info"},
	}
}

// LoadOptions reads the options file at path (DefaultOptionsPath when empty),
// applies environment overrides and validates the result. A missing file
// yields the defaults.
func LoadOptions(path string) (*Options, error) {
	if path == "" {
		p, err := DefaultOptionsPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get options path: %w", err)
		}
		path = p
	}

	opts := DefaultOptions()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read options file: %w", err)
	default:
		if err := yaml.Unmarshal(data, opts); err != nil {
			return nil, fmt.Errorf("failed to parse options file: %w", err)
		}
	}

	if err := opts.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}

// ApplyEnv overrides fields from SMARTAP_DEVICE_* variables.
func (o *Options) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(EnvPrefix + name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("DATA_DIR", &o.DataDir)
	str("STORAGE", &o.Storage.Backend)
	str("PROVISIONING_MODE", &o.Provisioning.Mode)
	str("SERIAL", &o.Provisioning.Serial)
	str("SERVER_ADDR", &o.Server.Addr)
	str("MQTT_BROKER", &o.Uplink.Broker)
	str("LOG_LEVEL", &o.Log.Level)
	str("LOG_FILE", &o.Log.File)

	if err := dur("WATCHDOG_TIMEOUT", &o.Watchdog.Timeout); err != nil {
		return err
	}
	if err := dur("PROVISIONING_TIMEOUT", &o.Provisioning.Timeout); err != nil {
		return err
	}
	if v, ok := lookup(EnvPrefix + "WATCHDOG"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sWATCHDOG: %w", EnvPrefix, err)
		}
		o.Watchdog.Enabled = b
	}
	return nil
}

// Validate checks option values that would otherwise fail late at boot.
func (o *Options) Validate() error {
	var errs []error

	if o.DataDir == "" {
		errs = append(errs, errors.New("data_dir must be set"))
	}
	switch o.Storage.Backend {
	case BackendYAML, BackendFlash:
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be %q or %q, got %q", BackendYAML, BackendFlash, o.Storage.Backend))
	}
	switch o.Provisioning.Mode {
	case ProvisioningEasyLink, ProvisioningWAC:
	default:
		errs = append(errs, fmt.Errorf("provisioning.mode must be %q or %q, got %q", ProvisioningEasyLink, ProvisioningWAC, o.Provisioning.Mode))
	}
	if o.Watchdog.Enabled && o.Watchdog.Timeout <= 100*time.Millisecond {
		errs = append(errs, fmt.Errorf("watchdog.timeout must exceed 100ms, got %s", o.Watchdog.Timeout))
	}
	if o.Lifecycle.ResetGrace < 0 || o.Lifecycle.StandbyGrace < 0 {
		errs = append(errs, errors.New("lifecycle grace intervals cannot be negative"))
	}
	if (o.Server.CertFile == "") != (o.Server.KeyFile == "") {
		errs = append(errs, errors.New("server.cert_file and server.key_file must be set together"))
	}
	if o.Lifecycle.SignalInitial < 0 || o.Lifecycle.SignalInitial > 1 {
		errs = append(errs, fmt.Errorf("lifecycle.signal_initial must be 0 or 1, got %d", o.Lifecycle.SignalInitial))
	}

	return errors.Join(errs...)
}

// RecordPath returns the file holding the persisted device record.
func (o *Options) RecordPath() string {
	if o.Storage.Backend == BackendFlash {
		return filepath.Join(o.DataDir, "system.cbor")
	}
	return filepath.Join(o.DataDir, "system.yaml")
}

// Save writes the options to path atomically.
func (o *Options) Save(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}
	header := []byte("# Smartap device daemon options\n# Environment variables prefixed " + EnvPrefix + " override these values.\n\n")
	return writeFileAtomic(path, append(header, data...))
}
