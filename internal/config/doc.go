// Package config loads the device daemon's runtime options and persists
// the device configuration record.
//
// # Runtime Options
//
// Options live in a YAML file at a platform-appropriate location:
//   - Linux: $XDG_CONFIG_HOME/smartap-device/device.yaml or $HOME/.config/smartap-device/device.yaml
//   - macOS: $HOME/.config/smartap-device/device.yaml
//   - Windows: %LOCALAPPDATA%\smartap-device\device.yaml
//
// A missing file yields DefaultOptions. Variables prefixed SMARTAP_DEVICE_
// override file values (SMARTAP_DEVICE_STORAGE, SMARTAP_DEVICE_MQTT_BROKER, ...).
//
//	opts, err := config.LoadOptions("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Record Backends
//
// The persisted SystemConfig is stored by a Backend:
//   - FileStore writes editable YAML, hex encoding BSSID and key material
//   - FlashStore writes a compact CBOR image with integer keys; an empty or
//     all-0xFF image reads as factory defaults
//
// Both write to a temporary file and rename it into place.
//
// # Configurator Registry
//
// Registry is the configurator's list of devices it has discovered, keyed by
// MAC, with optional nicknames. Passwords are never stored.
package config
