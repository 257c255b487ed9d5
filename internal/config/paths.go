package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Application directory names.
const (
	DeviceApp       = "smartap-device"
	ConfiguratorApp = "smartap-cfg"

	optionsFile  = "device.yaml"
	registryFile = "devices.yaml"
)

// GetConfigDir returns the OS-appropriate configuration directory for app.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/<app> or $HOME/.config/<app>
//   - macOS: $HOME/.config/<app> (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\<app>
func GetConfigDir(app string) (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", app)
		} else {
			baseDir = filepath.Join(localAppData, app)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", app)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, app)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", app)
		}
	}

	return baseDir, nil
}

// DefaultOptionsPath returns where the device daemon looks for its options file.
func DefaultOptionsPath() (string, error) {
	dir, err := GetConfigDir(DeviceApp)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, optionsFile), nil
}

// DefaultRegistryPath returns where the configurator keeps its known-device list.
func DefaultRegistryPath() (string, error) {
	dir, err := GetConfigDir(ConfiguratorApp)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, registryFile), nil
}

// writeFileAtomic writes data next to path and renames it into place,
// so a crash mid-write never leaves a truncated file behind.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
