package deviceconfig

import (
	"fmt"
	"strings"
)

// Summary returns a one-line summary of the device view
func (v *DeviceView) Summary() string {
	return fmt.Sprintf("%s [%s] %s (FW: %s)", v.Name, v.MAC, v.Configured, v.SWVer)
}

// FormatDeviceInfo returns a formatted string with device identification information
func (v *DeviceView) FormatDeviceInfo() string {
	var b strings.Builder

	b.WriteString("=== Device Information ===\n")
	b.WriteString(fmt.Sprintf("Name:           %s\n", v.Name))
	b.WriteString(fmt.Sprintf("MAC Address:    %s\n", v.MAC))
	b.WriteString(fmt.Sprintf("Firmware:       %s\n", v.SWVer))
	b.WriteString(fmt.Sprintf("Network Stack:  %s\n", v.WNPVer))
	b.WriteString(fmt.Sprintf("Record:         %s\n", v.Configured))
	b.WriteString(fmt.Sprintf("System State:   %s\n", v.State))

	return b.String()
}

// FormatWiFiConfig returns a formatted string with WiFi configuration
func (v *DeviceView) FormatWiFiConfig() string {
	var b strings.Builder

	b.WriteString("=== WiFi Configuration ===\n")
	if len(v.SSIDList) > 0 {
		b.WriteString(fmt.Sprintf("Network:        %s\n", strings.Join(v.SSIDList, ", ")))
	} else {
		b.WriteString("Network:        (none)\n")
	}
	if v.BSSID != "" {
		b.WriteString(fmt.Sprintf("BSSID:          %s\n", v.BSSID))
	}
	b.WriteString(fmt.Sprintf("Channel:        %d\n", v.Channel))
	b.WriteString(fmt.Sprintf("Security:       %s\n", v.Security))

	return b.String()
}

// FormatAddressing returns a formatted string with the current addressing
func (v *DeviceView) FormatAddressing() string {
	var b strings.Builder

	mode := "static"
	if v.DHCP {
		mode = "DHCP"
	}
	b.WriteString("=== Addressing ===\n")
	b.WriteString(fmt.Sprintf("Mode:           %s\n", mode))
	b.WriteString(fmt.Sprintf("IP Address:     %s\n", orNone(v.IP)))
	b.WriteString(fmt.Sprintf("Netmask:        %s\n", orNone(v.NetMask)))
	b.WriteString(fmt.Sprintf("Gateway:        %s\n", orNone(v.Gateway)))
	b.WriteString(fmt.Sprintf("DNS Server:     %s\n", orNone(v.DNS)))

	return b.String()
}

// FormatPowerConfig returns a formatted string with the power-save flags
func (v *DeviceView) FormatPowerConfig() string {
	var b strings.Builder

	b.WriteString("=== Power Save ===\n")
	b.WriteString(fmt.Sprintf("RF Power Save:  %v\n", v.RFPowerSave))
	b.WriteString(fmt.Sprintf("MCU Power Save: %v\n", v.LowPowerMode))

	return b.String()
}

// FormatCompact returns a compact multi-line format suitable for terminal display
func (v *DeviceView) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Device:  %s (MAC: %s)\n", v.Name, v.MAC))
	b.WriteString(fmt.Sprintf("Record:  %s, state %s\n", v.Configured, v.State))
	b.WriteString(fmt.Sprintf("WiFi:    %s (%s, ch %d)\n", strings.Join(v.SSIDList, ", "), v.Security, v.Channel))
	b.WriteString(fmt.Sprintf("IP:      %s\n", orNone(v.IP)))

	return b.String()
}

// FormatDetailed returns a comprehensive formatted string with all configuration details
func (v *DeviceView) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(v.FormatDeviceInfo())
	b.WriteString("\n")
	b.WriteString(v.FormatWiFiConfig())
	b.WriteString("\n")
	b.WriteString(v.FormatAddressing())
	b.WriteString("\n")
	b.WriteString(v.FormatPowerConfig())

	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
