package deviceconfig

import (
	"fmt"
	"net"
	"strings"
)

// ValidateWiFiSSID validates a WiFi SSID.
// SSIDs must be non-empty and <= 32 bytes (WiFi spec limit).
func ValidateWiFiSSID(ssid string) error {
	if ssid == "" {
		return NewValidationError("WiFi SSID cannot be empty")
	}
	if len(ssid) > MaxSSIDLen {
		return NewValidationError(fmt.Sprintf("WiFi SSID too long (max %d bytes): %d bytes", MaxSSIDLen, len(ssid)))
	}
	return nil
}

// ValidateWiFiPassword validates a WiFi password for the given security type.
// WPA/WPA2 passphrases are 8-63 characters, a 64 character value is a raw hex PSK.
// Open networks take no password.
func ValidateWiFiPassword(password string, securityType string) error {
	switch strings.ToUpper(securityType) {
	case "OPEN":
		if password != "" {
			return NewValidationError("WiFi password should be empty for open networks")
		}
	case "WEP":
		if n := len(password); n != 5 && n != 13 && n != 10 && n != 26 {
			return NewValidationError(fmt.Sprintf("WEP key must be 5, 10, 13 or 26 chars: %d chars", n))
		}
	case "AUTO":
		if len(password) > MaxKeyLen {
			return NewValidationError(fmt.Sprintf("WiFi password too long (max %d chars): %d chars", MaxKeyLen, len(password)))
		}
	default:
		if password == "" {
			return NewValidationError(fmt.Sprintf("WiFi password required for %s security", securityType))
		}
		if len(password) < 8 {
			return NewValidationError(fmt.Sprintf("%s password too short (min 8 chars): %d chars", securityType, len(password)))
		}
		if len(password) > MaxKeyLen {
			return NewValidationError(fmt.Sprintf("%s password too long (max %d chars): %d chars", securityType, MaxKeyLen, len(password)))
		}
	}
	return nil
}

// ValidateWiFiSecurityType validates the WiFi security type name.
func ValidateWiFiSecurityType(securityType string) error {
	_, err := ParseSecurity(securityType)
	return err
}

// ValidateWiFiConfig validates a complete WiFi configuration.
// Returns a slice of validation errors (empty if valid).
func ValidateWiFiConfig(config *WiFiConfig) []error {
	var errors []error

	if err := ValidateWiFiSSID(config.SSID); err != nil {
		errors = append(errors, err)
	}

	if err := ValidateWiFiSecurityType(config.SecurityType); err != nil {
		errors = append(errors, err)
		return errors
	}

	if err := ValidateWiFiPassword(config.Password, config.SecurityType); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// ValidateIPv4 validates a dotted-quad address that must fit the record bound.
func ValidateIPv4(field, value string) error {
	if len(value) >= MaxIPLen {
		return NewValidationError(fmt.Sprintf("%s too long: %q", field, value))
	}
	ip := net.ParseIP(value)
	if ip == nil || ip.To4() == nil {
		return NewValidationError(fmt.Sprintf("%s is not an IPv4 address: %q", field, value))
	}
	return nil
}

// ValidateSystemConfig checks the record bounds and, for static addressing,
// the four address strings. It does not require an SSID: a record flagged
// Configured with an empty SSID is accepted and simply fails to associate.
func ValidateSystemConfig(cfg SystemConfig) []error {
	var errors []error

	if len(cfg.SSID) > MaxSSIDLen {
		errors = append(errors, NewValidationError(fmt.Sprintf("SSID exceeds %d bytes", MaxSSIDLen)))
	}
	if cfg.Channel < 0 || cfg.Channel > 14 {
		errors = append(errors, NewValidationError(fmt.Sprintf("channel must be 0-14, got %d", cfg.Channel)))
	}
	if len(cfg.Name) > MaxNameLen {
		errors = append(errors, NewValidationError(fmt.Sprintf("device name exceeds %d bytes", MaxNameLen)))
	}

	if !cfg.DHCPEnabled {
		for _, f := range []struct{ name, value string }{
			{"local IP", cfg.LocalIP},
			{"netmask", cfg.NetMask},
			{"gateway", cfg.Gateway},
			{"DNS server", cfg.DNSServer},
		} {
			if err := ValidateIPv4(f.name, f.value); err != nil {
				errors = append(errors, err)
			}
		}
	}

	return errors
}

// FormatValidationErrors formats a slice of validation errors into a user-friendly message.
func FormatValidationErrors(errors []error) string {
	if len(errors) == 0 {
		return "No validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Configuration validation failed with %d error(s):\n", len(errors)))

	for i, err := range errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return sb.String()
}
