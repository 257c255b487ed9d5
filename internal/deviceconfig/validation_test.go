package deviceconfig

import (
	"strings"
	"testing"
)

func TestValidateWiFiConfig(t *testing.T) {
	tests := []struct {
		name    string
		config  WiFiConfig
		wantErr bool
	}{
		{"valid WPA2", WiFiConfig{SSID: "HomeNet", Password: "password123", SecurityType: "WPA2"}, false},
		{"valid open", WiFiConfig{SSID: "Cafe", SecurityType: "OPEN"}, false},
		{"empty SSID", WiFiConfig{SSID: "", Password: "password123", SecurityType: "WPA2"}, true},
		{"long SSID", WiFiConfig{SSID: strings.Repeat("s", 33), Password: "password123", SecurityType: "WPA2"}, true},
		{"short password", WiFiConfig{SSID: "HomeNet", Password: "short", SecurityType: "WPA2"}, true},
		{"open with password", WiFiConfig{SSID: "Cafe", Password: "password123", SecurityType: "OPEN"}, true},
		{"unknown security", WiFiConfig{SSID: "HomeNet", Password: "password123", SecurityType: "WPA9"}, true},
		{"WEP 13", WiFiConfig{SSID: "Old", Password: "abcdefghijklm", SecurityType: "WEP"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := ValidateWiFiConfig(&tt.config)
			if (len(errs) > 0) != tt.wantErr {
				t.Errorf("ValidateWiFiConfig() errors = %v, wantErr %v", errs, tt.wantErr)
			}
		})
	}
}

func TestValidateSystemConfigStatic(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.DHCPEnabled = false
	cfg.LocalIP = "192.168.1.50"
	cfg.NetMask = "255.255.255.0"
	cfg.Gateway = "192.168.1.1"
	cfg.DNSServer = "8.8.8.8"

	if errs := ValidateSystemConfig(cfg); len(errs) != 0 {
		t.Errorf("ValidateSystemConfig() = %v, want no errors", errs)
	}

	cfg.Gateway = "gateway.local"
	if errs := ValidateSystemConfig(cfg); len(errs) != 1 {
		t.Errorf("ValidateSystemConfig() = %v, want one error", errs)
	}
}

func TestValidateSystemConfigAcceptsEmptySSID(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.Configured = Configured

	if errs := ValidateSystemConfig(cfg); len(errs) != 0 {
		t.Errorf("ValidateSystemConfig() = %v, want no errors", errs)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	if got := FormatValidationErrors(nil); got != "No validation errors" {
		t.Errorf("FormatValidationErrors(nil) = %q", got)
	}

	msg := FormatValidationErrors([]error{NewValidationError("a"), NewValidationError("b")})
	if !strings.Contains(msg, "2 error(s)") {
		t.Errorf("FormatValidationErrors() = %q", msg)
	}
}
