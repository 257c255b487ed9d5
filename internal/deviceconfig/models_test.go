package deviceconfig

import (
	"errors"
	"strings"
	"testing"
)

func TestKeyEqualIgnoresPadding(t *testing.T) {
	bufA := []byte("secretpw\x00\x00\x00\x00")
	bufB := []byte("secretpwXYZW")

	a, err := KeyFromBuffer(bufA, 8)
	if err != nil {
		t.Fatalf("KeyFromBuffer() error = %v", err)
	}
	b, err := KeyFromBuffer(bufB, 8)
	if err != nil {
		t.Fatalf("KeyFromBuffer() error = %v", err)
	}

	if !a.Equal(b) {
		t.Error("keys differing only past the declared length should be equal")
	}
}

func TestKeyEqualDetectsSingleByte(t *testing.T) {
	a, _ := NewKey([]byte("secretpw"))
	b, _ := NewKey([]byte("secretpX"))

	if a.Equal(b) {
		t.Error("keys differing in one byte should not be equal")
	}
}

func TestKeyEqualDetectsLength(t *testing.T) {
	a, _ := NewKey([]byte("secret"))
	b, _ := NewKey([]byte("secret\x00"))

	if a.Equal(b) {
		t.Error("keys with different declared lengths should not be equal")
	}
}

func TestNewKeyRejectsOverlong(t *testing.T) {
	_, err := NewKey([]byte(strings.Repeat("k", MaxKeyLen+1)))
	if !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("NewKey() error = %v, want ErrKeyTooLong", err)
	}

	k, err := NewKey([]byte(strings.Repeat("k", MaxKeyLen)))
	if err != nil {
		t.Fatalf("NewKey() at bound error = %v", err)
	}
	if k.Len() != MaxKeyLen {
		t.Errorf("Len() = %d, want %d", k.Len(), MaxKeyLen)
	}
}

func TestKeyFromBufferBadLength(t *testing.T) {
	if _, err := KeyFromBuffer([]byte("abc"), 4); err == nil {
		t.Error("expected error for declared length beyond buffer")
	}
	if _, err := KeyFromBuffer([]byte("abc"), -1); err == nil {
		t.Error("expected error for negative declared length")
	}
}

func TestKeyStringHidesMaterial(t *testing.T) {
	k, _ := NewKey([]byte("hunter22"))
	if strings.Contains(k.String(), "hunter") {
		t.Errorf("String() leaked key material: %s", k.String())
	}
}

func TestBSSIDParseAndString(t *testing.T) {
	b, err := ParseBSSID("c4:be:84:74:86:37")
	if err != nil {
		t.Fatalf("ParseBSSID() error = %v", err)
	}
	if got := b.String(); got != "c4:be:84:74:86:37" {
		t.Errorf("String() = %s", got)
	}

	other := b
	other[5] ^= 0x01
	if b == other {
		t.Error("BSSIDs differing in one byte compared equal")
	}

	if _, err := ParseBSSID("not-a-mac"); err == nil {
		t.Error("expected error for invalid BSSID")
	}
}

func TestConnectionRequestDHCP(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.Configured = Configured
	cfg.SSID = "HomeNet"
	cfg.LocalIP = "10.0.0.9"

	req := cfg.ConnectionRequest()
	if req.AP.SSID != "HomeNet" {
		t.Errorf("SSID = %q, want HomeNet", req.AP.SSID)
	}
	if req.DHCP != DHCPClient {
		t.Errorf("DHCP = %v, want client", req.DHCP)
	}
	if req.Static != (NetInfo{}) {
		t.Errorf("static addressing should be empty with DHCP, got %+v", req.Static)
	}
	if req.RetryInterval != DefaultRetryInterval {
		t.Errorf("RetryInterval = %v", req.RetryInterval)
	}
}

func TestConnectionRequestStatic(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.DHCPEnabled = false
	cfg.LocalIP = "192.168.1.50"
	cfg.NetMask = "255.255.255.0"
	cfg.Gateway = "192.168.1.1"
	cfg.DNSServer = "192.168.1.1"
	cfg.Key, _ = NewKey([]byte("password1"))

	req := cfg.ConnectionRequest()
	if req.DHCP != DHCPDisabled {
		t.Errorf("DHCP = %v, want disabled", req.DHCP)
	}
	want := NetInfo{IP: "192.168.1.50", Mask: "255.255.255.0", Gateway: "192.168.1.1", DNS: "192.168.1.1"}
	if req.Static != want {
		t.Errorf("Static = %+v, want %+v", req.Static, want)
	}
	if !req.Key.Equal(cfg.Key) {
		t.Error("key not carried into request")
	}
}

func TestEnumValid(t *testing.T) {
	if !Configured.Valid() || !Unconfigured.Valid() || ConfiguredFlag(3).Valid() {
		t.Error("ConfiguredFlag.Valid accepts exactly the defined flags")
	}
	if !SecurityAuto.Valid() || !SecurityNone.Valid() || Security(8).Valid() {
		t.Error("Security.Valid accepts exactly the defined modes")
	}
}

func TestIsConfiguredIsFlagOnly(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.Configured = Configured
	if !cfg.IsConfigured() {
		t.Error("configured flag with empty SSID should still count as configured")
	}

	cfg.Configured = WLANUnconfigured
	if cfg.IsConfigured() {
		t.Error("WLANUnconfigured should not count as configured")
	}
}

func TestParseSecurity(t *testing.T) {
	tests := []struct {
		in   string
		want Security
	}{
		{"WPA2", SecurityWPA2AES},
		{"wpa2", SecurityWPA2AES},
		{"OPEN", SecurityNone},
		{"auto", SecurityAuto},
	}
	for _, tt := range tests {
		got, err := ParseSecurity(tt.in)
		if err != nil {
			t.Errorf("ParseSecurity(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseSecurity(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParseSecurity("WPA3"); !IsValidationError(err) {
		t.Errorf("ParseSecurity(WPA3) error = %v, want validation error", err)
	}
}
