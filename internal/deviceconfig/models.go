package deviceconfig

import (
	"bytes"
	"fmt"
	"net"
	"strings"
	"time"
)

// Field bounds of the persisted record.
const (
	MaxSSIDLen = 32 // 802.11 SSID limit
	MaxKeyLen  = 64 // WPA passphrase or raw PSK
	MaxIPLen   = 16 // dotted quad plus terminator
	MaxNameLen = 32
	BSSIDLen   = 6
)

// DefaultRetryInterval is how long the network stack waits between association attempts.
const DefaultRetryInterval = 100 * time.Millisecond

// ConfiguredFlag records whether the persisted record holds usable network credentials.
type ConfiguredFlag uint8

const (
	// Unconfigured is a factory-fresh record.
	Unconfigured ConfiguredFlag = iota
	// WLANUnconfigured means the user cleared the network credentials but
	// kept the rest of the record (short button press).
	WLANUnconfigured
	// Configured means credentials were provisioned.
	Configured
)

// String returns the flag name.
func (f ConfiguredFlag) String() string {
	switch f {
	case Unconfigured:
		return "unconfigured"
	case WLANUnconfigured:
		return "wlan-unconfigured"
	case Configured:
		return "configured"
	default:
		return fmt.Sprintf("ConfiguredFlag(%d)", f)
	}
}

// Valid reports whether f is one of the defined flags.
func (f ConfiguredFlag) Valid() bool {
	return f <= Configured
}

// ParseConfiguredFlag accepts the names produced by String.
func ParseConfiguredFlag(name string) (ConfiguredFlag, error) {
	for _, f := range []ConfiguredFlag{Unconfigured, WLANUnconfigured, Configured} {
		if f.String() == name {
			return f, nil
		}
	}
	return Unconfigured, NewValidationError(fmt.Sprintf("unknown configured flag %q", name))
}

// Security is the access point security mode.
type Security uint8

const (
	SecurityNone Security = iota
	SecurityWEP
	SecurityWPATKIP
	SecurityWPAAES
	SecurityWPA2TKIP
	SecurityWPA2AES
	SecurityWPA2Mixed
	SecurityAuto
)

var securityNames = map[Security]string{
	SecurityNone:      "OPEN",
	SecurityWEP:       "WEP",
	SecurityWPATKIP:   "WPA-TKIP",
	SecurityWPAAES:    "WPA-AES",
	SecurityWPA2TKIP:  "WPA2-TKIP",
	SecurityWPA2AES:   "WPA2",
	SecurityWPA2Mixed: "WPA2-MIXED",
	SecurityAuto:      "AUTO",
}

// String returns the security name used on the configuration form.
func (s Security) String() string {
	if name, ok := securityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Security(%d)", s)
}

// Valid reports whether s is one of the defined modes.
func (s Security) Valid() bool {
	_, ok := securityNames[s]
	return ok
}

// ParseSecurity accepts the names produced by String, case-insensitively.
func ParseSecurity(name string) (Security, error) {
	for s, n := range securityNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return SecurityAuto, NewValidationError(fmt.Sprintf("unknown security type %q", name))
}

// BSSID is the 6-byte hardware address of an access point.
// Compared with == (byte-for-byte).
type BSSID [BSSIDLen]byte

// String renders the BSSID as colon-separated hex.
func (b BSSID) String() string {
	return net.HardwareAddr(b[:]).String()
}

// IsZero reports whether no BSSID is pinned.
func (b BSSID) IsZero() bool {
	return b == BSSID{}
}

// ParseBSSID parses a colon- or dash-separated MAC-48 address.
func ParseBSSID(s string) (BSSID, error) {
	var b BSSID
	if s == "" {
		return b, nil
	}
	hw, err := net.ParseMAC(s)
	if err != nil || len(hw) != BSSIDLen {
		return b, NewValidationError(fmt.Sprintf("invalid BSSID %q", s))
	}
	copy(b[:], hw)
	return b, nil
}

// BSSIDFromBytes copies a 6-byte slice into a BSSID.
func BSSIDFromBytes(raw []byte) (BSSID, error) {
	var b BSSID
	if len(raw) == 0 {
		return b, nil
	}
	if len(raw) != BSSIDLen {
		return b, NewValidationError(fmt.Sprintf("BSSID must be %d bytes, got %d", BSSIDLen, len(raw)))
	}
	copy(b[:], raw)
	return b, nil
}

// Key is bounded key material: a fixed-capacity buffer plus an explicit length.
// Bytes past the length are always zero, so copies never leak stale material.
type Key struct {
	buf [MaxKeyLen]byte
	n   int
}

// NewKey copies b into a Key. Material longer than MaxKeyLen is rejected.
func NewKey(b []byte) (Key, error) {
	var k Key
	if len(b) > MaxKeyLen {
		return k, fmt.Errorf("%w: %d bytes (max %d)", ErrKeyTooLong, len(b), MaxKeyLen)
	}
	k.n = copy(k.buf[:], b)
	return k, nil
}

// KeyFromBuffer builds a Key from a raw buffer and its declared length.
// Only buf[:n] is used; whatever follows in buf is ignored.
func KeyFromBuffer(buf []byte, n int) (Key, error) {
	if n < 0 || n > len(buf) {
		return Key{}, NewValidationError(fmt.Sprintf("declared key length %d outside buffer of %d bytes", n, len(buf)))
	}
	return NewKey(buf[:n])
}

// Len returns the declared key length.
func (k Key) Len() int { return k.n }

// Bytes returns a copy of the key material.
func (k Key) Bytes() []byte {
	return append([]byte(nil), k.buf[:k.n]...)
}

// Equal compares length and material within the declared length.
func (k Key) Equal(o Key) bool {
	return k.n == o.n && bytes.Equal(k.buf[:k.n], o.buf[:o.n])
}

// String never reveals key material.
func (k Key) String() string {
	return fmt.Sprintf("Key(%d bytes)", k.n)
}

// BoundString truncates s to max bytes, the way the record stores bounded text.
func BoundString(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}

// SystemConfig is the persisted device configuration record.
// It is a plain value: assigning it copies every field, key material included.
type SystemConfig struct {
	Configured ConfiguredFlag

	// Access point
	SSID     string
	BSSID    BSSID
	Channel  int
	Security Security
	Key      Key

	// Addressing
	DHCPEnabled bool
	LocalIP     string
	NetMask     string
	Gateway     string
	DNSServer   string

	// Feature flags
	RFPowerSave         bool
	MCUPowerSave        bool
	ConfigServerEnabled bool

	Name string
}

// DefaultSystemConfig returns the factory record.
func DefaultSystemConfig() SystemConfig {
	return SystemConfig{
		Configured:          Unconfigured,
		Security:            SecurityAuto,
		DHCPEnabled:         true,
		ConfigServerEnabled: true,
		Name:                "Smartap Device",
	}
}

// IsConfigured reports whether boot should take the connected path.
// This is the flag alone; SSID and key are not inspected.
func (c SystemConfig) IsConfigured() bool {
	return c.Configured == Configured
}

// ApInfo is the access point the radio associated with.
type ApInfo struct {
	SSID     string
	BSSID    BSSID
	Channel  int
	Security Security
}

// NetInfo is the addressing obtained from DHCP or configured statically.
type NetInfo struct {
	IP      string
	Mask    string
	Gateway string
	DNS     string
}

// DHCPMode selects how the network stack obtains an address.
type DHCPMode uint8

const (
	DHCPDisabled DHCPMode = iota
	DHCPClient
)

// String returns the mode name.
func (m DHCPMode) String() string {
	if m == DHCPClient {
		return "client"
	}
	return "disabled"
}

// ConnectionRequest is what the network stack needs to associate and get an address.
type ConnectionRequest struct {
	AP            ApInfo
	Key           Key
	DHCP          DHCPMode
	Static        NetInfo // only filled when DHCP is disabled
	RetryInterval time.Duration
}

// ConnectionRequest translates the record into a connect request.
func (c SystemConfig) ConnectionRequest() ConnectionRequest {
	req := ConnectionRequest{
		AP: ApInfo{
			SSID:     BoundString(c.SSID, MaxSSIDLen),
			BSSID:    c.BSSID,
			Channel:  c.Channel,
			Security: c.Security,
		},
		Key:           c.Key,
		DHCP:          DHCPDisabled,
		RetryInterval: DefaultRetryInterval,
	}
	if c.DHCPEnabled {
		req.DHCP = DHCPClient
		return req
	}
	req.Static = NetInfo{
		IP:      BoundString(c.LocalIP, MaxIPLen),
		Mask:    BoundString(c.NetMask, MaxIPLen),
		Gateway: BoundString(c.Gateway, MaxIPLen),
		DNS:     BoundString(c.DNSServer, MaxIPLen),
	}
	return req
}

// WiFiCredentials is what a provisioning agent hands over.
type WiFiCredentials struct {
	SSID     string
	Key      Key
	Security Security
}
