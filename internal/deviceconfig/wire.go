package deviceconfig

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"
)

// Form field names accepted by the local configuration server.
// They keep the __SL_P_ prefix of the stock device firmware so existing
// configurators keep working.
const (
	FormSSID     = "__SL_P_USD"
	FormPassword = "__SL_P_PSD"
	FormSecurity = "__SL_P_ENC"
	FormConnect  = "__SL_P_CON"
	FormSystem   = "__SL_P_SYS"
)

// DeviceView is the JSON document served by GET / on the local configuration server.
// Key material is never part of it.
type DeviceView struct {
	SSIDList     []string `json:"ssidList"`
	Configured   string   `json:"configured"`
	State        string   `json:"state"`
	Name         string   `json:"name"`
	MAC          string   `json:"mac"`
	BSSID        string   `json:"bssid,omitempty"`
	Channel      int      `json:"channel"`
	Security     string   `json:"security"`
	DHCP         bool     `json:"dhcp"`
	IP           string   `json:"ip,omitempty"`
	NetMask      string   `json:"netmask,omitempty"`
	Gateway      string   `json:"gateway,omitempty"`
	DNS          string   `json:"dns,omitempty"`
	LowPowerMode bool     `json:"lowPowerMode"`
	RFPowerSave  bool     `json:"rfPowerSave"`
	SWVer        string   `json:"swVer"`
	WNPVer       string   `json:"wnpVer"`
}

// NewDeviceView renders the record and live status for clients.
func NewDeviceView(cfg SystemConfig, status NetInfo, mac, state, swVer, wnpVer string) *DeviceView {
	v := &DeviceView{
		SSIDList:     []string{},
		Configured:   cfg.Configured.String(),
		State:        state,
		Name:         cfg.Name,
		MAC:          mac,
		Channel:      cfg.Channel,
		Security:     cfg.Security.String(),
		DHCP:         cfg.DHCPEnabled,
		IP:           status.IP,
		NetMask:      status.Mask,
		Gateway:      status.Gateway,
		DNS:          status.DNS,
		LowPowerMode: cfg.MCUPowerSave,
		RFPowerSave:  cfg.RFPowerSave,
		SWVer:        swVer,
		WNPVer:       wnpVer,
	}
	if cfg.SSID != "" {
		v.SSIDList = append(v.SSIDList, cfg.SSID)
	}
	if !cfg.BSSID.IsZero() {
		v.BSSID = cfg.BSSID.String()
	}
	return v
}

// ParseDeviceView parses the device view from raw response data.
// It tolerates trailing bytes after the JSON object, like the stock firmware emits.
func ParseDeviceView(data []byte) (*DeviceView, error) {
	cleanData, err := CleanJSONResponse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to clean JSON response: %w", err)
	}

	var view DeviceView
	if err := json.Unmarshal(cleanData, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device view: %w", err)
	}
	return &view, nil
}

// CleanJSONResponse extracts the first complete JSON object from data.
func CleanJSONResponse(data []byte) ([]byte, error) {
	start := -1
	for i, b := range data {
		if b == '{' {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(data); i++ {
		b := data[i]

		if escaped {
			escaped = false
			continue
		}
		if b == '\\' {
			escaped = true
			continue
		}
		if b == '"' {
			inString = !inString
			continue
		}

		if !inString {
			if b == '{' {
				depth++
			} else if b == '}' {
				depth--
				if depth == 0 {
					return data[start : i+1], nil
				}
			}
		}
	}

	return nil, fmt.Errorf("unclosed JSON object in response")
}

// WiFiConfig represents a WiFi credential push.
type WiFiConfig struct {
	SSID         string // Maps to __SL_P_USD
	Password     string // Maps to __SL_P_PSD (omitted for OPEN)
	SecurityType string // Maps to __SL_P_ENC
}

// ToFormData converts WiFiConfig to URL-encoded form data for POST requests.
func (wc *WiFiConfig) ToFormData() url.Values {
	data := url.Values{}
	data.Set(FormSSID, wc.SSID)
	data.Set(FormSecurity, wc.SecurityType)

	if wc.SecurityType != SecurityNone.String() && wc.Password != "" {
		data.Set(FormPassword, wc.Password)
	}

	// Trigger connection attempt
	data.Set(FormConnect, "connect")

	return data
}

// WiFiConfigFromForm reads a credential push. It returns nil when the form
// carries no SSID field.
func WiFiConfigFromForm(form url.Values) *WiFiConfig {
	if _, ok := form[FormSSID]; !ok {
		return nil
	}
	wc := &WiFiConfig{
		SSID:         form.Get(FormSSID),
		Password:     form.Get(FormPassword),
		SecurityType: form.Get(FormSecurity),
	}
	if wc.SecurityType == "" {
		wc.SecurityType = SecurityWPA2AES.String()
	}
	return wc
}

// Credentials validates the push and converts it for the configuration store.
func (wc *WiFiConfig) Credentials() (WiFiCredentials, error) {
	if errs := ValidateWiFiConfig(wc); len(errs) > 0 {
		return WiFiCredentials{}, errs[0]
	}
	sec, err := ParseSecurity(wc.SecurityType)
	if err != nil {
		return WiFiCredentials{}, err
	}
	key, err := NewKey([]byte(wc.Password))
	if err != nil {
		return WiFiCredentials{}, NewValidationError(err.Error())
	}
	return WiFiCredentials{SSID: wc.SSID, Key: key, Security: sec}, nil
}

// SystemCommand is a power/reset request sent to POST /system.
type SystemCommand string

const (
	CommandReset        SystemCommand = "reset"
	CommandFactoryReset SystemCommand = "factory-reset"
	CommandStandby      SystemCommand = "standby"
	CommandRadioOff     SystemCommand = "radio-off"
)

// ParseSystemCommand validates a command name.
func ParseSystemCommand(s string) (SystemCommand, error) {
	switch c := SystemCommand(s); c {
	case CommandReset, CommandFactoryReset, CommandStandby, CommandRadioOff:
		return c, nil
	default:
		return "", NewValidationError(fmt.Sprintf("unknown system command %q", s))
	}
}

// ToFormData converts the command to URL-encoded form data.
func (c SystemCommand) ToFormData() url.Values {
	data := url.Values{}
	data.Set(FormSystem, string(c))
	return data
}

// EventMessage is one notification as streamed on GET /events and
// published on the uplink event topics.
type EventMessage struct {
	Seq     uint64            `json:"seq"`
	Session string            `json:"session"`
	Kind    string            `json:"kind"`
	Time    time.Time         `json:"time"`
	Data    map[string]string `json:"data,omitempty"`
}

// ParseEventMessage decodes one streamed event.
func ParseEventMessage(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, NewParseError("failed to unmarshal event message", err)
	}
	return &msg, nil
}
