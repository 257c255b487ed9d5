package deviceconfig

import (
	"net/url"
	"strings"
	"testing"
)

func TestCleanJSONResponse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"clean", `{"a":1}`, `{"a":1}`, false},
		{"trailing garbage", `{"a":1}"junk</div>"`, `{"a":1}`, false},
		{"brace in string", `{"a":"}"}tail`, `{"a":"}"}`, false},
		{"nested", `xx{"a":{"b":2}}yy`, `{"a":{"b":2}}`, false},
		{"no object", `hello`, "", true},
		{"unclosed", `{"a":1`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanJSONResponse([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("CleanJSONResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if string(got) != tt.want {
				t.Errorf("CleanJSONResponse() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestNewDeviceViewOmitsKey(t *testing.T) {
	cfg := DefaultSystemConfig()
	cfg.Configured = Configured
	cfg.SSID = "HomeNet"
	cfg.Key, _ = NewKey([]byte("supersecret"))

	view := NewDeviceView(cfg, NetInfo{IP: "10.0.0.2"}, "c4:be:84:74:86:37", "normal", "1.0", "sim")
	if view.Configured != "configured" {
		t.Errorf("Configured = %s", view.Configured)
	}
	if view.IP != "10.0.0.2" {
		t.Errorf("IP = %s", view.IP)
	}

	data, err := ParseDeviceView([]byte(`{"name":"x"}`))
	if err != nil || data.Name != "x" {
		t.Errorf("ParseDeviceView() = %+v, %v", data, err)
	}
	if strings.Contains(view.FormatDetailed(), "supersecret") {
		t.Error("formatted view leaked key material")
	}
}

func TestWiFiConfigFormRoundTrip(t *testing.T) {
	wc := &WiFiConfig{SSID: "HomeNet", Password: "password123", SecurityType: "WPA2"}
	form := wc.ToFormData()

	if form.Get(FormConnect) == "" {
		t.Error("connect field missing")
	}

	back := WiFiConfigFromForm(form)
	if back == nil || *back != *wc {
		t.Errorf("WiFiConfigFromForm() = %+v, want %+v", back, wc)
	}
}

func TestWiFiConfigOpenOmitsPassword(t *testing.T) {
	wc := &WiFiConfig{SSID: "Cafe", Password: "ignored", SecurityType: "OPEN"}
	if _, ok := wc.ToFormData()[FormPassword]; ok {
		t.Error("password sent for open network")
	}
}

func TestWiFiConfigFromFormWithoutSSID(t *testing.T) {
	if wc := WiFiConfigFromForm(url.Values{FormPassword: {"x"}}); wc != nil {
		t.Errorf("expected nil, got %+v", wc)
	}
}

func TestWiFiConfigCredentials(t *testing.T) {
	wc := &WiFiConfig{SSID: "HomeNet", Password: "password123", SecurityType: "WPA2"}
	creds, err := wc.Credentials()
	if err != nil {
		t.Fatalf("Credentials() error = %v", err)
	}
	if creds.Security != SecurityWPA2AES {
		t.Errorf("Security = %v", creds.Security)
	}
	want, _ := NewKey([]byte("password123"))
	if !creds.Key.Equal(want) {
		t.Error("key mismatch")
	}

	bad := &WiFiConfig{SSID: "HomeNet", Password: "short", SecurityType: "WPA2"}
	if _, err := bad.Credentials(); !IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParseSystemCommand(t *testing.T) {
	for _, c := range []string{"reset", "factory-reset", "standby", "radio-off"} {
		if _, err := ParseSystemCommand(c); err != nil {
			t.Errorf("ParseSystemCommand(%q) error = %v", c, err)
		}
	}
	if _, err := ParseSystemCommand("explode"); !IsValidationError(err) {
		t.Errorf("expected validation error, got %v", err)
	}
}
