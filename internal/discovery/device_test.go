package discovery

import (
	"testing"
)

func TestDevice_String(t *testing.T) {
	device := &Device{
		Instance: "eValve-aabbcc",
		MAC:      "02:00:00:aa:bb:cc",
		IP:       "192.168.4.16",
		Port:     8080,
	}

	expected := "Smartap Device eValve-aabbcc (02:00:00:aa:bb:cc) at 192.168.4.16:8080"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_BaseURL(t *testing.T) {
	tests := []struct {
		name     string
		device   *Device
		expected string
	}{
		{
			name:     "default port",
			device:   &Device{IP: "192.168.4.16", Port: DefaultPort},
			expected: "http://192.168.4.16:8080",
		},
		{
			name:     "custom port",
			device:   &Device{IP: "10.0.0.5", Port: 80},
			expected: "http://10.0.0.5:80",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.device.BaseURL(); got != tt.expected {
				t.Errorf("Device.BaseURL() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDevice_Metadata(t *testing.T) {
	device := &Device{
		Metadata: map[string]string{
			TxtName:         "Kitchen",
			TxtUnconfigured: "1",
		},
	}

	if got := device.Name(); got != "Kitchen" {
		t.Errorf("Device.Name() = %q, want Kitchen", got)
	}
	if !device.Unconfigured() {
		t.Error("Device.Unconfigured() = false, want true")
	}
	if got := device.GetMetadata("missing"); got != "" {
		t.Errorf("Device.GetMetadata(missing) = %q, want empty", got)
	}
}

func TestDevice_GetMetadata_NilMap(t *testing.T) {
	device := &Device{}

	if got := device.GetMetadata("anything"); got != "" {
		t.Errorf("Device.GetMetadata() with nil map = %v, want empty string", got)
	}
	if device.Unconfigured() {
		t.Error("Device.Unconfigured() with nil map = true, want false")
	}
}
