package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantMAC  string
		wantIP   string
		wantPort int
	}{
		{
			name:     "valid device with IPv4",
			entry:    entry("eValve-aabbcc", 8080, []string{"path=/", "mac=02:00:00:aa:bb:cc"}, "192.168.4.16"),
			wantMAC:  "02:00:00:aa:bb:cc",
			wantIP:   "192.168.4.16",
			wantPort: 8080,
		},
		{
			name:     "no port specified (should default)",
			entry:    entry("eValve-aabbcc", 0, []string{"mac=02:00:00:aa:bb:cc"}, "172.16.0.1"),
			wantMAC:  "02:00:00:aa:bb:cc",
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name:    "missing MAC",
			entry:   entry("printer", 80, []string{"path=/"}, "192.168.1.1"),
			wantNil: true,
		},
		{
			name:    "empty instance",
			entry:   entry("", 80, []string{"mac=02:00:00:aa:bb:cc"}, "192.168.1.1"),
			wantNil: true,
		},
		{
			name:    "no IP address",
			entry:   entry("eValve-aabbcc", 80, []string{"mac=02:00:00:aa:bb:cc"}),
			wantNil: true,
		},
		{
			name: "IPv6 only device",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: *zeroconf.NewServiceRecord("eValve-112233", ServiceType, ServiceDomain),
				Port:          8080,
				Text:          []string{"mac=02:00:00:11:22:33"},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantMAC:  "02:00:00:11:22:33",
			wantIP:   "fe80::1",
			wantPort: 8080,
		},
		{
			name: "both IPv4 and IPv6 (should prefer IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: *zeroconf.NewServiceRecord("eValve-112233", ServiceType, ServiceDomain),
				Port:          8080,
				Text:          []string{"mac=02:00:00:11:22:33"},
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantMAC:  "02:00:00:11:22:33",
			wantIP:   "192.168.1.50",
			wantPort: 8080,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			device := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if device != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", device)
				}
				return
			}

			if device == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil device")
			}
			if device.MAC != tt.wantMAC {
				t.Errorf("device.MAC = %v, want %v", device.MAC, tt.wantMAC)
			}
			if device.IP != tt.wantIP {
				t.Errorf("device.IP = %v, want %v", device.IP, tt.wantIP)
			}
			if device.Port != tt.wantPort {
				t.Errorf("device.Port = %v, want %v", device.Port, tt.wantPort)
			}
			if device.Instance != tt.entry.Instance {
				t.Errorf("device.Instance = %v, want %v", device.Instance, tt.entry.Instance)
			}
			if time.Since(device.DiscoveredAt) > time.Second {
				t.Errorf("device.DiscoveredAt is not recent: %v", device.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Nil(t *testing.T) {
	if d := NewScanner().parseServiceEntry(nil); d != nil {
		t.Errorf("parseServiceEntry(nil) = %v, want nil", d)
	}
}

func TestAdvertisement_TXT(t *testing.T) {
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0xaa, 0xbb, 0xcc}

	t.Run("easylink", func(t *testing.T) {
		ad := Advertisement{MAC: mac, Name: "Kitchen", Mode: "easylink", Unconfigured: true}
		got := ParseTXT(ad.TXT())

		want := map[string]string{
			TxtPath:         "/",
			TxtMAC:          "02:00:00:aa:bb:cc",
			TxtName:         "Kitchen",
			TxtMode:         "easylink",
			TxtUnconfigured: "1",
		}
		if len(got) != len(want) {
			t.Fatalf("TXT() has %d keys, want %d: %v", len(got), len(want), got)
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("TXT[%q] = %q, want %q", k, got[k], v)
			}
		}
	})

	t.Run("wac adds accessory fields", func(t *testing.T) {
		ad := Advertisement{
			MAC:  mac,
			Name: "Kitchen",
			Mode: "wac",
			Accessory: &Accessory{
				FirmwareRevision: "1.0.0",
				HardwareRevision: "CC3200-R2",
				Serial:           "315260240",
				Model:            "eValve",
				Manufacturer:     "Smartap",
				Supports24GHz:    true,
			},
		}
		got := ParseTXT(ad.TXT())

		want := map[string]string{
			TxtUnconfigured: "0",
			TxtFirmware:     "1.0.0",
			TxtHardware:     "CC3200-R2",
			TxtSerial:       "315260240",
			TxtModel:        "eValve",
			TxtManufacturer: "Smartap",
			Txt24GHz:        "1",
			Txt5GHz:         "0",
		}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("TXT[%q] = %q, want %q", k, got[k], v)
			}
		}
	})

	t.Run("empty values are omitted", func(t *testing.T) {
		got := ParseTXT(Advertisement{}.TXT())
		if _, ok := got[TxtName]; ok {
			t.Error("TXT() contains empty name")
		}
		if _, ok := got[TxtMAC]; ok {
			t.Error("TXT() contains empty mac")
		}
	})
}

func TestParseTXT(t *testing.T) {
	got := ParseTXT([]string{"path=/", "mac=02:00:00:aa:bb:cc", "flag", "eq=a=b"})

	expected := map[string]string{
		"path": "/",
		"mac":  "02:00:00:aa:bb:cc",
		"flag": "",
		"eq":   "a=b",
	}
	if len(got) != len(expected) {
		t.Errorf("ParseTXT() has %d entries, want %d", len(got), len(expected))
	}
	for key, want := range expected {
		if got[key] != want {
			t.Errorf("ParseTXT()[%q] = %q, want %q", key, got[key], want)
		}
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

func entry(instance string, port int, txt []string, ips ...string) *zeroconf.ServiceEntry {
	e := &zeroconf.ServiceEntry{
		ServiceRecord: *zeroconf.NewServiceRecord(instance, ServiceType, ServiceDomain),
		Port:          port,
		Text:          txt,
	}
	for _, ip := range ips {
		e.AddrIPv4 = append(e.AddrIPv4, net.ParseIP(ip))
	}
	return e
}
