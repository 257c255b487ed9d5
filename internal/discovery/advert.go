package discovery

import (
	"net"
	"strings"
)

// TXT record keys carried by the configuration service advertisement.
const (
	TxtPath         = "path"
	TxtMAC          = "mac"
	TxtName         = "name"
	TxtMode         = "mode"
	TxtUnconfigured = "unconf"
	TxtFirmware     = "fw"
	TxtHardware     = "hw"
	TxtSerial       = "sn"
	TxtModel        = "model"
	TxtManufacturer = "mf"
	Txt24GHz        = "2.4ghz"
	Txt5GHz         = "5ghz"
)

// Accessory holds the extra parameters advertised in WAC provisioning mode.
type Accessory struct {
	FirmwareRevision string
	HardwareRevision string
	Serial           string
	Model            string
	Manufacturer     string
	Supports24GHz    bool
	Supports5GHz     bool
}

// Advertisement is what a device publishes for the configuration service.
type Advertisement struct {
	Instance     string
	Port         int
	MAC          net.HardwareAddr
	Name         string
	Mode         string
	Unconfigured bool
	Accessory    *Accessory // nil outside WAC mode
}

// TXT renders the advertisement as key=value TXT strings.
// Empty string values are left out.
func (a Advertisement) TXT() []string {
	txt := []string{TxtPath + "=/"}
	add := func(k, v string) {
		if v != "" {
			txt = append(txt, k+"="+v)
		}
	}

	if len(a.MAC) > 0 {
		add(TxtMAC, a.MAC.String())
	}
	add(TxtName, a.Name)
	add(TxtMode, a.Mode)
	add(TxtUnconfigured, flag(a.Unconfigured))

	if acc := a.Accessory; acc != nil {
		add(TxtFirmware, acc.FirmwareRevision)
		add(TxtHardware, acc.HardwareRevision)
		add(TxtSerial, acc.Serial)
		add(TxtModel, acc.Model)
		add(TxtManufacturer, acc.Manufacturer)
		add(Txt24GHz, flag(acc.Supports24GHz))
		add(Txt5GHz, flag(acc.Supports5GHz))
	}
	return txt
}

// ParseTXT splits TXT strings into a map. A key without '=' maps to "".
func ParseTXT(txt []string) map[string]string {
	metadata := make(map[string]string, len(txt))
	for _, t := range txt {
		parts := strings.SplitN(t, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			metadata[parts[0]] = ""
		}
	}
	return metadata
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
