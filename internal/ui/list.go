package ui

import (
	"fmt"
	"strings"

	"github.com/muurk/smartap-lifecycle/internal/discovery"
)

// DeviceList renders discovered devices. Nicknames, keyed by lowercase
// MAC, are shown next to the advertised name when known.
func DeviceList(devices []*discovery.Device, nicknames map[string]string) string {
	var b strings.Builder
	for i, d := range devices {
		name := d.Name()
		if name == "" {
			name = d.Instance
		}
		if nick := nicknames[strings.ToLower(d.MAC)]; nick != "" {
			name = fmt.Sprintf("%s (%s)", name, nick)
		}

		mode := "configured"
		if d.Unconfigured() {
			mode = "waiting for credentials"
			if m := d.GetMetadata(discovery.TxtMode); m != "" {
				mode += ", " + m
			}
		}

		fmt.Fprintf(&b, "%d. %s\n", i+1, DeviceNameStyle.Render(name))
		fmt.Fprintf(&b, "   %s %s\n", ResultKeyStyle.Render("MAC:"), d.MAC)
		fmt.Fprintf(&b, "   %s %s:%d\n", ResultKeyStyle.Render("Address:"), d.IP, d.Port)
		fmt.Fprintf(&b, "   %s %s\n", ResultKeyStyle.Render("State:"), mode)
		if fw := d.GetMetadata(discovery.TxtFirmware); fw != "" {
			fmt.Fprintf(&b, "   %s %s\n", ResultKeyStyle.Render("Firmware:"), fw)
		}
		b.WriteString("\n")
	}
	return b.String()
}
