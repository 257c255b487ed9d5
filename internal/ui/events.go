package ui

import (
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
)

var kindColors = map[string]lipgloss.Color{
	"wifi-status":        SuccessColor,
	"wifi-params":        PrimaryColor,
	"dhcp-completed":     InfoColor,
	"sys-will-power-off": WarningColor,
}

// Event renders one streamed notification on a single line:
//
//	15:04:05.000  #3  dhcp-completed      gateway=192.168.1.1 ip=192.168.1.40
func Event(msg *deviceconfig.EventMessage) string {
	color, ok := kindColors[msg.Kind]
	if !ok {
		color = TextColor
	}
	if msg.Kind == "wifi-status" && msg.Data["status"] == "down" {
		color = ErrorColor
	}

	keys := make([]string, 0, len(msg.Data))
	for k := range msg.Data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, k+"="+msg.Data[k])
	}

	kind := lipgloss.NewStyle().Foreground(color).Bold(true).Width(20).Render(msg.Kind)
	seq := EventTimeStyle.Render("#" + strconv.FormatUint(msg.Seq, 10))
	return EventTimeStyle.Render(msg.Time.Local().Format("15:04:05.000")) + "  " + seq + "  " + kind + EventDataStyle.Render(strings.Join(pairs, " "))
}
