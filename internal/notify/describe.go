package notify

import "strconv"

// Describe flattens an event into string fields for external observers.
// Key material is never included.
func Describe(ev Event) map[string]string {
	switch e := ev.(type) {
	case WifiStatusEvent:
		return map[string]string{"status": e.Status.String()}
	case WifiParamsEvent:
		d := map[string]string{
			"ssid":     e.AP.SSID,
			"channel":  strconv.Itoa(e.AP.Channel),
			"security": e.AP.Security.String(),
		}
		if !e.AP.BSSID.IsZero() {
			d["bssid"] = e.AP.BSSID.String()
		}
		return d
	case DhcpEvent:
		return map[string]string{
			"ip":      e.Net.IP,
			"mask":    e.Net.Mask,
			"gateway": e.Net.Gateway,
			"dns":     e.Net.DNS,
		}
	case *AppInfoQuery:
		return map[string]string{"identity": e.String()}
	default:
		return nil
	}
}
