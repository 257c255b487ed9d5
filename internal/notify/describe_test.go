package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
)

func TestDescribe(t *testing.T) {
	key, err := deviceconfig.NewKey([]byte("supersecret"))
	require.NoError(t, err)

	params := Describe(WifiParamsEvent{
		AP: deviceconfig.ApInfo{
			SSID:     "HomeNet",
			BSSID:    deviceconfig.BSSID{0xc4, 0xbe, 0x84, 0x74, 0x86, 0x37},
			Channel:  11,
			Security: deviceconfig.SecurityWPA2AES,
		},
		Key: key,
	})
	assert.Equal(t, map[string]string{
		"ssid":     "HomeNet",
		"bssid":    "c4:be:84:74:86:37",
		"channel":  "11",
		"security": "WPA2",
	}, params)
	for _, v := range params {
		assert.NotContains(t, v, "supersecret")
	}

	assert.Equal(t, map[string]string{"status": "up"}, Describe(WifiStatusEvent{Status: StationUp}))
	assert.Equal(t, "10.0.0.2", Describe(DhcpEvent{Net: deviceconfig.NetInfo{IP: "10.0.0.2"}})["ip"])
	assert.Nil(t, Describe(PowerOffEvent{}))

	q := NewAppInfoQuery(8)
	q.Fill("Smartap Lifecycle")
	assert.Equal(t, "Smartap ", Describe(q)["identity"])
}
