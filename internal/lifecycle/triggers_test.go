package lifecycle

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/sysstate"
)

func bootedDevice(t *testing.T, cfg deviceconfig.SystemConfig) (*device.Context, *memBackend) {
	t.Helper()
	h := newHarness(cfg)
	dev := device.New(h.backend, h.platform, h.radio, device.Options{})
	_, err := dev.Store.Read()
	require.NoError(t, err)
	return dev, h.backend
}

func TestShortPressConfigured(t *testing.T) {
	dev, backend := bootedDevice(t, configuredHomeNet())
	tr := NewTriggers(dev)

	require.NoError(t, tr.ShortPress())
	assert.Equal(t, deviceconfig.WLANUnconfigured, backend.record().Configured)
	assert.Equal(t, "HomeNet", backend.record().SSID)
	assert.Equal(t, sysstate.SoftReset, dev.Machine.State())
	assert.Equal(t, 1, dev.Signal.Pending())
}

func TestShortPressUnconfiguredDoesNotPersist(t *testing.T) {
	dev, backend := bootedDevice(t, deviceconfig.DefaultSystemConfig())
	tr := NewTriggers(dev)

	require.NoError(t, tr.ShortPress())
	assert.Zero(t, backend.saves)
	assert.Equal(t, sysstate.SoftReset, dev.Machine.State())
}

func TestShortPressConcurrentWithCredentials(t *testing.T) {
	key, _ := deviceconfig.NewKey([]byte("password123"))
	creds := deviceconfig.WiFiCredentials{SSID: "HomeNet", Key: key, Security: deviceconfig.SecurityWPA2AES}

	for i := 0; i < 50; i++ {
		dev, backend := bootedDevice(t, configuredHomeNet())
		tr := NewTriggers(dev)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = tr.ShortPress()
		}()
		go func() {
			defer wg.Done()
			_ = tr.ApplyCredentials(creds)
		}()
		wg.Wait()

		assert.Equal(t, dev.Store.Snapshot(), backend.record())
		assert.False(t, dev.Store.Dirty())
	}
}

func TestLongPressRestoresDefaults(t *testing.T) {
	dev, backend := bootedDevice(t, configuredHomeNet())
	tr := NewTriggers(dev)

	require.NoError(t, tr.LongPress())
	assert.Equal(t, deviceconfig.DefaultSystemConfig(), backend.record())
	assert.Equal(t, sysstate.SoftReset, dev.Machine.State())
}

func TestApplyCredentials(t *testing.T) {
	dev, backend := bootedDevice(t, deviceconfig.DefaultSystemConfig())
	tr := NewTriggers(dev)

	key, _ := deviceconfig.NewKey([]byte("password123"))
	require.NoError(t, tr.ApplyCredentials(deviceconfig.WiFiCredentials{SSID: "HomeNet", Key: key, Security: deviceconfig.SecurityWPA2AES}))

	rec := backend.record()
	assert.True(t, rec.IsConfigured())
	assert.Equal(t, "HomeNet", rec.SSID)
	assert.True(t, rec.Key.Equal(key))
	assert.Equal(t, sysstate.SoftReset, dev.Machine.State())
}

func TestExecute(t *testing.T) {
	tests := []struct {
		cmd  deviceconfig.SystemCommand
		want sysstate.State
	}{
		{deviceconfig.CommandReset, sysstate.SoftReset},
		{deviceconfig.CommandFactoryReset, sysstate.SoftReset},
		{deviceconfig.CommandStandby, sysstate.Standby},
		{deviceconfig.CommandRadioOff, sysstate.RadioPowerDown},
	}

	for _, tt := range tests {
		t.Run(string(tt.cmd), func(t *testing.T) {
			dev, _ := bootedDevice(t, configuredHomeNet())
			require.NoError(t, NewTriggers(dev).Execute(tt.cmd))
			assert.Equal(t, tt.want, dev.Machine.State())
		})
	}

	dev, _ := bootedDevice(t, configuredHomeNet())
	assert.True(t, deviceconfig.IsValidationError(NewTriggers(dev).Execute("explode")))
	assert.Equal(t, sysstate.Normal, dev.Machine.State())
}
