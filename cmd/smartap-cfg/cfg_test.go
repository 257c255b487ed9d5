package main

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartap-lifecycle/internal/config"
	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/notify"
	"github.com/muurk/smartap-lifecycle/internal/server"
)

type memBackend struct{ cfg deviceconfig.SystemConfig }

func (m *memBackend) Load() (deviceconfig.SystemConfig, error) { return m.cfg, nil }
func (m *memBackend) Save(c deviceconfig.SystemConfig) error   { m.cfg = c; return nil }

type idle struct{}

func (idle) SoftReboot(context.Context) error     { return nil }
func (idle) EnterStandby(context.Context) error   { return nil }
func (idle) Sleep(context.Context, time.Duration) {}
func (idle) PowerDown(context.Context) error      { return nil }

func withFlags(t *testing.T, ref string, port int) {
	t.Helper()
	oldRef, oldPort := deviceRef, devicePort
	deviceRef, devicePort = ref, port
	t.Cleanup(func() { deviceRef, devicePort = oldRef, oldPort })
}

func TestResolveTarget(t *testing.T) {
	reg := config.NewRegistry()
	reg.Remember("C4:BE:84:74:86:37", "Bathroom", "10.0.0.5", 9090)
	reg.Remember("c4:be:84:00:00:01", "Kitchen", "", 0)

	tests := []struct {
		name    string
		ref     string
		port    int
		want    target
		wantErr bool
	}{
		{name: "ip default port", ref: "192.168.1.40", want: target{IP: "192.168.1.40", Port: deviceconfig.DefaultPort}},
		{name: "ip with port", ref: "192.168.1.40", port: 80, want: target{IP: "192.168.1.40", Port: 80}},
		{name: "by name", ref: "bathroom", want: target{MAC: "c4:be:84:74:86:37", IP: "10.0.0.5", Port: 9090}},
		{name: "by mac", ref: "C4:BE:84:74:86:37", port: 1234, want: target{MAC: "c4:be:84:74:86:37", IP: "10.0.0.5", Port: 1234}},
		{name: "no address", ref: "kitchen", wantErr: true},
		{name: "unknown", ref: "garage", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withFlags(t, tt.ref, tt.port)

			got, err := resolveTarget(context.Background(), reg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNicknames(t *testing.T) {
	reg := config.NewRegistry()
	reg.Remember("c4:be:84:74:86:37", "Bathroom", "10.0.0.5", 8080)
	reg.Remember("c4:be:84:00:00:01", "Kitchen", "10.0.0.6", 8080)
	require.NoError(t, reg.SetNickname("c4:be:84:74:86:37", "upstairs"))

	assert.Equal(t, map[string]string{"c4:be:84:74:86:37": "upstairs"}, nicknames(reg))
}

func TestWatchStreamsEvents(t *testing.T) {
	rec := deviceconfig.DefaultSystemConfig()
	rec.Configured = deviceconfig.Configured
	dev := device.New(&memBackend{cfg: rec}, idle{}, idle{}, device.Options{})
	_, err := dev.Store.Read()
	require.NoError(t, err)

	srv := server.New(&server.Config{Addr: "127.0.0.1:0", Username: "SmarTap", Password: "yeswecan"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx, dev))

	client := deviceconfig.NewClientWithURL("http://" + srv.Addr().String())

	events := make(chan *deviceconfig.EventMessage, 4)
	done := make(chan error, 1)
	watchCtx, stop := context.WithCancel(context.Background())
	go func() { done <- watch(watchCtx, client, func(m *deviceconfig.EventMessage) { events <- m }) }()

	require.Eventually(t, func() bool { return srv.GetActiveConnections() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, dev.Registry.Dispatch(context.Background(), notify.WifiStatusEvent{Status: notify.StationUp}))

	select {
	case msg := <-events:
		assert.Equal(t, "wifi-status", msg.Kind)
		assert.Equal(t, "up", msg.Data["status"])
		assert.Equal(t, dev.SessionID.String(), msg.Session)
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
	}

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not return after cancel")
	}
}

func TestWatchRejectsBadCredentials(t *testing.T) {
	dev := device.New(&memBackend{cfg: deviceconfig.DefaultSystemConfig()}, idle{}, idle{}, device.Options{})
	_, err := dev.Store.Read()
	require.NoError(t, err)

	srv := server.New(&server.Config{Addr: "127.0.0.1:0", Username: "SmarTap", Password: "yeswecan"})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, srv.Start(ctx, dev))

	client := deviceconfig.NewClientWithURL("http://" + srv.Addr().String())
	client.SetAuth("SmarTap", "wrong")

	err = watch(ctx, client, func(*deviceconfig.EventMessage) {})
	assert.True(t, deviceconfig.IsAuthError(err), "got %v", err)
}
