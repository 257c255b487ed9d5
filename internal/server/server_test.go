package server

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/notify"
	"github.com/muurk/smartap-lifecycle/internal/sysstate"
)

type memBackend struct {
	mu  sync.Mutex
	cfg deviceconfig.SystemConfig
}

func (m *memBackend) Load() (deviceconfig.SystemConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg, nil
}

func (m *memBackend) Save(c deviceconfig.SystemConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cfg = c
	return nil
}

type idle struct{}

func (idle) SoftReboot(context.Context) error     { return nil }
func (idle) EnterStandby(context.Context) error   { return nil }
func (idle) Sleep(context.Context, time.Duration) {}
func (idle) PowerDown(context.Context) error      { return nil }

const (
	testUser = "SmarTap"
	testPass = "yeswecan"
)

type harness struct {
	dev    *device.Context
	srv    *Server
	client *deviceconfig.Client
	base   string
	cancel context.CancelFunc
}

func start(t *testing.T, mutate func(*Config)) *harness {
	t.Helper()
	return startWith(t, deviceconfig.DefaultSystemConfig(), mutate)
}

func startConfigured(t *testing.T) *harness {
	t.Helper()
	rec := deviceconfig.DefaultSystemConfig()
	rec.Configured = deviceconfig.Configured
	rec.SSID = "HomeNet"
	return startWith(t, rec, nil)
}

func startWith(t *testing.T, rec deviceconfig.SystemConfig, mutate func(*Config)) *harness {
	t.Helper()

	dev := device.New(&memBackend{cfg: rec}, idle{}, idle{}, device.Options{})
	_, err := dev.Store.Read()
	require.NoError(t, err)

	cfg := &Config{
		Addr:            "127.0.0.1:0",
		Username:        testUser,
		Password:        testPass,
		SoftwareVersion: "1.2.3",
		NetworkLibrary:  "host-sim",
	}
	if mutate != nil {
		mutate(cfg)
	}

	srv := New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, srv.Start(ctx, dev))
	t.Cleanup(func() {
		cancel()
		_ = srv.Shutdown(context.Background())
	})

	base := "http://" + srv.Addr().String()
	client := deviceconfig.NewClientWithURL(base)
	client.SetAuth(testUser, testPass)
	client.SetRetry(0, time.Millisecond)

	return &harness{dev: dev, srv: srv, client: client, base: base, cancel: cancel}
}

func (h *harness) postForm(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.base+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.SetBasicAuth(testUser, testPass)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func TestGetView(t *testing.T) {
	h := start(t, nil)

	view, err := h.client.GetConfiguration(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "unconfigured", view.Configured)
	assert.Equal(t, "normal", view.State)
	assert.Equal(t, "1.2.3", view.SWVer)
	assert.Equal(t, "host-sim", view.WNPVer)
	assert.Equal(t, "Smartap Device", view.Name)
}

func TestAuthRequired(t *testing.T) {
	h := start(t, nil)
	h.client.SetAuth(testUser, "wrong")

	_, err := h.client.GetConfiguration(context.Background())
	require.Error(t, err)
	assert.True(t, deviceconfig.IsAuthError(err))
}

func TestAuthDisabled(t *testing.T) {
	h := start(t, func(c *Config) { c.Username = "" })

	resp, err := http.Get(h.base + "/")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCredentialIntake(t *testing.T) {
	h := start(t, nil)

	err := h.client.UpdateWiFi(context.Background(), &deviceconfig.WiFiConfig{
		SSID:         "HomeNet",
		Password:     "correcthorse",
		SecurityType: "WPA2",
	})
	require.NoError(t, err)

	cfg := h.dev.Store.Snapshot()
	assert.True(t, cfg.IsConfigured())
	assert.Equal(t, "HomeNet", cfg.SSID)
	assert.Equal(t, []byte("correcthorse"), cfg.Key.Bytes())
	assert.Equal(t, sysstate.SoftReset, h.dev.Machine.State())
	assert.Equal(t, 1, h.dev.Signal.Pending())
}

func TestCredentialIntakeRejectsBadForms(t *testing.T) {
	h := start(t, nil)

	tests := []struct {
		name string
		form url.Values
	}{
		{"no ssid", url.Values{deviceconfig.FormSecurity: {"WPA2"}}},
		{"short password", url.Values{
			deviceconfig.FormSSID:     {"HomeNet"},
			deviceconfig.FormPassword: {"short"},
			deviceconfig.FormSecurity: {"WPA2"},
		}},
		{"unknown security", url.Values{
			deviceconfig.FormSSID:     {"HomeNet"},
			deviceconfig.FormSecurity: {"WEP2"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.postForm(t, "/", tt.form)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	assert.False(t, h.dev.Store.Snapshot().IsConfigured())
	assert.Equal(t, sysstate.Normal, h.dev.Machine.State())
}

func TestSystemCommands(t *testing.T) {
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
			h := start(t, nil)
			require.NoError(t, h.client.SendSystemCommand(context.Background(), tt.cmd))
			assert.Equal(t, tt.want, h.dev.Machine.State())
		})
	}
}

func TestSystemCommandUnknown(t *testing.T) {
	h := start(t, nil)

	resp := h.postForm(t, "/system", url.Values{deviceconfig.FormSystem: {"self-destruct"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, sysstate.Normal, h.dev.Machine.State())
}

func TestMethodNotAllowed(t *testing.T) {
	h := start(t, nil)

	req, err := http.NewRequest(http.MethodDelete, h.base+"/", nil)
	require.NoError(t, err)
	req.SetBasicAuth(testUser, testPass)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func dialEvents(t *testing.T, h *harness) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth(testUser, testPass)
	header.Set("Authorization", req.Header.Get("Authorization"))

	conn, resp, err := websocket.DefaultDialer.Dial(h.client.EventsURL(), header)
	require.NoError(t, err)
	_ = resp.Body.Close()
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return h.srv.GetActiveConnections() == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func TestEventStream(t *testing.T) {
	h := startConfigured(t)
	conn := dialEvents(t, h)

	ctx := context.Background()
	require.NoError(t, h.dev.Registry.Dispatch(ctx, notify.WifiStatusEvent{Status: notify.StationUp}))
	require.NoError(t, h.dev.Registry.Dispatch(ctx, notify.DhcpEvent{Net: deviceconfig.NetInfo{IP: "192.168.1.40"}}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first, second deviceconfig.EventMessage
	require.NoError(t, conn.ReadJSON(&first))
	require.NoError(t, conn.ReadJSON(&second))

	assert.Equal(t, "wifi-status", first.Kind)
	assert.Equal(t, "up", first.Data["status"])
	assert.Equal(t, h.dev.SessionID.String(), first.Session)

	assert.Equal(t, "dhcp-completed", second.Kind)
	assert.Equal(t, "192.168.1.40", second.Data["ip"])
	assert.Equal(t, first.Seq+1, second.Seq)
}

func TestProvisioningSubscribesPowerOffOnly(t *testing.T) {
	h := start(t, nil)

	assert.Equal(t, 0, h.dev.Registry.Count(notify.WifiStatusChanged))
	assert.Equal(t, 0, h.dev.Registry.Count(notify.WifiParamsChanged))
	assert.Equal(t, 0, h.dev.Registry.Count(notify.DhcpCompleted))
	assert.Equal(t, 2, h.dev.Registry.Count(notify.SysWillPowerOff))

	conn := dialEvents(t, h)
	require.NoError(t, h.dev.Registry.Dispatch(context.Background(), notify.PowerOffEvent{}))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg deviceconfig.EventMessage
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "sys-will-power-off", msg.Kind)
}

func TestEventStreamRequiresAuth(t *testing.T) {
	h := start(t, nil)

	_, resp, err := websocket.DefaultDialer.Dial(h.client.EventsURL(), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestShutdownClosesEventStream(t *testing.T) {
	h := start(t, nil)
	conn := dialEvents(t, h)

	h.cancel()

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "got %v", err)
}

func TestStartTwice(t *testing.T) {
	h := start(t, nil)
	assert.ErrorIs(t, h.srv.Start(context.Background(), h.dev), ErrAlreadyStarted)
}

func TestStartListenFailure(t *testing.T) {
	dev := device.New(&memBackend{cfg: deviceconfig.DefaultSystemConfig()}, idle{}, idle{}, device.Options{})
	srv := New(&Config{Addr: "127.0.0.1:99999"})
	assert.Error(t, srv.Start(context.Background(), dev))
	assert.Nil(t, srv.Addr())
}

func TestTLS(t *testing.T) {
	certPath, keyPath := writeSelfSigned(t)
	h := start(t, func(c *Config) {
		c.CertPath = certPath
		c.KeyPath = keyPath
	})

	client := deviceconfig.NewClientWithURL(strings.Replace(h.base, "http://", "https://", 1))
	client.SetAuth(testUser, testPass)
	client.SetRetry(0, time.Millisecond)
	client.HTTPClient = &http.Client{
		Timeout:   5 * time.Second,
		Transport: &http.Transport{TLSClientConfig: &tls.Config{InsecureSkipVerify: true}}, //nolint:gosec // self-signed test cert
	}

	view, err := client.GetConfiguration(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "normal", view.State)
	assert.True(t, strings.HasPrefix(client.EventsURL(), "wss://"))
}

func TestTLSConfig(t *testing.T) {
	_, err := NewTLSConfig("missing.pem", "missing.key")
	assert.Error(t, err)

	_, err = NewTLSConfigFromMemory([]byte("not pem"), []byte("not pem"))
	assert.Error(t, err)

	certPath, keyPath := writeSelfSigned(t)
	cfg, err := NewTLSConfig(certPath, keyPath)
	require.NoError(t, err)

	info := GetTLSInfo(cfg)
	assert.Equal(t, "TLS 1.2", info["min_version"])
	assert.Equal(t, "TLS 1.2", info["max_version"])
	assert.Equal(t, 1, info["num_certs"])
}

func writeSelfSigned(t *testing.T) (string, string) {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "smartap.local"},
		DNSNames:     []string{"localhost"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	dir := t.TempDir()
	certPath := filepath.Join(dir, "cert.pem")
	keyPath := filepath.Join(dir, "key.pem")
	require.NoError(t, os.WriteFile(certPath, pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}), 0o600))
	require.NoError(t, os.WriteFile(keyPath, pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER}), 0o600))
	return certPath, keyPath
}
