package lifecycle

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/notify"
)

type memBackend struct {
	mu    sync.Mutex
	cfg   deviceconfig.SystemConfig
	saves int
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
	m.saves++
	return nil
}

func (m *memBackend) record() deviceconfig.SystemConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

type fakePlatform struct {
	initErr      error
	mcuPowerSave bool
	reboots      int
}

func (p *fakePlatform) Init(context.Context) error             { return p.initErr }
func (p *fakePlatform) SoftReboot(context.Context) error       { p.reboots++; return nil }
func (p *fakePlatform) Sleep(context.Context, time.Duration)   {}
func (p *fakePlatform) SetMCUPowerSave(enabled bool) error     { p.mcuPowerSave = enabled; return nil }
func (p *fakePlatform) EnterStandby(ctx context.Context) error { <-ctx.Done(); return nil }

// fakeRadio records connect requests together with the subscriber counts
// seen at the moment of each request.
type fakeRadio struct {
	mu         sync.Mutex
	events     Dispatcher
	registry   *notify.Registry
	connects   []deviceconfig.ConnectionRequest
	subsAtConn []int
	powerSave  bool
	connectErr error
}

var testMAC = net.HardwareAddr{0xc4, 0xbe, 0x84, 0x74, 0x86, 0x37}

func (r *fakeRadio) Init(_ context.Context, events Dispatcher) error {
	r.events = events
	r.registry, _ = events.(*notify.Registry)
	return nil
}

func (r *fakeRadio) OwnAddress() (net.HardwareAddr, error) { return testMAC, nil }
func (r *fakeRadio) PowerDown(context.Context) error       { return nil }
func (r *fakeRadio) SetPowerSave(enabled bool) error       { r.powerSave = enabled; return nil }
func (r *fakeRadio) LibraryVersion() string                { return "fake-1.0" }

func (r *fakeRadio) Connect(_ context.Context, req deviceconfig.ConnectionRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connects = append(r.connects, req)
	if r.registry != nil {
		r.subsAtConn = []int{
			r.registry.Count(notify.WifiStatusChanged),
			r.registry.Count(notify.WifiParamsChanged),
			r.registry.Count(notify.DhcpCompleted),
		}
	}
	return r.connectErr
}

func (r *fakeRadio) connectsSafe() []deviceconfig.ConnectionRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]deviceconfig.ConnectionRequest(nil), r.connects...)
}

type mockProvisioner struct{ mock.Mock }

func (m *mockProvisioner) Start(ctx context.Context, dev *device.Context, params ProvisioningParams) error {
	return m.Called(ctx, dev, params).Error(0)
}

type fakeService struct {
	started int
	err     error
}

func (s *fakeService) Start(context.Context, *device.Context) error {
	s.started++
	return s.err
}

var errBoom = errors.New("boom")
