package uplink

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/device"
	"github.com/muurk/smartap-lifecycle/internal/deviceconfig"
	"github.com/muurk/smartap-lifecycle/internal/lifecycle"
	"github.com/muurk/smartap-lifecycle/internal/logging"
	"github.com/muurk/smartap-lifecycle/internal/notify"
)

// Config holds the uplink configuration.
type Config struct {
	Broker   string
	Username string
	Password string
	QoS      byte
	Version  string
}

// Status is the retained payload on the status topic.
type Status struct {
	Online     bool      `json:"online"`
	Session    string    `json:"session,omitempty"`
	State      string    `json:"state,omitempty"`
	Configured string    `json:"configured,omitempty"`
	SSID       string    `json:"ssid,omitempty"`
	IP         string    `json:"ip,omitempty"`
	Version    string    `json:"version,omitempty"`
	UptimeSec  int64     `json:"uptime_s"`
	Time       time.Time `json:"time"`
}

// Command is the payload accepted on the command topic. A bare command
// name is accepted as well.
type Command struct {
	Command string `json:"command"`
}

// Dialer opens a broker connection.
type Dialer func(cfg BrokerConfig) (Broker, error)

// App implements lifecycle.Service.
type App struct {
	cfg  Config
	dial Dialer

	mu       sync.Mutex
	broker   Broker
	dev      *device.Context
	triggers *lifecycle.Triggers
	topics   Topics
	seq      atomic.Uint64
}

var _ lifecycle.Service = (*App)(nil)

func New(cfg Config) *App {
	return &App{
		cfg:  cfg,
		dial: func(bc BrokerConfig) (Broker, error) { return Connect(bc) },
	}
}

// WithDialer replaces the broker connection factory.
func (a *App) WithDialer(d Dialer) *App {
	a.dial = d
	return a
}

// Start connects to the broker in the background, subscribes to the
// command topic and forwards notifications.
func (a *App) Start(ctx context.Context, dev *device.Context) error {
	if a.cfg.Broker == "" {
		return ErrNoBroker
	}

	mac, err := macOf(dev)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.dev = dev
	a.triggers = lifecycle.NewTriggers(dev)
	a.topics = TopicsFor(mac)
	a.mu.Unlock()

	will, _ := json.Marshal(Status{Online: false, Session: dev.SessionID.String(), Time: time.Now().UTC()})
	broker, err := a.dial(BrokerConfig{
		URL:         a.cfg.Broker,
		ClientID:    "smartap-" + a.topics.Device,
		Username:    a.cfg.Username,
		Password:    a.cfg.Password,
		QoS:         a.cfg.QoS,
		WillTopic:   a.topics.Status(),
		WillPayload: will,
		OnConnect:   a.publishStatus,
	})
	if err != nil {
		return fmt.Errorf("failed to start uplink: %w", err)
	}

	a.mu.Lock()
	a.broker = broker
	a.mu.Unlock()

	if err := broker.Subscribe(a.topics.Command(), a.cfg.QoS, a.handleCommand); err != nil {
		_ = broker.Close()
		return err
	}

	for _, kind := range []notify.Kind{notify.WifiStatusChanged, notify.WifiParamsChanged, notify.DhcpCompleted} {
		if err := dev.Registry.Register(kind, notify.SubscriberFunc(a.forward)); err != nil {
			_ = broker.Close()
			return err
		}
	}
	if err := dev.Registry.Register(notify.SysWillPowerOff, notify.OnPowerOff(a.goOffline)); err != nil {
		_ = broker.Close()
		return err
	}

	go func() {
		<-ctx.Done()
		_ = a.goOffline(context.Background())
	}()

	logging.Info("Application started", zap.String("uplink", a.cfg.Broker), zap.String("command_topic", a.topics.Command()))
	return nil
}

// forward publishes a notification on its event topic and refreshes the
// retained status.
func (a *App) forward(_ context.Context, ev notify.Event) error {
	broker := a.currentBroker()
	if broker == nil {
		return nil
	}

	msg := deviceconfig.EventMessage{
		Seq:     a.seq.Add(1),
		Session: a.dev.SessionID.String(),
		Kind:    ev.Kind().String(),
		Time:    time.Now().UTC(),
		Data:    notify.Describe(ev),
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := broker.Publish(a.topics.Event(msg.Kind), payload, a.cfg.QoS, false); err != nil {
		logging.Debug("Event not published", zap.String("kind", msg.Kind), zap.Error(err))
	}

	a.publishStatus()
	return nil
}

// publishStatus publishes the retained online status.
func (a *App) publishStatus() {
	broker := a.currentBroker()
	if broker == nil {
		return
	}

	st := a.status(true)
	payload, err := json.Marshal(st)
	if err != nil {
		return
	}
	if err := broker.Publish(a.topics.Status(), payload, a.cfg.QoS, true); err != nil {
		logging.Debug("Status not published", zap.Error(err))
	}
}

func (a *App) status(online bool) Status {
	ds := a.dev.Status()
	cfg := a.dev.Store.Snapshot()
	return Status{
		Online:     online,
		Session:    ds.SessionID,
		State:      ds.State.String(),
		Configured: cfg.Configured.String(),
		SSID:       cfg.SSID,
		IP:         ds.Net.IP,
		Version:    a.cfg.Version,
		UptimeSec:  int64(ds.Uptime / time.Second),
		Time:       time.Now().UTC(),
	}
}

// goOffline publishes the offline status and disconnects. Only the first
// call does anything.
func (a *App) goOffline(context.Context) error {
	a.mu.Lock()
	broker := a.broker
	a.broker = nil
	a.mu.Unlock()
	if broker == nil {
		return nil
	}

	payload, err := json.Marshal(a.status(false))
	if err == nil {
		if err := broker.Publish(a.topics.Status(), payload, a.cfg.QoS, true); err != nil {
			logging.Debug("Offline status not published", zap.Error(err))
		}
	}
	return broker.Close()
}

func (a *App) handleCommand(topic string, payload []byte) error {
	name := strings.TrimSpace(string(payload))
	if strings.HasPrefix(name, "{") {
		var cmd Command
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return deviceconfig.NewParseError("malformed command", err)
		}
		name = cmd.Command
	}

	cmd, err := deviceconfig.ParseSystemCommand(name)
	if err != nil {
		return err
	}
	logging.Info("Remote command received", zap.String("topic", topic), zap.String("command", name))
	return a.triggers.Execute(cmd)
}

func macOf(dev *device.Context) (net.HardwareAddr, error) {
	mac, err := net.ParseMAC(dev.MAC())
	if err != nil {
		return nil, fmt.Errorf("device address not known: %w", err)
	}
	return mac, nil
}

func (a *App) currentBroker() Broker {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.broker
}

// Online reports whether the uplink is started and not yet shut down.
func (a *App) Online() bool {
	return a.currentBroker() != nil
}
