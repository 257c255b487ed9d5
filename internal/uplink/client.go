package uplink

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/muurk/smartap-lifecycle/internal/logging"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultKeepAlive      = 60 * time.Second

	// Kept below the reset grace interval so the offline status leaves
	// before the device reboots.
	defaultDisconnectQuiesce = 250 // milliseconds

	maxQoS = 2
)

// MessageHandler is the callback signature for received messages.
// Returned errors are logged and otherwise ignored.
type MessageHandler func(topic string, payload []byte) error

// Broker is the MQTT surface the application layer uses.
type Broker interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler MessageHandler) error
	Close() error
}

// BrokerConfig describes one broker connection.
type BrokerConfig struct {
	URL      string
	ClientID string
	Username string
	Password string
	QoS      byte

	// Will is published by the broker if the device drops off unexpectedly.
	WillTopic   string
	WillPayload []byte

	// OnConnect runs after every (re)connection, once subscriptions are restored.
	OnConnect func()
}

type subscription struct {
	topic   string
	qos     byte
	handler MessageHandler
}

// Client wraps paho.mqtt.golang. The initial connection and reconnections
// run in the background; subscriptions are restored on every connect.
type Client struct {
	client pahomqtt.Client
	cfg    BrokerConfig

	subMu         sync.RWMutex
	subscriptions map[string]subscription
}

var _ Broker = (*Client)(nil)

// Connect validates cfg and starts connecting. It does not wait for the
// broker: a device must finish booting while its broker is down.
func Connect(cfg BrokerConfig) (*Client, error) {
	opts, err := buildClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	c := &Client{cfg: cfg, subscriptions: make(map[string]subscription)}
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		logging.Warn("MQTT connection lost", zap.Error(err))
	})

	c.client = pahomqtt.NewClient(opts)
	c.client.Connect()

	logging.Info("MQTT uplink connecting", zap.String("broker", cfg.URL), zap.String("client_id", cfg.ClientID))
	return c, nil
}

func buildClientOptions(cfg BrokerConfig) (*pahomqtt.ClientOptions, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("invalid broker URL %q", cfg.URL)
	}
	if cfg.QoS > maxQoS {
		return nil, ErrInvalidQoS
	}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.URL)
	opts.SetClientID(cfg.ClientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(time.Minute)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)
	if cfg.WillTopic != "" {
		opts.SetBinaryWill(cfg.WillTopic, cfg.WillPayload, cfg.QoS, true)
	}
	return opts, nil
}

func (c *Client) handleConnect() {
	logging.Info("MQTT uplink connected", zap.String("broker", c.cfg.URL))

	c.subMu.RLock()
	for _, sub := range c.subscriptions {
		c.client.Subscribe(sub.topic, sub.qos, c.wrapHandler(sub.handler))
	}
	c.subMu.RUnlock()

	if c.cfg.OnConnect != nil {
		c.cfg.OnConnect()
	}
}

// IsConnected reports whether the broker connection is up.
func (c *Client) IsConnected() bool {
	return c.client.IsConnectionOpen()
}

// Publish sends payload and waits for the broker acknowledgement.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Subscribe records the subscription and, when connected, subscribes now.
// Otherwise it is applied on the next connect.
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	c.subMu.Lock()
	c.subscriptions[topic] = subscription{topic: topic, qos: qos, handler: handler}
	c.subMu.Unlock()

	if !c.IsConnected() {
		return nil
	}
	token := c.client.Subscribe(topic, qos, c.wrapHandler(handler))
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// Close disconnects, letting in-flight messages drain briefly.
func (c *Client) Close() error {
	c.client.Disconnect(defaultDisconnectQuiesce)
	return nil
}

// wrapHandler adds panic recovery and error logging to a handler.
func (c *Client) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("MQTT handler panic recovered", zap.String("topic", msg.Topic()), zap.Any("panic", r))
			}
		}()

		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			logging.Warn("MQTT handler returned error", zap.String("topic", msg.Topic()), zap.Error(err))
		}
	}
}
