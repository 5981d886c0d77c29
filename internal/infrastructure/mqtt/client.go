package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/nb-core/internal/infrastructure/config"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
)

// Client wraps paho.mqtt.golang for NB Core event publishing.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	client pahomqtt.Client
	cfg    config.MQTTConfig
	topics Topics
	logger *logging.Logger

	connected bool
	connMu    sync.RWMutex
}

// Connect establishes a connection to the MQTT broker.
//
// It builds the connection options (broker URL, auth, TLS), registers a
// Last Will on the status topic, connects with a timeout and then
// publishes a retained "online" status.
//
// Returns ErrDisabled when cfg.Enabled is false.
func Connect(cfg config.MQTTConfig, logger *logging.Logger) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if logger == nil {
		logger = logging.Discard()
	}

	topics := NewTopics(cfg.TopicPrefix)
	opts := buildClientOptions(cfg)
	configureLWT(opts, topics, cfg.Broker.ClientID)

	c := &Client{
		cfg:    cfg,
		topics: topics,
		logger: logger.With("component", "mqtt"),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		c.handleConnect()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.handleDisconnect(err)
	})

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// OnConnectHandler runs asynchronously; mark connected now so callers
	// can publish straight after Connect returns.
	c.setConnected(true)

	return c, nil
}

// newClient wraps an existing paho client. Used by tests.
func newClient(pc pahomqtt.Client, cfg config.MQTTConfig, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		client:    pc,
		cfg:       cfg,
		topics:    NewTopics(cfg.TopicPrefix),
		logger:    logger,
		connected: true,
	}
}

// Topics returns the topic builder for the configured prefix.
func (c *Client) Topics() Topics {
	return c.topics
}

func (c *Client) handleConnect() {
	c.setConnected(true)
	c.logger.Info("connected to broker", "client_id", c.cfg.Broker.ClientID)

	payload := statusPayload(c.cfg.Broker.ClientID, "online", "", time.Now())
	c.client.Publish(c.topics.SystemStatus(), c.qos(), true, payload)
}

func (c *Client) handleDisconnect(err error) {
	c.setConnected(false)
	c.logger.Warn("connection to broker lost", "error", err)
}

func (c *Client) setConnected(v bool) {
	c.connMu.Lock()
	c.connected = v
	c.connMu.Unlock()
}

func (c *Client) qos() byte {
	if c.cfg.QoS < 0 || c.cfg.QoS > maxQoS {
		return 1
	}
	return byte(c.cfg.QoS)
}

// Close publishes a graceful "offline" status and disconnects.
// Closing a nil or never-connected client is not an error.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	if c.IsConnected() {
		payload := statusPayload(c.cfg.Broker.ClientID, "offline", "graceful_shutdown", time.Now())
		token := c.client.Publish(c.topics.SystemStatus(), c.qos(), true, payload)
		token.WaitTimeout(defaultPublishTimeout)
	}

	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)

	return nil
}

// HealthCheck reports whether the broker connection is up.
func (c *Client) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected returns the last known connection state.
func (c *Client) IsConnected() bool {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.connected && c.client.IsConnected()
}
