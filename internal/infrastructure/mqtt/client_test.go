package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/nb-core/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration that never touches a broker.
func testConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled: true,
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: "nb-core-test",
		},
		QoS:         1,
		TopicPrefix: "nb",
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// fakeToken is a completed paho token.
type fakeToken struct {
	err  error
	done chan struct{}
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{err: err, done: make(chan struct{})}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{}          { return t.done }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakePaho records publishes instead of talking to a broker.
type fakePaho struct {
	mu           sync.Mutex
	connected    bool
	publishErr   error
	messages     []published
	disconnected bool
}

func (f *fakePaho) IsConnected() bool      { return f.connected }
func (f *fakePaho) IsConnectionOpen() bool { return f.connected }
func (f *fakePaho) Connect() pahomqtt.Token {
	f.connected = true
	return newFakeToken(nil)
}
func (f *fakePaho) Disconnect(uint) {
	f.connected = false
	f.disconnected = true
}
func (f *fakePaho) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	var b []byte
	switch p := payload.(type) {
	case []byte:
		b = p
	case string:
		b = []byte(p)
	}
	f.messages = append(f.messages, published{topic: topic, qos: qos, retained: retained, payload: b})
	return newFakeToken(f.publishErr)
}
func (f *fakePaho) Subscribe(string, byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return newFakeToken(nil)
}
func (f *fakePaho) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return newFakeToken(nil)
}
func (f *fakePaho) Unsubscribe(...string) pahomqtt.Token       { return newFakeToken(nil) }
func (f *fakePaho) AddRoute(string, pahomqtt.MessageHandler)   {}
func (f *fakePaho) OptionsReader() pahomqtt.ClientOptionsReader { return pahomqtt.ClientOptionsReader{} }

func (f *fakePaho) sent() []published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]published(nil), f.messages...)
}

func newTestClient(t *testing.T) (*Client, *fakePaho) {
	t.Helper()
	fake := &fakePaho{connected: true}
	return newClient(fake, testConfig(), nil), fake
}

func TestConnectDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	client, err := Connect(cfg, nil)
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestPublish(t *testing.T) {
	client, fake := newTestClient(t)

	if err := client.Publish("nb/auth/login", []byte(`{"user_id":1}`), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	sent := fake.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0].topic != "nb/auth/login" || sent[0].qos != 1 || sent[0].retained {
		t.Errorf("sent = %+v", sent[0])
	}
}

func TestPublishValidation(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		want    error
	}{
		{name: "empty topic", topic: "", qos: 1, want: ErrInvalidTopic},
		{name: "single-level wildcard", topic: "nb/+/login", qos: 1, want: ErrInvalidTopic},
		{name: "multi-level wildcard", topic: "nb/#", qos: 1, want: ErrInvalidTopic},
		{name: "invalid qos", topic: "nb/x", qos: 3, want: ErrInvalidQoS},
		{name: "payload too large", topic: "nb/x", qos: 1, payload: make([]byte, maxPayloadSize+1), want: ErrPublishFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, fake := newTestClient(t)
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.want) {
				t.Errorf("Publish() error = %v, want %v", err, tt.want)
			}
			if n := len(fake.sent()); n != 0 {
				t.Errorf("sent %d messages after rejected publish", n)
			}
		})
	}
}

func TestPublishDisconnected(t *testing.T) {
	client, fake := newTestClient(t)
	fake.connected = false

	if err := client.Publish("nb/x", nil, 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() error = %v, want ErrNotConnected", err)
	}
}

func TestPublishBrokerError(t *testing.T) {
	client, fake := newTestClient(t)
	fake.publishErr = errors.New("not authorised")

	err := client.Publish("nb/x", []byte("{}"), 1, false)
	if !errors.Is(err, ErrPublishFailed) {
		t.Errorf("Publish() error = %v, want ErrPublishFailed", err)
	}
}

func TestPublishJSON(t *testing.T) {
	client, fake := newTestClient(t)

	event := map[string]any{"type": "registered", "user_id": 7}
	if err := client.PublishJSON(client.Topics().AuthEvent("registered"), event); err != nil {
		t.Fatalf("PublishJSON() error = %v", err)
	}

	sent := fake.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	var got map[string]any
	if err := json.Unmarshal(sent[0].payload, &got); err != nil {
		t.Fatalf("payload is not JSON: %v", err)
	}
	if got["type"] != "registered" || got["user_id"] != float64(7) {
		t.Errorf("payload = %v", got)
	}
}

func TestPublishJSONAsync(t *testing.T) {
	client, fake := newTestClient(t)

	client.PublishJSONAsync("nb/catalog/query", map[string]int{"results": 2})
	client.PublishJSONAsync("nb/#", map[string]int{"results": 2})

	sent := fake.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1 (wildcard topic dropped)", len(sent))
	}
	if sent[0].topic != "nb/catalog/query" {
		t.Errorf("topic = %q", sent[0].topic)
	}
}

func TestPublishJSONAsyncDisconnected(t *testing.T) {
	client, fake := newTestClient(t)
	fake.connected = false

	client.PublishJSONAsync("nb/catalog/query", struct{}{})

	if n := len(fake.sent()); n != 0 {
		t.Errorf("sent %d messages while disconnected", n)
	}
}

func TestClose(t *testing.T) {
	client, fake := newTestClient(t)

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !fake.disconnected {
		t.Error("Close() did not disconnect")
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}

	sent := fake.sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want offline status", len(sent))
	}
	if sent[0].topic != "nb/system/status" || !sent[0].retained {
		t.Errorf("status message = %+v", sent[0])
	}
	var status statusMessage
	if err := json.Unmarshal(sent[0].payload, &status); err != nil {
		t.Fatalf("status payload: %v", err)
	}
	if status.Status != "offline" || status.Reason != "graceful_shutdown" {
		t.Errorf("status = %+v", status)
	}
}

func TestCloseNil(t *testing.T) {
	var client *Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestHandleConnectPublishesOnline(t *testing.T) {
	client, fake := newTestClient(t)
	client.setConnected(false)

	client.handleConnect()

	if !client.IsConnected() {
		t.Error("IsConnected() = false after handleConnect")
	}
	sent := fake.sent()
	if len(sent) != 1 || !strings.Contains(string(sent[0].payload), `"status":"online"`) {
		t.Errorf("sent = %+v, want one online status", sent)
	}
}

func TestHealthCheck(t *testing.T) {
	client, fake := newTestClient(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck(cancelled) error = %v, want context.Canceled", err)
	}

	client.handleDisconnect(errors.New("network down"))
	fake.connected = false
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() after disconnect error = %v, want ErrNotConnected", err)
	}
}

func TestQoSFallback(t *testing.T) {
	fake := &fakePaho{connected: true}
	cfg := testConfig()
	cfg.QoS = 7
	client := newClient(fake, cfg, nil)

	if got := client.qos(); got != 1 {
		t.Errorf("qos() = %d, want 1 for out-of-range config", got)
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig()
	cfg.Auth = config.MQTTAuthConfig{Username: "nb", Password: "secret"}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "tcp://127.0.0.1:1883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.ClientID != "nb-core-test" {
		t.Errorf("ClientID = %q", opts.ClientID)
	}
	if opts.Username != "nb" || opts.Password != "secret" {
		t.Errorf("credentials not applied")
	}
	if !opts.CleanSession || !opts.AutoReconnect {
		t.Errorf("CleanSession = %v, AutoReconnect = %v", opts.CleanSession, opts.AutoReconnect)
	}
	if opts.TLSConfig != nil && opts.TLSConfig.MinVersion != 0 {
		t.Error("TLS configured for plain tcp broker")
	}
}

func TestBuildClientOptionsTLS(t *testing.T) {
	cfg := testConfig()
	cfg.Broker.TLS = true
	cfg.Broker.Port = 8883

	opts := buildClientOptions(cfg)

	if opts.Servers[0].String() != "ssl://127.0.0.1:8883" {
		t.Errorf("Servers = %v", opts.Servers)
	}
	if opts.TLSConfig == nil || opts.TLSConfig.MinVersion != tlsMinVersion {
		t.Error("TLS minimum version not applied")
	}
}

func TestConfigureLWT(t *testing.T) {
	opts := pahomqtt.NewClientOptions()
	configureLWT(opts, NewTopics("nb"), "nb-core")

	if !opts.WillEnabled || !opts.WillRetained {
		t.Errorf("WillEnabled = %v, WillRetained = %v", opts.WillEnabled, opts.WillRetained)
	}
	if opts.WillTopic != "nb/system/status" {
		t.Errorf("WillTopic = %q", opts.WillTopic)
	}
	var status statusMessage
	if err := json.Unmarshal(opts.WillPayload, &status); err != nil {
		t.Fatalf("will payload: %v", err)
	}
	if status.Status != "offline" || status.Reason != "unexpected_disconnect" || status.ClientID != "nb-core" {
		t.Errorf("will = %+v", status)
	}
}
