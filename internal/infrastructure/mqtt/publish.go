package mqtt

import (
	"encoding/json"
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends payload to topic and waits for the broker acknowledgment.
//
// QoS must be 0, 1 or 2. Retained messages are kept by the broker and
// delivered to new subscribers; use them for state, not for events.
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	if err := c.checkPublish(topic, payload, qos); err != nil {
		return err
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

// PublishJSON encodes v and publishes it with the configured QoS, not retained.
func (c *Client) PublishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%w: encoding payload: %w", ErrPublishFailed, err)
	}
	return c.Publish(topic, payload, c.qos(), false)
}

// PublishJSONAsync encodes v and hands it to the broker without waiting.
// Failures are logged, never returned, so callers on a request path are
// never slowed down by the broker.
func (c *Client) PublishJSONAsync(topic string, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("dropping event: encode failed", "topic", topic, "error", err)
		return
	}
	if err := c.checkPublish(topic, payload, c.qos()); err != nil {
		c.logger.Debug("dropping event", "topic", topic, "error", err)
		return
	}

	token := c.client.Publish(topic, c.qos(), false, payload)
	go func() {
		if !token.WaitTimeout(defaultPublishTimeout) {
			c.logger.Warn("event publish timed out", "topic", topic)
			return
		}
		if err := token.Error(); err != nil {
			c.logger.Warn("event publish failed", "topic", topic, "error", err)
		}
	}()
}

func (c *Client) checkPublish(topic string, payload []byte, qos byte) error {
	if err := validatePublishTopic(topic); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}
