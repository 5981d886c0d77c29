// Package mqtt publishes NB Core events to an MQTT broker.
//
// Publishing is optional (mqtt.enabled in config.yaml) and strictly a side
// channel: a broker outage never fails an HTTP request. The package manages:
//   - Connection to the broker with auto-reconnect
//   - Retained online/offline status with a Last Will for crash detection
//   - JSON event publishing under a configurable topic prefix
//
// # Topics
//
//	nb/system/status      retained online/offline status
//	nb/auth/registered    a user registered
//	nb/auth/login         a user logged in
//	nb/catalog/query      a recipe query completed
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, logger)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.PublishJSONAsync(client.Topics().AuthEvent("login"), event)
package mqtt
