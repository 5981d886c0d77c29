package mqtt

import "strings"

// DefaultTopicPrefix is used when no topic prefix is configured.
const DefaultTopicPrefix = "nb"

// Topics builds NB Core topic names under a common prefix.
// Using these helpers keeps topic naming consistent across publishers
// and the dashboards that subscribe to them.
//
//	topics := mqtt.NewTopics("nb")
//	topics.AuthEvent("login") // "nb/auth/login"
type Topics struct {
	prefix string
}

// NewTopics returns a topic builder for prefix. Leading and trailing
// slashes are trimmed; an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root topic level.
func (t Topics) Prefix() string {
	return t.prefix
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: nb/system/status
func (t Topics) SystemStatus() string {
	return t.join("system", "status")
}

// AuthEvent returns the topic for an account event type.
//
// Example: nb/auth/registered
func (t Topics) AuthEvent(eventType string) string {
	return t.join("auth", levelName(eventType))
}

// CatalogQuery returns the topic for completed recipe queries.
//
// Example: nb/catalog/query
func (t Topics) CatalogQuery() string {
	return t.join("catalog", "query")
}

// AllAuthEvents returns a subscription filter for every account event.
func (t Topics) AllAuthEvents() string {
	return t.join("auth", "+")
}

// AllTopics returns a subscription filter for everything under the prefix.
func (t Topics) AllTopics() string {
	return t.join("#")
}

func (t Topics) join(levels ...string) string {
	return t.prefix + "/" + strings.Join(levels, "/")
}

// levelName makes s safe to use as a single topic level.
func levelName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '+', '#':
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return "unknown"
	}
	return s
}

// validatePublishTopic rejects topics that brokers refuse for PUBLISH.
func validatePublishTopic(topic string) error {
	if topic == "" || strings.ContainsAny(topic, "+#") {
		return ErrInvalidTopic
	}
	return nil
}
