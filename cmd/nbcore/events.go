package main

import (
	"context"
	"time"

	"github.com/nerrad567/nb-core/internal/audit"
	"github.com/nerrad567/nb-core/internal/auth"
	"github.com/nerrad567/nb-core/internal/catalog"
	"github.com/nerrad567/nb-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
	"github.com/nerrad567/nb-core/internal/infrastructure/mqtt"
)

// eventPublisher is the part of *mqtt.Client the sink uses.
type eventPublisher interface {
	PublishJSONAsync(topic string, v any)
	Topics() mqtt.Topics
}

// usageWriter is the part of *influxdb.Client the sink uses.
type usageWriter interface {
	WriteQueryUsage(filters, results int, duration time.Duration)
	WriteAccountEvent(event string, userID int64, at time.Time)
}

// auditWriter is the part of audit.Repository the sink uses.
type auditWriter interface {
	Create(ctx context.Context, entry *audit.Entry) error
}

// eventSink fans account events and query statistics out to the audit
// trail and the optional side channels. Any of them may be absent.
type eventSink struct {
	trail  auditWriter
	events eventPublisher
	usage  usageWriter
	log    *logging.Logger
}

var (
	_ auth.EventPublisher = (*eventSink)(nil)
	_ catalog.Recorder    = (*eventSink)(nil)
)

// newEventSink wraps the connected clients. Either client may be nil.
func newEventSink(trail auditWriter, m *mqtt.Client, i *influxdb.Client, log *logging.Logger) *eventSink {
	if log == nil {
		log = logging.Discard()
	}
	s := &eventSink{trail: trail, log: log}
	if m != nil {
		s.events = m
	}
	if i != nil {
		s.usage = i
	}
	return s
}

type queryEvent struct {
	Filters    int     `json:"filters"`
	Results    int     `json:"results"`
	DurationMS float64 `json:"duration_ms"`
}

// PublishAuthEvent implements auth.EventPublisher.
func (s *eventSink) PublishAuthEvent(ctx context.Context, event auth.Event) {
	if s.trail != nil {
		entry := &audit.Entry{
			Action:    string(event.Type),
			UserID:    event.UserID,
			Source:    audit.SourceAPI,
			CreatedAt: event.Timestamp,
		}
		if err := s.trail.Create(ctx, entry); err != nil {
			s.log.Warn("recording audit entry failed", "action", entry.Action, "user_id", entry.UserID, "error", err)
		}
	}
	if s.events != nil {
		s.events.PublishJSONAsync(s.events.Topics().AuthEvent(string(event.Type)), event)
	}
	if s.usage != nil {
		s.usage.WriteAccountEvent(string(event.Type), event.UserID, event.Timestamp)
	}
}

// RecordQuery implements catalog.Recorder.
func (s *eventSink) RecordQuery(_ context.Context, stats catalog.QueryStats) {
	if s.events != nil {
		s.events.PublishJSONAsync(s.events.Topics().CatalogQuery(), queryEvent{
			Filters:    stats.Filters,
			Results:    stats.Results,
			DurationMS: float64(stats.Duration) / float64(time.Millisecond),
		})
	}
	if s.usage != nil {
		s.usage.WriteQueryUsage(stats.Filters, stats.Results, stats.Duration)
	}
}
