package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementRecipeQueries = "recipe_queries"
	MeasurementAccountEvents = "account_events"
)

// WriteQueryUsage records one completed recipe query.
//
// The "filtered" tag separates unfiltered listings from ingredient
// searches; counts and duration are fields.
func (c *Client) WriteQueryUsage(filters, results int, duration time.Duration) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(queryPoint(filters, results, duration, c.now()))
}

// WriteAccountEvent records a registration or login.
//
// The user id is a field, not a tag, to keep series cardinality flat.
func (c *Client) WriteAccountEvent(event string, userID int64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	if at.IsZero() {
		at = c.now()
	}
	c.writer.WritePoint(accountPoint(event, userID, at))
}

// WritePoint writes a custom point timestamped now.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, c.now()))
}

func queryPoint(filters, results int, duration time.Duration, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementRecipeQueries,
		map[string]string{
			"filtered": strconv.FormatBool(filters > 0),
		},
		map[string]interface{}{
			"filters":     filters,
			"results":     results,
			"duration_ms": float64(duration) / float64(time.Millisecond),
		},
		at,
	)
}

func accountPoint(event string, userID int64, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementAccountEvents,
		map[string]string{
			"event": event,
		},
		map[string]interface{}{
			"user_id": userID,
		},
		at,
	)
}
