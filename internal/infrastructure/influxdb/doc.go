// Package influxdb records NB Core usage analytics in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Two measurements are
// written:
//   - recipe_queries: one point per catalog query (filter count, result
//     count, duration)
//   - account_events: one point per registration or login
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // analytics off
//	}
//	defer client.Close()
//
//	client.WriteQueryUsage(2, 5, 3*time.Millisecond)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to influxdb.batch_size and influxdb.flush_interval;
// asynchronous write failures are reported through SetOnError.
package influxdb
