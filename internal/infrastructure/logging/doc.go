// Package logging provides structured logging for NB Core.
//
// It wraps log/slog so every component logs with the same handler, level
// and default fields (service, version).
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("starting service", "port", 8000)
//	logger.Error("failed to open database", "error", err)
//
// Never log passwords or token keys.
package logging
