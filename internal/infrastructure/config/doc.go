// Package config handles loading and validating NB Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Loading a local .env file (godotenv) for development secrets
//   - Overriding with NBCORE_* environment variables
//   - Validation of required fields
//
// Sensitive values (MQTT password, InfluxDB token) should be set via
// environment variables rather than committed in the YAML file.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
