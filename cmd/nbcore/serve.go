package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/nerrad567/nb-core/internal/api"
	"github.com/nerrad567/nb-core/internal/audit"
	"github.com/nerrad567/nb-core/internal/auth"
	"github.com/nerrad567/nb-core/internal/catalog"
	"github.com/nerrad567/nb-core/internal/infrastructure/config"
	"github.com/nerrad567/nb-core/internal/infrastructure/database"
	"github.com/nerrad567/nb-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/nb-core/internal/infrastructure/logging"
	"github.com/nerrad567/nb-core/internal/infrastructure/mqtt"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API until interrupted",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := logging.New(cfg.Logging, version)
			log.Info("starting NB Core", "version", version, "commit", commit, "build_date", date)

			a, err := setup(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.server.Serve(ctx); err != nil {
				return fmt.Errorf("serving API: %w", err)
			}
			log.Info("NB Core stopped")
			return nil
		},
	}
}

// application holds everything serve starts, so it can be torn down in
// reverse order.
type application struct {
	server  *api.Server
	db      *database.DB
	mqtt    *mqtt.Client
	influx  *influxdb.Client
	log     *logging.Logger
	closers []func()
}

// setup opens the store, connects the optional side channels and builds
// the API server.
func setup(ctx context.Context, cfg *config.Config, log *logging.Logger) (*application, error) {
	a := &application{log: log}

	db, err := openDatabase(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	a.db = db
	a.closers = append(a.closers, func() {
		log.Info("closing database")
		if err := db.Close(); err != nil {
			log.Error("error closing database", "error", err)
		}
	})

	a.connectMQTT(cfg.MQTT)
	a.connectInfluxDB(cfg.InfluxDB)
	sink := newEventSink(audit.NewSQLiteRepository(db.DB), a.mqtt, a.influx, log)

	recipes := catalog.NewService(catalog.Deps{
		Repository: catalog.NewRepository(db.DB),
		Recorder:   sink,
		Logger:     log,
	})

	accounts, err := auth.NewService(auth.Config{
		Users:  auth.NewUserRepository(db.DB),
		Tokens: auth.NewTokenRepository(db.DB),
		Hasher: auth.NewArgon2Hasher(
			cfg.Security.Password.MemoryKiB,
			cfg.Security.Password.Iterations,
			cfg.Security.Password.Threads,
		),
		TokenBytes: cfg.Security.TokenBytes,
		Events:     sink,
		Logger:     log,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating account service: %w", err)
	}

	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Logger:   log,
		Recipes:  recipes,
		Accounts: accounts,
		Database: db,
		Version:  version,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	a.server = server

	return a, nil
}

// connectMQTT connects the event publisher. A broker that cannot be
// reached is logged and skipped; events are best effort.
func (a *application) connectMQTT(cfg config.MQTTConfig) {
	client, err := mqtt.Connect(cfg, a.log)
	switch {
	case errors.Is(err, mqtt.ErrDisabled):
		a.log.Info("MQTT disabled")
		return
	case err != nil:
		a.log.Warn("MQTT unavailable, events will not be published", "error", err)
		return
	}

	a.mqtt = client
	a.closers = append(a.closers, func() {
		a.log.Info("disconnecting from MQTT")
		if err := client.Close(); err != nil {
			a.log.Error("error closing MQTT", "error", err)
		}
	})
	a.log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
		"topic_prefix", client.Topics().Prefix(),
	)
}

// connectInfluxDB connects usage analytics, skipping it when unreachable.
func (a *application) connectInfluxDB(cfg config.InfluxDBConfig) {
	client, err := influxdb.Connect(cfg)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		a.log.Info("InfluxDB disabled")
		return
	case err != nil:
		a.log.Warn("InfluxDB unavailable, usage will not be recorded", "error", err)
		return
	}

	client.SetOnError(func(err error) {
		a.log.Error("InfluxDB write error", "error", err)
	})
	a.influx = client
	a.closers = append(a.closers, func() {
		a.log.Info("closing InfluxDB connection")
		if err := client.Close(); err != nil {
			a.log.Error("error closing InfluxDB", "error", err)
		}
	})
	a.log.Info("InfluxDB connected", "url", cfg.URL, "org", cfg.Org, "bucket", cfg.Bucket)
}

// close releases resources in reverse order of acquisition.
func (a *application) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
