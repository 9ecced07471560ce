package estimate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	"github.com/de-tools/impact-atlas/pkg/services/config"
	"github.com/de-tools/impact-atlas/pkg/store/results"
	"github.com/rs/zerolog"
)

// Runtime bundles a controller with the resources it holds open.
type Runtime struct {
	Controller Controller
	db         *sql.DB
}

func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Bootstrap builds a controller from settings. The warehouse sink is only opened when withSink is set.
func Bootstrap(ctx context.Context, settings *config.Settings, withSink bool) (*Runtime, error) {
	logger := zerolog.Ctx(ctx)

	creds, err := loadCredentials(settings.Credentials.Path)
	if err != nil {
		return nil, err
	}

	client := NewClient(settings.Remote)
	opts := Options{
		Settings:    settings,
		Registry:    NewModelRegistry(client, settings.Remote),
		Credentials: creds,
		Locations:   client,
	}

	rt := &Runtime{}
	if withSink {
		db, store, err := openSink(ctx, settings.Sink, creds)
		if err != nil {
			return nil, err
		}
		rt.db = db
		opts.Sink = store
		logger.Info().Str("driver", settings.Sink.Driver).Str("table", settings.Sink.Table).Msg("result sink ready")
	}

	ctrl, err := NewController(opts)
	if err != nil {
		_ = rt.Close()
		return nil, err
	}
	rt.Controller = ctrl
	return rt, nil
}

func loadCredentials(path string) (config.CredentialRegistry, error) {
	if path == "" {
		return config.EmptyCredentialRegistry(), nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return config.EmptyCredentialRegistry(), nil
	}
	return config.NewCredentialRegistry(path)
}

func openSink(
	ctx context.Context,
	settings config.SinkSettings,
	creds config.CredentialRegistry,
) (*sql.DB, results.Store, error) {
	if settings.Driver == "" {
		return nil, nil, fmt.Errorf("sink.driver must be set to persist results")
	}

	dsn := settings.DSN
	if dsn == "" && settings.Profile != "" {
		profile, err := creds.GetCredentials(ctx, settings.Profile)
		if err != nil {
			return nil, nil, fmt.Errorf("sink credentials: %w", err)
		}
		if dsn, err = results.BuildDSN(settings.Driver, profile); err != nil {
			return nil, nil, err
		}
	}

	db, err := results.NewDB(results.Settings{Driver: settings.Driver, DSN: dsn})
	if err != nil {
		return nil, nil, err
	}

	var opts []results.Option
	if settings.Driver == results.DriverDatabricks {
		opts = append(opts, results.SingleStatement())
	}

	store, err := results.NewStore(db, settings.Table, opts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to initialize result table: %w", err)
	}
	return db, store, nil
}
