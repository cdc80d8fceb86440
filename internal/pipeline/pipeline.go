// Package pipeline assembles the fetcher, store, dispatcher and ingest
// service from a config.Config.
package pipeline

import (
	"context"
	"database/sql"

	"vplan-backend/internal/config"
	"vplan-backend/lib/restyutil"
	"vplan-backend/lib/scrapers/untis"
	"vplan-backend/lib/sqliteutil"
	"vplan-backend/lib/substore"
	"vplan-backend/lib/substore/db"
	"vplan-backend/lib/telemetry"
	"vplan-backend/services/ingest"
	"vplan-backend/services/notify"
)

type Options struct {
	// Dump receives raw http exchanges of the fetcher, it may be nil.
	Dump restyutil.Output
	// Transport overrides the transport derived from the ntfy config.
	Transport notify.Transport
}

type Pipeline struct {
	DB         *sql.DB
	Store      substore.Store
	Client     *untis.Client
	Dispatcher *notify.Dispatcher
	Service    *ingest.Service
}

// OpenStore opens the configured database and applies the schema.
func OpenStore(ctx context.Context, cfg config.Config) (*sql.DB, substore.Store, error) {
	database, err := sqliteutil.Open(ctx, cfg.DatabaseConfig(), db.Schema)
	if err != nil {
		return nil, substore.Store{}, err
	}
	return database, substore.NewStore(database), nil
}

func New(ctx context.Context, cfg config.Config, opts Options, tel telemetry.API) (*Pipeline, error) {
	ingestOpts, err := cfg.IngestOptions()
	if err != nil {
		return nil, err
	}

	client, err := untis.NewClient(
		cfg.ClientOptions(opts.Dump),
		telemetry.NewScopedAPI("untis", tel),
	)
	if err != nil {
		return nil, err
	}

	database, store, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	transport := opts.Transport
	if transport == nil {
		transport = notify.NewTransport(cfg.NtfyOptions(), telemetry.NewScopedAPI("ntfy", tel))
	}
	dispatcher := notify.NewDispatcher(
		transport,
		cfg.Expander(),
		notify.SubscriptionRecipients{Directory: store},
		telemetry.NewScopedAPI("notify", tel),
	)

	service := ingest.NewService(
		client,
		store,
		dispatcher,
		ingestOpts,
		telemetry.NewScopedAPI("ingest", tel),
	)

	return &Pipeline{
		DB:         database,
		Store:      store,
		Client:     client,
		Dispatcher: dispatcher,
		Service:    service,
	}, nil
}

func (p *Pipeline) Close() error {
	return p.DB.Close()
}
