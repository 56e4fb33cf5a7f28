package cli

import (
	"context"
	"fmt"

	"github.com/raphaelgruber/uniassist/internal/config"
	"github.com/raphaelgruber/uniassist/internal/db"
	"github.com/raphaelgruber/uniassist/internal/document"
	"github.com/raphaelgruber/uniassist/internal/history"
	"github.com/raphaelgruber/uniassist/internal/llm"
	"github.com/raphaelgruber/uniassist/internal/metrics"
	"github.com/raphaelgruber/uniassist/internal/prompt"
	"github.com/raphaelgruber/uniassist/internal/service"
	"go.opentelemetry.io/otel/trace"
)

// connectDB opens the record store and applies the schema.
func connectDB(ctx context.Context, collector *metrics.Collector) (*db.Client, error) {
	client, err := db.NewClient(ctx, db.ConfigFrom(cfg), logger, collector)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := client.InitSchema(ctx); err != nil {
		_ = client.Close(ctx)
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return client, nil
}

// openHistory opens the configured history store. dbClient may be nil unless
// the surreal backend is selected.
func openHistory(dbClient *db.Client) (history.Store, error) {
	var records history.HistoryRecords
	if dbClient != nil {
		records = dbClient
	}
	store, err := history.Open(cfg, records)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}

// historyNeedsDB reports whether the history backend lives in the record store.
func historyNeedsDB() bool {
	return cfg.HistoryBackend == config.HistoryBackendSurreal
}

// newChatService wires the extractor, composer and agent around store.
func newChatService(ctx context.Context, store history.Store, collector *metrics.Collector, tracer trace.Tracer) (*service.ChatService, error) {
	agent, err := llm.NewAgentFromConfig(ctx, cfg, collector, logger)
	if err != nil {
		return nil, fmt.Errorf("init agent: %w", err)
	}
	return service.NewChatService(service.ChatDeps{
		Extractor:    document.NewExtractor(),
		Store:        store,
		Composer:     prompt.New(cfg.Institution, cfg.MaxPromptChars),
		Agent:        agent,
		ReferenceDoc: cfg.ReferenceDoc,
		Metrics:      collector,
		Logger:       logger,
		Tracer:       tracer,
	}), nil
}
