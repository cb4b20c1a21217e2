package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/swethakommuri/GEN-AI-DEMO/internal/application"
	appai "github.com/swethakommuri/GEN-AI-DEMO/internal/application/ai"
	appdocs "github.com/swethakommuri/GEN-AI-DEMO/internal/application/documents"
	appinsights "github.com/swethakommuri/GEN-AI-DEMO/internal/application/insights"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/application/sessions"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/config"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/ai"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/audit"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/clients"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/documents"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/insights"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/domain/roles"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/ai/ollama"
	openaiClient "github.com/swethakommuri/GEN-AI-DEMO/internal/infra/ai/openai"
	mysqlp "github.com/swethakommuri/GEN-AI-DEMO/internal/infra/db/mysql"
	postgresp "github.com/swethakommuri/GEN-AI-DEMO/internal/infra/db/postgres"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/extract"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/knowledge"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/infra/storage"
	"github.com/swethakommuri/GEN-AI-DEMO/internal/metrics"
)

// app holds every wired service of the process.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *metrics.Metrics
	roles      *roles.Table
	clients    *clients.Catalog
	generation *appai.Service
	insights   *appinsights.Service
	documents  *appdocs.Service
	sessions   *sessions.Registry
	exporter   *appinsights.Exporter
	audit      audit.Repository
	db         *sql.DB
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
}

func newTransport(cfg *config.Config, logger *slog.Logger) (ai.Transport, error) {
	switch cfg.Generation.Provider {
	case "openai":
		if cfg.Generation.OpenAI.APIKey == "" && cfg.Generation.OpenAI.BaseURL == "" {
			return nil, fmt.Errorf("openai provider needs an API key or a compatible base URL")
		}
		return openaiClient.NewClient(cfg.Generation.OpenAI.APIKey, cfg.Generation.OpenAI.BaseURL), nil
	case "ollama", "":
		return ollama.NewClient(cfg.Generation.OllamaURL, ollama.WithLogger(logger)), nil
	}
	return nil, fmt.Errorf("unknown generation provider %q", cfg.Generation.Provider)
}

func openAudit(ctx context.Context, cfg *config.Config) (audit.Repository, *sql.DB, error) {
	switch cfg.Audit.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect error: %w", err)
		}
		return mysqlp.NewAuditRepository(db), db, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect error: %w", err)
		}
		return postgresp.NewAuditRepository(db), db, nil
	}
	return nil, nil, nil
}

// openArchive returns a nil interface, never a typed nil, when no backend is
// configured.
func openArchive(ctx context.Context, cfg *config.Config) (insights.Archive, error) {
	switch cfg.Archive.Backend {
	case "minio":
		store, err := storage.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return nil, fmt.Errorf("minio init error: %w", err)
		}
		return store, nil
	case "s3":
		store, err := storage.NewS3(ctx, cfg.S3.Region, cfg.S3.Bucket, cfg.S3.AccessKey, cfg.S3.SecretKey)
		if err != nil {
			return nil, fmt.Errorf("s3 init error: %w", err)
		}
		return store, nil
	}
	return nil, nil
}

func buildApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	table, err := cfg.RoleTable()
	if err != nil {
		return nil, fmt.Errorf("roles: %w", err)
	}
	transport, err := newTransport(cfg, logger)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:     cfg,
		logger:  logger,
		metrics: metrics.New(),
		roles:   table,
		clients: cfg.Catalog(),
	}

	a.audit, a.db, err = openAudit(ctx, cfg)
	if err != nil {
		return nil, err
	}
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if archive != nil {
		a.exporter = appinsights.NewExporter(archive)
	}

	opts := []appai.Option{
		appai.WithParams(cfg.Params()),
		appai.WithRetryConfig(appai.RetryConfig{
			MaxRetries: cfg.Generation.MaxRetries,
			Timeout:    cfg.Generation.Timeout,
			Pause:      cfg.Generation.RetryPause,
		}),
		appai.WithMetrics(a.metrics),
		appai.WithLogger(logger),
	}
	if a.audit != nil {
		opts = append(opts, appai.WithAudit(a.audit))
	}
	a.generation = appai.NewService(transport, opts...)
	a.insights = appinsights.NewService(a.generation, logger, a.metrics)
	a.documents = appdocs.NewService(table, a.clients, extract.NewExtractor(false, logger), a.metrics, logger)

	clock := application.SystemClock{}
	a.sessions = sessions.NewRegistry(func() documents.Store {
		return knowledge.NewMemoryStore().WithClock(clock)
	}, clock)
	return a, nil
}
