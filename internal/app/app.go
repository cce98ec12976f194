// Package app wires the notebook's adapters and services together.
//
// Front ends receive an *App and never construct stores or providers
// themselves.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/vector/local"
	"github.com/custodia-labs/notebook-cli/internal/adapters/driven/vector/pgvector"
	"github.com/custodia-labs/notebook-cli/internal/config"
	"github.com/custodia-labs/notebook-cli/internal/core/domain"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driven"
	"github.com/custodia-labs/notebook-cli/internal/core/ports/driving"
	"github.com/custodia-labs/notebook-cli/internal/core/services"
	"github.com/custodia-labs/notebook-cli/internal/extractors"
	fileextractor "github.com/custodia-labs/notebook-cli/internal/extractors/file"
	"github.com/custodia-labs/notebook-cli/internal/extractors/web"
	"github.com/custodia-labs/notebook-cli/internal/extractors/youtube"
	"github.com/custodia-labs/notebook-cli/internal/logger"
	"github.com/custodia-labs/notebook-cli/internal/metrics"
	"github.com/custodia-labs/notebook-cli/internal/postprocessors/chunker"
)

// shutdownTimeout bounds how long Close waits for queued ingestion jobs.
const shutdownTimeout = 30 * time.Second

// Options are the command-line overrides applied on top of the
// environment and config file.
type Options struct {
	// ConfigPath is the --config flag.
	ConfigPath string

	// DataDir is the --data-dir flag.
	DataDir string

	// EnvFiles are .env files to load. Empty tries ./.env.
	EnvFiles []string
}

// Base holds what is needed before any store is opened: config locations
// and settings. Commands like `settings` only need a Base.
type Base struct {
	Paths       config.Paths
	ConfigStore *file.ConfigStore
	Settings    *services.SettingsService
}

// LoadBase loads the environment and config file. Flags in opts take
// precedence over both.
func LoadBase(opts Options) (*Base, error) {
	if err := config.LoadEnv(opts.EnvFiles...); err != nil {
		return nil, err
	}

	paths, err := config.ResolvePaths(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	store, err := file.NewConfigStore(paths.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidConfig, err)
	}

	settings := services.NewSettingsService(store, ai.NewConfigValidator())
	if opts.DataDir != "" {
		settings.SetEnvLookup(overrideEnv(map[string]string{"NOTEBOOK_DATA_DIR": opts.DataDir}))
	}

	return &Base{Paths: paths, ConfigStore: store, Settings: settings}, nil
}

// overrideEnv returns an environment lookup where values wins over the
// process environment.
func overrideEnv(values map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := values[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	}
}

// App is the assembled application.
type App struct {
	*Base

	Config *domain.Settings

	Store    driven.MetadataStore
	Index    driven.VectorIndex
	Embedder driven.EmbeddingService
	LLM      driven.LLMService
	Prompts  *file.PromptStore
	Metrics  *metrics.Metrics
	Pool     *services.WorkerPool
	Files    *fileextractor.Extractor

	Indexer   driving.Indexer
	Query     driving.QueryEngine
	Answer    driving.AnswerService
	Documents driving.DocumentService
	Repair    driving.RepairService
	Ingest    driving.IngestService

	closers []func() error
}

// New loads settings and opens every store and provider. An unusable
// embedding configuration does not fail construction: listing and
// deleting still work, and operations that need embeddings return the
// configuration error.
func New(ctx context.Context, opts Options) (*App, error) {
	base, err := LoadBase(opts)
	if err != nil {
		return nil, err
	}
	cfg, err := base.Settings.Get()
	if err != nil {
		return nil, err
	}
	dataDir, err := config.ResolveDataDir(cfg.DataDir)
	if err != nil {
		return nil, err
	}
	cfg.DataDir = dataDir
	if cfg.Ingest.UploadsDir, err = config.ResolveDataDir(cfg.Ingest.UploadsDir); err != nil {
		return nil, err
	}

	a := &App{Base: base, Config: cfg}
	if err := a.build(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context) error {
	cfg := a.Config
	logger.Debug("data directory %s", cfg.DataDir)
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return &domain.StorageError{Step: "open metadata store", Err: err}
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	index, err := openIndex(ctx, cfg)
	if err != nil {
		return &domain.StorageError{Step: "open vector index", Err: err}
	}
	a.Index = index
	a.closers = append(a.closers, index.Close)

	embedder, err := ai.CreateEmbeddingService(&cfg.Embedding)
	if err != nil {
		logger.Warn("embeddings unavailable: %v", err)
		embedder = unavailableEmbedder{err: err}
	}
	a.Embedder = embedder
	a.closers = append(a.closers, embedder.Close)

	llm, err := ai.CreateLLMService(&cfg.LLM)
	if err != nil {
		logger.Warn("answer model unavailable: %v", err)
		llm = nil
	}
	if llm != nil {
		a.LLM = llm
		a.closers = append(a.closers, llm.Close)
	}

	chunks, err := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.Size),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)
	if err != nil {
		return err
	}

	a.Metrics = metrics.New()
	a.Prompts = file.NewPromptStore(a.Paths.PromptDir, services.DefaultPrompts())
	locks := services.NewKeyedMutex()

	a.Indexer = services.NewIndexerService(store, index, embedder, chunks, locks, a.Metrics)
	query := services.NewQueryService(index, embedder, cfg.Retrieval, a.Metrics)
	a.Query = query

	answer := services.NewAnswerService(query, a.LLM, cfg.LLM.Temperature)
	answer.SetPromptStore(a.Prompts)
	a.Answer = answer

	a.Documents = services.NewDocumentService(store, index, locks)
	a.Repair = services.NewRepairService(store, index, embedder, locks)

	a.Pool = services.NewWorkerPool(cfg.Ingest.Workers, cfg.Ingest.QueueSize, a.Metrics)
	a.closers = append(a.closers, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.Pool.Shutdown(ctx)
	})

	fetch := extractors.FetchConfig{
		Timeout:           cfg.Ingest.FetchTimeout,
		RequestsPerSecond: cfg.Ingest.FetchRate,
	}
	a.Files = fileextractor.NewDefault()
	a.Ingest = services.NewIngestService(a.Indexer, a.Pool, a.Metrics,
		a.Files,
		web.New(fetch),
		youtube.New(youtube.Config{
			Fetch:     fetch,
			APIKey:    cfg.Ingest.YouTubeAPIKey,
			Languages: cfg.Ingest.TranscriptLanguages,
		}),
	)
	return nil
}

func openIndex(ctx context.Context, cfg *domain.Settings) (driven.VectorIndex, error) {
	switch cfg.Vector.Backend {
	case domain.VectorBackendPgvector:
		return pgvector.NewIndex(ctx, cfg.Vector.DSN)
	case domain.VectorBackendMemory:
		return memory.NewVectorIndex(), nil
	default:
		return local.NewIndex(cfg.DataDir)
	}
}

// Close shuts down the worker pool and releases every store and
// provider in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// unavailableEmbedder stands in for an embedding service that could not
// be created and reports why on every call.
type unavailableEmbedder struct {
	err error
}

func (u unavailableEmbedder) Embed(context.Context, string) ([]float32, error) { return nil, u.err }
func (u unavailableEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, u.err
}
func (u unavailableEmbedder) Dimensions() int            { return 0 }
func (u unavailableEmbedder) ModelName() string          { return "" }
func (u unavailableEmbedder) Ping(context.Context) error { return u.err }
func (u unavailableEmbedder) Close() error               { return nil }
