package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/ai"
	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/config/file"
	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/memory"
	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/postgres"
	"github.com/vippawar1104/RAG-agent/internal/adapters/driven/storage/sqlite"
	"github.com/vippawar1104/RAG-agent/internal/adapters/driving/cli"
	"github.com/vippawar1104/RAG-agent/internal/connectors/filesystem"
	"github.com/vippawar1104/RAG-agent/internal/core/domain"
	"github.com/vippawar1104/RAG-agent/internal/core/ports/driven"
	"github.com/vippawar1104/RAG-agent/internal/core/services"
	"github.com/vippawar1104/RAG-agent/internal/extractors"
	"github.com/vippawar1104/RAG-agent/internal/logger"
)

// bootstrap builds the services for one command. Settings are always
// returned; a pipeline that cannot be built is reported through
// Services.PipelineErr so 'ragent settings' can still repair it.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Warn("loading .env: %v", err)
	}

	var configStore driven.ConfigStore
	if opts.Ephemeral {
		configStore = memory.NewConfigStore(nil)
	} else {
		store, err := file.NewConfigStore("")
		if err != nil {
			return nil, fmt.Errorf("opening config: %w", err)
		}
		configStore = store
	}
	settingsService := services.NewSettingsService(configStore, nil)

	svc := &cli.Services{Settings: settingsService, Close: func() {}}

	settings, err := settingsService.Get()
	if err != nil {
		svc.PipelineErr = err
		return svc, nil
	}
	if err := settings.Validate(); err != nil {
		svc.PipelineErr = err
		return svc, nil
	}

	p, err := buildPipeline(ctx, settings, opts.Ephemeral)
	if err != nil {
		svc.PipelineErr = err
		return svc, nil
	}

	svc.Ingestion = p.ingestion
	svc.Query = p.query
	svc.Watcher = p.newWatcher
	svc.Check = func(ctx context.Context) error { return ai.Check(ctx, p.ai) }
	svc.Close = p.close
	return svc, nil
}

// pipeline holds the process-wide singletons behind the driving ports.
type pipeline struct {
	ai        *ai.Services
	registry  *extractors.Registry
	ingestion *services.IngestionService
	query     *services.QueryService
	closers   []func() error
}

// stores groups the persistence ports for one backend.
type stores struct {
	index    driven.VectorIndex
	sessions driven.SessionStore
	statuses driven.IngestionStatusStore
	close    func() error
}

func buildPipeline(ctx context.Context, settings *domain.AppSettings, ephemeral bool) (*pipeline, error) {
	aiServices, err := ai.NewServices(settings)
	if err != nil {
		return nil, err
	}

	st, err := openStores(ctx, settings, ephemeral)
	if err != nil {
		aiServices.Close()
		return nil, err
	}

	var prompts driven.PromptStore
	if ephemeral {
		prompts = memory.NewPromptStore(file.DefaultPrompts())
	} else {
		ps, err := file.NewPromptStore("")
		if err != nil {
			aiServices.Close()
			_ = st.close()
			return nil, err
		}
		prompts = ps
	}

	registry := extractors.NewDefaultRegistry()
	ingestion, err := services.NewIngestionService(registry, aiServices.Embedder, st.index, st.statuses,
		services.IngestionConfig{
			ChunkSize:      settings.Pipeline.ChunkSize,
			ChunkOverlap:   settings.Pipeline.ChunkOverlap,
			Workers:        settings.Ingestion.Workers,
			EmbeddingModel: settings.Embedding.Model,
		})
	if err != nil {
		aiServices.Close()
		_ = st.close()
		return nil, err
	}

	sessions := services.NewSessionService(st.sessions, settings.Session.HistoryWindow)
	query := services.NewQueryService(aiServices.Embedder, st.index, sessions, aiServices.LLMService, prompts,
		services.QueryConfig{
			TopK:                settings.Retrieval.TopK,
			SimilarityThreshold: settings.Retrieval.SimilarityThreshold,
			MaxTokens:           settings.LLM.MaxTokens,
		})

	logger.Debug("pipeline: embedding=%s/%s llm=%s/%s index=%s sessions=%s",
		settings.Embedding.Provider, settings.Embedding.Model,
		settings.LLM.Provider, settings.LLM.Model,
		settings.VectorIndex.Backend, settings.Session.Store)

	return &pipeline{
		ai:        aiServices,
		registry:  registry,
		ingestion: ingestion,
		query:     query,
		closers:   []func() error{st.close},
	}, nil
}

// openStores selects the vector index backend. Persistent sessions share the
// index database; with the memory backend everything stays in memory.
func openStores(ctx context.Context, settings *domain.AppSettings, ephemeral bool) (*stores, error) {
	dims := settings.Embedding.Dimensions
	backend := settings.VectorIndex.Backend
	if ephemeral {
		backend = domain.VectorBackendMemory
	}

	switch backend {
	case domain.VectorBackendMemory:
		return &stores{
			index:    memory.NewVectorIndex(dims),
			sessions: memory.NewSessionStore(),
			statuses: memory.NewIngestionStatusStore(),
			close:    func() error { return nil },
		}, nil

	case domain.VectorBackendSQLite:
		var (
			db  *sqlite.Store
			err error
		)
		if dsn := settings.VectorIndex.DSN; dsn != "" {
			path := expandHome(dsn)
			if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
				return nil, fmt.Errorf("creating index directory: %w", err)
			}
			db, err = sqlite.Open(path)
		} else {
			db, err = sqlite.NewStore("")
		}
		if err != nil {
			return nil, fmt.Errorf("opening sqlite index: %w", err)
		}
		st := &stores{
			index:    db.VectorIndex(dims),
			sessions: db.SessionStore(),
			statuses: db.IngestionStatusStore(),
			close:    db.Close,
		}
		if settings.Session.Store == domain.SessionBackendMemory {
			st.sessions = memory.NewSessionStore()
		}
		return st, nil

	case domain.VectorBackendPostgres:
		db, err := postgres.Open(ctx, settings.VectorIndex.DSN, dims)
		if err != nil {
			return nil, fmt.Errorf("opening postgres index: %w", err)
		}
		st := &stores{
			index:    db.VectorIndex(),
			sessions: db.SessionStore(),
			statuses: db.IngestionStatusStore(),
			close:    db.Close,
		}
		if settings.Session.Store == domain.SessionBackendMemory {
			st.sessions = memory.NewSessionStore()
		}
		return st, nil

	default:
		return nil, fmt.Errorf("%w: vector_index.backend %q", domain.ErrUnsupportedType, backend)
	}
}

// newWatcher builds a directory watcher restricted to extractable types.
func (p *pipeline) newWatcher(dir, schedule string) (cli.Runner, error) {
	conn := filesystem.New(dir, filesystem.WithMIMETypes(p.registry.SupportedMIMETypes()))
	w, err := services.NewWatchService(conn, p.ingestion, schedule)
	if err != nil {
		return nil, err
	}
	return &connectorRunner{watch: w, conn: conn}, nil
}

// connectorRunner closes the connector when the watch loop ends.
type connectorRunner struct {
	watch *services.WatchService
	conn  driven.Connector
}

func (r *connectorRunner) Run(ctx context.Context) error {
	defer func() {
		if err := r.conn.Close(); err != nil {
			logger.Warn("closing %s connector: %v", r.conn.Type(), err)
		}
	}()
	return r.watch.Run(ctx)
}

func (p *pipeline) close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			logger.Warn("closing store: %v", err)
		}
	}
	p.ai.Close()
}

func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
