// Package service assembles the engine, handlers, stores, and
// collaborators from configuration and exposes the single Invoke entry
// point used by both the CLI and the HTTP surface.
package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"lina/internal/config"
	"lina/internal/embedding"
	"lina/internal/engine"
	"lina/internal/handlers"
	"lina/internal/logging"
	"lina/internal/logstore"
	"lina/internal/perception"
	"lina/internal/remote"
	"lina/internal/session"
)

// Service is the assembled application.
type Service struct {
	cfg      *config.Config
	engine   *engine.Engine
	sessions session.Store
	store    *logstore.Store
	pipeline *logstore.Pipeline
	embedder embedding.Engine
}

// New builds the service from configuration. The log store may come up
// degraded; the service still starts and the analysis handler runs
// without retrieval context.
func New(cfg *config.Config) (*Service, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "service.New")
	defer timer.StopWithInfo()

	llm := perception.NewGeminiClientWithConfig(perception.GeminiConfig{
		APIKey:          cfg.LLM.APIKey,
		BaseURL:         cfg.LLM.BaseURL,
		Model:           cfg.LLM.Model,
		Timeout:         cfg.GetLLMTimeout(),
		MaxOutputTokens: cfg.LLM.MaxOutputTokens,
	})

	embedder, err := embedding.NewEngine(embedding.Config{
		Provider:       cfg.Embedding.Provider,
		OllamaEndpoint: cfg.Embedding.OllamaEndpoint,
		OllamaModel:    cfg.Embedding.OllamaModel,
		GenAIAPIKey:    cfg.Embedding.GenAIAPIKey,
		GenAIModel:     cfg.Embedding.GenAIModel,
		MaxAttempts:    cfg.Embedding.MaxAttempts,
		BaseBackoff:    cfg.GetEmbeddingBackoff(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding engine: %w", err)
	}

	store := logstore.Open(cfg.LogStore.DatabasePath, cfg.LogStore.Dimension)

	sessions, err := newSessionStore(cfg)
	if err != nil {
		store.Close()
		return nil, err
	}

	executor := remote.NewSSHExecutor(remote.Config{
		Host:     cfg.Remote.Host,
		Port:     cfg.Remote.Port,
		Username: cfg.Remote.Username,
		Password: cfg.Remote.Password,
		Timeout:  cfg.GetRemoteTimeout(),
	})

	handlerTable := map[engine.Decision]engine.Handler{
		engine.DecisionAnalyzeLogs:   handlers.NewAnalyzer(llm, embedder, store),
		engine.DecisionDesignNetwork: handlers.NewNetworkDesigner(llm),
		engine.DecisionManageServer:  handlers.NewServerManager(llm, executor),
		engine.DecisionChat:          handlers.NewChat(llm),
	}

	logging.Boot("Service assembled: model=%s embedder=%s store_available=%v",
		cfg.LLM.Model, embedder.Name(), store.Available())

	return &Service{
		cfg:      cfg,
		engine:   engine.New(engine.NewRouter(llm), sessions, handlerTable),
		sessions: sessions,
		store:    store,
		pipeline: logstore.NewPipeline(store, embedder, cfg.LogStore.BatchSize),
		embedder: embedder,
	}, nil
}

func newSessionStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "sqlite":
		store, err := session.NewSQLiteStore(cfg.Session.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open session store: %w", err)
		}
		return store, nil
	case "", "memory":
		return session.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// Invoke runs one turn. An empty sessionID starts a new session with a
// generated id.
func (s *Service) Invoke(ctx context.Context, sessionID, query string) (*engine.Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
		logging.Session("Generated session id: %s", sessionID)
	}
	return s.engine.Invoke(ctx, sessionID, query)
}

// IngestFile feeds a log file through the ingestion pipeline.
func (s *Service) IngestFile(ctx context.Context, path string) (int, error) {
	return s.pipeline.IngestFile(ctx, path)
}

// Pipeline exposes the ingestion pipeline for the directory watcher.
func (s *Service) Pipeline() *logstore.Pipeline {
	return s.pipeline
}

// SearchLogs embeds the query text and searches the log store.
func (s *Service) SearchLogs(ctx context.Context, query string, topK int, onlyAnomalies bool) ([]logstore.ScoredRecord, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return s.store.Search(vec, topK, onlyAnomalies)
}

// Session returns the stored state for a session id.
func (s *Service) Session(ctx context.Context, id string) (*session.State, error) {
	return s.sessions.Load(ctx, id)
}

// StoreAvailable reports whether the log store is usable.
func (s *Service) StoreAvailable() bool {
	return s.store.Available()
}

// StoreCount reports the number of persisted log records.
func (s *Service) StoreCount() (int64, error) {
	return s.store.Count()
}

// Close releases the stores.
func (s *Service) Close() error {
	var firstErr error
	if err := s.sessions.Close(); err != nil {
		firstErr = err
	}
	if err := s.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
