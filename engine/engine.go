// Package engine wires every component of the knowledge base engine into
// one explicit set of instances: one Embedder, one VectorStore, one
// SearchEngine (with its cache), one Registry, one IngestionPipeline, and
// one Dispatcher. There is no global singleton anywhere in this tree —
// every call site receives what it needs as a constructor argument.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/localkb/engine/chunker"
	"github.com/localkb/engine/config"
	"github.com/localkb/engine/convert"
	"github.com/localkb/engine/dispatch"
	"github.com/localkb/engine/embedding"
	"github.com/localkb/engine/ingest"
	"github.com/localkb/engine/registry"
	"github.com/localkb/engine/search"
	"github.com/localkb/engine/store"
	"github.com/localkb/engine/textsplitter"
)

// Engine is the fully wired set of components. Fields are exported so
// callers (a CLI, an MCP server, tests) can reach individual components
// directly when the Dispatcher's tool surface is too coarse.
type Engine struct {
	Config         *config.Config
	Store          *store.LanceDBStore
	Embedder       *embedding.Manager
	Pipeline       *ingest.Pipeline
	Search         *search.Engine
	Registry       *registry.Registry
	Dispatcher     *dispatch.Dispatcher
	ChunkerOptions chunker.Options
}

// BackendKind selects which embedding backend New wires up.
type BackendKind string

const (
	BackendOllama       BackendKind = "ollama"
	BackendOpenAICompat BackendKind = "openai_compatible"
)

// Options configures New beyond config.Config's persisted defaults.
type Options struct {
	EmbeddingBackend BackendKind
	EmbeddingURL     string
	EmbeddingAPIKey  string
	ConverterURL     string
	ManagerURL       string
	Logger           *slog.Logger
}

// New builds a fully wired Engine. cfg is assumed to already be validated
// (see config.Default).
func New(cfg *config.Config, opts Options) (*Engine, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	st, err := store.Open(cfg.Store.Path, cfg.SchemaVersion, opts.Logger.Warn)
	if err != nil {
		return nil, fmt.Errorf("opening vector store: %w", err)
	}

	var embedder *embedding.Manager
	switch opts.EmbeddingBackend {
	case BackendOpenAICompat:
		embedder = embedding.NewManager(cfg.Embedding.Model, embedding.NewOpenAICompatibleBackend(opts.EmbeddingURL, opts.EmbeddingAPIKey), opts.Logger)
	default:
		embedder = embedding.NewManager(cfg.Embedding.Model, embedding.NewOllamaBackend(opts.EmbeddingURL), opts.Logger)
	}

	tokenizer, err := textsplitter.NewTikTokenTokenizer("gpt-3.5-turbo")
	if err != nil {
		opts.Logger.Warn("engine: falling back to whitespace tokenizer", "error", err)
	}

	chunkerOpts := chunker.Options{
		MaxChars:     cfg.Chunker.MaxChars,
		OverlapChars: cfg.Chunker.OverlapChars,
		MaxTokens:    cfg.Chunker.MaxTokens,
	}
	if tokenizer != nil {
		chunkerOpts.Tokenizer = tokenizer
	} else {
		chunkerOpts.Tokenizer = textsplitter.NewSimpleTokenizer()
	}

	converter, err := convert.NewFacade(opts.ConverterURL, cfg.Ingestion.ConverterTimeout)
	if err != nil {
		return nil, fmt.Errorf("building converter facade: %w", err)
	}

	pipeline := ingest.NewPipeline(st, converter, embedder, cfg.SchemaVersion, opts.Logger)
	searchEngine := search.NewEngine(st, embedder, cfg.Search.CacheTTL, opts.Logger)
	reg := registry.NewRegistry(st, cfg.SchemaVersion)
	dispatcher := dispatch.NewDispatcher(reg, searchEngine, cfg.DataRoot, opts.ManagerURL)

	return &Engine{
		Config:         cfg,
		Store:          st,
		Embedder:       embedder,
		Pipeline:       pipeline,
		Search:         searchEngine,
		Registry:       reg,
		Dispatcher:     dispatcher,
		ChunkerOptions: chunkerOpts,
	}, nil
}

// Close releases the store's underlying connection.
func (e *Engine) Close() error {
	return e.Store.Close()
}
