// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retrievit

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/ollama"
	"github.com/poiesic/retrievit/ai/openai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/querylog"
	"github.com/poiesic/retrievit/retrieval"
	"github.com/poiesic/retrievit/retrieval/bleve"
	"github.com/poiesic/retrievit/retrieval/vector"
	"github.com/poiesic/retrievit/rewrite"
	"github.com/poiesic/retrievit/search"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
)

// Engine wires the whole retrieval system together: the badger-backed
// passage and query-log stores, the bleve lexical index, the AI provider,
// the rewriter and the query log.
type Engine struct {
	backend      *badger.Backend
	passageRepo  storage.PassageRepository
	queryLogRepo storage.QueryLogRepository
	provider     ai.AIProvider
	vectorStore  *vector.Store
	lexicalIndex *bleve.Index
	rewriter     *rewrite.Rewriter
	queryLog     *querylog.QueryLog
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*engineOptions)

type engineOptions struct {
	aiConfig  *ai.Config
	inMemory  bool
	providers []ai.Generator
	localURL  string
	localName string
}

// WithAIConfig sets the AI service configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(cfg *ai.Config) EngineOption {
	return func(o *engineOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithInMemory keeps both stores in memory; nothing is written to disk.
// Intended for tests and ephemeral setups.
func WithInMemory() EngineOption {
	return func(o *engineOptions) {
		o.inMemory = true
	}
}

// WithRewriteProviders replaces the default rewrite provider chain.
// Providers are tried in order; the identity fallback is always appended.
func WithRewriteProviders(providers ...ai.Generator) EngineOption {
	return func(o *engineOptions) {
		o.providers = providers
	}
}

// WithLocalRewriter puts a native ollama generator at the head of the
// rewrite provider chain, ahead of the OpenAI-compatible one.
func WithLocalRewriter(serverURL, model string) EngineOption {
	return func(o *engineOptions) {
		o.localURL = serverURL
		o.localName = model
	}
}

// NewEngine opens all stores under dataDir and constructs the system.
// The context bounds the initial query-log load.
func NewEngine(ctx context.Context, dataDir string, opts ...EngineOption) (*Engine, error) {
	options := &engineOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filepath.Join(dataDir, "store"), options.inMemory)
	if err != nil {
		return nil, err
	}

	passageRepo := badger.NewPassageRepository(backend)
	queryLogRepo := badger.NewQueryLogRepository(backend)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		backend.Close()
		return nil, err
	}

	vectorStore, err := vector.NewStore(provider.Embedder(), passageRepo)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	var lexicalIndex *bleve.Index
	if options.inMemory {
		lexicalIndex, err = bleve.NewMemoryIndex()
	} else {
		lexicalIndex, err = bleve.Open(filepath.Join(dataDir, "lexical.bleve"))
	}
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	queryLog, err := querylog.NewQueryLog(ctx, queryLogRepo)
	if err != nil {
		lexicalIndex.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	providers := options.providers
	if providers == nil {
		if options.localURL != "" {
			local, localErr := ollama.NewGenerator(options.localURL, options.localName)
			if localErr != nil {
				queryLog.Close()
				lexicalIndex.Close()
				provider.Close()
				backend.Close()
				return nil, localErr
			}
			providers = append(providers, local)
		}
		providers = append(providers, provider.Generator())
	}

	rewriter, err := rewrite.NewRewriter(providers, rewrite.WithExampleSource(queryLog))
	if err != nil {
		queryLog.Close()
		lexicalIndex.Close()
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Engine{
		backend:      backend,
		passageRepo:  passageRepo,
		queryLogRepo: queryLogRepo,
		provider:     provider,
		vectorStore:  vectorStore,
		lexicalIndex: lexicalIndex,
		rewriter:     rewriter,
		queryLog:     queryLog,
		logger:       slog.Default(),
	}, nil
}

// NewSearchPipeline creates a search pipeline over the engine's stores,
// wired to its rewriter and query log. Caller options may override both.
func (e *Engine) NewSearchPipeline(opts ...search.Option) (*search.Pipeline, error) {
	all := append([]search.Option{
		search.WithRewriter(e.rewriter),
		search.WithQueryLog(e.queryLog),
	}, opts...)
	return search.NewPipeline(e.vectorStore, e.lexicalIndex, e.provider.CrossEncoder(), all...)
}

// IndexDocuments embeds each payload's text, stores the passage record and
// adds the document to the lexical index. Payloads without extractable text
// are skipped. Returns the number of documents indexed.
func (e *Engine) IndexDocuments(ctx context.Context, payloads ...core.Payload) (int, error) {
	records := make([]*core.PassageRecord, 0, len(payloads))
	docs := make([]retrieval.Document, 0, len(payloads))

	for i := range payloads {
		payload := payloads[i]
		text, ok := retrieval.ExtractText(&payload)
		if !ok {
			e.logger.Warn("skipping document without extractable text", "page_id", payload.PageID)
			continue
		}

		embedding, err := e.provider.Embedder().EmbedText(ctx, text)
		if err != nil {
			return 0, err
		}
		vector.Normalize(embedding)

		records = append(records, &core.PassageRecord{
			Key:     payload.PageID,
			Payload: payload,
			Vector:  embedding,
		})
		docs = append(docs, retrieval.Document{ID: payload.PageID, Payload: payload})
	}

	if len(records) == 0 {
		return 0, nil
	}

	if _, err := e.passageRepo.AddPassages(ctx, records...); err != nil {
		return 0, err
	}
	if err := e.lexicalIndex.Index(ctx, docs...); err != nil {
		return 0, err
	}
	return len(records), nil
}

// RateQuery records user feedback for a past query.
func (e *Engine) RateQuery(ctx context.Context, query string, rating int) error {
	if err := core.ValidateRating(rating); err != nil {
		return err
	}
	e.queryLog.LogQuery(ctx, query, 0, rating)
	return nil
}

// QueryLog returns the semantic query log service.
func (e *Engine) QueryLog() *querylog.QueryLog {
	return e.queryLog
}

// Rewriter returns the query rewriter.
func (e *Engine) Rewriter() *rewrite.Rewriter {
	return e.rewriter
}

// PassageRepository returns the passage storage.
func (e *Engine) PassageRepository() storage.PassageRepository {
	return e.passageRepo
}

// LexicalIndex returns the lexical index.
func (e *Engine) LexicalIndex() retrieval.LexicalIndex {
	return e.lexicalIndex
}

// Close saves the query log and closes every store.
func (e *Engine) Close() error {
	if err := e.queryLog.Close(); err != nil {
		e.logger.Error("error closing query log", "err", err)
	}

	if err := e.provider.Close(); err != nil {
		e.logger.Error("error closing AI provider", "err", err)
	}

	if err := e.lexicalIndex.Close(); err != nil {
		e.logger.Error("error closing lexical index", "err", err)
		return err
	}

	if err := e.vectorStore.Close(); err != nil {
		e.logger.Error("error closing vector store", "err", err)
		return err
	}

	if err := e.backend.Close(); err != nil {
		e.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}
