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


package rewrite

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
)

const (
	defaultCacheTTL        = time.Hour
	defaultProviderTimeout = 10 * time.Second
	maxVariants            = 3
	maxExamples            = 3
	minVariantLength       = 5
)

// ExampleSource supplies previously successful query phrasings used as
// few-shot examples for the rewriting prompt.
type ExampleSource interface {
	SuccessfulQueries(limit int) []string
}

// Rewriter expands a query through a prioritized chain of generation
// backends with a TTL cache in front. A provider failure or timeout is
// swallowed and the next provider is tried; when every provider fails the
// original query passes through unchanged, so rewriting never fails the
// overall search.
type Rewriter struct {
	providers       []ai.Generator
	providerTimeout time.Duration
	cache           *gocache.Cache
	cacheTTL        time.Duration
	examples        ExampleSource
	stats           stats
	logger          *slog.Logger
}

// Option configures a Rewriter.
type Option func(*Rewriter) error

// WithCacheTTL sets how long rewrite results stay valid in the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Rewriter) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive: %v", ttl)
		}
		r.cacheTTL = ttl
		return nil
	}
}

// WithProviderTimeout bounds each individual provider call.
func WithProviderTimeout(timeout time.Duration) Option {
	return func(r *Rewriter) error {
		if timeout <= 0 {
			return fmt.Errorf("provider timeout must be positive: %v", timeout)
		}
		r.providerTimeout = timeout
		return nil
	}
}

// WithExampleSource wires a source of successful past queries into the
// rewriting prompt.
func WithExampleSource(src ExampleSource) Option {
	return func(r *Rewriter) error {
		r.examples = src
		return nil
	}
}

// WithLogger sets the logger used by the rewriter.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Rewriter) error {
		r.logger = logger
		return nil
	}
}

// NewRewriter creates a rewriter trying the given providers in order.
// An empty provider list is valid; every query then passes through as-is.
func NewRewriter(providers []ai.Generator, opts ...Option) (*Rewriter, error) {
	r := &Rewriter{
		providers:       providers,
		providerTimeout: defaultProviderTimeout,
		cacheTTL:        defaultCacheTTL,
		logger:          slog.Default().With("component", "rewriter"),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.cache = gocache.New(r.cacheTTL, r.cacheTTL)
	return r, nil
}

// Rewrite returns the query's rewritten form and its variants. Cache lookup
// comes first; on a miss, providers are tried in priority order, each with
// its own timeout. The returned result always carries at least the original
// query.
func (r *Rewriter) Rewrite(ctx context.Context, query string) core.RewriteResult {
	r.stats.incTotal()

	key := core.NormalizeQuery(query)
	if cached, ok := r.cache.Get(key); ok {
		result := cached.(core.RewriteResult)
		result.FromCache = true
		r.stats.incCacheHit()
		r.logger.Debug("rewrite cache hit", "query", key)
		return result
	}

	result := r.rewriteUncached(ctx, query)
	r.cache.Set(key, result, gocache.DefaultExpiration)
	return result
}

func (r *Rewriter) rewriteUncached(ctx context.Context, query string) core.RewriteResult {
	var examples []string
	if r.examples != nil {
		examples = r.examples.SuccessfulQueries(maxExamples)
	}
	prompt := buildPrompt(query, examples)

	for _, provider := range r.providers {
		start := time.Now()
		output, err := r.generate(ctx, provider, prompt)
		if err != nil {
			r.stats.incProviderFailed(provider.Name())
			r.logger.Warn("rewrite provider unavailable",
				"provider", provider.Name(), "error", err)
			continue
		}

		variants := parseVariants(query, output)
		r.stats.incProviderSuccess(provider.Name())
		r.logger.Info("query rewritten",
			"provider", provider.Name(),
			"variants", len(variants)-1,
			"latency", time.Since(start))

		text := query
		if len(variants) > 1 {
			text = variants[1]
		}
		return core.RewriteResult{
			Text:     text,
			Variants: variants,
			Provider: provider.Name(),
		}
	}

	r.stats.incNoRewriting()
	return core.RewriteResult{
		Text:     query,
		Variants: []string{query},
		Provider: "identity",
	}
}

func (r *Rewriter) generate(ctx context.Context, provider ai.Generator, prompt string) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, r.providerTimeout)
	defer cancel()
	return provider.Generate(callCtx, prompt)
}

// Stats returns a snapshot of the rewriter counters.
func (r *Rewriter) Stats() StatsSnapshot {
	snapshot := r.stats.snapshot()
	snapshot.CacheSize = r.cache.ItemCount()
	return snapshot
}

// ClearCache drops all cached rewrites.
func (r *Rewriter) ClearCache() {
	r.cache.Flush()
}

// buildPrompt asks for two alternative phrasings of the query, optionally
// seeded with previously successful queries.
func buildPrompt(query string, examples []string) string {
	var b strings.Builder
	b.WriteString("Сгенерируй 2 альтернативных варианта этого поискового запроса,\n")
	b.WriteString("используя синонимы и перефразирование.\n")
	b.WriteString("Запросы должны быть на том же языке, что и исходный.\n\n")
	b.WriteString("Исходный запрос: ")
	b.WriteString(query)
	if len(examples) > 0 {
		b.WriteString("\n\nПримеры успешных запросов:\n")
		for i, ex := range examples {
			if i >= maxExamples {
				break
			}
			b.WriteString("- ")
			b.WriteString(ex)
			b.WriteString("\n")
		}
	}
	b.WriteString("\n\nВарианты (только текст, без нумерации и пояснений):")
	return b.String()
}

// parseVariants extracts rewrite variants from model output. List numbering
// and bullets are stripped; short fragments and duplicates are dropped. The
// original query is always the first variant and the total is capped at
// three.
func parseVariants(query, output string) []string {
	variants := []string{query}
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "0123456789.-)* ")
		if len([]rune(line)) <= minVariantLength {
			continue
		}
		duplicate := false
		for _, existing := range variants {
			if existing == line {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		variants = append(variants, line)
		if len(variants) == maxVariants {
			break
		}
	}
	return variants
}
