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


package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/querylog"
	"github.com/poiesic/retrievit/rank"
	"github.com/poiesic/retrievit/retrieval"
	"github.com/poiesic/retrievit/rewrite"
)

const (
	// defaultCandidateDepth is how many candidates each retrieval source
	// contributes before fusion. Deeper than the final result limit so
	// fusion has a real union to work with.
	defaultCandidateDepth = 20

	// defaultLegTimeout bounds each retrieval leg (one variant against
	// one source).
	defaultLegTimeout = 5 * time.Second
)

// Pipeline runs the hybrid search flow: classify intent, rewrite the query,
// retrieve candidates from the vector and lexical sources in parallel, fuse,
// boost, rerank and filter.
type Pipeline struct {
	vectorStore    retrieval.VectorStore
	lexicalIndex   retrieval.LexicalIndex
	reranker       *rank.Reranker
	rewriter       *rewrite.Rewriter
	queryLog       *querylog.QueryLog
	fusionConfig   rank.FusionConfig
	boostConfig    rank.BoostConfig
	thresholds     rank.ThresholdConfig
	candidateDepth int
	legTimeout     time.Duration
	pool           *ants.Pool
	logger         *slog.Logger
}

// Response is the output of one search request.
type Response struct {
	Query   string
	Space   string
	Intent  core.QueryIntent
	Rewrite core.RewriteResult
	Results []core.RankedResult
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithRewriter sets the query rewriter. Without one, queries are searched
// verbatim.
func WithRewriter(rewriter *rewrite.Rewriter) Option {
	return func(p *Pipeline) error {
		p.rewriter = rewriter
		return nil
	}
}

// WithQueryLog sets the semantic query log. Without one, searches are not
// recorded.
func WithQueryLog(log *querylog.QueryLog) Option {
	return func(p *Pipeline) error {
		p.queryLog = log
		return nil
	}
}

// WithFusionConfig overrides the fusion parameters.
func WithFusionConfig(cfg rank.FusionConfig) Option {
	return func(p *Pipeline) error {
		p.fusionConfig = cfg
		return nil
	}
}

// WithBoostConfig overrides the metadata boost parameters.
func WithBoostConfig(cfg rank.BoostConfig) Option {
	return func(p *Pipeline) error {
		p.boostConfig = cfg
		return nil
	}
}

// WithThresholdConfig overrides the per-intent relevance floors.
func WithThresholdConfig(cfg rank.ThresholdConfig) Option {
	return func(p *Pipeline) error {
		p.thresholds = cfg
		return nil
	}
}

// WithCandidateDepth sets how many candidates each source contributes
// before fusion. Default is 20.
func WithCandidateDepth(depth int) Option {
	return func(p *Pipeline) error {
		if depth < 1 {
			depth = 1
		}
		p.candidateDepth = depth
		return nil
	}
}

// WithLegTimeout sets the timeout for each retrieval leg.
// Default is 5 seconds.
func WithLegTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout > 0 {
			p.legTimeout = timeout
		}
		return nil
	}
}

// WithPoolSize sets the worker pool size for concurrent retrieval legs.
// Default is runtime.NumCPU(), with a minimum of 2.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 2 {
			size = 2
		}

		if p.pool != nil {
			p.pool.Release()
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// NewPipeline creates a new search pipeline. The encoder may be nil, in
// which case reranking is skipped and results keep their boosted order.
func NewPipeline(
	vectorStore retrieval.VectorStore,
	lexicalIndex retrieval.LexicalIndex,
	encoder ai.CrossEncoder,
	opts ...Option,
) (*Pipeline, error) {
	if vectorStore == nil {
		return nil, ErrVectorStoreRequired
	}
	if lexicalIndex == nil {
		return nil, ErrLexicalIndexRequired
	}

	poolSize := runtime.NumCPU()
	if poolSize < 2 {
		poolSize = 2
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		vectorStore:    vectorStore,
		lexicalIndex:   lexicalIndex,
		reranker:       rank.NewReranker(encoder),
		fusionConfig:   rank.DefaultFusionConfig(),
		boostConfig:    rank.DefaultBoostConfig(),
		thresholds:     rank.DefaultThresholdConfig(),
		candidateDepth: defaultCandidateDepth,
		legTimeout:     defaultLegTimeout,
		pool:           pool,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}

	return p, nil
}

// Search runs the full pipeline for one request.
func (p *Pipeline) Search(ctx context.Context, req core.SearchRequest) (*Response, error) {
	return p.SearchWithMonitor(ctx, req, nil)
}

// SearchWithMonitor runs the full pipeline with stage monitoring.
// The monitor receives callbacks after each pipeline stage.
func (p *Pipeline) SearchWithMonitor(ctx context.Context, req core.SearchRequest, monitor SearchMonitor) (*Response, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	if err := core.ValidateSearchRequest(&req); err != nil {
		return nil, err
	}

	monitor.Start(req.Query)

	intent := rank.ClassifyIntent(req.Query)

	// An explicit space filter wins over one extracted from the query text.
	space := req.Space
	if space == "" {
		space = ExtractSpace(req.Query)
	}

	rewriteResult := core.RewriteResult{
		Text:     req.Query,
		Variants: []string{req.Query},
		Provider: "identity",
	}
	if p.rewriter != nil {
		rewriteResult = p.rewriter.Rewrite(ctx, req.Query)
	}
	monitor.AfterRewrite(rewriteResult)

	vectorResults, lexicalResults, err := p.retrieve(ctx, rewriteResult.Variants, space)
	if err != nil {
		return nil, err
	}
	monitor.AfterVectorSearch(vectorResults)
	monitor.AfterLexicalSearch(lexicalResults)

	weights := p.fusionConfig.WeightsForIntent(intent)
	fused := rank.Fuse(weights, vectorResults, lexicalResults, p.candidateDepth)
	monitor.AfterFusion(fused)

	// Boosting and reranking score against the original query, not the
	// rewrites; the rewrites only widen retrieval.
	boosted := rank.Boost(p.boostConfig, req.Query, intent, fused)
	monitor.AfterBoost(boosted)

	ranked := p.reranker.Rerank(ctx, req.Query, boosted)
	monitor.AfterRerank(ranked)

	kept := rank.Filter(p.thresholds, ranked, intent)
	if len(kept) > req.Limit {
		kept = kept[:req.Limit]
	}

	if p.queryLog != nil {
		p.queryLog.LogQuery(ctx, req.Query, len(kept), 0)
	}

	monitor.Finish(kept)

	return &Response{
		Query:   req.Query,
		Space:   space,
		Intent:  intent,
		Rewrite: rewriteResult,
		Results: kept,
	}, nil
}

// legResult holds the outcome of one retrieval leg (one query variant
// against one source).
type legResult struct {
	candidates []core.CandidateResult
	err        error
}

// retrieve runs every query variant against both sources concurrently and
// merges the per-source results in variant order. A source only counts as
// failed when all of its variant legs failed; the pipeline degrades to the
// surviving source and returns ErrSearchUnavailable only when both are down.
func (p *Pipeline) retrieve(ctx context.Context, variants []string, space string) ([]core.CandidateResult, []core.CandidateResult, error) {
	if len(variants) == 0 {
		variants = []string{""}
	}

	vectorSlots := make([]legResult, len(variants))
	lexicalSlots := make([]legResult, len(variants))

	var wg sync.WaitGroup
	submit := func(task func()) {
		// Run inline if the pool was released under us.
		if err := p.pool.Submit(task); err != nil {
			task()
		}
	}

	for i, variant := range variants {
		wg.Add(2)

		submit(func() {
			defer wg.Done()
			legCtx, cancel := context.WithTimeout(ctx, p.legTimeout)
			defer cancel()
			candidates, err := p.vectorStore.Search(legCtx, variant, p.candidateDepth, space)
			vectorSlots[i] = legResult{candidates: candidates, err: err}
		})

		submit(func() {
			defer wg.Done()
			legCtx, cancel := context.WithTimeout(ctx, p.legTimeout)
			defer cancel()
			candidates, err := p.lexicalIndex.Retrieve(legCtx, variant, p.candidateDepth, space)
			lexicalSlots[i] = legResult{candidates: candidates, err: err}
		})
	}

	wg.Wait()

	vectorResults, vectorErr := mergeLegs(vectorSlots)
	lexicalResults, lexicalErr := mergeLegs(lexicalSlots)

	if vectorErr != nil && lexicalErr != nil {
		return nil, nil, fmt.Errorf("%w (vector: %v; lexical: %v)", ErrSearchUnavailable, vectorErr, lexicalErr)
	}
	if vectorErr != nil {
		p.logger.Warn("vector search failed, degrading to lexical only", "err", vectorErr)
	}
	if lexicalErr != nil {
		p.logger.Warn("lexical search failed, degrading to vector only", "err", lexicalErr)
	}

	return retrieval.DropMalformed(vectorResults), retrieval.DropMalformed(lexicalResults), nil
}

// mergeLegs concatenates the per-variant candidate lists in variant order,
// dropping duplicate passages. Variant order matters: the original query
// runs first, so its candidates keep the better ranks.
func mergeLegs(slots []legResult) ([]core.CandidateResult, error) {
	var merged []core.CandidateResult
	seen := make(map[string]struct{})
	failed := 0
	var firstErr error

	for _, slot := range slots {
		if slot.err != nil {
			failed++
			if firstErr == nil {
				firstErr = slot.err
			}
			continue
		}
		for _, candidate := range slot.candidates {
			key := candidate.ContentKey()
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, candidate)
		}
	}

	if failed == len(slots) && firstErr != nil {
		return nil, firstErr
	}
	return merged, nil
}

// Release releases the worker pool. The pipeline should not be used after
// calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
