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


package querylog

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/storage"
)

const (
	defaultMinRating  = 4.0
	defaultMaxSize    = 10000
	defaultSaveEvery  = 5
	relatedSimilarity = 0.3
)

// ExpansionTerm is a successful past query offered for query broadening.
type ExpansionTerm struct {
	Query     string
	Count     int
	AvgRating float64
}

// QueryLog records past queries and their outcomes. It is the only shared
// mutable state in the pipeline: one instance is constructed at process
// start, injected into the pipeline, and serializes writes behind a RWMutex
// while reads run concurrently.
type QueryLog struct {
	mu        sync.RWMutex
	entries   map[string]*core.QueryLogEntry
	repo      storage.QueryLogRepository
	minRating float64
	maxSize   int
	saveEvery int
	logger    *slog.Logger
}

// Option configures a QueryLog.
type Option func(*QueryLog) error

// WithMinRating sets the average rating above which a rated query counts as
// successful.
func WithMinRating(min float64) Option {
	return func(l *QueryLog) error {
		if min < 1 || min > 5 {
			return fmt.Errorf("min rating out of range: %f", min)
		}
		l.minRating = min
		return nil
	}
}

// WithMaxSize caps the number of retained entries; exceeding it triggers
// cleanup of unsuccessful and unpopular entries.
func WithMaxSize(max int) Option {
	return func(l *QueryLog) error {
		if max <= 0 {
			return fmt.Errorf("max size must be positive: %d", max)
		}
		l.maxSize = max
		return nil
	}
}

// WithSaveEvery persists an entry's state every nth increment of its count.
func WithSaveEvery(n int) Option {
	return func(l *QueryLog) error {
		if n <= 0 {
			return fmt.Errorf("save cadence must be positive: %d", n)
		}
		l.saveEvery = n
		return nil
	}
}

// WithLogger sets the logger used by the query log.
func WithLogger(logger *slog.Logger) Option {
	return func(l *QueryLog) error {
		l.logger = logger
		return nil
	}
}

// NewQueryLog creates a query log backed by the given repository and loads
// previously persisted entries. A nil repository keeps the log in memory
// only.
func NewQueryLog(ctx context.Context, repo storage.QueryLogRepository, opts ...Option) (*QueryLog, error) {
	l := &QueryLog{
		entries:   make(map[string]*core.QueryLogEntry),
		repo:      repo,
		minRating: defaultMinRating,
		maxSize:   defaultMaxSize,
		saveEvery: defaultSaveEvery,
		logger:    slog.Default().With("component", "querylog"),
	}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, err
		}
	}

	if repo != nil {
		entries, err := repo.LoadEntries(ctx)
		if err != nil {
			return nil, fmt.Errorf("load query log: %w", err)
		}
		l.entries = entries
		if l.entries == nil {
			l.entries = make(map[string]*core.QueryLogEntry)
		}
	}

	if len(l.entries) > l.maxSize {
		l.cleanupLocked()
	}

	l.logger.Info("query log initialized", "entries", len(l.entries), "limit", l.maxSize)
	return l, nil
}

// LogQuery upserts the entry for the normalized query: increments count,
// folds an optional rating (1-5, 0 means absent) into the rolling average,
// and recomputes the success flag. Persistence happens every nth count
// increment and is best-effort; an I/O failure is logged, not returned.
func (l *QueryLog) LogQuery(ctx context.Context, query string, resultsCount int, rating int) {
	normalized := core.NormalizeQuery(query)
	if normalized == "" {
		return
	}

	l.mu.Lock()
	entry, ok := l.entries[normalized]
	if !ok {
		entry = &core.QueryLogEntry{}
		l.entries[normalized] = entry
	}

	entry.Count++
	entry.LastSeen = time.Now().UTC()
	if resultsCount > entry.ResultsCount {
		entry.ResultsCount = resultsCount
	}
	if err := core.ValidateRating(rating); err == nil {
		entry.RatingSum += float64(rating)
		entry.RatingCount++
		entry.AvgRating = entry.RatingSum / float64(entry.RatingCount)
	} else if rating != 0 {
		l.logger.Warn("ignoring out-of-range rating", "rating", rating)
	}
	entry.Success = entry.ResultsCount > 0 &&
		(entry.RatingCount == 0 || entry.AvgRating >= l.minRating)

	needsSave := entry.Count%l.saveEvery == 0
	if len(l.entries) > l.maxSize {
		l.cleanupLocked()
	}
	l.mu.Unlock()

	if needsSave {
		if err := l.Save(ctx); err != nil {
			l.logger.Warn("query log persistence failed", "error", err)
		}
	}
}

// RelatedQueries returns up to topN previously successful queries most
// similar to the input by token Jaccard overlap (threshold 0.3), ordered by
// similarity, then popularity, then rating.
func (l *QueryLog) RelatedQueries(query string, topN int) []string {
	words := tokenSet(core.NormalizeQuery(query))
	if len(words) == 0 {
		return nil
	}

	type scored struct {
		query      string
		similarity float64
		count      int
		avgRating  float64
	}

	l.mu.RLock()
	var related []scored
	for logged, entry := range l.entries {
		if !entry.Success {
			continue
		}
		similarity := jaccard(words, tokenSet(logged))
		if similarity > relatedSimilarity {
			related = append(related, scored{logged, similarity, entry.Count, entry.AvgRating})
		}
	}
	l.mu.RUnlock()

	slices.SortFunc(related, func(a, b scored) int {
		if a.similarity != b.similarity {
			if a.similarity > b.similarity {
				return -1
			}
			return 1
		}
		if a.count != b.count {
			return b.count - a.count
		}
		if a.avgRating != b.avgRating {
			if a.avgRating > b.avgRating {
				return -1
			}
			return 1
		}
		return strings.Compare(a.query, b.query)
	})

	if topN < len(related) {
		related = related[:topN]
	}
	queries := make([]string, len(related))
	for i, r := range related {
		queries[i] = r.query
	}
	return queries
}

// ExpansionTerms returns the topN successful queries ordered by rating,
// then count, as candidate terms for broadening exploratory queries.
func (l *QueryLog) ExpansionTerms(topN int) []ExpansionTerm {
	l.mu.RLock()
	var terms []ExpansionTerm
	for query, entry := range l.entries {
		if !entry.Success {
			continue
		}
		terms = append(terms, ExpansionTerm{
			Query:     query,
			Count:     entry.Count,
			AvgRating: entry.AvgRating,
		})
	}
	l.mu.RUnlock()

	slices.SortFunc(terms, func(a, b ExpansionTerm) int {
		if a.AvgRating != b.AvgRating {
			if a.AvgRating > b.AvgRating {
				return -1
			}
			return 1
		}
		if a.Count != b.Count {
			return b.Count - a.Count
		}
		return strings.Compare(a.Query, b.Query)
	})

	if topN < len(terms) {
		terms = terms[:topN]
	}
	return terms
}

// SuccessfulQueries returns the texts of up to limit top successful
// queries. Implements the rewriting prompt's example source.
func (l *QueryLog) SuccessfulQueries(limit int) []string {
	terms := l.ExpansionTerms(limit)
	queries := make([]string, len(terms))
	for i, term := range terms {
		queries[i] = term.Query
	}
	return queries
}

// Len returns the number of tracked queries.
func (l *QueryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Save persists the current entries. No-op without a repository.
func (l *QueryLog) Save(ctx context.Context) error {
	if l.repo == nil {
		return nil
	}

	l.mu.RLock()
	snapshot := make(map[string]*core.QueryLogEntry, len(l.entries))
	for query, entry := range l.entries {
		copied := *entry
		snapshot[query] = &copied
	}
	l.mu.RUnlock()

	return l.repo.SaveEntries(ctx, snapshot)
}

// Close saves the log one final time.
func (l *QueryLog) Close() error {
	return l.Save(context.Background())
}

// cleanupLocked evicts low-value entries when the log outgrows maxSize.
// Callers must hold the write lock.
func (l *QueryLog) cleanupLocked() {
	originalSize := len(l.entries)

	for query, entry := range l.entries {
		keep := entry.Success && (entry.AvgRating > 2.0 || entry.Count > 5)
		if !keep {
			delete(l.entries, query)
		}
	}

	if len(l.entries) > l.maxSize {
		type kv struct {
			query string
			entry *core.QueryLogEntry
		}
		sorted := make([]kv, 0, len(l.entries))
		for query, entry := range l.entries {
			sorted = append(sorted, kv{query, entry})
		}
		slices.SortFunc(sorted, func(a, b kv) int {
			if a.entry.AvgRating != b.entry.AvgRating {
				if a.entry.AvgRating > b.entry.AvgRating {
					return -1
				}
				return 1
			}
			return b.entry.Count - a.entry.Count
		})
		for _, item := range sorted[l.maxSize:] {
			delete(l.entries, item.query)
		}
	}

	if cleaned := originalSize - len(l.entries); cleaned > 0 {
		l.logger.Info("query log cleaned up",
			"removed", cleaned, "before", originalSize, "after", len(l.entries))
	}
}

func tokenSet(text string) map[string]struct{} {
	fields := strings.Fields(text)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// jaccard computes intersection-over-union of two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for token := range a {
		if _, ok := b[token]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
