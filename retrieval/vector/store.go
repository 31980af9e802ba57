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


package vector

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/retrieval"
	"github.com/poiesic/retrievit/storage"
)

const defaultMinSimilarity = 0.25

// Store implements retrieval.VectorStore over an embedding service and a
// passage repository. The query is embedded on each call; stored vectors are
// assumed normalized, so cosine similarity reduces to a dot product.
type Store struct {
	embedder      ai.Embedder
	passages      storage.PassageRepository
	minSimilarity float32
	logger        *slog.Logger
}

var _ retrieval.VectorStore = (*Store)(nil)

// Option configures a Store.
type Option func(*Store) error

// WithMinSimilarity sets the similarity floor below which passages are not
// returned. Must be within [-1, 1].
func WithMinSimilarity(min float32) Option {
	return func(s *Store) error {
		if min < -1 || min > 1 {
			return fmt.Errorf("min similarity out of range: %f", min)
		}
		s.minSimilarity = min
		return nil
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// NewStore creates a vector store backed by the given embedder and passage
// repository.
func NewStore(embedder ai.Embedder, passages storage.PassageRepository, opts ...Option) (*Store, error) {
	if embedder == nil {
		return nil, retrieval.ErrEmbedderRequired
	}

	s := &Store{
		embedder:      embedder,
		passages:      passages,
		minSimilarity: defaultMinSimilarity,
		logger:        slog.Default().With("component", "vector-store"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search embeds the query and returns the most similar passages.
func (s *Store) Search(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error) {
	vector, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	Normalize(vector)

	matches, err := s.passages.FindSimilar(ctx, vector, s.minSimilarity, limit, space)
	if err != nil {
		return nil, err
	}

	candidates := make([]core.CandidateResult, 0, len(matches))
	for _, match := range matches {
		id := match.Record.Key
		if id == "" {
			id = strconv.FormatUint(uint64(match.Record.Id), 10)
		}
		candidates = append(candidates, core.CandidateResult{
			ID:      id,
			Score:   float64(match.Score),
			Source:  core.SourceVector,
			Payload: match.Record.Payload,
		})
	}

	s.logger.Debug("vector search complete", "query_len", len(query), "hits", len(candidates))
	return candidates, nil
}

// Close releases resources held by the store.
func (s *Store) Close() error {
	return nil
}

// Normalize scales a vector to unit length in place. Stored passage vectors
// must be normalized with this before insertion so similarity search can use
// a plain dot product.
// Zero vectors are left untouched.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
