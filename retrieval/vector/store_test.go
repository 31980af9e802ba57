package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/retrieval"
	"github.com/poiesic/retrievit/storage"
	"github.com/poiesic/retrievit/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Store, storage.PassageRepository) {
	t.Helper()
	passages, _, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, backend.Close())
	})

	store, err := NewStore(embedder, passages, opts...)
	require.NoError(t, err)
	return store, passages
}

func TestNewStoreRequiresEmbedder(t *testing.T) {
	_, err := NewStore(nil, nil)
	assert.ErrorIs(t, err, retrieval.ErrEmbedderRequired)
}

func TestSearchOrdersBySimilarity(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	store, passages := newTestStore(t, embedder, WithMinSimilarity(-1))

	ctx := context.Background()
	_, err := passages.AddPassages(ctx,
		&core.PassageRecord{
			Key:     "close",
			Payload: core.Payload{PageID: "close", Text: "close match"},
			Vector:  []float32{0.9, 0.1, 0},
		},
		&core.PassageRecord{
			Key:     "far",
			Payload: core.Payload{PageID: "far", Text: "far match"},
			Vector:  []float32{0, 0, 1},
		},
	)
	require.NoError(t, err)

	results, err := store.Search(ctx, "anything", 10, "")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "close", results[0].ID)
	assert.Equal(t, core.SourceVector, results[0].Source)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchAppliesSimilarityFloor(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1, 0, 0}, nil
	}
	store, passages := newTestStore(t, embedder, WithMinSimilarity(0.5))

	ctx := context.Background()
	_, err := passages.AddPassages(ctx,
		&core.PassageRecord{Key: "hit", Payload: core.Payload{Text: "hit"}, Vector: []float32{1, 0, 0}},
		&core.PassageRecord{Key: "miss", Payload: core.Payload{Text: "miss"}, Vector: []float32{0, 1, 0}},
	)
	require.NoError(t, err)

	results, err := store.Search(ctx, "anything", 10, "")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hit", results[0].ID)
}

func TestSearchPropagatesEmbedderError(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("embedding service down")
	}
	store, _ := newTestStore(t, embedder)

	_, err := store.Search(context.Background(), "anything", 10, "")
	assert.ErrorContains(t, err, "embed query")
}

func TestNormalizeVector(t *testing.T) {
	v := []float32{3, 4}
	Normalize(v)
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	zero := []float32{0, 0}
	Normalize(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}

func TestWithMinSimilarityValidation(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	_, err := NewStore(embedder, nil, WithMinSimilarity(2))
	assert.Error(t, err)
}
