package retrievit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/core"
)

func TestNewEngine(t *testing.T) {
	t.Run("create on disk", func(t *testing.T) {
		engine, err := NewEngine(context.Background(), t.TempDir())
		require.NoError(t, err)
		require.NotNil(t, engine)
		defer engine.Close()

		assert.NotNil(t, engine.PassageRepository())
		assert.NotNil(t, engine.LexicalIndex())
		assert.NotNil(t, engine.QueryLog())
		assert.NotNil(t, engine.Rewriter())
	})

	t.Run("create in memory", func(t *testing.T) {
		engine, err := NewEngine(context.Background(), "", WithInMemory())
		require.NoError(t, err)
		defer engine.Close()

		assert.Zero(t, engine.QueryLog().Len())
	})
}

func TestEngine_Close(t *testing.T) {
	engine, err := NewEngine(context.Background(), "", WithInMemory())
	require.NoError(t, err)

	assert.NoError(t, engine.Close())
}

func TestEngine_NewSearchPipeline(t *testing.T) {
	engine, err := NewEngine(context.Background(), "", WithInMemory())
	require.NoError(t, err)
	defer engine.Close()

	pipeline, err := engine.NewSearchPipeline()
	require.NoError(t, err)
	require.NotNil(t, pipeline)
	pipeline.Release()
}

func TestEngine_RateQuery(t *testing.T) {
	engine, err := NewEngine(context.Background(), "", WithInMemory())
	require.NoError(t, err)
	defer engine.Close()

	t.Run("rejects out-of-range rating", func(t *testing.T) {
		err := engine.RateQuery(context.Background(), "стек технологий", 6)
		require.ErrorIs(t, err, core.ErrInvalidRating)
	})

	t.Run("records valid rating", func(t *testing.T) {
		require.NoError(t, engine.RateQuery(context.Background(), "стек технологий", 5))
		assert.Equal(t, 1, engine.QueryLog().Len())
	})
}
