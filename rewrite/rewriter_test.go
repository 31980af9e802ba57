package rewrite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/retrievit/ai"
	"github.com/poiesic/retrievit/ai/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticExamples []string

func (s staticExamples) SuccessfulQueries(limit int) []string {
	if limit < len(s) {
		return s[:limit]
	}
	return s
}

func newProvider(name string, fn func(ctx context.Context, prompt string) (string, error)) ai.Generator {
	g := mock.NewMockGenerator()
	g.NameValue = name
	g.GenerateFunc = fn
	return g
}

func TestRewriteUsesFirstProvider(t *testing.T) {
	local := newProvider("ollama", func(ctx context.Context, prompt string) (string, error) {
		return "вариант запроса номер один\nвариант запроса номер два", nil
	})
	cloudCalled := false
	cloud := newProvider("openai", func(ctx context.Context, prompt string) (string, error) {
		cloudCalled = true
		return "cloud variant of the query", nil
	})

	r, err := NewRewriter([]ai.Generator{local, cloud})
	require.NoError(t, err)

	result := r.Rewrite(context.Background(), "как настроить бэкапы")
	assert.Equal(t, "ollama", result.Provider)
	assert.False(t, result.FromCache)
	assert.False(t, cloudCalled)
	require.Len(t, result.Variants, 3)
	assert.Equal(t, "как настроить бэкапы", result.Variants[0])
	assert.Equal(t, "вариант запроса номер один", result.Text)
}

func TestRewriteFallsBackToNextProvider(t *testing.T) {
	local := newProvider("ollama", func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("connection refused")
	})
	cloud := newProvider("openai", func(ctx context.Context, prompt string) (string, error) {
		return "переформулированный вариант запроса", nil
	})

	r, err := NewRewriter([]ai.Generator{local, cloud})
	require.NoError(t, err)

	result := r.Rewrite(context.Background(), "query about backups")
	assert.Equal(t, "openai", result.Provider)

	stats := r.Stats()
	assert.Equal(t, 1, stats.ProviderFailed["ollama"])
	assert.Equal(t, 1, stats.ProviderSuccess["openai"])
}

func TestRewriteIdentityWhenAllProvidersFail(t *testing.T) {
	failing := newProvider("ollama", func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("down")
	})

	r, err := NewRewriter([]ai.Generator{failing})
	require.NoError(t, err)

	result := r.Rewrite(context.Background(), "original query")
	assert.Equal(t, "identity", result.Provider)
	assert.Equal(t, "original query", result.Text)
	assert.Equal(t, []string{"original query"}, result.Variants)
	assert.Equal(t, 1, r.Stats().NoRewriting)
}

func TestRewriteNoProviders(t *testing.T) {
	r, err := NewRewriter(nil)
	require.NoError(t, err)

	result := r.Rewrite(context.Background(), "plain query")
	assert.Equal(t, "identity", result.Provider)
	assert.Equal(t, "plain query", result.Text)
}

func TestRewriteCacheHit(t *testing.T) {
	calls := 0
	provider := newProvider("ollama", func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "кэшированный вариант запроса", nil
	})

	r, err := NewRewriter([]ai.Generator{provider})
	require.NoError(t, err)

	first := r.Rewrite(context.Background(), "Какой стек у проекта")
	assert.False(t, first.FromCache)

	// Normalization makes these the same cache key.
	second := r.Rewrite(context.Background(), "какой  стек у проекта")
	assert.True(t, second.FromCache)
	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, 1, calls, "provider must not be invoked on a cache hit")

	stats := r.Stats()
	assert.Equal(t, 2, stats.TotalRequests)
	assert.Equal(t, 1, stats.CacheHits)
	assert.Equal(t, 1, stats.CacheSize)
}

func TestRewriteCacheExpiry(t *testing.T) {
	calls := 0
	provider := newProvider("ollama", func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "свежий вариант запроса", nil
	})

	r, err := NewRewriter([]ai.Generator{provider}, WithCacheTTL(10*time.Millisecond))
	require.NoError(t, err)

	r.Rewrite(context.Background(), "query")
	time.Sleep(30 * time.Millisecond)
	result := r.Rewrite(context.Background(), "query")

	assert.False(t, result.FromCache)
	assert.Equal(t, 2, calls)
}

func TestRewriteProviderTimeout(t *testing.T) {
	slow := newProvider("ollama", func(ctx context.Context, prompt string) (string, error) {
		select {
		case <-time.After(time.Second):
			return "too late", nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})

	r, err := NewRewriter([]ai.Generator{slow}, WithProviderTimeout(10*time.Millisecond))
	require.NoError(t, err)

	result := r.Rewrite(context.Background(), "query")
	assert.Equal(t, "identity", result.Provider)
}

func TestRewritePromptIncludesExamples(t *testing.T) {
	var seenPrompt string
	provider := newProvider("ollama", func(ctx context.Context, prompt string) (string, error) {
		seenPrompt = prompt
		return "вариант с примерами в промпте", nil
	})

	r, err := NewRewriter([]ai.Generator{provider},
		WithExampleSource(staticExamples{"успешный запрос один", "успешный запрос два"}))
	require.NoError(t, err)

	r.Rewrite(context.Background(), "запрос")
	assert.Contains(t, seenPrompt, "успешный запрос один")
	assert.Contains(t, seenPrompt, "успешный запрос два")
	assert.Contains(t, seenPrompt, "запрос")
}

func TestParseVariants(t *testing.T) {
	query := "исходный запрос"

	t.Run("strips numbering and bullets", func(t *testing.T) {
		output := "1. первый вариант запроса\n- второй вариант запроса"
		variants := parseVariants(query, output)
		require.Len(t, variants, 3)
		assert.Equal(t, "первый вариант запроса", variants[1])
		assert.Equal(t, "второй вариант запроса", variants[2])
	})

	t.Run("drops short fragments", func(t *testing.T) {
		variants := parseVariants(query, "да\nкороткий но достаточно длинный вариант")
		require.Len(t, variants, 2)
		assert.Equal(t, "короткий но достаточно длинный вариант", variants[1])
	})

	t.Run("dedupes against the original", func(t *testing.T) {
		variants := parseVariants(query, "исходный запрос\nдругой вариант запроса")
		require.Len(t, variants, 2)
		assert.Equal(t, "другой вариант запроса", variants[1])
	})

	t.Run("caps at three variants", func(t *testing.T) {
		output := "вариант номер один здесь\nвариант номер два здесь\nвариант номер три здесь"
		variants := parseVariants(query, output)
		assert.Len(t, variants, 3)
	})

	t.Run("empty output keeps only the original", func(t *testing.T) {
		assert.Equal(t, []string{query}, parseVariants(query, ""))
	})
}
