package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poiesic/retrievit/ai"
	aimock "github.com/poiesic/retrievit/ai/mock"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/querylog"
	retmock "github.com/poiesic/retrievit/retrieval/mock"
	"github.com/poiesic/retrievit/rewrite"
	"github.com/poiesic/retrievit/storage/badger"
)

func candidate(pageID, title, text string, score float64) core.CandidateResult {
	return core.CandidateResult{
		ID:    pageID,
		Score: score,
		Payload: core.Payload{
			PageID: pageID,
			Title:  title,
			Space:  "RAUII",
			Text:   text,
		},
	}
}

func newTestPipeline(t *testing.T, vector *retmock.MockVectorStore, lexical *retmock.MockLexicalIndex, opts ...Option) *Pipeline {
	t.Helper()
	p, err := NewPipeline(vector, lexical, aimock.NewMockCrossEncoder(), opts...)
	require.NoError(t, err)
	t.Cleanup(p.Release)
	return p
}

func TestNewPipeline(t *testing.T) {
	t.Run("requires vector store", func(t *testing.T) {
		_, err := NewPipeline(nil, retmock.NewMockLexicalIndex(), nil)
		require.ErrorIs(t, err, ErrVectorStoreRequired)
	})

	t.Run("requires lexical index", func(t *testing.T) {
		_, err := NewPipeline(retmock.NewMockVectorStore(), nil, nil)
		require.ErrorIs(t, err, ErrLexicalIndexRequired)
	})

	t.Run("nil encoder is allowed", func(t *testing.T) {
		p, err := NewPipeline(retmock.NewMockVectorStore(), retmock.NewMockLexicalIndex(), nil)
		require.NoError(t, err)
		p.Release()
	})
}

func TestSearchValidation(t *testing.T) {
	p := newTestPipeline(t, retmock.NewMockVectorStore(), retmock.NewMockLexicalIndex())

	t.Run("empty query", func(t *testing.T) {
		_, err := p.Search(context.Background(), core.SearchRequest{Query: "   "})
		require.ErrorIs(t, err, core.ErrInvalidRequest)
		require.ErrorIs(t, err, core.ErrEmptyQuery)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := p.Search(context.Background(), core.SearchRequest{Query: "kafka", Limit: -1})
		require.ErrorIs(t, err, core.ErrInvalidLimit)
	})
}

func TestSearchHybridFlow(t *testing.T) {
	// Vector and lexical sources disagree on ordering; the tech-stack page
	// appears in both lists and must win after fusion and reranking.
	vector := retmock.NewMockVectorStore()
	vector.Results = []core.CandidateResult{
		candidate("p-arch", "Архитектура системы", "обзор архитектуры и компонентов", 0.91),
		candidate("p-stack", "Стек технологий", "проект использует Go, Kafka и PostgreSQL", 0.88),
		candidate("p-onboard", "Онбординг", "первые шаги нового разработчика", 0.70),
	}

	lexical := retmock.NewMockLexicalIndex()
	lexical.Results = []core.CandidateResult{
		candidate("p-stack", "Стек технологий", "проект использует Go, Kafka и PostgreSQL", 6.1),
		candidate("p-release", "Процесс релиза", "как собирается и выкатывается релиз", 2.2),
	}

	encoder := aimock.NewMockCrossEncoder()
	encoder.ScoreFunc = func(_ context.Context, _ string, passages []string) ([]float64, error) {
		scores := make([]float64, len(passages))
		for i, passage := range passages {
			switch {
			case passage == "проект использует Go, Kafka и PostgreSQL":
				scores[i] = 0.92
			case passage == "обзор архитектуры и компонентов":
				scores[i] = 0.40
			default:
				scores[i] = 0.001 // below the factual floor
			}
		}
		return scores, nil
	}

	p, err := NewPipeline(vector, lexical, encoder)
	require.NoError(t, err)
	defer p.Release()

	resp, err := p.Search(context.Background(), core.SearchRequest{
		Query: "какой стек технологий у проекта RAUII",
	})
	require.NoError(t, err)

	assert.Equal(t, core.IntentFactual, resp.Intent)
	assert.Equal(t, "RAUII", resp.Space)

	require.Len(t, resp.Results, 2)
	assert.Equal(t, "p-stack", resp.Results[0].Payload.PageID)
	assert.Equal(t, "p-arch", resp.Results[1].Payload.PageID)

	top := resp.Results[0]
	assert.True(t, top.Reranked)
	assert.True(t, top.Kept)
	assert.Equal(t, 0.92, top.RerankScore)
	assert.Equal(t, 0.92, top.FinalScore)
	assert.Positive(t, top.VectorRank)
	assert.Positive(t, top.LexicalRank)
}

func TestSearchDegradesToSingleSource(t *testing.T) {
	vector := retmock.NewMockVectorStore()
	vector.Results = []core.CandidateResult{
		candidate("p-1", "Kafka", "брокеры kafka в кластере", 0.9),
		candidate("p-2", "Zookeeper", "резервные брокеры под управлением zookeeper", 0.8),
	}

	lexical := retmock.NewMockLexicalIndex()
	lexical.RetrieveFunc = func(context.Context, string, int, string) ([]core.CandidateResult, error) {
		return nil, errors.New("index offline")
	}

	p := newTestPipeline(t, vector, lexical)

	resp, err := p.Search(context.Background(), core.SearchRequest{Query: "брокеры kafka"})
	require.NoError(t, err)

	// Vector-only RRF: the vector ordering survives.
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "p-1", resp.Results[0].Payload.PageID)
	assert.Equal(t, "p-2", resp.Results[1].Payload.PageID)
	assert.Zero(t, resp.Results[0].LexicalRank)
}

func TestSearchUnavailableWhenBothSourcesFail(t *testing.T) {
	vector := retmock.NewMockVectorStore()
	vector.SearchFunc = func(context.Context, string, int, string) ([]core.CandidateResult, error) {
		return nil, errors.New("embedder down")
	}
	lexical := retmock.NewMockLexicalIndex()
	lexical.RetrieveFunc = func(context.Context, string, int, string) ([]core.CandidateResult, error) {
		return nil, errors.New("index offline")
	}

	p := newTestPipeline(t, vector, lexical)

	_, err := p.Search(context.Background(), core.SearchRequest{Query: "kafka"})
	require.ErrorIs(t, err, ErrSearchUnavailable)
}

func TestSearchEmptySourcesIsNotAnError(t *testing.T) {
	p := newTestPipeline(t, retmock.NewMockVectorStore(), retmock.NewMockLexicalIndex())

	resp, err := p.Search(context.Background(), core.SearchRequest{Query: "ничего не найдётся"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
}

func TestSearchExplicitSpaceWins(t *testing.T) {
	var gotSpace string
	vector := retmock.NewMockVectorStore()
	vector.SearchFunc = func(_ context.Context, _ string, _ int, space string) ([]core.CandidateResult, error) {
		gotSpace = space
		return nil, nil
	}

	p := newTestPipeline(t, vector, retmock.NewMockLexicalIndex())

	resp, err := p.Search(context.Background(), core.SearchRequest{
		Query: "документация RAUII",
		Space: "DEV",
	})
	require.NoError(t, err)
	assert.Equal(t, "DEV", gotSpace)
	assert.Equal(t, "DEV", resp.Space)
}

func TestSearchRunsEveryRewriteVariant(t *testing.T) {
	generator := aimock.NewMockGenerator()
	generator.GenerateFunc = func(context.Context, string) (string, error) {
		return "1. какие технологии использует проект\n2. технологический стек проекта", nil
	}
	rewriter, err := rewrite.NewRewriter([]ai.Generator{generator})
	require.NoError(t, err)

	var mu sync.Mutex
	var queries []string
	vector := retmock.NewMockVectorStore()
	vector.SearchFunc = func(_ context.Context, query string, _ int, _ string) ([]core.CandidateResult, error) {
		mu.Lock()
		queries = append(queries, query)
		mu.Unlock()
		return nil, nil
	}

	p := newTestPipeline(t, vector, retmock.NewMockLexicalIndex(), WithRewriter(rewriter))

	resp, err := p.Search(context.Background(), core.SearchRequest{Query: "стек технологий проекта"})
	require.NoError(t, err)

	require.Len(t, resp.Rewrite.Variants, 3)
	assert.False(t, resp.Rewrite.FromCache)

	mu.Lock()
	assert.ElementsMatch(t, resp.Rewrite.Variants, queries)
	mu.Unlock()

	// Second identical search is served from the rewrite cache.
	resp, err = p.Search(context.Background(), core.SearchRequest{Query: "стек технологий проекта"})
	require.NoError(t, err)
	assert.True(t, resp.Rewrite.FromCache)
	assert.Equal(t, 1, generator.CallCount())
}

func TestSearchDeduplicatesAcrossVariants(t *testing.T) {
	generator := aimock.NewMockGenerator()
	generator.GenerateFunc = func(context.Context, string) (string, error) {
		return "1. переформулированный запрос", nil
	}
	rewriter, err := rewrite.NewRewriter([]ai.Generator{generator})
	require.NoError(t, err)

	// Both variants return the same page.
	vector := retmock.NewMockVectorStore()
	vector.Results = []core.CandidateResult{
		candidate("p-dup", "Дубликат", "страница про исходный запрос", 0.9),
	}

	p := newTestPipeline(t, vector, retmock.NewMockLexicalIndex(), WithRewriter(rewriter))

	resp, err := p.Search(context.Background(), core.SearchRequest{Query: "исходный запрос"})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "p-dup", resp.Results[0].Payload.PageID)
}

func TestSearchRespectsLimit(t *testing.T) {
	vector := retmock.NewMockVectorStore()
	for i := 0; i < 8; i++ {
		vector.Results = append(vector.Results, candidate(
			fmt.Sprintf("p-%d", i+1), "Страница", "содержимое страницы", 0.9-float64(i)*0.05))
	}

	p := newTestPipeline(t, vector, retmock.NewMockLexicalIndex())

	resp, err := p.Search(context.Background(), core.SearchRequest{Query: "содержимое", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
}

func TestSearchRecordsQueryLog(t *testing.T) {
	_, logRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	defer backend.Close()

	log, err := querylog.NewQueryLog(context.Background(), logRepo)
	require.NoError(t, err)

	vector := retmock.NewMockVectorStore()
	vector.Results = []core.CandidateResult{
		candidate("p-1", "Kafka", "брокеры kafka", 0.9),
	}

	p := newTestPipeline(t, vector, retmock.NewMockLexicalIndex(), WithQueryLog(log))

	_, err = p.Search(context.Background(), core.SearchRequest{Query: "Брокеры Kafka"})
	require.NoError(t, err)
	assert.Equal(t, 1, log.Len())
}

// recordingMonitor captures which pipeline stages fired.
type recordingMonitor struct {
	stages  []string
	rewrite core.RewriteResult
	final   []core.RankedResult
}

func (m *recordingMonitor) Start(string) { m.stages = append(m.stages, "start") }
func (m *recordingMonitor) AfterRewrite(r core.RewriteResult) {
	m.stages = append(m.stages, "rewrite")
	m.rewrite = r
}
func (m *recordingMonitor) AfterVectorSearch([]core.CandidateResult) {
	m.stages = append(m.stages, "vector")
}
func (m *recordingMonitor) AfterLexicalSearch([]core.CandidateResult) {
	m.stages = append(m.stages, "lexical")
}
func (m *recordingMonitor) AfterFusion([]core.FusedResult) { m.stages = append(m.stages, "fusion") }
func (m *recordingMonitor) AfterBoost([]core.FusedResult)  { m.stages = append(m.stages, "boost") }
func (m *recordingMonitor) AfterRerank([]core.RankedResult) {
	m.stages = append(m.stages, "rerank")
}
func (m *recordingMonitor) Finish(results []core.RankedResult) {
	m.stages = append(m.stages, "finish")
	m.final = results
}

func TestSearchWithMonitor(t *testing.T) {
	vector := retmock.NewMockVectorStore()
	vector.Results = []core.CandidateResult{
		candidate("p-1", "Kafka", "брокеры kafka", 0.9),
	}

	p := newTestPipeline(t, vector, retmock.NewMockLexicalIndex())

	monitor := &recordingMonitor{}
	resp, err := p.SearchWithMonitor(context.Background(), core.SearchRequest{Query: "kafka"}, monitor)
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"start", "rewrite", "vector", "lexical", "fusion", "boost", "rerank", "finish"},
		monitor.stages)
	assert.Equal(t, "identity", monitor.rewrite.Provider)
	assert.Equal(t, resp.Results, monitor.final)
}

func TestSearchLegTimeout(t *testing.T) {
	vector := retmock.NewMockVectorStore()
	vector.SearchFunc = func(ctx context.Context, _ string, _ int, _ string) ([]core.CandidateResult, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	lexical := retmock.NewMockLexicalIndex()
	lexical.Results = []core.CandidateResult{
		candidate("p-1", "Kafka", "брокеры kafka", 4.2),
	}

	p := newTestPipeline(t, vector, lexical, WithLegTimeout(20*time.Millisecond))

	start := time.Now()
	resp, err := p.Search(context.Background(), core.SearchRequest{Query: "kafka"})
	require.NoError(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
	require.Len(t, resp.Results, 1)
}
