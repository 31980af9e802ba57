package mock

import (
	"context"
	"sync"

	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/retrieval"
)

// MockVectorStore is a configurable test double for retrieval.VectorStore.
type MockVectorStore struct {
	// SearchFunc is called by Search if set.
	// If nil, Search returns Results unchanged.
	SearchFunc func(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error)

	// Results is the canned response used when SearchFunc is nil.
	Results []core.CandidateResult

	mu        sync.Mutex
	callCount int
}

var _ retrieval.VectorStore = (*MockVectorStore)(nil)

// NewMockVectorStore creates a mock vector store with no canned results.
func NewMockVectorStore() *MockVectorStore {
	return &MockVectorStore{}
}

func (m *MockVectorStore) Search(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, query, limit, space)
	}
	if limit < len(m.Results) {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

func (m *MockVectorStore) Close() error {
	return nil
}

// CallCount returns the number of times Search was called.
func (m *MockVectorStore) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// MockLexicalIndex is a configurable test double for retrieval.LexicalIndex.
type MockLexicalIndex struct {
	// RetrieveFunc is called by Retrieve if set.
	// If nil, Retrieve returns Results unchanged.
	RetrieveFunc func(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error)

	// IndexFunc is called by Index if set. If nil, documents are recorded
	// in Indexed.
	IndexFunc func(ctx context.Context, docs ...retrieval.Document) error

	// Results is the canned response used when RetrieveFunc is nil.
	Results []core.CandidateResult

	mu        sync.Mutex
	callCount int
	indexed   []retrieval.Document
}

var _ retrieval.LexicalIndex = (*MockLexicalIndex)(nil)

// NewMockLexicalIndex creates a mock lexical index with no canned results.
func NewMockLexicalIndex() *MockLexicalIndex {
	return &MockLexicalIndex{}
}

func (m *MockLexicalIndex) Index(ctx context.Context, docs ...retrieval.Document) error {
	if m.IndexFunc != nil {
		return m.IndexFunc(ctx, docs...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, docs...)
	return nil
}

func (m *MockLexicalIndex) Retrieve(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.RetrieveFunc != nil {
		return m.RetrieveFunc(ctx, query, limit, space)
	}
	if limit < len(m.Results) {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

func (m *MockLexicalIndex) Close() error {
	return nil
}

// CallCount returns the number of times Retrieve was called.
func (m *MockLexicalIndex) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Indexed returns the documents recorded by Index.
func (m *MockLexicalIndex) Indexed() []retrieval.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.indexed
}
