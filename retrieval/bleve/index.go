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


package bleve

import (
	"context"
	"log/slog"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/poiesic/retrievit/core"
	"github.com/poiesic/retrievit/retrieval"
)

// Index implements retrieval.LexicalIndex on a bleve full-text index.
// The analyzer handles tokenization and stemming, so queries are passed in
// as plain text rather than pre-lemmatized token lists.
type Index struct {
	index  bleve.Index
	mu     sync.RWMutex
	closed bool
	logger *slog.Logger
}

var _ retrieval.LexicalIndex = (*Index)(nil)

// buildMapping wires the passage fields: full-text analysis for text and
// title, keyword (exact) analysis for space so filters match verbatim, and
// stored-only metadata for the rest.
func buildMapping() mapping.IndexMapping {
	textField := bleve.NewTextFieldMapping()

	keywordField := bleve.NewTextFieldMapping()
	keywordField.Analyzer = keyword.Name

	storedField := bleve.NewTextFieldMapping()
	storedField.Index = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt("text", textField)
	doc.AddFieldMappingsAt("title", textField)
	doc.AddFieldMappingsAt("space", keywordField)
	doc.AddFieldMappingsAt("page_id", keywordField)
	doc.AddFieldMappingsAt("heading_path", storedField)
	doc.AddFieldMappingsAt("breadcrumb", storedField)
	doc.AddFieldMappingsAt("parent_title", storedField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// Open opens (or creates) a persistent lexical index at path.
func Open(path string) (*Index, error) {
	index, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		index, err = bleve.New(path, buildMapping())
	}
	if err != nil {
		return nil, err
	}
	return &Index{
		index:  index,
		logger: slog.Default().With("component", "bleve-index"),
	}, nil
}

// NewMemoryIndex creates an in-memory lexical index, used in tests and for
// small corpora seeded at startup.
func NewMemoryIndex() (*Index, error) {
	index, err := bleve.NewMemOnly(buildMapping())
	if err != nil {
		return nil, err
	}
	return &Index{
		index:  index,
		logger: slog.Default().With("component", "bleve-index"),
	}, nil
}

// Index adds or replaces documents in the index.
// Documents with no extractable text are skipped.
func (i *Index) Index(ctx context.Context, docs ...retrieval.Document) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return retrieval.ErrStoreClosed
	}

	batch := i.index.NewBatch()
	indexed := 0
	for _, doc := range docs {
		text, ok := retrieval.ExtractText(&doc.Payload)
		if !ok {
			i.logger.Warn("skipping document without text", "id", doc.ID)
			continue
		}

		fields := map[string]any{
			"text":         text,
			"title":        doc.Payload.Title,
			"space":        doc.Payload.Space,
			"page_id":      doc.Payload.PageID,
			"heading_path": doc.Payload.HeadingPath,
			"breadcrumb":   doc.Payload.Breadcrumb,
			"parent_title": doc.Payload.ParentTitle,
		}
		if err := batch.Index(doc.ID, fields); err != nil {
			return err
		}
		indexed++
	}

	if indexed == 0 {
		return nil
	}

	if err := i.index.Batch(batch); err != nil {
		return err
	}
	i.logger.Debug("indexed documents", "count", indexed)
	return nil
}

// Retrieve returns up to limit candidates by lexical match score.
func (i *Index) Retrieve(ctx context.Context, query string, limit int, space string) ([]core.CandidateResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return nil, retrieval.ErrStoreClosed
	}

	match := bleve.NewMatchQuery(query)
	var searchQuery = bleve.NewConjunctionQuery(match)
	if space != "" {
		spaceTerm := bleve.NewTermQuery(space)
		spaceTerm.SetField("space")
		searchQuery = bleve.NewConjunctionQuery(match, spaceTerm)
	}

	req := bleve.NewSearchRequestOptions(searchQuery, limit, 0, false)
	req.Fields = []string{"*"}

	res, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	candidates := make([]core.CandidateResult, 0, len(res.Hits))
	for _, hit := range res.Hits {
		candidates = append(candidates, core.CandidateResult{
			ID:     hit.ID,
			Score:  hit.Score,
			Source: core.SourceLexical,
			Payload: core.Payload{
				Text:        fieldString(hit.Fields, "text"),
				Title:       fieldString(hit.Fields, "title"),
				Space:       fieldString(hit.Fields, "space"),
				PageID:      fieldString(hit.Fields, "page_id"),
				HeadingPath: fieldString(hit.Fields, "heading_path"),
				Breadcrumb:  fieldString(hit.Fields, "breadcrumb"),
				ParentTitle: fieldString(hit.Fields, "parent_title"),
			},
		})
	}
	return candidates, nil
}

// DocCount returns the number of indexed documents.
func (i *Index) DocCount() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0, retrieval.ErrStoreClosed
	}
	return i.index.DocCount()
}

// Close closes the underlying bleve index.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	return i.index.Close()
}

func fieldString(fields map[string]any, name string) string {
	if v, ok := fields[name].(string); ok {
		return v
	}
	return ""
}
