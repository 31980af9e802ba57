// Package retrieval defines the retriever interfaces the search pipeline
// consumes, a dense VectorStore and a lexical (BM25) LexicalIndex, plus the
// ordered payload text-extraction strategies shared by both.
//
// Implementations live in subpackages:
//   - retrieval/vector: vector retrieval over stored passage embeddings
//   - retrieval/bleve: in-process lexical retrieval on a bleve index
//   - retrieval/mock: deterministic test doubles
package retrieval
