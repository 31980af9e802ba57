// Package vector implements dense vector retrieval over stored passages.
//
// Queries are embedded via the configured embedding service and matched
// against persisted passage vectors by cosine similarity. Vectors are kept
// normalized at write time, so the similarity computation at read time is a
// plain dot product over the stored corpus.
package vector
