// Package bleve implements lexical retrieval on a bleve full-text index.
//
// Passages are indexed with full-text analysis on text and title, exact
// (keyword) matching on space and page_id, and stored-only metadata for the
// remaining structural fields so hits can be mapped back to complete
// candidates without a second lookup.
package bleve
