package core

import (
	"encoding/binary"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated by content-based hashing of stable document keys.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Source identifies which retriever produced a candidate.
type Source string

const (
	// SourceVector marks candidates produced by dense vector similarity search.
	SourceVector Source = "vector"
	// SourceLexical marks candidates produced by lexical (BM25) match.
	SourceLexical Source = "lexical"
)

// QueryIntent is the coarse category of a query's shape.
// It drives adaptive fusion weights and rerank threshold selection.
type QueryIntent string

const (
	// IntentNavigational covers queries looking for a specific page or document.
	IntentNavigational QueryIntent = "navigational"
	// IntentHowTo covers instructional queries (how to configure, install, run).
	IntentHowTo QueryIntent = "howto"
	// IntentFactual covers fact lookups (what, which, who, versions, components).
	IntentFactual QueryIntent = "factual"
	// IntentExploratory covers broad queries (lists, comparisons, overviews).
	IntentExploratory QueryIntent = "exploratory"
)

// Payload carries the structural metadata attached to a knowledge-base passage.
// Text may live under Text or Content depending on the ingestion version;
// use retrieval.ExtractText rather than reading the fields directly.
type Payload struct {
	PageID      string
	Title       string
	Space       string
	HeadingPath string
	Breadcrumb  string
	ParentTitle string
	Text        string
	Content     string
	Extra       map[string]string
}

// CandidateResult is a single passage returned by one retriever.
// Immutable once produced; the score scale is defined by the source retriever.
type CandidateResult struct {
	ID      string
	Score   float64
	Source  Source
	Payload Payload
}

// ContentKey returns the stable key used to identify the same passage across
// retrievers. PageID is preferred; candidates without one fall back to ID.
func (c *CandidateResult) ContentKey() string {
	if c.Payload.PageID != "" {
		return c.Payload.PageID
	}
	return c.ID
}

// FusedResult is a candidate after Reciprocal Rank Fusion, carrying the fused
// score and the contributing source ranks (1-based, 0 = absent from that list).
type FusedResult struct {
	CandidateResult
	FusedScore  float64
	VectorRank  int
	LexicalRank int
}

// RankedResult is the pipeline's per-request output unit. Created during one
// query's run and discarded after the caller consumes the response.
type RankedResult struct {
	FusedResult
	BoostScore  float64
	RerankScore float64
	FinalScore  float64
	Reranked    bool
	Kept        bool
}

// RewriteResult is the outcome of query rewriting.
// Variants holds the original query followed by up to two rewrites.
type RewriteResult struct {
	Text      string
	Variants  []string
	Provider  string
	FromCache bool
}

// QueryLogEntry aggregates the history of one normalized query string.
// Count is monotonically non-decreasing; AvgRating is recomputed incrementally.
type QueryLogEntry struct {
	Count        int
	ResultsCount int
	RatingSum    float64
	RatingCount  int
	AvgRating    float64
	Success      bool
	LastSeen     time.Time
}

// PassageRecord is a knowledge-base passage as persisted in storage, carrying
// its normalized embedding vector alongside the structural metadata.
type PassageRecord struct {
	Id         ID
	Key        string
	Payload    Payload
	Vector     []float32
	InsertedAt time.Time
}

// VectorMatch is a passage matched by vector similarity search.
type VectorMatch struct {
	Record *PassageRecord
	Score  float32
}

// SearchRequest is the input to the search pipeline.
type SearchRequest struct {
	Query string
	Space string
	Limit int
}

// NormalizeQuery lowercases a query and collapses runs of whitespace.
// Used as the key for both the rewrite cache and the semantic query log.
func NormalizeQuery(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}
