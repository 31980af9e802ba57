// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.Embedder, ai.Generator,
// ai.CrossEncoder and ai.AIProvider for use in unit tests. The mocks allow
// tests to run without external AI service dependencies and enable controlled,
// deterministic behavior.
//
// # Default Behavior
//
//   - MockEmbedder: deterministic vectors from a hash of the text
//   - MockGenerator: echoes the prompt back
//   - MockCrossEncoder: fraction of query tokens present in the passage
//   - MockProvider: aggregates the three
//
// Custom behavior is injected through function fields
// (EmbedTextFunc, GenerateFunc, ScoreFunc).
package mock
