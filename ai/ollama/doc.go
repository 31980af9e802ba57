// Package ollama implements the ai.Generator interface against a local
// Ollama server. It serves as the first (local, preferred) backend in the
// query rewriting fallback chain.
package ollama
