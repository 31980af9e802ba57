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


// Package ai defines the interfaces for the external model services the
// search pipeline depends on: text embedding, text generation (query
// rewriting) and cross-encoder relevance scoring.
//
// Concrete implementations live in subpackages:
//   - ai/openai: OpenAI-compatible chat and embedding APIs
//   - ai/ollama: local Ollama server
//   - ai/mock: deterministic test doubles
//
// All services are treated as opaque scoring/generation functions; the
// pipeline never depends on how a score or rewrite is produced.
package ai
