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


// Package search orchestrates the hybrid retrieval pipeline.
//
// The Pipeline type runs a multi-stage flow for each request:
//   - Intent classification and space extraction from the query text
//   - Query rewriting into up to three search variants
//   - Concurrent vector and lexical retrieval for every variant
//   - Weighted Reciprocal Rank Fusion of the two candidate lists
//   - Metadata boosting, cross-encoder reranking and threshold filtering
//
// Retrieval degrades gracefully: if one source fails the other still
// serves the request, and reranking failures fall back to the boosted
// order. Only when both retrieval sources fail does a search error out.
package search
