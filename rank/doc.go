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


// Package rank implements the scoring stages of the search pipeline:
// intent classification, Reciprocal Rank Fusion of the vector and lexical
// candidate lists, metadata boosting, cross-encoder reranking, and
// intent-aware threshold filtering.
//
// The stages are pure functions over candidate slices except the reranker,
// which calls the external pairwise scoring model and fails open when it is
// unavailable. The two retrieval score distributions are not comparable, so
// fusion works on ranks rather than raw scores; the rerank score, when
// present, is the authoritative final ordering.
package rank
