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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRequest indicates a SearchRequest failed validation.
	ErrInvalidRequest = errors.New("invalid search request")

	// ErrEmptyQuery indicates the query string is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidLimit indicates a non-positive result limit.
	ErrInvalidLimit = errors.New("limit must be positive")

	// ErrInvalidRating indicates a user rating outside the 1-5 range.
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// ErrMissingText indicates a candidate payload with no extractable text.
	ErrMissingText = errors.New("payload has no extractable text")
)
