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

import (
	"fmt"
	"strings"
)

// DefaultLimit is the result limit applied when a request does not set one.
const DefaultLimit = 10

// MaxLimit bounds the number of results a single request may ask for.
const MaxLimit = 100

// ValidateSearchRequest validates a SearchRequest according to domain rules
// and fills in the default limit.
//
// Validation rules:
//   - Query must not be blank
//   - Limit must not be negative (0 means "use the default")
//
// NOT validated:
//   - Space (empty means "search all spaces")
func ValidateSearchRequest(req *SearchRequest) error {
	if req == nil {
		return fmt.Errorf("%w: request is nil", ErrInvalidRequest)
	}

	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrEmptyQuery)
	}

	if req.Limit < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, ErrInvalidLimit)
	}
	if req.Limit == 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}

	return nil
}

// ValidateRating checks a user rating is within the accepted 1-5 range.
func ValidateRating(rating int) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	return nil
}

// ValidIntent reports whether the given string is a known QueryIntent.
func ValidIntent(s string) bool {
	switch QueryIntent(s) {
	case IntentNavigational, IntentHowTo, IntentFactual, IntentExploratory:
		return true
	}
	return false
}
