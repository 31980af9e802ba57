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


package retrieval

import (
	"strings"

	"github.com/poiesic/retrievit/core"
)

// textStrategy extracts passage text from one possible payload location.
// Different ingestion versions stored the text under different fields, so
// extraction tries an ordered list of strategies and takes the first
// non-empty result.
type textStrategy func(p *core.Payload) string

var textStrategies = []textStrategy{
	func(p *core.Payload) string { return p.Text },
	func(p *core.Payload) string { return p.Content },
	func(p *core.Payload) string { return p.Extra["text"] },
	func(p *core.Payload) string { return p.Extra["content"] },
	func(p *core.Payload) string { return p.Extra["body"] },
}

// ExtractText returns the passage text from a payload, trying each known
// field in order. The second return is false when no strategy yields text;
// such candidates are malformed and must be dropped from consideration.
func ExtractText(p *core.Payload) (string, bool) {
	for _, strategy := range textStrategies {
		if text := strings.TrimSpace(strategy(p)); text != "" {
			return text, true
		}
	}
	return "", false
}

// DropMalformed filters out candidates whose payload has no extractable text.
// The input order of the remaining candidates is preserved.
func DropMalformed(candidates []core.CandidateResult) []core.CandidateResult {
	kept := make([]core.CandidateResult, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := ExtractText(&c.Payload); ok {
			kept = append(kept, c)
		}
	}
	return kept
}
