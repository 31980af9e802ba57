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


package openai

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/retrievit/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const scorePromptTemplate = `You are a relevance judge. Rate how well the passage answers the query.
Respond with a single number between 0 and 100. No explanation.

Query: %s

Passage: %s

Score:`

// maxPassageChars bounds the passage text sent per scoring call.
const maxPassageChars = 2000

var numberPattern = regexp.MustCompile(`-?\d+(\.\d+)?`)

// CrossEncoder implements ai.CrossEncoder by asking a chat model to score each
// query/passage pair. Scores are mapped to the 0..1 range. One model call is
// made per passage, so callers should bound candidate counts before scoring.
type CrossEncoder struct {
	client llms.Model
	logger *slog.Logger
}

// newCrossEncoder is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCrossEncoder(config *ai.Config) (*CrossEncoder, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.ChatHost),
		openai.WithToken("none"),
		openai.WithModel(config.RerankModel),
	)
	if err != nil {
		return nil, err
	}

	return &CrossEncoder{
		client: client,
		logger: slog.Default().With("component", "openai-crossencoder"),
	}, nil
}

// NewCrossEncoder creates a new pairwise relevance scorer using the provided
// configuration.
//
// Returns ai.CrossEncoder interface to enforce abstraction.
func NewCrossEncoder(config *ai.Config) (ai.CrossEncoder, error) {
	return newCrossEncoder(config)
}

// Score returns one relevance score per passage, in input order.
// The first failed model call aborts the batch; partial scores are never
// returned, so callers can fail open with their existing ordering intact.
func (c *CrossEncoder) Score(ctx context.Context, query string, passages []string) ([]float64, error) {
	scores := make([]float64, len(passages))

	for i, passage := range passages {
		if len(passage) > maxPassageChars {
			passage = passage[:maxPassageChars]
		}

		prompt := fmt.Sprintf(scorePromptTemplate, query, passage)
		response, err := llms.GenerateFromSinglePrompt(ctx, c.client, prompt,
			llms.WithTemperature(0.0),
			llms.WithMaxTokens(8),
		)
		if err != nil {
			c.logger.Warn("pair scoring failed", "pair", i, "err", err)
			return nil, err
		}

		score, err := parseScore(response)
		if err != nil {
			c.logger.Warn("unparseable score", "pair", i, "response", response)
			return nil, err
		}
		scores[i] = score
	}

	return scores, nil
}

// parseScore extracts the first number from a model response and maps it
// from the prompt's 0-100 scale into 0..1.
func parseScore(response string) (float64, error) {
	match := numberPattern.FindString(strings.TrimSpace(response))
	if match == "" {
		return 0, fmt.Errorf("no number in model response %q", response)
	}

	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, err
	}

	score := value / 100.0
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	return score, nil
}
