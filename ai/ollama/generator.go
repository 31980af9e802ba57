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


package ollama

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// Generator implements ai.Generator against a local Ollama server using its
// native API. Typically placed first in the rewrite provider chain.
type Generator struct {
	client *ollama.LLM
	logger *slog.Logger
}

// NewGenerator creates a generator backed by the Ollama server at serverURL
// (e.g. "http://localhost:11434") running the given model.
func NewGenerator(serverURL, model string) (*Generator, error) {
	client, err := ollama.New(
		ollama.WithServerURL(serverURL),
		ollama.WithModel(model),
	)
	if err != nil {
		return nil, err
	}

	return &Generator{
		client: client,
		logger: slog.Default().With("component", "ollama-generator"),
	}, nil
}

// Generate returns the model's completion for the prompt.
func (g *Generator) Generate(ctx context.Context, prompt string) (string, error) {
	g.logger.Debug("generating completion", "promptLength", len(prompt))

	response, err := llms.GenerateFromSinglePrompt(ctx, g.client, prompt,
		llms.WithTemperature(0.3),
		llms.WithMaxTokens(150),
	)
	if err != nil {
		g.logger.Error("completion failed", "err", err)
		return "", err
	}

	return response, nil
}

// Name identifies this provider in logs and cache entries.
func (g *Generator) Name() string {
	return "ollama"
}
