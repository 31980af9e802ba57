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


package mock

import "github.com/poiesic/retrievit/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock embedder, generator and cross-encoder instances.
type MockProvider struct {
	embedder     *MockEmbedder
	generator    *MockGenerator
	crossEncoder *MockCrossEncoder
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production
// constructors. Use NewMockProviderWithServices to keep references to the
// concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		embedder:     NewMockEmbedder(),
		generator:    NewMockGenerator(),
		crossEncoder: NewMockCrossEncoder(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock
// services. This allows full control over the behavior of each service.
func NewMockProviderWithServices(embedder *MockEmbedder, generator *MockGenerator, crossEncoder *MockCrossEncoder) ai.AIProvider {
	return &MockProvider{
		embedder:     embedder,
		generator:    generator,
		crossEncoder: crossEncoder,
	}
}

// Embedder returns the mock embedder.
func (p *MockProvider) Embedder() ai.Embedder {
	return p.embedder
}

// Generator returns the mock generator.
func (p *MockProvider) Generator() ai.Generator {
	return p.generator
}

// CrossEncoder returns the mock cross-encoder.
func (p *MockProvider) CrossEncoder() ai.CrossEncoder {
	return p.crossEncoder
}

// Close is a no-op for mock provider.
func (p *MockProvider) Close() error {
	return nil
}
