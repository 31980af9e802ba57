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


// Package storage provides the storage abstraction layer for retrievit.
//
// This package defines repository interfaces that decouple storage
// implementation from the retrieval and query-log logic, so different
// backends (BadgerDB, in-memory, etc.) can be used interchangeably.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//
//   - PassageRepository: persisted passages and vector similarity search
//   - QueryLogRepository: the persisted semantic query log
//
// Public constructors in backend packages return these interfaces to keep
// consumers decoupled from backend specifics.
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation and
// timeout support.
package storage
