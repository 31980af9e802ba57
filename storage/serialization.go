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


package storage

import (
	"github.com/poiesic/retrievit/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalPassageRecord serializes a PassageRecord to bytes.
func MarshalPassageRecord(record *core.PassageRecord) []byte {
	buf := make([]byte, core.PassageRecordMUS.Size(*record))
	core.PassageRecordMUS.Marshal(*record, buf)
	return buf
}

// UnmarshalPassageRecord deserializes a PassageRecord from bytes.
func UnmarshalPassageRecord(data []byte) (*core.PassageRecord, error) {
	record, _, err := core.PassageRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// MarshalQueryLogEntry serializes a QueryLogEntry to bytes.
func MarshalQueryLogEntry(entry *core.QueryLogEntry) []byte {
	buf := make([]byte, core.QueryLogEntryMUS.Size(*entry))
	core.QueryLogEntryMUS.Marshal(*entry, buf)
	return buf
}

// UnmarshalQueryLogEntry deserializes a QueryLogEntry from bytes.
func UnmarshalQueryLogEntry(data []byte) (*core.QueryLogEntry, error) {
	entry, _, err := core.QueryLogEntryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
