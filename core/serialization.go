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
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
)

// MUS serializers for the persisted types. Hand-maintained; field order is
// the wire format, so append new fields at the end and never reorder.

var (
	vectorMUS = ord.NewSliceSer[float32](raw.Float32)
	extraMUS  = ord.NewMapSer[string, string](ord.String, ord.String)
)

// IDMUS serializes ID values.
var IDMUS = idMUS{}

type idMUS struct{}

func (s idMUS) Marshal(v ID, bs []byte) (n int) {
	return varint.Uint64.Marshal(uint64(v), bs)
}

func (s idMUS) Unmarshal(bs []byte) (v ID, n int, err error) {
	u, n, err := varint.Uint64.Unmarshal(bs)
	return ID(u), n, err
}

func (s idMUS) Size(v ID) (size int) {
	return varint.Uint64.Size(uint64(v))
}

// PayloadMUS serializes Payload values.
var PayloadMUS = payloadMUS{}

type payloadMUS struct{}

func (s payloadMUS) Marshal(v Payload, bs []byte) (n int) {
	n = ord.String.Marshal(v.PageID, bs)
	n += ord.String.Marshal(v.Title, bs[n:])
	n += ord.String.Marshal(v.Space, bs[n:])
	n += ord.String.Marshal(v.HeadingPath, bs[n:])
	n += ord.String.Marshal(v.Breadcrumb, bs[n:])
	n += ord.String.Marshal(v.ParentTitle, bs[n:])
	n += ord.String.Marshal(v.Text, bs[n:])
	n += ord.String.Marshal(v.Content, bs[n:])
	n += extraMUS.Marshal(v.Extra, bs[n:])
	return
}

func (s payloadMUS) Unmarshal(bs []byte) (v Payload, n int, err error) {
	var n1 int
	if v.PageID, n, err = ord.String.Unmarshal(bs); err != nil {
		return
	}
	if v.Title, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Space, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.HeadingPath, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Breadcrumb, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.ParentTitle, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Text, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Content, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Extra, n1, err = extraMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	return
}

func (s payloadMUS) Size(v Payload) (size int) {
	size = ord.String.Size(v.PageID)
	size += ord.String.Size(v.Title)
	size += ord.String.Size(v.Space)
	size += ord.String.Size(v.HeadingPath)
	size += ord.String.Size(v.Breadcrumb)
	size += ord.String.Size(v.ParentTitle)
	size += ord.String.Size(v.Text)
	size += ord.String.Size(v.Content)
	size += extraMUS.Size(v.Extra)
	return
}

// PassageRecordMUS serializes PassageRecord values.
var PassageRecordMUS = passageRecordMUS{}

type passageRecordMUS struct{}

func (s passageRecordMUS) Marshal(v PassageRecord, bs []byte) (n int) {
	n = IDMUS.Marshal(v.Id, bs)
	n += ord.String.Marshal(v.Key, bs[n:])
	n += PayloadMUS.Marshal(v.Payload, bs[n:])
	n += vectorMUS.Marshal(v.Vector, bs[n:])
	n += varint.Int64.Marshal(v.InsertedAt.UnixMicro(), bs[n:])
	return
}

func (s passageRecordMUS) Unmarshal(bs []byte) (v PassageRecord, n int, err error) {
	var n1 int
	if v.Id, n, err = IDMUS.Unmarshal(bs); err != nil {
		return
	}
	if v.Key, n1, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Payload, n1, err = PayloadMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Vector, n1, err = vectorMUS.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.InsertedAt = time.UnixMicro(micros).UTC()
	return
}

func (s passageRecordMUS) Size(v PassageRecord) (size int) {
	size = IDMUS.Size(v.Id)
	size += ord.String.Size(v.Key)
	size += PayloadMUS.Size(v.Payload)
	size += vectorMUS.Size(v.Vector)
	size += varint.Int64.Size(v.InsertedAt.UnixMicro())
	return
}

// QueryLogEntryMUS serializes QueryLogEntry values.
var QueryLogEntryMUS = queryLogEntryMUS{}

type queryLogEntryMUS struct{}

func (s queryLogEntryMUS) Marshal(v QueryLogEntry, bs []byte) (n int) {
	n = varint.PositiveInt.Marshal(v.Count, bs)
	n += varint.PositiveInt.Marshal(v.ResultsCount, bs[n:])
	n += raw.Float64.Marshal(v.RatingSum, bs[n:])
	n += varint.PositiveInt.Marshal(v.RatingCount, bs[n:])
	n += raw.Float64.Marshal(v.AvgRating, bs[n:])
	n += ord.Bool.Marshal(v.Success, bs[n:])
	n += varint.Int64.Marshal(v.LastSeen.UnixMicro(), bs[n:])
	return
}

func (s queryLogEntryMUS) Unmarshal(bs []byte) (v QueryLogEntry, n int, err error) {
	var n1 int
	if v.Count, n, err = varint.PositiveInt.Unmarshal(bs); err != nil {
		return
	}
	if v.ResultsCount, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.RatingSum, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.RatingCount, n1, err = varint.PositiveInt.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.AvgRating, n1, err = raw.Float64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	if v.Success, n1, err = ord.Bool.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	var micros int64
	if micros, n1, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return
	}
	n += n1
	v.LastSeen = time.UnixMicro(micros).UTC()
	return
}

func (s queryLogEntryMUS) Size(v QueryLogEntry) (size int) {
	size = varint.PositiveInt.Size(v.Count)
	size += varint.PositiveInt.Size(v.ResultsCount)
	size += raw.Float64.Size(v.RatingSum)
	size += varint.PositiveInt.Size(v.RatingCount)
	size += raw.Float64.Size(v.AvgRating)
	size += ord.Bool.Size(v.Success)
	size += varint.Int64.Size(v.LastSeen.UnixMicro())
	return
}
