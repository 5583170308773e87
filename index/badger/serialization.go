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


package badger

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"

	"github.com/poiesic/stockscope/core"
)

// storedEntry is the on-disk record for one symbol. Facts are stored
// field-by-field rather than as a metadata map so the encoding stays fixed.
type storedEntry struct {
	Symbol string
	Text   string
	Facts  core.StockFacts
	Vector []float32
}

var vectorMUS = ord.NewSliceSer[float32](raw.Float32)

// entryMUS implements the MUS format for storedEntry. Numeric facts use raw
// encoding so NaN (the absent-value marker) round-trips bit-exactly.
var entryMUS = entrySer{}

type entrySer struct{}

func (entrySer) Marshal(e storedEntry, bs []byte) (n int) {
	n = ord.String.Marshal(e.Symbol, bs)
	n += ord.String.Marshal(e.Text, bs[n:])
	n += ord.String.Marshal(e.Facts.Ticker, bs[n:])
	n += ord.String.Marshal(e.Facts.Name, bs[n:])
	n += ord.String.Marshal(e.Facts.BusinessSummary, bs[n:])
	n += ord.String.Marshal(e.Facts.City, bs[n:])
	n += ord.String.Marshal(e.Facts.State, bs[n:])
	n += ord.String.Marshal(e.Facts.Country, bs[n:])
	n += ord.String.Marshal(e.Facts.Industry, bs[n:])
	n += ord.String.Marshal(e.Facts.Sector, bs[n:])
	n += ord.String.Marshal(e.Facts.Recommendation, bs[n:])
	n += raw.Float64.Marshal(e.Facts.MarketCap, bs[n:])
	n += raw.Float64.Marshal(e.Facts.Volume, bs[n:])
	n += raw.Float64.Marshal(e.Facts.PERatio, bs[n:])
	n += raw.Float64.Marshal(e.Facts.Price, bs[n:])
	n += vectorMUS.Marshal(e.Vector, bs[n:])
	return n
}

func (entrySer) Unmarshal(bs []byte) (e storedEntry, n int, err error) {
	var n1 int
	strs := []*string{
		&e.Symbol, &e.Text,
		&e.Facts.Ticker, &e.Facts.Name, &e.Facts.BusinessSummary,
		&e.Facts.City, &e.Facts.State, &e.Facts.Country,
		&e.Facts.Industry, &e.Facts.Sector, &e.Facts.Recommendation,
	}
	for _, dst := range strs {
		*dst, n1, err = ord.String.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	nums := []*float64{
		&e.Facts.MarketCap, &e.Facts.Volume, &e.Facts.PERatio, &e.Facts.Price,
	}
	for _, dst := range nums {
		*dst, n1, err = raw.Float64.Unmarshal(bs[n:])
		n += n1
		if err != nil {
			return
		}
	}
	e.Vector, n1, err = vectorMUS.Unmarshal(bs[n:])
	n += n1
	return
}

func (entrySer) Size(e storedEntry) (size int) {
	size = ord.String.Size(e.Symbol)
	size += ord.String.Size(e.Text)
	size += ord.String.Size(e.Facts.Ticker)
	size += ord.String.Size(e.Facts.Name)
	size += ord.String.Size(e.Facts.BusinessSummary)
	size += ord.String.Size(e.Facts.City)
	size += ord.String.Size(e.Facts.State)
	size += ord.String.Size(e.Facts.Country)
	size += ord.String.Size(e.Facts.Industry)
	size += ord.String.Size(e.Facts.Sector)
	size += ord.String.Size(e.Facts.Recommendation)
	size += raw.Float64.Size(e.Facts.MarketCap)
	size += raw.Float64.Size(e.Facts.Volume)
	size += raw.Float64.Size(e.Facts.PERatio)
	size += raw.Float64.Size(e.Facts.Price)
	size += vectorMUS.Size(e.Vector)
	return size
}

// marshalEntry serializes a storedEntry to bytes.
func marshalEntry(e storedEntry) []byte {
	buf := make([]byte, entryMUS.Size(e))
	entryMUS.Marshal(e, buf)
	return buf
}

// unmarshalEntry deserializes a storedEntry from bytes.
func unmarshalEntry(data []byte) (storedEntry, error) {
	e, _, err := entryMUS.Unmarshal(data)
	return e, err
}
