// Copyright 2021 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package hashmap

import (
	"github.com/alont/ClickHouse/pkg/container/hashtable"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

const (
	// UnitLimit is the batch width of one insert or find call.
	UnitLimit = 256
)

// HashMap is the hash table interface exposed to the operators.  The
// mapped values are dense group ids starting from 1; 0 means absent.
type HashMap interface {
	// HasNull returns whether NULL takes part in the key encoding.
	HasNull() bool
	// GroupCount returns the number of distinct keys inserted.
	GroupCount() uint64
	// Size returns the memory footprint of the table.
	Size() int64
	// NewIterator returns an iterator for bulk inserts and finds.
	NewIterator() Iterator
}

// Iterator does insert or find operations on a hash table in bulk.
// zValues, when non nil, marks rows excluded from the operation: a row
// with zValues[i] == 0 is neither inserted nor found and its value is
// reported as 0.
type Iterator interface {
	// Insert rows [start, start+count) of vecs into the table.
	Insert(start, count int, vecs []*vector.Vector, zValues []int64) ([]uint64, error)

	// Find rows [start, start+count) of vecs in the table.
	Find(start, count int, vecs []*vector.Vector, zValues []int64) []uint64
}

// IntHashMap packs all key columns of one row into a single uint64.
// The caller guarantees the total key width, null bytes included, fits
// in 8 bytes.
type IntHashMap struct {
	hasNull bool

	rows    uint64
	keys    []uint64
	keyOffs []uint32
	values  []uint64
	hashes  []uint64

	hashMap *hashtable.Int64HashMap
}

// StrHashMap serializes the key columns of one row into a byte run.
// Rows hash by content; the bytes are not retained by the table.
type StrHashMap struct {
	hasNull bool

	rows          uint64
	keys          [][]byte
	values        []uint64
	strHashStates [][3]uint64

	hashMap *hashtable.StringHashMap
}

// Fixed8Map direct addresses single byte keys, with one extra slot for
// NULL when hasNull.
type Fixed8Map struct {
	hasNull bool

	rows   uint64
	values []uint64
	ids    []uint64

	set *hashtable.FixedSet
}

type intHashMapIterator struct {
	mp *IntHashMap
}

type strHashMapIterator struct {
	mp *StrHashMap
}

type fixed8MapIterator struct {
	mp *Fixed8Map
}
