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
	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/container/hashtable"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

const (
	// key 256 is the NULL slot.
	fixed8NullKey   = 256
	fixed8BucketCnt = 257
)

// NewFixed8Map builds the direct addressed table for one single byte
// key column.
func NewFixed8Map(hasNull bool) *Fixed8Map {
	set := &hashtable.FixedSet{}
	set.Init(fixed8BucketCnt)
	return &Fixed8Map{
		hasNull: hasNull,
		values:  make([]uint64, UnitLimit),
		ids:     make([]uint64, fixed8BucketCnt),
		set:     set,
	}
}

func (m *Fixed8Map) HasNull() bool {
	return m.hasNull
}

func (m *Fixed8Map) GroupCount() uint64 {
	return m.rows
}

func (m *Fixed8Map) Size() int64 {
	return m.set.Size() + int64(len(m.ids))*8
}

func (m *Fixed8Map) NewIterator() Iterator {
	return &fixed8MapIterator{mp: m}
}

func (m *Fixed8Map) keyOf(vec *vector.Vector, row int) (uint32, bool) {
	if vec.IsConst() {
		row = 0
	}
	if nulls.Contains(vec.GetNulls(), uint64(row)) {
		if !m.hasNull {
			return 0, false
		}
		return fixed8NullKey, true
	}
	data := vec.UnsafeGetRawData()
	return uint32(data[row]), true
}

func (itr *fixed8MapIterator) Insert(start, count int, vecs []*vector.Vector, zValues []int64) ([]uint64, error) {
	if count > UnitLimit {
		return nil, moerr.NewInternalErrorNoCtx("fixed8 map batch of %d rows", count)
	}
	m := itr.mp
	vec := vecs[0]
	for i := 0; i < count; i++ {
		if zValues != nil && zValues[i] == 0 {
			m.values[i] = 0
			continue
		}
		key, ok := m.keyOf(vec, start+i)
		if !ok {
			m.values[i] = 0
			continue
		}
		if m.set.Insert(key) {
			m.rows++
			m.ids[key] = m.rows
		}
		m.values[i] = m.ids[key]
	}
	return m.values[:count], nil
}

func (itr *fixed8MapIterator) Find(start, count int, vecs []*vector.Vector, zValues []int64) []uint64 {
	m := itr.mp
	vec := vecs[0]
	for i := 0; i < count; i++ {
		if zValues != nil && zValues[i] == 0 {
			m.values[i] = 0
			continue
		}
		key, ok := m.keyOf(vec, start+i)
		if !ok {
			m.values[i] = 0
			continue
		}
		m.values[i] = m.ids[key]
	}
	return m.values[:count]
}
