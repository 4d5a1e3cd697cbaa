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
	"encoding/binary"

	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/container/hashtable"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

func NewStrMap(hasNull bool) *StrHashMap {
	mp := &hashtable.StringHashMap{}
	mp.Init()
	return &StrHashMap{
		hasNull:       hasNull,
		keys:          make([][]byte, UnitLimit),
		values:        make([]uint64, UnitLimit),
		strHashStates: make([][3]uint64, UnitLimit),
		hashMap:       mp,
	}
}

func (m *StrHashMap) HasNull() bool {
	return m.hasNull
}

func (m *StrHashMap) GroupCount() uint64 {
	return m.rows
}

func (m *StrHashMap) Size() int64 {
	return m.hashMap.Size()
}

func (m *StrHashMap) NewIterator() Iterator {
	return &strHashMapIterator{mp: m}
}

func (itr *strHashMapIterator) Insert(start, count int, vecs []*vector.Vector, zValues []int64) ([]uint64, error) {
	if count > UnitLimit {
		return nil, moerr.NewInternalErrorNoCtx("str hashmap batch of %d rows", count)
	}
	m := itr.mp
	m.encodeHashKeys(vecs, start, count)

	if zValues == nil {
		m.hashMap.InsertStringBatch(m.strHashStates, m.keys[:count], m.values[:count])
	} else {
		m.hashMap.InsertStringBatchWithRing(zValues, m.strHashStates, m.keys[:count], m.values[:count])
	}
	for _, v := range m.values[:count] {
		if v > m.rows {
			m.rows = v
		}
	}
	return m.values[:count], nil
}

func (itr *strHashMapIterator) Find(start, count int, vecs []*vector.Vector, zValues []int64) []uint64 {
	m := itr.mp
	m.encodeHashKeys(vecs, start, count)

	if zValues == nil {
		m.hashMap.FindStringBatch(m.strHashStates, m.keys[:count], m.values[:count])
	} else {
		m.hashMap.FindStringBatchWithRing(zValues, m.strHashStates, m.keys[:count], m.values[:count])
	}
	return m.values[:count]
}

// encodeHashKeys serializes one window of rows into the scratch keys.
// Fixed width values are appended raw; variable length values carry a
// length prefix, keeping the serialization injective across key columns
// and under the zero padding of short keys.
func (m *StrHashMap) encodeHashKeys(vecs []*vector.Vector, start, count int) {
	for i := 0; i < count; i++ {
		m.keys[i] = m.keys[i][:0]
	}
	prefixed := true
	for _, vec := range vecs {
		if vec.GetType().IsVarlen() {
			m.fillStrKeys(vec, start, count, prefixed)
		} else {
			m.fillFixedKeys(vec, start, count)
		}
	}
	for i := 0; i < count; i++ {
		if l := len(m.keys[i]); l < 16 {
			m.keys[i] = append(m.keys[i], hashtable.StrKeyPadding[l:]...)
		}
	}
}

func (m *StrHashMap) fillFixedKeys(vec *vector.Vector, start, count int) {
	sz := vec.GetType().TypeSize()
	data := vec.UnsafeGetRawData()
	nsp := vec.GetNulls()
	hasNulls := nulls.Any(nsp)
	nullFlag := m.hasNull && vec.GetType().IsNullable()
	for i := 0; i < count; i++ {
		row := start + i
		if vec.IsConst() {
			row = 0
		}
		if nullFlag {
			if hasNulls && nsp.Contains(uint64(row)) {
				m.keys[i] = append(m.keys[i], byte(1))
				continue
			}
			m.keys[i] = append(m.keys[i], byte(0))
		}
		if len(data) == 0 {
			continue
		}
		m.keys[i] = append(m.keys[i], data[row*sz:(row+1)*sz]...)
	}
}

func (m *StrHashMap) fillStrKeys(vec *vector.Vector, start, count int, prefixed bool) {
	nsp := vec.GetNulls()
	hasNulls := nulls.Any(nsp)
	nullFlag := m.hasNull && vec.GetType().IsNullable()
	var lenBuf [binary.MaxVarintLen64]byte
	for i := 0; i < count; i++ {
		row := start + i
		if vec.IsConst() {
			row = 0
		}
		if nullFlag {
			if hasNulls && nsp.Contains(uint64(row)) {
				m.keys[i] = append(m.keys[i], byte(1))
				continue
			}
			m.keys[i] = append(m.keys[i], byte(0))
		} else if hasNulls && nsp.Contains(uint64(row)) {
			// masked out by zValues, nothing meaningful to append
			continue
		}
		if vec.IsConstNull() {
			continue
		}
		bs := vec.GetBytesAt(row)
		if prefixed {
			n := binary.PutUvarint(lenBuf[:], uint64(len(bs)))
			m.keys[i] = append(m.keys[i], lenBuf[:n]...)
		}
		m.keys[i] = append(m.keys[i], bs...)
	}
}
