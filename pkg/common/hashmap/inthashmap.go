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
	"unsafe"

	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/container/hashtable"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

func NewIntHashMap(hasNull bool) *IntHashMap {
	mp := &hashtable.Int64HashMap{}
	mp.Init()
	return &IntHashMap{
		hasNull: hasNull,
		keys:    make([]uint64, UnitLimit),
		keyOffs: make([]uint32, UnitLimit),
		values:  make([]uint64, UnitLimit),
		hashes:  make([]uint64, UnitLimit),
		hashMap: mp,
	}
}

func (m *IntHashMap) HasNull() bool {
	return m.hasNull
}

func (m *IntHashMap) GroupCount() uint64 {
	return m.rows
}

func (m *IntHashMap) Size() int64 {
	return m.hashMap.Size()
}

func (m *IntHashMap) NewIterator() Iterator {
	return &intHashMapIterator{mp: m}
}

func (itr *intHashMapIterator) Insert(start, count int, vecs []*vector.Vector, zValues []int64) ([]uint64, error) {
	if count > UnitLimit {
		return nil, moerr.NewInternalErrorNoCtx("int hashmap batch of %d rows", count)
	}
	m := itr.mp
	if err := m.encodeHashKeys(vecs, start, count); err != nil {
		return nil, err
	}

	m.hashes[0] = 0
	if zValues == nil {
		m.hashMap.InsertBatch(count, m.hashes[:count], unsafe.Pointer(&m.keys[0]), m.values[:count])
	} else {
		m.hashMap.InsertBatchWithRing(count, zValues, m.hashes[:count], unsafe.Pointer(&m.keys[0]), m.values[:count])
	}
	for _, v := range m.values[:count] {
		if v > m.rows {
			m.rows = v
		}
	}
	return m.values[:count], nil
}

func (itr *intHashMapIterator) Find(start, count int, vecs []*vector.Vector, zValues []int64) []uint64 {
	m := itr.mp
	if err := m.encodeHashKeys(vecs, start, count); err != nil {
		panic(err)
	}

	m.hashes[0] = 0
	if zValues == nil {
		m.hashMap.FindBatch(count, m.hashes[:count], unsafe.Pointer(&m.keys[0]), m.values[:count])
	} else {
		m.hashMap.FindBatchWithRing(count, zValues, m.hashes[:count], unsafe.Pointer(&m.keys[0]), m.values[:count])
	}
	return m.values[:count]
}

// encodeHashKeys packs one window of rows into the scratch uint64 keys.
func (m *IntHashMap) encodeHashKeys(vecs []*vector.Vector, start, count int) error {
	for i := 0; i < count; i++ {
		m.keys[i] = 0
	}
	for i := 0; i < count; i++ {
		m.keyOffs[i] = 0
	}
	for _, vec := range vecs {
		if vec.GetType().IsVarlen() {
			return moerr.NewInternalErrorNoCtx("int hashmap with varlen key column")
		}
		m.fillKeys(vec, start, count)
	}
	return nil
}

func (m *IntHashMap) fillKeys(vec *vector.Vector, start, count int) {
	sz := uint32(vec.GetType().TypeSize())
	data := vec.UnsafeGetRawData()
	keysBytes := types.EncodeSlice(m.keys)
	nsp := vec.GetNulls()
	hasNulls := nulls.Any(nsp)
	// only a nullable column spends a key byte on the null flag; the
	// stored and probed sides agree because both carry the set's
	// element types
	nullFlag := m.hasNull && vec.GetType().IsNullable()
	for i := 0; i < count; i++ {
		row := start + i
		if vec.IsConst() {
			row = 0
		}
		base := uint32(i) * 8
		if nullFlag {
			if hasNulls && nsp.Contains(uint64(row)) {
				keysBytes[base+m.keyOffs[i]] = 1
				m.keyOffs[i]++
				continue
			}
			keysBytes[base+m.keyOffs[i]] = 0
			m.keyOffs[i]++
		}
		if len(data) == 0 {
			// scalar null column, rows are masked out by zValues
			m.keyOffs[i] += sz
			continue
		}
		copy(keysBytes[base+m.keyOffs[i]:base+m.keyOffs[i]+sz],
			data[uint32(row)*sz:(uint32(row)+1)*sz])
		m.keyOffs[i] += sz
	}
}
