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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

func newStrVector(vals []string, isNulls []bool, m *mpool.MPool) *vector.Vector {
	vec := vector.NewVec(types.T_varchar.ToType())
	if err := vector.AppendStringList(vec, vals, isNulls, m); err != nil {
		panic(err)
	}
	return vec
}

func TestStrHashMapIterator(t *testing.T) {
	m := mpool.MustNewZero()
	mp := NewStrMap(false)
	vec := newStrVector([]string{"a", "b", "a", "", "b"}, nil, m)

	itr := mp.NewIterator()
	vs, err := itr.Insert(0, 5, []*vector.Vector{vec}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 1, 3, 2}, vs)
	require.Equal(t, uint64(3), mp.GroupCount())

	vs = itr.Find(0, 5, []*vector.Vector{vec}, nil)
	require.Equal(t, []uint64{1, 2, 1, 3, 2}, vs)

	vec.Free(m)
}

func TestStrHashMapMultiColumnInjective(t *testing.T) {
	// ("ab","c") and ("a","bc") concatenate identically; the length
	// prefixes must keep them distinct
	m := mpool.MustNewZero()
	mp := NewStrMap(false)
	a := newStrVector([]string{"ab", "a"}, nil, m)
	b := newStrVector([]string{"c", "bc"}, nil, m)

	itr := mp.NewIterator()
	vs, err := itr.Insert(0, 2, []*vector.Vector{a, b}, nil)
	require.NoError(t, err)
	require.NotEqual(t, vs[0], vs[1])
	require.Equal(t, uint64(2), mp.GroupCount())

	a.Free(m)
	b.Free(m)
}

func TestStrHashMapNullKeyEncoding(t *testing.T) {
	m := mpool.MustNewZero()
	mp := NewStrMap(true)
	typ := types.T_varchar.ToType().Nullable()
	vec := vector.NewVec(typ)
	require.NoError(t, vector.AppendStringList(vec,
		[]string{"x", "", "x", ""}, []bool{false, true, false, true}, m))

	itr := mp.NewIterator()
	vs, err := itr.Insert(0, 4, []*vector.Vector{vec}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 1, 2}, vs)

	// NULL and the empty string stay distinct keys
	empty := newStrVector([]string{""}, nil, m)
	emptyTyped := vector.CloneWithType(empty, typ)
	vs = itr.Find(0, 1, []*vector.Vector{emptyTyped}, nil)
	require.Equal(t, uint64(0), vs[0])

	vec.Free(m)
	empty.Free(m)
}

func TestStrHashMapMixedColumns(t *testing.T) {
	m := mpool.MustNewZero()
	mp := NewStrMap(false)
	nums := vector.NewVec(types.T_int64.ToType())
	require.NoError(t, vector.AppendFixedList(nums, []int64{1, 1, 2}, nil, m))
	strs := newStrVector([]string{"x", "y", "x"}, nil, m)

	itr := mp.NewIterator()
	vs, err := itr.Insert(0, 3, []*vector.Vector{nums, strs}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 3}, vs)

	vs = itr.Find(0, 3, []*vector.Vector{nums, strs}, nil)
	require.Equal(t, []uint64{1, 2, 3}, vs)

	nums.Free(m)
	strs.Free(m)
}

func TestFixed8Map(t *testing.T) {
	m := mpool.MustNewZero()
	mp := NewFixed8Map(false)
	vec := vector.NewVec(types.T_uint8.ToType())
	require.NoError(t, vector.AppendFixedList(vec, []uint8{0, 255, 0, 7}, nil, m))

	itr := mp.NewIterator()
	vs, err := itr.Insert(0, 4, []*vector.Vector{vec}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2, 1, 3}, vs)
	require.Equal(t, uint64(3), mp.GroupCount())

	vs = itr.Find(0, 4, []*vector.Vector{vec}, nil)
	require.Equal(t, []uint64{1, 2, 1, 3}, vs)

	vec.Free(m)
}

func TestFixed8MapNullSlot(t *testing.T) {
	m := mpool.MustNewZero()
	mp := NewFixed8Map(true)
	typ := types.T_uint8.ToType().Nullable()
	vec := vector.NewVec(typ)
	require.NoError(t, vector.AppendFixedList(vec, []uint8{9, 0}, []bool{false, true}, m))

	itr := mp.NewIterator()
	vs, err := itr.Insert(0, 2, []*vector.Vector{vec}, nil)
	require.NoError(t, err)
	require.Equal(t, []uint64{1, 2}, vs)

	// the NULL slot is distinct from the value 0
	zero := vector.NewVec(typ)
	require.NoError(t, vector.AppendFixedList(zero, []uint8{0}, nil, m))
	vs = itr.Find(0, 1, []*vector.Vector{zero}, nil)
	require.Equal(t, uint64(0), vs[0])

	vec.Free(m)
	zero.Free(m)
}
