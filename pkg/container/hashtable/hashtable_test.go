// Copyright 2021 Matrix Origin
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

package hashtable

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestInt64HashMapInsertFind(t *testing.T) {
	ht := &Int64HashMap{}
	ht.Init()

	keys := []uint64{0, 1, 2, 1, 0, 42}
	hashes := make([]uint64, len(keys))
	values := make([]uint64, len(keys))
	ht.InsertBatch(len(keys), hashes, unsafe.Pointer(&keys[0]), values)
	require.Equal(t, []uint64{1, 2, 3, 2, 1, 4}, values)
	require.Equal(t, uint64(4), ht.Cardinality())

	probe := []uint64{42, 7, 0}
	hashes = make([]uint64, len(probe))
	found := make([]uint64, len(probe))
	ht.FindBatch(len(probe), hashes, unsafe.Pointer(&probe[0]), found)
	require.Equal(t, []uint64{4, 0, 1}, found)
}

func TestInt64HashMapResize(t *testing.T) {
	ht := &Int64HashMap{}
	ht.Init()

	const n = 100000
	keys := make([]uint64, n)
	for i := range keys {
		keys[i] = uint64(i) * 2654435761
	}
	for start := 0; start < n; start += 8192 {
		end := start + 8192
		if end > n {
			end = n
		}
		cnt := end - start
		hashes := make([]uint64, cnt)
		values := make([]uint64, cnt)
		ht.InsertBatch(cnt, hashes, unsafe.Pointer(&keys[start]), values)
	}
	require.Equal(t, uint64(n), ht.Cardinality())

	hashes := make([]uint64, 3)
	found := make([]uint64, 3)
	probe := []uint64{keys[0], keys[n-1], 1}
	ht.FindBatch(3, hashes, unsafe.Pointer(&probe[0]), found)
	require.NotEqual(t, uint64(0), found[0])
	require.NotEqual(t, uint64(0), found[1])
	require.Equal(t, uint64(0), found[2])
}

func TestInt64HashMapRing(t *testing.T) {
	ht := &Int64HashMap{}
	ht.Init()

	keys := []uint64{5, 6, 7}
	zs := []int64{1, 0, 1}
	hashes := make([]uint64, 3)
	values := make([]uint64, 3)
	ht.InsertBatchWithRing(3, zs, hashes, unsafe.Pointer(&keys[0]), values)
	require.Equal(t, uint64(2), ht.Cardinality())
	require.Equal(t, uint64(0), values[1])
}

func TestStringHashMapInsertFind(t *testing.T) {
	ht := &StringHashMap{}
	ht.Init()

	keys := [][]byte{
		[]byte("alpha.!!!!!!!!!!!"),
		[]byte("beta............."),
		[]byte("alpha.!!!!!!!!!!!"),
	}
	states := make([][3]uint64, len(keys))
	values := make([]uint64, len(keys))
	ht.InsertStringBatch(states, keys, values)
	require.Equal(t, values[0], values[2])
	require.NotEqual(t, values[0], values[1])
	require.Equal(t, uint64(2), ht.Cardinality())

	found := make([]uint64, len(keys))
	ht.FindStringBatch(states, keys, found)
	require.Equal(t, values, found)
}

func TestStringHashMapResize(t *testing.T) {
	ht := &StringHashMap{}
	ht.Init()

	const n = 5000
	keys := make([][]byte, n)
	for i := range keys {
		keys[i] = []byte{byte(i), byte(i >> 8), 0xab, 0xcd, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}
	}
	states := make([][3]uint64, n)
	values := make([]uint64, n)
	ht.InsertStringBatch(states, keys, values)
	require.Equal(t, uint64(n), ht.Cardinality())

	found := make([]uint64, n)
	ht.FindStringBatch(states, keys, found)
	require.Equal(t, values, found)
}

func TestFixedSet(t *testing.T) {
	ht := &FixedSet{}
	ht.Init(257)

	require.True(t, ht.Insert(0))
	require.False(t, ht.Insert(0))
	require.True(t, ht.Insert(255))
	require.True(t, ht.Insert(256))
	require.Equal(t, uint64(3), ht.Cardinality())
	require.True(t, ht.Contains(256))
	require.False(t, ht.Contains(7))
}

func TestWyhashStability(t *testing.T) {
	var s1, s2 [3]uint64
	key := []byte("the quick brown fox jumps over the lazy dog")
	BytesGenHashState(key, &s1)
	BytesGenHashState(key, &s2)
	require.Equal(t, s1, s2)

	BytesGenHashState([]byte("the quick brown fox jumps over the lazy dot"), &s2)
	require.NotEqual(t, s1, s2)
}
