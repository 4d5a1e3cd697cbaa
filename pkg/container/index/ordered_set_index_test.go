// Copyright 2022 Matrix Origin
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

package index

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/compare"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
	"github.com/alont/ClickHouse/pkg/testutil"
)

func newTwoKeyIndex(t *testing.T, m *mpool.MPool) *OrderedSetIndex {
	t.Helper()
	// tuples (1,'a'), (2,'b'), (3,'c'), deliberately unsorted
	nums := testutil.NewInt64Vector([]int64{3, 1, 2}, nil, m)
	strs := testutil.NewStringVector(types.T_varchar.ToType(), []string{"c", "a", "b"}, nil, m)
	idx, err := NewOrderedSetIndex(
		[]*vector.Vector{nums, strs},
		[]KeyTuplePair{{KeyIndex: 0, TupleIndex: 0}, {KeyIndex: 1, TupleIndex: 1}},
		m,
	)
	require.NoError(t, err)
	nums.Free(m)
	strs.Free(m)
	return idx
}

func intValue(t *testing.T, m *mpool.MPool, v int64) FieldValue {
	t.Helper()
	fv, err := FieldValueOf(types.T_int64.ToType(), v, m)
	require.NoError(t, err)
	return fv
}

func strValue(t *testing.T, m *mpool.MPool, s string) FieldValue {
	t.Helper()
	fv, err := FieldValueOfBytes(types.T_varchar.ToType(), []byte(s), m)
	require.NoError(t, err)
	return fv
}

func TestOrderedSetIndexSorted(t *testing.T) {
	m := mpool.MustNewZero()
	idx := newTwoKeyIndex(t, m)
	defer idx.Free()

	require.True(t, idx.HasAllKeys())
	require.Equal(t, 3, idx.Size())
	require.Equal(t, []int64{1, 2, 3}, vector.MustFixedCol[int64](idx.ordered[0]))
	for row := 0; row+1 < idx.Size(); row++ {
		le := false
		for _, col := range idx.ordered {
			r := compare.At(col, col, int64(row), int64(row+1))
			if r < 0 {
				le = true
				break
			}
			if r > 0 {
				break
			}
			le = true
		}
		require.True(t, le, "row %d > row %d", row, row+1)
	}
}

func TestCheckInRangeSinglePoint(t *testing.T) {
	m := mpool.MustNewZero()
	idx := newTwoKeyIndex(t, m)
	defer idx.Free()

	typs := []types.Type{types.T_int64.ToType(), types.T_varchar.ToType()}

	// a stored tuple: definitely and only true
	mask, err := idx.CheckInRange([]Range{
		PointRange(intValue(t, m, 2)),
		PointRange(strValue(t, m, "b")),
	}, typs, true)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: false}, mask)

	// an absent tuple: definitely false
	mask, err = idx.CheckInRange([]Range{
		PointRange(intValue(t, m, 2)),
		PointRange(strValue(t, m, "a")),
	}, typs, true)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: false, MayBeFalse: true}, mask)

	// an excluded endpoint empties the point range
	mask, err = idx.CheckInRange([]Range{
		{Left: intValue(t, m, 2), Right: intValue(t, m, 2), LeftInclude: false, RightInclude: true},
		PointRange(strValue(t, m, "b")),
	}, typs, true)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: false, MayBeFalse: true}, mask)
}

func TestCheckInRangeOpenRanges(t *testing.T) {
	m := mpool.MustNewZero()
	idx := newTwoKeyIndex(t, m)
	defer idx.Free()

	typs := []types.Type{types.T_int64.ToType(), types.T_varchar.ToType()}

	// ((1,'a'), (3,'c')) exclusive: the interior point (2,'b') hits
	mask, err := idx.CheckInRange([]Range{
		{Left: intValue(t, m, 1), Right: intValue(t, m, 3)},
		{Left: strValue(t, m, "a"), Right: strValue(t, m, "c")},
	}, typs, false)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: true}, mask)

	// ((3,'c'), (+inf,+inf)): nothing beyond the last tuple
	mask, err = idx.CheckInRange([]Range{
		{Left: intValue(t, m, 3), Right: PositiveInfinity()},
		{Left: strValue(t, m, "c"), Right: PositiveInfinity()},
	}, typs, false)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: false, MayBeFalse: true}, mask)

	// [(2,'b'), (+inf,+inf)): the left boundary is included
	mask, err = idx.CheckInRange([]Range{
		{Left: intValue(t, m, 2), Right: PositiveInfinity(), LeftInclude: true},
		{Left: strValue(t, m, "b"), Right: PositiveInfinity(), LeftInclude: true},
	}, typs, false)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: true}, mask)

	// ((-inf,-inf), (1,'a')): exclusive right bound of the smallest
	mask, err = idx.CheckInRange([]Range{
		{Left: NegativeInfinity(), Right: intValue(t, m, 1)},
		{Left: NegativeInfinity(), Right: strValue(t, m, "a")},
	}, typs, false)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: false, MayBeFalse: true}, mask)

	// ((-inf,-inf), (1,'a')]: now the right boundary hits
	mask, err = idx.CheckInRange([]Range{
		{Left: NegativeInfinity(), Right: intValue(t, m, 1), RightInclude: true},
		{Left: NegativeInfinity(), Right: strValue(t, m, "a"), RightInclude: true},
	}, typs, false)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: true}, mask)
}

func TestCheckInRangeMatchesSet(t *testing.T) {
	// a single-point probe agrees with plain membership
	m := mpool.MustNewZero()
	vals := []int64{5, -3, 12, 0, 5}
	nums := testutil.NewInt64Vector(vals, nil, m)
	idx, err := NewOrderedSetIndex([]*vector.Vector{nums},
		[]KeyTuplePair{{KeyIndex: 0, TupleIndex: 0}}, m)
	require.NoError(t, err)
	defer idx.Free()
	nums.Free(m)

	member := map[int64]bool{5: true, -3: true, 12: true, 0: true}
	typs := []types.Type{types.T_int64.ToType()}
	for probe := int64(-5); probe <= 15; probe++ {
		mask, err := idx.CheckInRange([]Range{PointRange(intValue(t, m, probe))}, typs, true)
		require.NoError(t, err)
		if member[probe] {
			require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: false}, mask, "probe %d", probe)
		} else {
			require.Equal(t, BoolMask{MayBeTrue: false, MayBeFalse: true}, mask, "probe %d", probe)
		}
	}
}

func TestNullSortsAsPositiveInfinity(t *testing.T) {
	m := mpool.MustNewZero()
	nums := testutil.NewInt64Vector([]int64{2, 0, 1}, []bool{false, true, false}, m)
	idx, err := NewOrderedSetIndex([]*vector.Vector{nums},
		[]KeyTuplePair{{KeyIndex: 0, TupleIndex: 0}}, m)
	require.NoError(t, err)
	defer idx.Free()
	nums.Free(m)

	// the NULL lands at the end
	require.True(t, idx.ordered[0].IsNull(2))

	// a +inf point probe equals the stored NULL
	typs := []types.Type{types.T_int64.ToType()}
	mask, err := idx.CheckInRange([]Range{{
		Left: PositiveInfinity(), Right: PositiveInfinity(),
		LeftInclude: true, RightInclude: true,
	}}, typs, true)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: false}, mask)
}

func TestMappingDedupAndProjection(t *testing.T) {
	m := mpool.MustNewZero()
	nums := testutil.NewInt64Vector([]int64{1, 2}, nil, m)
	strs := testutil.NewStringVector(types.T_varchar.ToType(), []string{"a", "b"}, nil, m)

	// key 0 appears twice, the lower tuple index wins; tuple column 1
	// never joins the index
	idx, err := NewOrderedSetIndex([]*vector.Vector{nums, strs},
		[]KeyTuplePair{
			{KeyIndex: 0, TupleIndex: 1},
			{KeyIndex: 0, TupleIndex: 0},
		}, m)
	require.NoError(t, err)
	defer idx.Free()

	require.Len(t, idx.mapping, 1)
	require.Equal(t, 0, idx.mapping[0].TupleIndex)
	require.False(t, idx.HasAllKeys())

	nums.Free(m)
	strs.Free(m)
}

type shiftFunc struct {
	delta int64
	m     *mpool.MPool
}

func (f *shiftFunc) Name() string { return "shift" }

func (f *shiftFunc) Image(r Range, t types.Type, _ bool) (Range, types.Type, bool) {
	out := Range{LeftInclude: r.LeftInclude, RightInclude: r.RightInclude}
	shift := func(fv FieldValue) (FieldValue, error) {
		if !fv.IsNormal() {
			return fv, nil
		}
		v := vector.GetFixedAt[int64](fv.Column(), 0)
		return FieldValueOf(t, v+f.delta, f.m)
	}
	var err error
	if out.Left, err = shift(r.Left); err != nil {
		return Range{}, t, false
	}
	if out.Right, err = shift(r.Right); err != nil {
		return Range{}, t, false
	}
	return out, t, true
}

type brokenFunc struct{}

func (brokenFunc) Name() string { return "broken" }

func (brokenFunc) Image(Range, types.Type, bool) (Range, types.Type, bool) {
	return Range{}, types.Type{}, false
}

func TestMonotonicChain(t *testing.T) {
	m := mpool.MustNewZero()
	// the index stores f(key) = key + 10
	nums := testutil.NewInt64Vector([]int64{11, 12, 13}, nil, m)
	idx, err := NewOrderedSetIndex([]*vector.Vector{nums},
		[]KeyTuplePair{{KeyIndex: 0, TupleIndex: 0, Chain: MonotonicChain{&shiftFunc{delta: 10, m: m}}}}, m)
	require.NoError(t, err)
	defer idx.Free()
	nums.Free(m)

	require.True(t, idx.HasMonotonicFunctionsChain())

	// the key range [2,2] maps onto the stored 12
	typs := []types.Type{types.T_int64.ToType()}
	mask, err := idx.CheckInRange([]Range{PointRange(intValue(t, m, 2))}, typs, true)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: false}, mask)

	mask, err = idx.CheckInRange([]Range{PointRange(intValue(t, m, 5))}, typs, true)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: false, MayBeFalse: true}, mask)
}

func TestMonotonicChainFailure(t *testing.T) {
	m := mpool.MustNewZero()
	nums := testutil.NewInt64Vector([]int64{1}, nil, m)
	idx, err := NewOrderedSetIndex([]*vector.Vector{nums},
		[]KeyTuplePair{{KeyIndex: 0, TupleIndex: 0, Chain: MonotonicChain{brokenFunc{}}}}, m)
	require.NoError(t, err)
	defer idx.Free()
	nums.Free(m)

	// a broken chain leaves the range unknown
	mask, err := idx.CheckInRange([]Range{PointRange(intValue(t, m, 1))},
		[]types.Type{types.T_int64.ToType()}, true)
	require.NoError(t, err)
	require.Equal(t, BoolMask{MayBeTrue: true, MayBeFalse: true}, mask)
	require.True(t, idx.HasMonotonicFunctionsChain())
}
