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

package index

import (
	gosort "sort"

	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/compare"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
	"github.com/alont/ClickHouse/pkg/sort"
)

// KeyTuplePair maps one index key position onto one column of the
// retained tuple store, through an optional monotonic functions chain.
type KeyTuplePair struct {
	KeyIndex   int
	TupleIndex int
	Chain      MonotonicChain
}

// OrderedSetIndex is the lexicographically sorted materialization of a
// set's retained tuples, projected onto the index key columns.  It
// prunes key ranges: given a hyperrectangle of per-key ranges it
// decides whether the set intersects it at all.
type OrderedSetIndex struct {
	mp *mpool.MPool

	hasAllKeys bool
	mapping    []KeyTuplePair
	ordered    []*vector.Vector
}

// NewOrderedSetIndex sorts the projected tuple columns.  The retained
// columns are logically transferred: the index owns its copies.
func NewOrderedSetIndex(retained []*vector.Vector, mapping []KeyTuplePair, mp *mpool.MPool) (*OrderedSetIndex, error) {
	idx := &OrderedSetIndex{mp: mp}

	idx.mapping = append([]KeyTuplePair(nil), mapping...)
	gosort.SliceStable(idx.mapping, func(i, j int) bool {
		a, b := idx.mapping[i], idx.mapping[j]
		if a.KeyIndex != b.KeyIndex {
			return a.KeyIndex < b.KeyIndex
		}
		return a.TupleIndex < b.TupleIndex
	})
	deduped := idx.mapping[:0]
	for _, pair := range idx.mapping {
		if len(deduped) > 0 && deduped[len(deduped)-1].KeyIndex == pair.KeyIndex {
			continue
		}
		deduped = append(deduped, pair)
	}
	idx.mapping = deduped
	idx.hasAllKeys = len(retained) == len(idx.mapping)

	idx.ordered = make([]*vector.Vector, len(idx.mapping))
	for i, pair := range idx.mapping {
		if pair.TupleIndex < 0 || pair.TupleIndex >= len(retained) {
			idx.Free()
			return nil, moerr.NewInternalErrorNoCtx("ordered set index tuple index %d out of %d columns",
				pair.TupleIndex, len(retained))
		}
		col, err := retained[pair.TupleIndex].Dup(mp)
		if err != nil {
			idx.Free()
			return nil, err
		}
		idx.ordered[i] = col
	}

	if len(idx.ordered) > 0 && idx.ordered[0].Length() > 0 {
		os := sort.LexOrder(idx.ordered)
		if err := sort.SortByOrder(idx.ordered, os, mp); err != nil {
			idx.Free()
			return nil, err
		}
	}
	return idx, nil
}

func (idx *OrderedSetIndex) Free() {
	for _, col := range idx.ordered {
		if col != nil {
			col.Free(idx.mp)
		}
	}
	idx.ordered = nil
}

// Size is the number of tuples in the index.
func (idx *OrderedSetIndex) Size() int {
	if len(idx.ordered) == 0 {
		return 0
	}
	return idx.ordered[0].Length()
}

func (idx *OrderedSetIndex) HasAllKeys() bool {
	return idx.hasAllKeys
}

// HasMonotonicFunctionsChain reports whether any key reaches its tuple
// column through functions.
func (idx *OrderedSetIndex) HasMonotonicFunctionsChain() bool {
	for _, pair := range idx.mapping {
		if len(pair.Chain) > 0 {
			return true
		}
	}
	return false
}

// compareRowTo orders a stored row against one endpoint component.
// NegInf sorts below every row; PosInf above, except that a NULL row
// equals PosInf because NULL sorts as positive infinity.
func (idx *OrderedSetIndex) compareRowTo(axis, row int, fv *FieldValue) int {
	switch fv.kind {
	case fieldNegInf:
		return 1
	case fieldPosInf:
		if idx.ordered[axis].IsNull(uint64(row)) {
			return 0
		}
		return -1
	default:
		return compare.At(idx.ordered[axis], fv.col, int64(row), 0)
	}
}

func (idx *OrderedSetIndex) rowLess(row int, point []FieldValue) bool {
	for i := range point {
		if r := idx.compareRowTo(i, row, &point[i]); r != 0 {
			return r < 0
		}
	}
	return false
}

func (idx *OrderedSetIndex) rowEquals(row int, point []FieldValue) bool {
	for i := range point {
		if idx.compareRowTo(i, row, &point[i]) != 0 {
			return false
		}
	}
	return true
}

// CheckInRange decides the intersection of the set with the
// hyperrectangle of per-key ranges: whether some element lies inside
// it, and whether some point of it falls outside the set.
func (idx *OrderedSetIndex) CheckInRange(keyRanges []Range, dataTypes []types.Type, singlePoint bool) (BoolMask, error) {
	tupleSize := len(idx.mapping)

	leftPoint := make([]FieldValue, tupleSize)
	rightPoint := make([]FieldValue, tupleSize)
	defer func() {
		for i := range leftPoint {
			leftPoint[i].Free(idx.mp)
			rightPoint[i].Free(idx.mp)
		}
	}()

	leftIncluded := true
	rightIncluded := true

	for i, pair := range idx.mapping {
		if pair.KeyIndex >= len(keyRanges) || pair.KeyIndex >= len(dataTypes) {
			return BoolMask{}, moerr.NewInternalErrorNoCtx("ordered set index key %d out of %d ranges",
				pair.KeyIndex, len(keyRanges))
		}
		newRange, ok := applyChainToRange(keyRanges[pair.KeyIndex], pair.Chain, dataTypes[pair.KeyIndex], singlePoint)
		if !ok {
			return BoolMask{MayBeTrue: true, MayBeFalse: true}, nil
		}

		typ := *idx.ordered[i].GetType()
		if err := leftPoint[i].Update(&newRange.Left, typ, idx.mp); err != nil {
			return BoolMask{}, err
		}
		leftIncluded = leftIncluded && newRange.LeftInclude
		if err := rightPoint[i].Update(&newRange.Right, typ, idx.mp); err != nil {
			return BoolMask{}, err
		}
		rightIncluded = rightIncluded && newRange.RightInclude
	}

	// Each hyperrectangle maps onto a contiguous run of the ordered
	// tuples, so two lower bounds bracket all candidates.
	n := idx.Size()
	leftLower := gosort.Search(n, func(row int) bool {
		return !idx.rowLess(row, leftPoint)
	})
	rightLower := gosort.Search(n, func(row int) bool {
		return !idx.rowLess(row, rightPoint)
	})

	// One-element hyperrectangle: with every key present the answer is
	// definite, which is what partition pruning wants.
	oneElementRange := true
	for i := 0; i < tupleSize; i++ {
		left, right := &leftPoint[i], &rightPoint[i]
		switch {
		case left.IsNormal() && right.IsNormal():
			if compare.At(left.col, right.col, 0, 0) != 0 {
				oneElementRange = false
			}
		case (left.IsPositiveInfinity() && right.IsPositiveInfinity()) ||
			(left.IsNegativeInfinity() && right.IsNegativeInfinity()):
			// special value equality
		default:
			oneElementRange = false
		}
		if !oneElementRange {
			break
		}
	}
	if oneElementRange && idx.hasAllKeys {
		if !leftIncluded || !rightIncluded {
			return BoolMask{MayBeTrue: false, MayBeFalse: true}, nil
		}
		if leftLower != n && idx.rowEquals(leftLower, leftPoint) {
			return BoolMask{MayBeTrue: true, MayBeFalse: false}, nil
		}
		return BoolMask{MayBeTrue: false, MayBeFalse: true}, nil
	}

	// More than one element in range: it can always be false, so only
	// may-be-true is in question.
	if leftLower+1 < rightLower {
		// an interior point exists: leftLower + 1
		return BoolMask{MayBeTrue: true, MayBeFalse: true}, nil
	}
	if leftLower+1 == rightLower {
		// leftLower itself is in range exactly when the left bound
		// admits it
		if leftIncluded || !idx.rowEquals(leftLower, leftPoint) {
			return BoolMask{MayBeTrue: true, MayBeFalse: true}, nil
		}
		hit := rightIncluded && rightLower != n && idx.rowEquals(rightLower, rightPoint)
		return BoolMask{MayBeTrue: hit, MayBeFalse: true}, nil
	}
	// leftLower == rightLower: only the right boundary can match
	hit := rightIncluded && rightLower != n && idx.rowEquals(rightLower, rightPoint)
	return BoolMask{MayBeTrue: hit, MayBeFalse: true}, nil
}
