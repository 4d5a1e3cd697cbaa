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
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

// BoolMask is the two-bit answer of a range probe: whether the
// predicate can be true somewhere in the range, and whether it can be
// false somewhere.
type BoolMask struct {
	MayBeTrue  bool
	MayBeFalse bool
}

type fieldValueKind int8

const (
	fieldNormal fieldValueKind = iota
	fieldNegInf
	fieldPosInf
)

// FieldValue is one endpoint of a range: an ordinary value held as a
// one-row column, or an infinity sentinel.  Infinities are states, not
// magic column values.
type FieldValue struct {
	kind fieldValueKind
	col  *vector.Vector
}

func NegativeInfinity() FieldValue {
	return FieldValue{kind: fieldNegInf}
}

func PositiveInfinity() FieldValue {
	return FieldValue{kind: fieldPosInf}
}

// NewFieldValue wraps a one-row column.
func NewFieldValue(col *vector.Vector) FieldValue {
	return FieldValue{kind: fieldNormal, col: col}
}

// FieldValueOf builds a one-row endpoint holding val.
func FieldValueOf[T types.FixedSizeT](typ types.Type, val T, m *mpool.MPool) (FieldValue, error) {
	col := vector.NewVec(typ)
	if err := vector.AppendFixed(col, val, false, m); err != nil {
		return FieldValue{}, err
	}
	return NewFieldValue(col), nil
}

// FieldValueOfBytes builds a one-row endpoint holding val.
func FieldValueOfBytes(typ types.Type, val []byte, m *mpool.MPool) (FieldValue, error) {
	col := vector.NewVec(typ)
	if err := vector.AppendBytes(col, val, false, m); err != nil {
		return FieldValue{}, err
	}
	return NewFieldValue(col), nil
}

func (f *FieldValue) IsNegativeInfinity() bool {
	return f.kind == fieldNegInf
}

func (f *FieldValue) IsPositiveInfinity() bool {
	return f.kind == fieldPosInf
}

func (f *FieldValue) IsNormal() bool {
	return f.kind == fieldNormal
}

func (f *FieldValue) Column() *vector.Vector {
	return f.col
}

// Update replaces the held value.  Updating to an infinity keeps the
// backing column around for reuse; the column keeps at most one row.
func (f *FieldValue) Update(x *FieldValue, typ types.Type, m *mpool.MPool) error {
	if !x.IsNormal() {
		f.kind = x.kind
		return nil
	}
	if f.col == nil {
		f.col = vector.NewVec(typ)
	}
	if f.col.Length() > 0 {
		f.col.PopBack(1)
	}
	if err := f.col.UnionOne(x.col, 0, m); err != nil {
		return err
	}
	f.kind = fieldNormal
	return nil
}

func (f *FieldValue) Free(m *mpool.MPool) {
	if f.col != nil {
		f.col.Free(m)
		f.col = nil
	}
}

// Range is one key's interval with inclusive or exclusive endpoints.
type Range struct {
	Left         FieldValue
	Right        FieldValue
	LeftInclude  bool
	RightInclude bool
}

// AllRange is the unbounded interval.
func AllRange() Range {
	return Range{
		Left:  NegativeInfinity(),
		Right: PositiveInfinity(),
	}
}

// PointRange is the one-element interval [v, v].
func PointRange(v FieldValue) Range {
	return Range{
		Left:         v,
		Right:        v,
		LeftInclude:  true,
		RightInclude: true,
	}
}

// MonotonicFunc is one link of a monotonic functions chain.  Image
// maps a range through the function; ok is false when the function is
// not monotonic over the given range.
type MonotonicFunc interface {
	Name() string
	Image(r Range, t types.Type, singlePoint bool) (Range, types.Type, bool)
}

// MonotonicChain is an ordered sequence of functions, applied left to
// right.
type MonotonicChain []MonotonicFunc

// applyChainToRange folds the chain over the range.  Failure of any
// link fails the whole application.
func applyChainToRange(r Range, chain MonotonicChain, t types.Type, singlePoint bool) (Range, bool) {
	cur, curType := r, t
	for _, fn := range chain {
		var ok bool
		cur, curType, ok = fn.Image(cur, curType, singlePoint)
		if !ok {
			return Range{}, false
		}
	}
	return cur, true
}
