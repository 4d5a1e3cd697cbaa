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

package vector

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/types"
)

const (
	// FLAT is an ordinary uncompressed vector.
	FLAT = iota
	// CONSTANT is a single value repeated length times.
	CONSTANT
)

// Vector represents a column.
type Vector struct {
	class int
	typ   types.Type
	nsp   *nulls.Nulls

	// data holds fixed width elements; for varlen types it holds the
	// Varlena headers and area the out of line bytes.
	data []byte
	area []byte

	length   int
	capacity int
}

func NewVec(typ types.Type) *Vector {
	return &Vector{
		typ:   typ,
		class: FLAT,
		nsp:   &nulls.Nulls{},
	}
}

func NewConstNull(typ types.Type, length int) *Vector {
	vec := &Vector{
		typ:    typ,
		class:  CONSTANT,
		nsp:    &nulls.Nulls{},
		length: length,
	}
	nulls.Add(vec.nsp, 0)
	return vec
}

func NewConstFixed[T types.FixedSizeT](typ types.Type, val T, length int, m *mpool.MPool) (*Vector, error) {
	vec := &Vector{
		typ:   typ,
		class: CONSTANT,
		nsp:   &nulls.Nulls{},
	}
	if err := AppendFixed(vec, val, false, m); err != nil {
		return nil, err
	}
	vec.length = length
	return vec, nil
}

func NewConstBytes(typ types.Type, val []byte, length int, m *mpool.MPool) (*Vector, error) {
	vec := &Vector{
		typ:   typ,
		class: CONSTANT,
		nsp:   &nulls.Nulls{},
	}
	if err := AppendBytes(vec, val, false, m); err != nil {
		return nil, err
	}
	vec.length = length
	return vec, nil
}

func (v *Vector) Length() int {
	return v.length
}

func (v *Vector) SetLength(n int) {
	v.length = n
}

func (v *Vector) Capacity() int {
	return v.capacity
}

func (v *Vector) GetType() *types.Type {
	return &v.typ
}

func (v *Vector) SetType(typ types.Type) {
	v.typ = typ
}

func (v *Vector) GetNulls() *nulls.Nulls {
	return v.nsp
}

func (v *Vector) SetNulls(nsp *nulls.Nulls) {
	v.nsp = nsp
}

func (v *Vector) GetArea() []byte {
	return v.area
}

func (v *Vector) IsConst() bool {
	return v.class == CONSTANT
}

// IsConstNull reports a scalar NULL.
func (v *Vector) IsConstNull() bool {
	return v.IsConst() && nulls.Contains(v.nsp, 0)
}

// IsNull reports whether the given row is NULL.
func (v *Vector) IsNull(row uint64) bool {
	if v.IsConst() {
		row = 0
	}
	return nulls.Contains(v.nsp, row)
}

// Size is an approximation of the memory held by the vector.
func (v *Vector) Size() int {
	return len(v.data) + len(v.area)
}

// MustFixedCol reinterprets the data as a slice of T.  The slice length
// is the stored element count: 1 for constants, Length otherwise.
func MustFixedCol[T types.FixedSizeT](v *Vector) []T {
	n := v.length
	if v.IsConst() {
		n = 1
	}
	if len(v.data) == 0 {
		return nil
	}
	return types.DecodeSlice[T](v.data)[:n]
}

// GetFixedAt reads one element, constant aware.
func GetFixedAt[T types.FixedSizeT](v *Vector, idx int) T {
	if v.IsConst() {
		idx = 0
	}
	return types.DecodeSlice[T](v.data)[idx]
}

// GetBytesAt reads one varlen element, constant aware.
func (v *Vector) GetBytesAt(idx int) []byte {
	if v.IsConst() {
		idx = 0
	}
	va := types.DecodeSlice[types.Varlena](v.data)[idx]
	return va.GetByteSlice(v.area)
}

func (v *Vector) GetStringAt(idx int) string {
	return string(v.GetBytesAt(idx))
}

// UnsafeGetRawData returns the raw element bytes.  The slice covers
// one element for constants, Length elements otherwise.
func (v *Vector) UnsafeGetRawData() []byte {
	length := 1
	if !v.IsConst() {
		length = v.length
	}
	if len(v.data) == 0 {
		return nil
	}
	return v.data[:length*v.typ.TypeSize()]
}

// GetPtrAt returns the address of element idx for hashing.
func GetPtrAt(v *Vector, idx int64) unsafe.Pointer {
	if v.IsConst() {
		idx = 0
	}
	return unsafe.Pointer(&v.data[idx*int64(v.typ.TypeSize())])
}

func (v *Vector) Free(m *mpool.MPool) {
	m.Free(v.data)
	m.Free(v.area)
	v.data = nil
	v.area = nil
	v.nsp = &nulls.Nulls{}
	v.length = 0
	v.capacity = 0
}

// extend makes room for n more elements.
func (v *Vector) extend(n int, m *mpool.MPool) error {
	sz := v.typ.TypeSize()
	need := (v.length + n) * sz
	if need > cap(v.data) {
		data, err := m.Grow(v.data, need)
		if err != nil {
			return err
		}
		v.data = data[:need]
	} else {
		v.data = v.data[:need]
	}
	v.capacity = cap(v.data) / sz
	return nil
}

func AppendFixed[T types.FixedSizeT](v *Vector, val T, isNull bool, m *mpool.MPool) error {
	if m == nil {
		return moerr.NewInternalErrorNoCtx("vector append does not have a mpool")
	}
	if err := v.extend(1, m); err != nil {
		return err
	}
	row := v.length
	v.length++
	col := types.DecodeSlice[T](v.data)
	if isNull {
		var zero T
		col[row] = zero
		nulls.Add(v.nsp, uint64(row))
	} else {
		col[row] = val
	}
	return nil
}

func AppendFixedList[T types.FixedSizeT](v *Vector, vals []T, isNulls []bool, m *mpool.MPool) error {
	for i, val := range vals {
		isNull := len(isNulls) > i && isNulls[i]
		if err := AppendFixed(v, val, isNull, m); err != nil {
			return err
		}
	}
	return nil
}

func AppendBytes(v *Vector, val []byte, isNull bool, m *mpool.MPool) error {
	if m == nil {
		return moerr.NewInternalErrorNoCtx("vector append does not have a mpool")
	}
	if err := v.extend(1, m); err != nil {
		return err
	}
	row := v.length
	v.length++
	col := types.DecodeSlice[types.Varlena](v.data)
	if isNull {
		col[row] = types.Varlena{}
		nulls.Add(v.nsp, uint64(row))
		return nil
	}
	va, area, err := types.BuildVarlena(val, v.area, m)
	if err != nil {
		return err
	}
	v.area = area
	col[row] = va
	return nil
}

func AppendBytesList(v *Vector, vals [][]byte, isNulls []bool, m *mpool.MPool) error {
	for i, val := range vals {
		isNull := len(isNulls) > i && isNulls[i]
		if err := AppendBytes(v, val, isNull, m); err != nil {
			return err
		}
	}
	return nil
}

func AppendStringList(v *Vector, vals []string, isNulls []bool, m *mpool.MPool) error {
	for i, val := range vals {
		isNull := len(isNulls) > i && isNulls[i]
		if err := AppendBytes(v, []byte(val), isNull, m); err != nil {
			return err
		}
	}
	return nil
}

// UnionNull appends one NULL row.
func UnionNull(v *Vector, m *mpool.MPool) error {
	if v.typ.IsVarlen() {
		return AppendBytes(v, nil, true, m)
	}
	if err := v.extend(1, m); err != nil {
		return err
	}
	row := v.length
	v.length++
	sz := v.typ.TypeSize()
	clearRange(v.data, row*sz, (row+1)*sz)
	nulls.Add(v.nsp, uint64(row))
	return nil
}

func clearRange(data []byte, from, to int) {
	for i := from; i < to; i++ {
		data[i] = 0
	}
}

// UnionOne appends row sel of w.
func (v *Vector) UnionOne(w *Vector, sel int64, m *mpool.MPool) error {
	if w.IsNull(uint64(sel)) {
		return UnionNull(v, m)
	}
	if v.typ.IsVarlen() {
		return AppendBytes(v, w.GetBytesAt(int(sel)), false, m)
	}
	if err := v.extend(1, m); err != nil {
		return err
	}
	row := v.length
	v.length++
	sz := v.typ.TypeSize()
	if w.IsConst() {
		sel = 0
	}
	copy(v.data[row*sz:(row+1)*sz], w.data[int(sel)*sz:(int(sel)+1)*sz])
	return nil
}

// UnionBatch appends the rows of w in [offset, offset+cnt) whose flag
// is nonzero.  A nil flags appends the whole window.
func (v *Vector) UnionBatch(w *Vector, offset int64, cnt int, flags []uint8, m *mpool.MPool) error {
	for i := 0; i < cnt; i++ {
		if flags != nil && flags[i] == 0 {
			continue
		}
		if err := v.UnionOne(w, offset+int64(i), m); err != nil {
			return err
		}
	}
	return nil
}

// PopBack drops the last cnt rows.
func (v *Vector) PopBack(cnt int) {
	if cnt > v.length {
		cnt = v.length
	}
	newLen := v.length - cnt
	for row := newLen; row < v.length; row++ {
		nulls.Del(v.nsp, uint64(row))
	}
	v.length = newLen
	if !v.IsConst() && len(v.data) > 0 {
		v.data = v.data[:newLen*v.typ.TypeSize()]
	}
}

// Shuffle permutes the vector rows to the order named by sels.
func (v *Vector) Shuffle(sels []int64, m *mpool.MPool) error {
	if v.IsConst() {
		return moerr.NewInternalErrorNoCtx("shuffle of const vector")
	}
	sz := v.typ.TypeSize()
	data, err := m.Alloc(len(sels) * sz)
	if err != nil {
		return err
	}
	for i, sel := range sels {
		copy(data[i*sz:(i+1)*sz], v.data[int(sel)*sz:(int(sel)+1)*sz])
	}
	m.Free(v.data)
	v.data = data
	v.length = len(sels)
	v.capacity = cap(v.data) / sz
	v.nsp = nulls.Filter(v.nsp, sels)
	return nil
}

// Dup makes a deep copy.
func (v *Vector) Dup(m *mpool.MPool) (*Vector, error) {
	w := NewVec(v.typ)
	w.class = v.class
	w.length = v.length
	w.nsp = v.nsp.Clone()
	if len(v.data) > 0 {
		data, err := m.Alloc(len(v.data))
		if err != nil {
			return nil, err
		}
		copy(data, v.data)
		w.data = data
		w.capacity = cap(data) / v.typ.TypeSize()
	}
	if len(v.area) > 0 {
		area, err := m.Alloc(len(v.area))
		if err != nil {
			w.Free(m)
			return nil, err
		}
		copy(area, v.area)
		w.area = area
	}
	return w, nil
}

// CloneWithType is a shallow view of v under another type tag.  The
// storage is shared: the view must not be freed or written through.
func CloneWithType(v *Vector, typ types.Type) *Vector {
	w := *v
	w.typ = typ
	return &w
}

// Flatten materializes a constant vector into a flat one.  Flat input
// is returned unchanged; a new vector is returned otherwise.
func Flatten(v *Vector, m *mpool.MPool) (*Vector, error) {
	if !v.IsConst() {
		return v, nil
	}
	w := NewVec(v.typ)
	if v.IsConstNull() {
		for i := 0; i < v.length; i++ {
			if err := UnionNull(w, m); err != nil {
				w.Free(m)
				return nil, err
			}
		}
		return w, nil
	}
	for i := 0; i < v.length; i++ {
		if err := w.UnionOne(v, 0, m); err != nil {
			w.Free(m)
			return nil, err
		}
	}
	return w, nil
}

func (v *Vector) String() string {
	var buf bytes.Buffer
	buf.WriteString(v.typ.String())
	buf.WriteString("[")
	for i := 0; i < v.length && i < 16; i++ {
		if i > 0 {
			buf.WriteString(" ")
		}
		if v.IsNull(uint64(i)) {
			buf.WriteString("null")
			continue
		}
		switch v.typ.Oid {
		case types.T_char, types.T_varchar, types.T_blob:
			buf.WriteString(v.GetStringAt(i))
		case types.T_int64:
			buf.WriteString(fmt.Sprintf("%d", GetFixedAt[int64](v, i)))
		default:
			buf.WriteString("?")
		}
	}
	buf.WriteString("]")
	return buf.String()
}
