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

package inset

import (
	"github.com/alont/ClickHouse/pkg/common/hashmap"
	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
	"github.com/alont/ClickHouse/pkg/logutil"
)

// SetHeader fixes the key arity, the key and element types and the
// storage variant.  It must be called exactly once, before any insert.
func (s *Set) SetHeader(typs []types.Type) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setHeaderLocked(typs)
}

func (s *Set) setHeaderLocked(typs []types.Type) error {
	if s.keyTypes != nil {
		return moerr.NewInternalErrorNoCtx("Set.SetHeader called twice")
	}

	keyTypes := make([]types.Type, len(typs))
	for i, typ := range typs {
		// dictionary columns take part by their value type
		typ = typ.RecursiveRemoveLowCardinality()
		if !s.opts.TransformNullIn {
			typ = typ.RemoveNullable()
		}
		keyTypes[i] = typ
	}

	s.keyTypes = keyTypes
	s.elemTypes = append([]types.Type(nil), keyTypes...)
	s.kind, s.keyWidths = chooseVariant(keyTypes, s.opts.TransformNullIn)

	switch s.kind {
	case variantEmpty:
	case variantFixed8:
		s.hmap = hashmap.NewFixed8Map(s.opts.TransformNullIn)
	case variantInt64:
		s.hmap = hashmap.NewIntHashMap(s.opts.TransformNullIn)
	default:
		s.hmap = hashmap.NewStrMap(s.opts.TransformNullIn)
	}

	if s.opts.RetainElements && s.kind != variantEmpty {
		s.retain = true
		s.retained = make([]*vector.Vector, len(keyTypes))
		for i, typ := range s.elemTypes {
			s.retained[i] = vector.NewVec(typ)
		}
	}
	return nil
}

// chooseVariant picks the physical layout from the key signature.  The
// choice is a pure function of the element types, so re-building the
// same set always lands on the same variant.
func chooseVariant(keyTypes []types.Type, transformNullIn bool) (variantKind, []int32) {
	if len(keyTypes) == 0 {
		return variantEmpty, nil
	}

	widths := make([]int32, len(keyTypes))
	allFixed := true
	total := int32(0)
	for i, typ := range keyTypes {
		w := int32(typ.Oid.TypeLen())
		if w < 0 {
			allFixed = false
		} else {
			if transformNullIn && typ.IsNullable() {
				// one byte of null flag joins the key
				w++
			}
			widths[i] = w
			total += w
		}
	}

	switch {
	case allFixed && len(keyTypes) == 1 && widths[0] == 1:
		return variantFixed8, widths
	case allFixed && total <= 8:
		return variantInt64, widths
	case !allFixed && len(keyTypes) == 1:
		return variantString, widths
	case allFixed && total <= 32:
		return variantPacked, widths
	default:
		return variantSerialized, widths
	}
}

// InsertBlock feeds one block of key columns into the set.  It reports
// false when a size limit stopped the build under OverflowBreak.
func (s *Set) InsertBlock(vecs []*vector.Vector) (bool, error) {
	return s.InsertFromColumns(vecs)
}

// InsertFromColumns is InsertBlock for callers that already unpacked
// the block.  SetHeader must have run.
func (s *Set) InsertFromColumns(vecs []*vector.Vector) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.keyTypes == nil {
		return false, moerr.NewInternalErrorNoCtx("Set.SetHeader must be called before Set.InsertFromColumns")
	}
	if len(vecs) != len(s.keyTypes) {
		return false, moerr.NewColumnCountMismatchNoCtx(len(vecs), len(s.keyTypes))
	}
	if s.kind == variantEmpty {
		return true, nil
	}

	rows := vecs[0].Length()
	if rows == 0 {
		return s.checkLimitsLocked()
	}

	// materialize constant columns before hashing
	keyCols := make([]*vector.Vector, len(vecs))
	var scratch []*vector.Vector
	defer func() {
		for _, vec := range scratch {
			vec.Free(s.mp)
		}
	}()
	for i, vec := range vecs {
		col, err := vector.Flatten(vec, s.mp)
		if err != nil {
			return false, err
		}
		if col != vec {
			scratch = append(scratch, col)
		}
		if !col.GetType().Eq(s.elemTypes[i]) && col.GetType().Oid == s.elemTypes[i].Oid {
			// key encoding follows the element type, wrappers included
			col = vector.CloneWithType(col, s.elemTypes[i])
		}
		keyCols[i] = col
	}

	// rows with a NULL component are not insertable unless NULL
	// transforms into a key value
	var zValues []int64
	if !s.opts.TransformNullIn {
		zValues = extractNullMask(keyCols, rows)
	}

	var insertedFilter []uint8
	if s.retain {
		insertedFilter = make([]uint8, rows)
	}

	itr := s.hmap.NewIterator()
	seen := s.hmap.GroupCount()
	for start := 0; start < rows; start += hashmap.UnitLimit {
		n := rows - start
		if n > hashmap.UnitLimit {
			n = hashmap.UnitLimit
		}
		var zWindow []int64
		if zValues != nil {
			zWindow = zValues[start : start+n]
		}
		vs, err := itr.Insert(start, n, keyCols, zWindow)
		if err != nil {
			return false, err
		}
		if insertedFilter != nil {
			for i, v := range vs {
				if v > seen {
					seen = v
					insertedFilter[start+i] = 1
				}
			}
		}
	}

	if s.retain {
		for i, col := range keyCols {
			if err := s.retained[i].UnionBatch(col, 0, rows, insertedFilter, s.mp); err != nil {
				return false, err
			}
		}
		if s.opts.MaxRetainedElements != 0 && s.hmap.GroupCount() > s.opts.MaxRetainedElements {
			logutil.Infof("IN-set outgrew %d retained elements, dropping the element store",
				s.opts.MaxRetainedElements)
			s.dropRetainedLocked()
		}
	}

	return s.checkLimitsLocked()
}

func (s *Set) dropRetainedLocked() {
	for _, vec := range s.retained {
		vec.Free(s.mp)
	}
	s.retained = nil
	s.retain = false
}

func (s *Set) checkLimitsLocked() (bool, error) {
	rows, bytes := s.rowCountLocked(), s.byteCountLocked()
	if s.opts.Limits.check(rows, bytes) {
		return true, nil
	}
	if s.opts.Limits.Mode == OverflowBreak {
		return false, nil
	}
	return false, moerr.NewSetSizeLimitExceededNoCtx(rows, bytes)
}

// extractNullMask builds the combined insertability mask: 0 when any
// key component of the row is NULL.  A nil return means no row is
// masked.
func extractNullMask(vecs []*vector.Vector, rows int) []int64 {
	var zValues []int64
	for _, vec := range vecs {
		nsp := vec.GetNulls()
		if !nulls.Any(nsp) {
			continue
		}
		if zValues == nil {
			zValues = make([]int64, rows)
			for i := range zValues {
				zValues[i] = 1
			}
		}
		if vec.IsConst() {
			// scalar null, every row is masked
			for i := range zValues {
				zValues[i] = 0
			}
			continue
		}
		for _, row := range nsp.ToArray() {
			if row < uint64(rows) {
				zValues[row] = 0
			}
		}
	}
	return zValues
}

// MarkBuilt flips the set into its queryable state.  The flip is one
// way.
func (s *Set) MarkBuilt() {
	s.built.Store(true)
}

func (s *Set) IsBuilt() bool {
	return s.built.Load()
}

func (s *Set) Empty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hmap == nil || s.hmap.GroupCount() == 0
}

func (s *Set) RowCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rowCountLocked()
}

func (s *Set) rowCountLocked() uint64 {
	if s.hmap == nil {
		return 0
	}
	return s.hmap.GroupCount()
}

func (s *Set) ByteCount() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byteCountLocked()
}

func (s *Set) byteCountLocked() uint64 {
	if s.hmap == nil {
		return 0
	}
	return uint64(s.hmap.Size())
}

// ElementTypes returns the storage types of the retained tuples.
func (s *Set) ElementTypes() []types.Type {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]types.Type(nil), s.elemTypes...)
}

// RetainedColumns hands the distinct tuple store off to an ordered set
// index.  Nil when retention is off or was dropped.
func (s *Set) RetainedColumns() []*vector.Vector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.retained
}

func typesEqualModuloWrappers(a, b types.Type) bool {
	a = a.RemoveNullable().RecursiveRemoveLowCardinality()
	b = b.RemoveNullable().RecursiveRemoveLowCardinality()
	if a.Oid != b.Oid {
		return false
	}
	if a.Oid == types.T_datetime || a.Oid == types.T_timestamp {
		return a.Scale == b.Scale
	}
	return true
}

// AreTypesEqual compares a key type against the set's, ignoring
// nullable and low cardinality wrappers.  Out of range indexes answer
// false: the caller may hold a set built from different columns.
func (s *Set) AreTypesEqual(idx int, typ types.Type) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx >= len(s.keyTypes) {
		return false
	}
	return typesEqualModuloWrappers(s.keyTypes[idx], typ)
}

// CheckTypesEqual is AreTypesEqual surfacing a TypeMismatch error.
func (s *Set) CheckTypesEqual(idx int, typ types.Type) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx >= len(s.keyTypes) {
		return moerr.NewTypeMismatchNoCtx(idx, typ.String(), "missing")
	}
	if !typesEqualModuloWrappers(s.keyTypes[idx], typ) {
		return moerr.NewTypeMismatchNoCtx(idx, typ.String(), s.keyTypes[idx].String())
	}
	return nil
}
