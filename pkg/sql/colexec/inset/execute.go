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
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
	"github.com/alont/ClickHouse/pkg/vectorize/typecast"
)

// Execute probes one block against the set.  The result is a uint8
// column of the block's length; row i holds negate XOR member(row i).
// A set that was never given a header answers negate for every row.
func (s *Set) Execute(vecs []*vector.Vector, negate bool, cache *typecast.Cache) (*vector.Vector, error) {
	if len(vecs) == 0 {
		return nil, moerr.NewInternalErrorNoCtx("no columns passed to Set.Execute")
	}
	rows := vecs[0].Length()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]uint8, rows)

	// the degenerate replies: never built, or built over zero keys
	if len(s.keyTypes) == 0 || s.kind == variantEmpty {
		if negate {
			for i := range out {
				out[i] = 1
			}
		}
		return makeResult(out, s.mp)
	}

	if len(vecs) != len(s.keyTypes) {
		return nil, moerr.NewColumnCountMismatchNoCtx(len(vecs), len(s.keyTypes))
	}

	keyCols := make([]*vector.Vector, len(vecs))
	var scratch []*vector.Vector
	defer func() {
		for _, vec := range scratch {
			vec.Free(s.mp)
		}
	}()

	// queryNullMap marks rows answered with negate without probing
	var queryNullMap []uint8

	for i, vec := range vecs {
		col, err := vector.Flatten(vec, s.mp)
		if err != nil {
			return nil, err
		}
		if col != vec {
			scratch = append(scratch, col)
		}

		origType := *col.GetType()
		var res *vector.Vector
		switch {
		case !s.opts.TransformNullIn && s.elemTypes[i].CanBeInsideNullable():
			// cast failures become NULLs and flow into the mask
			res, err = cache.CastOrNull(col, s.elemTypes[i], s.mp)
		case s.opts.TransformNullIn && origType.IsNullable() && !s.elemTypes[i].IsNullable():
			// the set holds no NULL for this key anyhow; keep the
			// input's null rows out of the probe
			res, err = cache.Cast(col, s.elemTypes[i], s.mp)
			if err == nil {
				queryNullMap = orNullsInto(queryNullMap, col.GetNulls(), rows)
			}
		default:
			res, err = cache.Cast(col, s.elemTypes[i], s.mp)
		}
		if err != nil {
			return nil, err
		}
		if res != col {
			scratch = append(scratch, res)
		}
		if !res.GetType().Eq(s.elemTypes[i]) && res.GetType().Oid == s.elemTypes[i].Oid {
			// key encoding follows the element type, wrappers included
			res = vector.CloneWithType(res, s.elemTypes[i])
		}

		// sub-second precision guard: values the second-resolution
		// element type cannot represent are no members
		if lossMaskNeeded(origType, s.elemTypes[i]) {
			if s.opts.TransformNullIn {
				queryNullMap = markPrecisionLoss(col, queryNullMap, rows)
			} else {
				markPrecisionLossAsNulls(col, res, rows)
			}
		}

		keyCols[i] = res
	}

	var zValues []int64
	if !s.opts.TransformNullIn {
		zValues = extractNullMask(keyCols, rows)
	} else if queryNullMap != nil {
		zValues = make([]int64, rows)
		for i := range zValues {
			if queryNullMap[i] == 0 {
				zValues[i] = 1
			}
		}
	}

	itr := s.hmap.NewIterator()
	for start := 0; start < rows; start += hashmap.UnitLimit {
		n := rows - start
		if n > hashmap.UnitLimit {
			n = hashmap.UnitLimit
		}
		var zWindow []int64
		if zValues != nil {
			zWindow = zValues[start : start+n]
		}
		vs := itr.Find(start, n, keyCols, zWindow)
		for i, v := range vs {
			// masked rows find nothing and answer negate
			if (v != 0) != negate {
				out[start+i] = 1
			}
		}
	}

	return makeResult(out, s.mp)
}

func makeResult(out []uint8, mp *mpool.MPool) (*vector.Vector, error) {
	res := vector.NewVec(types.T_uint8.ToType())
	if err := vector.AppendFixedList(res, out, nil, mp); err != nil {
		return nil, err
	}
	return res, nil
}

// lossMaskNeeded fires when a sub-second datetime probes a type that
// cannot hold fractions.
func lossMaskNeeded(orig, elem types.Type) bool {
	if orig.Oid != types.T_datetime || orig.Scale < 1 {
		return false
	}
	if (elem.Oid == types.T_datetime || elem.Oid == types.T_timestamp) && elem.Scale >= 1 {
		return false
	}
	return true
}

func markPrecisionLoss(col *vector.Vector, mask []uint8, rows int) []uint8 {
	if mask == nil {
		mask = make([]uint8, rows)
	}
	vals := vector.MustFixedCol[types.Datetime](col)
	for i := 0; i < rows; i++ {
		if col.IsNull(uint64(i)) {
			continue
		}
		if types.LosesPrecision(int64(vals[i]), 0) {
			mask[i] = 1
		}
	}
	return mask
}

func markPrecisionLossAsNulls(col, res *vector.Vector, rows int) {
	vals := vector.MustFixedCol[types.Datetime](col)
	for i := 0; i < rows; i++ {
		if col.IsNull(uint64(i)) {
			continue
		}
		if types.LosesPrecision(int64(vals[i]), 0) {
			nulls.Add(res.GetNulls(), uint64(i))
		}
	}
}

func orNullsInto(mask []uint8, nsp *nulls.Nulls, rows int) []uint8 {
	if !nulls.Any(nsp) {
		return mask
	}
	if mask == nil {
		mask = make([]uint8, rows)
	}
	for _, row := range nsp.ToArray() {
		if row < uint64(rows) {
			mask[row] = 1
		}
	}
	return mask
}

// HasNull reports whether NULL is a member of a single-key nullable
// set under TransformNullIn.
func (s *Set) HasNull() (bool, error) {
	if !s.IsBuilt() {
		return false, moerr.NewInternalErrorNoCtx("trying to use set before it has been built")
	}

	s.mu.RLock()
	if !s.opts.TransformNullIn || len(s.keyTypes) != 1 || !s.keyTypes[0].IsNullable() {
		s.mu.RUnlock()
		return false, nil
	}
	keyType := s.keyTypes[0]
	s.mu.RUnlock()

	probe := vector.NewVec(keyType)
	if err := vector.UnionNull(probe, s.mp); err != nil {
		return false, err
	}
	defer probe.Free(s.mp)

	res, err := s.Execute([]*vector.Vector{probe}, false, nil)
	if err != nil {
		return false, err
	}
	defer res.Free(s.mp)
	return vector.GetFixedAt[uint8](res, 0) != 0, nil
}
