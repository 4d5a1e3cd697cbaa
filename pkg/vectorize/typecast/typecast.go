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

// Package typecast implements the accurate column casts used when the
// two sides of an IN expression disagree on types.  Cast is strict: a
// value outside the target's range, a fractional float cast to an
// integer type, or an unparsable string fails the cast.  Float targets
// accept rounding, and narrowing a temporal scale truncates without
// failing.  CastOrNull converts failures to NULL rows instead.
package typecast

import (
	"math"
	"strconv"

	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

// Cast converts v to the target type.  When the types already agree the
// input vector is returned unchanged; callers must not free the result
// in that case.
func Cast(v *vector.Vector, to types.Type, m *mpool.MPool) (*vector.Vector, error) {
	return castImpl(v, to, m, false)
}

// CastOrNull is Cast with per-row failures degraded to NULL.  The
// result carries the target type as given; failed rows are marked in
// its null map.
func CastOrNull(v *vector.Vector, to types.Type, m *mpool.MPool) (*vector.Vector, error) {
	return castImpl(v, to, m, true)
}

func sameRepresentation(from, to types.Type) bool {
	if from.Oid != to.Oid {
		return false
	}
	if from.Oid == types.T_datetime || from.Oid == types.T_timestamp {
		return from.Scale == to.Scale
	}
	return true
}

func castImpl(v *vector.Vector, to types.Type, m *mpool.MPool, orNull bool) (*vector.Vector, error) {
	from := *v.GetType()
	if sameRepresentation(from, to) {
		return v, nil
	}

	n := v.Length()
	res := vector.NewVec(to)
	nsp := v.GetNulls()
	for i := 0; i < n; i++ {
		row := i
		if v.IsConst() {
			row = 0
		}
		if nulls.Contains(nsp, uint64(row)) {
			if err := appendNull(res, m); err != nil {
				res.Free(m)
				return nil, err
			}
			continue
		}
		ok, err := castOne(v, row, res, to, m)
		if err != nil {
			res.Free(m)
			return nil, err
		}
		if !ok {
			if !orNull {
				res.Free(m)
				return nil, castError(v, row, from, to)
			}
			if err := appendNull(res, m); err != nil {
				res.Free(m)
				return nil, err
			}
		}
	}
	return res, nil
}

func appendNull(res *vector.Vector, m *mpool.MPool) error {
	return vector.UnionNull(res, m)
}

func castError(v *vector.Vector, row int, from, to types.Type) error {
	if from.IsVarlen() {
		return moerr.NewInvalidInputNoCtx("can not cast %q from %s to %s",
			v.GetStringAt(row), from.String(), to.String())
	}
	return moerr.NewOutOfRangeNoCtx(to.String(), "cast from %s", from.String())
}

type valueClass int

const (
	classNone valueClass = iota
	classSigned
	classUnsigned
	classFloat
	classBytes
	classTemporal
)

func classOf(t types.T) valueClass {
	switch t {
	case types.T_bool, types.T_uint8, types.T_uint16, types.T_uint32, types.T_uint64:
		return classUnsigned
	case types.T_int8, types.T_int16, types.T_int32, types.T_int64:
		return classSigned
	case types.T_float32, types.T_float64:
		return classFloat
	case types.T_char, types.T_varchar, types.T_blob:
		return classBytes
	case types.T_date, types.T_datetime, types.T_timestamp:
		return classTemporal
	}
	return classNone
}

// castOne converts one row, appending to res.  It returns false when
// the value does not fit the target exactly.
func castOne(v *vector.Vector, row int, res *vector.Vector, to types.Type, m *mpool.MPool) (bool, error) {
	from := *v.GetType()
	fc, tc := classOf(from.Oid), classOf(to.Oid)

	switch {
	case fc == classTemporal && tc == classTemporal:
		return castTemporal(v, row, res, from, to, m)
	case fc == classTemporal || tc == classTemporal:
		return false, moerr.NewUnsupportedDataTypeNoCtx(from.String(), to.String())
	case from.Oid == types.T_uuid || to.Oid == types.T_uuid:
		return false, moerr.NewUnsupportedDataTypeNoCtx(from.String(), to.String())
	}

	switch fc {
	case classSigned:
		return castFromSigned(getSigned(v, row), res, to, m)
	case classUnsigned:
		return castFromUnsigned(getUnsigned(v, row), res, to, m)
	case classFloat:
		return castFromFloat(getFloat(v, row), res, to, m)
	case classBytes:
		return castFromBytes(v.GetBytesAt(row), res, to, m)
	}
	return false, moerr.NewUnsupportedDataTypeNoCtx(from.String(), to.String())
}

func getSigned(v *vector.Vector, row int) int64 {
	switch v.GetType().Oid {
	case types.T_int8:
		return int64(vector.GetFixedAt[int8](v, row))
	case types.T_int16:
		return int64(vector.GetFixedAt[int16](v, row))
	case types.T_int32:
		return int64(vector.GetFixedAt[int32](v, row))
	default:
		return vector.GetFixedAt[int64](v, row)
	}
}

func getUnsigned(v *vector.Vector, row int) uint64 {
	switch v.GetType().Oid {
	case types.T_bool:
		if vector.GetFixedAt[bool](v, row) {
			return 1
		}
		return 0
	case types.T_uint8:
		return uint64(vector.GetFixedAt[uint8](v, row))
	case types.T_uint16:
		return uint64(vector.GetFixedAt[uint16](v, row))
	case types.T_uint32:
		return uint64(vector.GetFixedAt[uint32](v, row))
	default:
		return vector.GetFixedAt[uint64](v, row)
	}
}

func getFloat(v *vector.Vector, row int) float64 {
	if v.GetType().Oid == types.T_float32 {
		return float64(vector.GetFixedAt[float32](v, row))
	}
	return vector.GetFixedAt[float64](v, row)
}

func signedBounds(t types.T) (int64, int64) {
	switch t {
	case types.T_int8:
		return math.MinInt8, math.MaxInt8
	case types.T_int16:
		return math.MinInt16, math.MaxInt16
	case types.T_int32:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

func unsignedBound(t types.T) uint64 {
	switch t {
	case types.T_bool:
		return 1
	case types.T_uint8:
		return math.MaxUint8
	case types.T_uint16:
		return math.MaxUint16
	case types.T_uint32:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

func appendSigned(res *vector.Vector, x int64, to types.Type, m *mpool.MPool) (bool, error) {
	lo, hi := signedBounds(to.Oid)
	if x < lo || x > hi {
		return false, nil
	}
	switch to.Oid {
	case types.T_int8:
		return true, vector.AppendFixed(res, int8(x), false, m)
	case types.T_int16:
		return true, vector.AppendFixed(res, int16(x), false, m)
	case types.T_int32:
		return true, vector.AppendFixed(res, int32(x), false, m)
	default:
		return true, vector.AppendFixed(res, x, false, m)
	}
}

func appendUnsigned(res *vector.Vector, x uint64, to types.Type, m *mpool.MPool) (bool, error) {
	if x > unsignedBound(to.Oid) {
		return false, nil
	}
	switch to.Oid {
	case types.T_bool:
		return true, vector.AppendFixed(res, x != 0, false, m)
	case types.T_uint8:
		return true, vector.AppendFixed(res, uint8(x), false, m)
	case types.T_uint16:
		return true, vector.AppendFixed(res, uint16(x), false, m)
	case types.T_uint32:
		return true, vector.AppendFixed(res, uint32(x), false, m)
	default:
		return true, vector.AppendFixed(res, x, false, m)
	}
}

func appendFloat(res *vector.Vector, x float64, to types.Type, m *mpool.MPool) (bool, error) {
	if to.Oid == types.T_float32 {
		if !math.IsInf(x, 0) && (x > math.MaxFloat32 || x < -math.MaxFloat32) {
			return false, nil
		}
		return true, vector.AppendFixed(res, float32(x), false, m)
	}
	return true, vector.AppendFixed(res, x, false, m)
}

func castFromSigned(x int64, res *vector.Vector, to types.Type, m *mpool.MPool) (bool, error) {
	switch classOf(to.Oid) {
	case classSigned:
		return appendSigned(res, x, to, m)
	case classUnsigned:
		if x < 0 {
			return false, nil
		}
		return appendUnsigned(res, uint64(x), to, m)
	case classFloat:
		return appendFloat(res, float64(x), to, m)
	case classBytes:
		return true, vector.AppendBytes(res, strconv.AppendInt(nil, x, 10), false, m)
	}
	return false, moerr.NewUnsupportedDataTypeNoCtx("signed", to.String())
}

func castFromUnsigned(x uint64, res *vector.Vector, to types.Type, m *mpool.MPool) (bool, error) {
	switch classOf(to.Oid) {
	case classSigned:
		if x > math.MaxInt64 {
			return false, nil
		}
		return appendSigned(res, int64(x), to, m)
	case classUnsigned:
		return appendUnsigned(res, x, to, m)
	case classFloat:
		return appendFloat(res, float64(x), to, m)
	case classBytes:
		return true, vector.AppendBytes(res, strconv.AppendUint(nil, x, 10), false, m)
	}
	return false, moerr.NewUnsupportedDataTypeNoCtx("unsigned", to.String())
}

func castFromFloat(x float64, res *vector.Vector, to types.Type, m *mpool.MPool) (bool, error) {
	switch classOf(to.Oid) {
	case classSigned:
		if x != math.Trunc(x) || x < math.MinInt64 || x >= math.MaxInt64 {
			return false, nil
		}
		return appendSigned(res, int64(x), to, m)
	case classUnsigned:
		if x != math.Trunc(x) || x < 0 || x >= math.MaxUint64 {
			return false, nil
		}
		return appendUnsigned(res, uint64(x), to, m)
	case classFloat:
		return appendFloat(res, x, to, m)
	case classBytes:
		return true, vector.AppendBytes(res, strconv.AppendFloat(nil, x, 'g', -1, 64), false, m)
	}
	return false, moerr.NewUnsupportedDataTypeNoCtx("float", to.String())
}

func castFromBytes(bs []byte, res *vector.Vector, to types.Type, m *mpool.MPool) (bool, error) {
	switch classOf(to.Oid) {
	case classSigned:
		x, err := strconv.ParseInt(string(bs), 10, 64)
		if err != nil {
			return false, nil
		}
		return appendSigned(res, x, to, m)
	case classUnsigned:
		x, err := strconv.ParseUint(string(bs), 10, 64)
		if err != nil {
			return false, nil
		}
		return appendUnsigned(res, x, to, m)
	case classFloat:
		x, err := strconv.ParseFloat(string(bs), 64)
		if err != nil {
			return false, nil
		}
		return appendFloat(res, x, to, m)
	case classBytes:
		return true, vector.AppendBytes(res, bs, false, m)
	}
	return false, moerr.NewUnsupportedDataTypeNoCtx("bytes", to.String())
}

// castTemporal converts within the temporal family.  Scale narrowing
// truncates toward the containing tick; the caller is responsible for
// the precision-loss null mask when truncation must be surfaced.
func castTemporal(v *vector.Vector, row int, res *vector.Vector, from, to types.Type, m *mpool.MPool) (bool, error) {
	var micros int64
	switch from.Oid {
	case types.T_date:
		micros = int64(vector.GetFixedAt[types.Date](v, row)) * types.SecsPerDay * types.MicroSecsPerSec
	case types.T_datetime:
		micros = int64(vector.GetFixedAt[types.Datetime](v, row))
	case types.T_timestamp:
		micros = int64(vector.GetFixedAt[types.Timestamp](v, row))
	}

	switch to.Oid {
	case types.T_date:
		return true, vector.AppendFixed(res, types.Datetime(micros).ToDate(), false, m)
	case types.T_datetime:
		return true, vector.AppendFixed(res, types.Datetime(types.AlignToScale(micros, to.Scale)), false, m)
	case types.T_timestamp:
		return true, vector.AppendFixed(res, types.Timestamp(types.AlignToScale(micros, to.Scale)), false, m)
	}
	return false, moerr.NewUnsupportedDataTypeNoCtx(from.String(), to.String())
}
