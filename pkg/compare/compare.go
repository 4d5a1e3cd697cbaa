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

// Package compare implements typed row comparison between vectors.
package compare

import (
	"bytes"

	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

// At compares row vi of v with row wi of w.  The two vectors must have
// the same oid.  NULL compares larger than any value and equal to NULL,
// matching the ordering the ordered set index sorts with.
func At(v, w *vector.Vector, vi, wi int64) int {
	vNull := v.IsNull(uint64(vi))
	wNull := w.IsNull(uint64(wi))
	switch {
	case vNull && wNull:
		return 0
	case vNull:
		return 1
	case wNull:
		return -1
	}

	switch v.GetType().Oid {
	case types.T_bool:
		a, b := vector.GetFixedAt[bool](v, int(vi)), vector.GetFixedAt[bool](w, int(wi))
		return boolCompare(a, b)
	case types.T_int8:
		return ordered(vector.GetFixedAt[int8](v, int(vi)), vector.GetFixedAt[int8](w, int(wi)))
	case types.T_int16:
		return ordered(vector.GetFixedAt[int16](v, int(vi)), vector.GetFixedAt[int16](w, int(wi)))
	case types.T_int32:
		return ordered(vector.GetFixedAt[int32](v, int(vi)), vector.GetFixedAt[int32](w, int(wi)))
	case types.T_int64:
		return ordered(vector.GetFixedAt[int64](v, int(vi)), vector.GetFixedAt[int64](w, int(wi)))
	case types.T_uint8:
		return ordered(vector.GetFixedAt[uint8](v, int(vi)), vector.GetFixedAt[uint8](w, int(wi)))
	case types.T_uint16:
		return ordered(vector.GetFixedAt[uint16](v, int(vi)), vector.GetFixedAt[uint16](w, int(wi)))
	case types.T_uint32:
		return ordered(vector.GetFixedAt[uint32](v, int(vi)), vector.GetFixedAt[uint32](w, int(wi)))
	case types.T_uint64:
		return ordered(vector.GetFixedAt[uint64](v, int(vi)), vector.GetFixedAt[uint64](w, int(wi)))
	case types.T_float32:
		return ordered(vector.GetFixedAt[float32](v, int(vi)), vector.GetFixedAt[float32](w, int(wi)))
	case types.T_float64:
		return ordered(vector.GetFixedAt[float64](v, int(vi)), vector.GetFixedAt[float64](w, int(wi)))
	case types.T_date:
		return ordered(vector.GetFixedAt[types.Date](v, int(vi)), vector.GetFixedAt[types.Date](w, int(wi)))
	case types.T_datetime:
		return ordered(vector.GetFixedAt[types.Datetime](v, int(vi)), vector.GetFixedAt[types.Datetime](w, int(wi)))
	case types.T_timestamp:
		return ordered(vector.GetFixedAt[types.Timestamp](v, int(vi)), vector.GetFixedAt[types.Timestamp](w, int(wi)))
	case types.T_uuid:
		a, b := vector.GetFixedAt[types.Uuid](v, int(vi)), vector.GetFixedAt[types.Uuid](w, int(wi))
		return bytes.Compare(a[:], b[:])
	case types.T_char, types.T_varchar, types.T_blob:
		return bytes.Compare(v.GetBytesAt(int(vi)), w.GetBytesAt(int(wi)))
	}
	panic("compare on unexpected type " + v.GetType().String())
}

func ordered[T int8 | int16 | int32 | int64 | uint8 | uint16 | uint32 | uint64 |
	float32 | float64 | types.Date | types.Datetime | types.Timestamp](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func boolCompare(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
