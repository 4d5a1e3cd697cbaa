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

package typecast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alont/ClickHouse/pkg/common/moerr"
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/nulls"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

func fixedVec[T types.FixedSizeT](typ types.Type, vals []T, isNulls []bool, m *mpool.MPool) *vector.Vector {
	vec := vector.NewVec(typ)
	if err := vector.AppendFixedList(vec, vals, isNulls, m); err != nil {
		panic(err)
	}
	return vec
}

func TestCastIdentity(t *testing.T) {
	m := mpool.MustNewZero()
	vec := fixedVec(types.T_int64.ToType(), []int64{1, 2}, nil, m)
	res, err := Cast(vec, types.T_int64.ToType(), m)
	require.NoError(t, err)
	require.Same(t, vec, res)

	// the nullable wrapper does not change the representation
	res, err = Cast(vec, types.T_int64.ToType().Nullable(), m)
	require.NoError(t, err)
	require.Same(t, vec, res)

	vec.Free(m)
}

func TestCastWiden(t *testing.T) {
	m := mpool.MustNewZero()
	vec := fixedVec(types.T_int32.ToType(), []int32{-5, 0, 7}, nil, m)
	res, err := Cast(vec, types.T_int64.ToType(), m)
	require.NoError(t, err)
	require.Equal(t, []int64{-5, 0, 7}, vector.MustFixedCol[int64](res))
	res.Free(m)
	vec.Free(m)
}

func TestCastNarrowOverflow(t *testing.T) {
	m := mpool.MustNewZero()
	vec := fixedVec(types.T_int64.ToType(), []int64{1, 1 << 40}, nil, m)

	_, err := Cast(vec, types.T_int32.ToType(), m)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrOutOfRange))

	res, err := CastOrNull(vec, types.T_int32.ToType(), m)
	require.NoError(t, err)
	require.False(t, res.IsNull(0))
	require.True(t, res.IsNull(1))
	require.Equal(t, int32(1), vector.GetFixedAt[int32](res, 0))
	res.Free(m)

	vec.Free(m)
}

func TestCastSignMismatch(t *testing.T) {
	m := mpool.MustNewZero()
	vec := fixedVec(types.T_int64.ToType(), []int64{-1}, nil, m)
	res, err := CastOrNull(vec, types.T_uint64.ToType(), m)
	require.NoError(t, err)
	require.True(t, res.IsNull(0))
	res.Free(m)
	vec.Free(m)
}

func TestCastFloatFraction(t *testing.T) {
	m := mpool.MustNewZero()
	vec := fixedVec(types.T_float64.ToType(), []float64{2.0, 2.5}, nil, m)
	res, err := CastOrNull(vec, types.T_int64.ToType(), m)
	require.NoError(t, err)
	require.Equal(t, int64(2), vector.GetFixedAt[int64](res, 0))
	require.True(t, res.IsNull(1))
	res.Free(m)
	vec.Free(m)
}

func TestCastStringNumeric(t *testing.T) {
	m := mpool.MustNewZero()
	vec := vector.NewVec(types.T_varchar.ToType())
	require.NoError(t, vector.AppendStringList(vec, []string{"42", "x"}, nil, m))

	res, err := CastOrNull(vec, types.T_int64.ToType(), m)
	require.NoError(t, err)
	require.Equal(t, int64(42), vector.GetFixedAt[int64](res, 0))
	require.True(t, res.IsNull(1))
	res.Free(m)

	_, err = Cast(vec, types.T_int64.ToType(), m)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrInvalidInput))

	vec.Free(m)
}

func TestCastNullsCarryOver(t *testing.T) {
	m := mpool.MustNewZero()
	vec := fixedVec(types.T_int32.ToType().Nullable(), []int32{1, 0}, []bool{false, true}, m)
	res, err := Cast(vec, types.T_int64.ToType(), m)
	require.NoError(t, err)
	require.False(t, res.IsNull(0))
	require.True(t, res.IsNull(1))
	res.Free(m)
	vec.Free(m)
}

func TestCastDatetimeScale(t *testing.T) {
	m := mpool.MustNewZero()
	base := types.DatetimeFromTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	milli := types.New(types.T_datetime, 0, 3)
	sec := types.New(types.T_datetime, 0, 0)

	vec := fixedVec(milli, []types.Datetime{base, base + 500_000}, nil, m)
	res, err := Cast(vec, sec, m)
	require.NoError(t, err)
	// narrowing truncates toward the containing second
	require.Equal(t, base, vector.GetFixedAt[types.Datetime](res, 0))
	require.Equal(t, base, vector.GetFixedAt[types.Datetime](res, 1))
	require.False(t, nulls.Any(res.GetNulls()))
	res.Free(m)
	vec.Free(m)
}

func TestCastDateDatetime(t *testing.T) {
	m := mpool.MustNewZero()
	day := types.DateFromTime(time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	vec := fixedVec(types.T_date.ToType(), []types.Date{day}, nil, m)

	res, err := Cast(vec, types.New(types.T_datetime, 0, 0), m)
	require.NoError(t, err)
	require.Equal(t, day.ToDatetime(), vector.GetFixedAt[types.Datetime](res, 0))

	back, err := Cast(res, types.T_date.ToType(), m)
	require.NoError(t, err)
	require.Equal(t, day, vector.GetFixedAt[types.Date](back, 0))

	back.Free(m)
	res.Free(m)
	vec.Free(m)
}

func TestCastUnsupported(t *testing.T) {
	m := mpool.MustNewZero()
	vec := fixedVec(types.T_int64.ToType(), []int64{1}, nil, m)
	_, err := Cast(vec, types.New(types.T_datetime, 0, 0), m)
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrUnsupportedDataType))
	vec.Free(m)
}

func TestCacheReuse(t *testing.T) {
	m := mpool.MustNewZero()
	cache := NewCache()
	vec := fixedVec(types.T_int32.ToType(), []int32{3}, nil, m)

	res, err := cache.Cast(vec, types.T_int64.ToType(), m)
	require.NoError(t, err)
	require.Equal(t, int64(3), vector.GetFixedAt[int64](res, 0))
	res.Free(m)

	res, err = cache.Cast(vec, types.T_int64.ToType(), m)
	require.NoError(t, err)
	res.Free(m)
	require.Len(t, cache.fns, 1)

	vec.Free(m)
}
