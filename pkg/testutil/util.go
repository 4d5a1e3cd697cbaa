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

package testutil

import (
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

// NewFixedVector builds a flat vector from values.  Rows past the end
// of isNulls (all rows when it is nil) are not null.
func NewFixedVector[T types.FixedSizeT](typ types.Type, values []T, isNulls []bool, m *mpool.MPool) *vector.Vector {
	vec := vector.NewVec(typ)
	if err := vector.AppendFixedList(vec, values, isNulls, m); err != nil {
		panic(err)
	}
	return vec
}

// NewStringVector builds a flat varlen vector from values.
func NewStringVector(typ types.Type, values []string, isNulls []bool, m *mpool.MPool) *vector.Vector {
	vec := vector.NewVec(typ)
	if err := vector.AppendStringList(vec, values, isNulls, m); err != nil {
		panic(err)
	}
	return vec
}

// NewInt64Vector is the common shorthand of the tests.
func NewInt64Vector(values []int64, isNulls []bool, m *mpool.MPool) *vector.Vector {
	return NewFixedVector(types.T_int64.ToType(), values, isNulls, m)
}
