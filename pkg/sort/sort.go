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

package sort

import (
	"sort"

	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/compare"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

// LexOrder returns the permutation that sorts the rows of vecs in
// ascending lexicographic order, NULL last.  The sort is stable.
func LexOrder(vecs []*vector.Vector) []int64 {
	n := 0
	if len(vecs) > 0 {
		n = vecs[0].Length()
	}
	os := make([]int64, n)
	for i := range os {
		os[i] = int64(i)
	}
	sort.SliceStable(os, func(i, j int) bool {
		a, b := os[i], os[j]
		for _, vec := range vecs {
			if r := compare.At(vec, vec, a, b); r != 0 {
				return r < 0
			}
		}
		return false
	})
	return os
}

// SortByOrder applies the permutation to every vector in place.
func SortByOrder(vecs []*vector.Vector, os []int64, m *mpool.MPool) error {
	for _, vec := range vecs {
		if err := vec.Shuffle(os, m); err != nil {
			return err
		}
	}
	return nil
}
