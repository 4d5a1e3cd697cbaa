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
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/alont/ClickHouse/pkg/container/vector"
	"github.com/alont/ClickHouse/pkg/vectorize/typecast"
)

// ParallelExecute probes many blocks concurrently over a goroutine
// pool.  Results are positionally aligned with blocks.  The set takes
// its read lock per probe, so a concurrent writer serializes against
// the pool's workers block by block.
func ParallelExecute(s *Set, blocks [][]*vector.Vector, negate bool, cache *typecast.Cache, parallelism int) ([]*vector.Vector, error) {
	if parallelism < 1 {
		parallelism = 1
	}
	pool, err := ants.NewPool(parallelism)
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	results := make([]*vector.Vector, len(blocks))

	for i := range blocks {
		i := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			res, err := s.Execute(blocks[i], negate, cache)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			results[i] = res
		}); err != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}
	wg.Wait()

	if firstErr != nil {
		for _, res := range results {
			if res != nil {
				res.Free(s.mp)
			}
		}
		return nil, firstErr
	}
	return results, nil
}
