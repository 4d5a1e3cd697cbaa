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

package typecast

import (
	"sync"

	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

type castKey struct {
	fromOid   types.T
	fromScale int32
	toOid     types.T
	toScale   int32
	orNull    bool
}

type castFunc func(v *vector.Vector, m *mpool.MPool) (*vector.Vector, error)

// Cache memoizes resolved casts per (from, to) pair.  It belongs to the
// query context, not to any one set: concurrent probes of different
// sets share it, so it carries its own lock.
type Cache struct {
	mu  sync.RWMutex
	fns map[castKey]castFunc
}

func NewCache() *Cache {
	return &Cache{fns: make(map[castKey]castFunc)}
}

func (c *Cache) get(from, to types.Type, orNull bool) castFunc {
	key := castKey{
		fromOid:   from.Oid,
		fromScale: from.Scale,
		toOid:     to.Oid,
		toScale:   to.Scale,
		orNull:    orNull,
	}

	c.mu.RLock()
	fn, ok := c.fns[key]
	c.mu.RUnlock()
	if ok {
		return fn
	}

	fn = func(v *vector.Vector, m *mpool.MPool) (*vector.Vector, error) {
		return castImpl(v, to, m, orNull)
	}

	c.mu.Lock()
	c.fns[key] = fn
	c.mu.Unlock()
	return fn
}

// Cast is the accurate cast resolved through the cache.  A nil cache
// falls through to the uncached path.
func (c *Cache) Cast(v *vector.Vector, to types.Type, m *mpool.MPool) (*vector.Vector, error) {
	if c == nil {
		return Cast(v, to, m)
	}
	return c.get(*v.GetType(), to, false)(v, m)
}

// CastOrNull resolves the or-null cast through the cache.
func (c *Cache) CastOrNull(v *vector.Vector, to types.Type, m *mpool.MPool) (*vector.Vector, error) {
	if c == nil {
		return CastOrNull(v, to, m)
	}
	return c.get(*v.GetType(), to, true)(v, m)
}
