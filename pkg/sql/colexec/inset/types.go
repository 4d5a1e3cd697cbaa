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

// Package inset implements the build and probe sides of the IN
// expression: an append-only hash set over tuples of column values,
// filled from blocks and probed in bulk.
package inset

import (
	"sync"
	"sync/atomic"

	"github.com/alont/ClickHouse/pkg/common/hashmap"
	"github.com/alont/ClickHouse/pkg/common/mpool"
	"github.com/alont/ClickHouse/pkg/config"
	"github.com/alont/ClickHouse/pkg/container/types"
	"github.com/alont/ClickHouse/pkg/container/vector"
)

type OverflowMode int

const (
	// OverflowThrow fails the build when a limit is crossed.
	OverflowThrow OverflowMode = iota
	// OverflowBreak stops the build instead: InsertFromColumns
	// returns false and the caller stops feeding.
	OverflowBreak
)

// Limits bound the build phase.  Zero means unlimited.  The check runs
// at block boundaries, so one block may transiently overshoot.
type Limits struct {
	MaxRows  uint64
	MaxBytes uint64
	Mode     OverflowMode
}

func (l Limits) check(rows, bytes uint64) bool {
	if l.MaxRows != 0 && rows > l.MaxRows {
		return false
	}
	if l.MaxBytes != 0 && bytes > l.MaxBytes {
		return false
	}
	return true
}

type variantKind int

const (
	// variantEmpty answers every probe with the negate constant.
	variantEmpty variantKind = iota
	// variantFixed8: one key of one byte, direct addressed.
	variantFixed8
	// variantInt64: fixed width keys packed into a uint64.
	variantInt64
	// variantString: one variable length key.
	variantString
	// variantPacked: fixed width keys concatenated into a byte run.
	variantPacked
	// variantSerialized: everything else, keys serialized with length
	// prefixes.
	variantSerialized
)

func (k variantKind) String() string {
	switch k {
	case variantEmpty:
		return "empty"
	case variantFixed8:
		return "fixed8"
	case variantInt64:
		return "int64"
	case variantString:
		return "string"
	case variantPacked:
		return "packed"
	case variantSerialized:
		return "serialized"
	}
	return "unknown"
}

// Options fix the behavior of one Set for its lifetime.
type Options struct {
	// TransformNullIn lets NULL take part in membership: NULL matches
	// NULL.  When false, NULL on either side yields non-membership.
	TransformNullIn bool

	// RetainElements keeps the distinct inserted tuples as columns,
	// feeding the ordered set index.
	RetainElements bool

	// MaxRetainedElements drops the retained columns (and stops
	// retaining) once the set outgrows it.  Zero is unlimited.
	MaxRetainedElements uint64

	Limits Limits
}

// OptionsFromConfig maps the config file parameters onto Options.
func OptionsFromConfig(params *config.SetParameters) Options {
	mode := OverflowThrow
	if params.OverflowMode == config.OverflowModeBreak {
		mode = OverflowBreak
	}
	return Options{
		TransformNullIn:     params.TransformNullIn,
		MaxRetainedElements: params.MaxRetainedElements,
		Limits: Limits{
			MaxRows:  params.MaxRowsInSet,
			MaxBytes: params.MaxBytesInSet,
			Mode:     mode,
		},
	}
}

// Set is the IN-set.  One writer builds it block by block; once built,
// any number of readers probe it concurrently.  Readers never observe
// a partially inserted block.
type Set struct {
	mu   sync.RWMutex
	mp   *mpool.MPool
	opts Options

	built atomic.Bool

	kind      variantKind
	keyTypes  []types.Type
	elemTypes []types.Type
	keyWidths []int32

	hmap hashmap.HashMap

	retain   bool
	retained []*vector.Vector
}

func NewSet(mp *mpool.MPool, opts Options) *Set {
	return &Set{
		mp:   mp,
		opts: opts,
	}
}
