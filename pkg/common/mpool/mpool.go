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

package mpool

import (
	"sync/atomic"
	"unsafe"

	"github.com/alont/ClickHouse/pkg/common/moerr"
)

const (
	// Each allocation is prefixed with a header recording the usable
	// size, so Free can settle the accounting from the slice alone.
	kMemHdrSz = 24

	// GB, kilo, etc.
	KB = 1024
	MB = 1024 * KB
	GB = 1024 * MB

	// NoLimit, the default cap of a pool.
	NoLimit int64 = 0
)

type memHdr struct {
	poolId       int64
	allocSz      int64
	fixedPoolIdx int8
	guard        [7]uint8
}

func (pHdr *memHdr) SetGuard() {
	for i := range pHdr.guard {
		pHdr.guard[i] = 0xDE
	}
}

func (pHdr *memHdr) CheckGuard() bool {
	for i := range pHdr.guard {
		if pHdr.guard[i] != 0xDE {
			return false
		}
	}
	return true
}

// MPoolStats tracks the allocation traffic of one pool.  All counters
// are atomics; the pool itself holds no lock.
type MPoolStats struct {
	NumAlloc      atomic.Int64 // number of allocations
	NumFree       atomic.Int64 // number of frees
	NumAllocBytes atomic.Int64 // bytes allocated over time
	NumFreeBytes  atomic.Int64 // bytes freed over time
	NumCurrBytes  atomic.Int64 // current liveness
	HighWaterMark atomic.Int64 // high water mark
}

func (s *MPoolStats) RecordAlloc(sz int64) int64 {
	s.NumAlloc.Add(1)
	s.NumAllocBytes.Add(sz)
	curr := s.NumCurrBytes.Add(sz)
	for hwm := s.HighWaterMark.Load(); curr > hwm; hwm = s.HighWaterMark.Load() {
		if s.HighWaterMark.CompareAndSwap(hwm, curr) {
			break
		}
	}
	return curr
}

func (s *MPoolStats) RecordFree(sz int64) int64 {
	s.NumFree.Add(1)
	s.NumFreeBytes.Add(sz)
	return s.NumCurrBytes.Add(-sz)
}

var nextPoolId atomic.Int64

// MPool is a memory pool with accounting and an optional cap.  It is
// not an arena -- individual allocations go through the Go allocator --
// but every byte handed out is attributed to the pool so leaks and
// runaway operators show up in the stats.
type MPool struct {
	id    int64
	tag   string
	cap   int64
	stats MPoolStats
}

func NewMPool(tag string, cap int64) (*MPool, error) {
	mp := &MPool{
		id:  nextPoolId.Add(1),
		tag: tag,
		cap: cap,
	}
	return mp, nil
}

// MustNew creates a pool without a cap and panics on failure.
func MustNew(tag string) *MPool {
	mp, err := NewMPool(tag, NoLimit)
	if err != nil {
		panic(err)
	}
	return mp
}

// MustNewZero is the usual pool for tests.
func MustNewZero() *MPool {
	return MustNew("zero_mpool")
}

func (mp *MPool) Tag() string {
	return mp.tag
}

func (mp *MPool) Cap() int64 {
	if mp.cap == NoLimit {
		return PoolMaxCap
	}
	return mp.cap
}

const PoolMaxCap = 1 << 48

func (mp *MPool) Stats() *MPoolStats {
	return &mp.stats
}

// CurrNB returns the current number of live bytes.
func (mp *MPool) CurrNB() int64 {
	return mp.stats.NumCurrBytes.Load()
}

func (mp *MPool) Alloc(sz int) ([]byte, error) {
	if sz < 0 {
		return nil, moerr.NewInternalErrorNoCtx("mpool alloc size %d", sz)
	}
	if sz == 0 {
		return nil, nil
	}
	if mp.cap != NoLimit && mp.stats.NumCurrBytes.Load()+int64(sz) > mp.cap {
		return nil, moerr.NewOOMNoCtx()
	}

	buf := make([]byte, sz+kMemHdrSz)
	hdr := (*memHdr)(unsafe.Pointer(&buf[0]))
	hdr.poolId = mp.id
	hdr.allocSz = int64(sz)
	hdr.fixedPoolIdx = -1
	hdr.SetGuard()
	mp.stats.RecordAlloc(int64(sz))
	return buf[kMemHdrSz : kMemHdrSz+sz : kMemHdrSz+sz], nil
}

func (mp *MPool) Free(bs []byte) {
	if bs == nil || cap(bs) == 0 {
		return
	}
	bs = bs[:1]
	hdr := (*memHdr)(unsafe.Pointer(uintptr(unsafe.Pointer(&bs[0])) - kMemHdrSz))
	if !hdr.CheckGuard() {
		panic(moerr.NewInternalErrorNoCtx("mpool free of corrupted header"))
	}
	if hdr.allocSz == -1 {
		// double free
		panic(moerr.NewInternalErrorNoCtx("mpool double free"))
	}
	mp.stats.RecordFree(hdr.allocSz)
	hdr.allocSz = -1
}

// Grow reallocates old to at least sz bytes, copying the content.  Old
// is freed.  Grow of a nil slice is an Alloc.
func (mp *MPool) Grow(old []byte, sz int) ([]byte, error) {
	if sz < len(old) {
		return nil, moerr.NewInternalErrorNoCtx("mpool grow actually shrinks, %d, %d", len(old), sz)
	}
	if sz <= cap(old) {
		return old[:sz], nil
	}
	newCap := calcCap(sz)
	buf, err := mp.Alloc(newCap)
	if err != nil {
		return nil, err
	}
	buf = buf[:sz]
	copy(buf, old)
	mp.Free(old)
	return buf, nil
}

// calcCap rounds up to a power of two below 1MB and to 1MB multiples
// above, the same growth curve the runtime uses for append.
func calcCap(sz int) int {
	if sz < 8 {
		return 8
	}
	if sz >= MB {
		return (sz/MB + 1) * MB
	}
	c := 8
	for c < sz {
		c <<= 1
	}
	return c
}
