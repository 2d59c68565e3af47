// Package pagepool supplies page aligned raw memory to slab allocators.
//
// Pages and regions are mapped from OS as anonymous private memory,
// outside the go-heap, hence never scanned nor moved by the garbage
// collector. A small cache of released pages is kept mapped to avoid
// an mmap/munmap pair for every page a slab creates and destroys.
package pagepool

import "fmt"
import "sync"
import "errors"
import "unsafe"
import "sync/atomic"

import s "github.com/bnclabs/gosettings"

// ErrorOutofMemory acquiring memory would exceed configured capacity,
// or OS refused to map more memory.
var ErrorOutofMemory = errors.New("pagepool.outofmemory")

// Pool of pages and regions, implements api.Pagesupplier.
type Pool struct {
	// 64-bit aligned stats
	n_mmaps     int64
	n_munmaps   int64
	n_cachehits int64
	n_acquires  int64
	n_releases  int64
	n_regions   int64
	regionbytes int64

	mu       sync.Mutex
	resident int64              // bytes mapped from OS, including cache
	npages   int64              // pages handed out and not yet released
	cache    []uintptr          // released pages kept mapped
	mappings map[uintptr][]byte // aligned base -> raw mapping

	// configuration
	pagesize   int64
	capacity   int64
	cachepages int64
}

// New create a pool of pages, parameters missing in `setts` are picked
// from Defaultsettings().
func New(setts s.Settings) *Pool {
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	pool := &Pool{mappings: make(map[uintptr][]byte)}
	pool.readsettings(setts)
	pool.cache = make([]uintptr, 0, pool.cachepages)
	infof("pagepool: pagesize:%v capacity:%v cachepages:%v",
		pool.pagesize, pool.capacity, pool.cachepages)
	return pool
}

func (pool *Pool) readsettings(setts s.Settings) *Pool {
	pool.pagesize = setts.Int64("pagesize")
	pool.capacity = setts.Int64("capacity")
	pool.cachepages = setts.Int64("cachepages")

	if ps := pool.pagesize; ps <= 0 || (ps&(ps-1)) != 0 {
		panicerr("pagesize %v is not a power of 2", ps)
	} else if ps > Maxpagesize {
		panicerr("pagesize %v exceeds %v", ps, Maxpagesize)
	} else if pool.capacity < ps {
		panicerr("capacity %v less than a page %v", pool.capacity, ps)
	} else if pool.cachepages < 0 {
		panicerr("cachepages %v is negative", pool.cachepages)
	}
	return pool
}

// Pagesize implement api.Pagesupplier{} interface.
func (pool *Pool) Pagesize() int64 {
	return pool.pagesize
}

// Acquirepage implement api.Pagesupplier{} interface.
func (pool *Pool) Acquirepage() (unsafe.Pointer, error) {
	atomic.AddInt64(&pool.n_acquires, 1)

	pool.mu.Lock()
	if n := len(pool.cache); n > 0 {
		base := pool.cache[n-1]
		pool.cache = pool.cache[:n-1]
		pool.npages++
		pool.mu.Unlock()

		atomic.AddInt64(&pool.n_cachehits, 1)
		ptr := unsafe.Pointer(base)
		clear(unsafe.Slice((*byte)(ptr), pool.pagesize))
		return ptr, nil
	}
	base, err := pool.mapblock(pool.pagesize)
	if err == nil {
		pool.npages++
	}
	pool.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return unsafe.Pointer(base), nil
}

// Releasepage implement api.Pagesupplier{} interface.
func (pool *Pool) Releasepage(ptr unsafe.Pointer) {
	base := uintptr(ptr)
	if (base & uintptr(pool.pagesize-1)) != 0 {
		panicerr("releasing unaligned page %x", base)
	}
	atomic.AddInt64(&pool.n_releases, 1)

	pool.mu.Lock()
	defer pool.mu.Unlock()

	if _, ok := pool.mappings[base]; !ok {
		panicerr("releasing unknown page %x", base)
	}
	pool.npages--
	if int64(len(pool.cache)) < pool.cachepages {
		pool.cache = append(pool.cache, base)
		return
	}
	pool.unmapblock(base)
}

// Acquireregion implement api.Pagesupplier{} interface.
func (pool *Pool) Acquireregion(size int64) (unsafe.Pointer, error) {
	if size <= 0 {
		panicerr("invalid region size %v", size)
	}
	size = pool.roundpages(size)

	pool.mu.Lock()
	base, err := pool.mapblock(size)
	pool.mu.Unlock()

	if err != nil {
		return nil, err
	}
	atomic.AddInt64(&pool.n_regions, 1)
	atomic.AddInt64(&pool.regionbytes, size)
	return unsafe.Pointer(base), nil
}

// Releaseregion implement api.Pagesupplier{} interface.
func (pool *Pool) Releaseregion(ptr unsafe.Pointer, size int64) {
	size = pool.roundpages(size)

	pool.mu.Lock()
	defer pool.mu.Unlock()

	base := uintptr(ptr)
	raw, ok := pool.mappings[base]
	if !ok {
		panicerr("releasing unknown region %x", base)
	} else if int64(len(raw)) < size {
		panicerr("region %x released with size %v > %v", base, size, len(raw))
	}
	pool.unmapblock(base)
	atomic.AddInt64(&pool.n_regions, -1)
	atomic.AddInt64(&pool.regionbytes, -size)
}

// Release all memory mapped by this pool, including pages and regions
// still held by callers. Pool shall not be used after Release.
func (pool *Pool) Release() {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	for base, raw := range pool.mappings {
		if err := osunmap(raw); err != nil {
			errorf("pagepool: munmap %x: %v", base, err)
		}
		atomic.AddInt64(&pool.n_munmaps, 1)
	}
	pool.mappings = make(map[uintptr][]byte)
	pool.cache = pool.cache[:0]
	pool.resident, pool.npages = 0, 0
	atomic.StoreInt64(&pool.n_regions, 0)
	atomic.StoreInt64(&pool.regionbytes, 0)
}

// Stats return pool statistics.
func (pool *Pool) Stats() map[string]interface{} {
	pool.mu.Lock()
	resident, npages, ncache := pool.resident, pool.npages, len(pool.cache)
	pool.mu.Unlock()

	stats := map[string]interface{}{
		"pagesize":    pool.pagesize,
		"capacity":    pool.capacity,
		"resident":    resident,
		"n_pages":     npages,
		"n_cached":    int64(ncache),
		"n_mmaps":     atomic.LoadInt64(&pool.n_mmaps),
		"n_munmaps":   atomic.LoadInt64(&pool.n_munmaps),
		"n_cachehits": atomic.LoadInt64(&pool.n_cachehits),
		"n_acquires":  atomic.LoadInt64(&pool.n_acquires),
		"n_releases":  atomic.LoadInt64(&pool.n_releases),
		"n_regions":   atomic.LoadInt64(&pool.n_regions),
		"regionbytes": atomic.LoadInt64(&pool.regionbytes),
	}
	return stats
}

//---- local functions

// mapblock shall be called with pool.mu held. Resident bytes account
// the whole mapping, including what is spent on alignment.
func (pool *Pool) mapblock(size int64) (uintptr, error) {
	mapsize := osmapsize(size, pool.pagesize)
	if pool.resident+mapsize > pool.capacity {
		fmsg := "pagepool: resident %v + %v exceeds capacity %v"
		warnf(fmsg, pool.resident, mapsize, pool.capacity)
		return 0, ErrorOutofMemory
	}
	raw, base, err := osmap(size, pool.pagesize)
	if err != nil {
		errorf("pagepool: mmap %v bytes: %v", size, err)
		return 0, fmt.Errorf("%w: %v", ErrorOutofMemory, err)
	}
	pool.mappings[base] = raw
	pool.resident += int64(len(raw))
	atomic.AddInt64(&pool.n_mmaps, 1)
	debugf("pagepool: mapped %x size:%v resident:%v", base, size, pool.resident)
	return base, nil
}

// unmapblock shall be called with pool.mu held.
func (pool *Pool) unmapblock(base uintptr) {
	raw := pool.mappings[base]
	delete(pool.mappings, base)
	if err := osunmap(raw); err != nil {
		errorf("pagepool: munmap %x: %v", base, err)
	}
	pool.resident -= int64(len(raw))
	atomic.AddInt64(&pool.n_munmaps, 1)
	debugf("pagepool: unmapped %x size:%v resident:%v", base, len(raw), pool.resident)
}

func (pool *Pool) roundpages(size int64) int64 {
	return int64(alignup(uintptr(size), pool.pagesize))
}
