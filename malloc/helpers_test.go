package malloc

import "sync"
import "testing"
import "unsafe"
import "sync/atomic"

import s "github.com/bnclabs/gosettings"
import "github.com/bnclabs/pagealloc/pagepool"
import "github.com/stretchr/testify/require"

// recsupplier records calls into a real pagepool.
type recsupplier struct {
	pool *pagepool.Pool

	acquired int64
	released int64
	regions  int64
	fail     int64 // when set Acquirepage and Acquireregion fail

	mu        sync.Mutex
	onrelease func(ptr unsafe.Pointer)
}

func newrecsupplier(t testing.TB, pagesize int64) *recsupplier {
	setts := pagepool.Defaultsettings()
	setts["pagesize"] = pagesize
	setts["capacity"] = int64(1024 * 1024 * 1024)
	setts["cachepages"] = int64(0)
	supplier := &recsupplier{pool: pagepool.New(setts)}
	t.Cleanup(supplier.pool.Release)
	return supplier
}

func (sup *recsupplier) Pagesize() int64 {
	return sup.pool.Pagesize()
}

func (sup *recsupplier) Acquirepage() (unsafe.Pointer, error) {
	if atomic.LoadInt64(&sup.fail) > 0 {
		return nil, pagepool.ErrorOutofMemory
	}
	atomic.AddInt64(&sup.acquired, 1)
	return sup.pool.Acquirepage()
}

func (sup *recsupplier) Releasepage(ptr unsafe.Pointer) {
	sup.mu.Lock()
	onrelease := sup.onrelease
	sup.mu.Unlock()
	if onrelease != nil {
		onrelease(ptr)
	}
	atomic.AddInt64(&sup.released, 1)
	sup.pool.Releasepage(ptr)
}

func (sup *recsupplier) Acquireregion(size int64) (unsafe.Pointer, error) {
	if atomic.LoadInt64(&sup.fail) > 0 {
		return nil, pagepool.ErrorOutofMemory
	}
	atomic.AddInt64(&sup.regions, 1)
	return sup.pool.Acquireregion(size)
}

func (sup *recsupplier) Releaseregion(ptr unsafe.Pointer, size int64) {
	atomic.AddInt64(&sup.regions, -1)
	sup.pool.Releaseregion(ptr, size)
}

func (sup *recsupplier) setonrelease(fn func(ptr unsafe.Pointer)) {
	sup.mu.Lock()
	sup.onrelease = fn
	sup.mu.Unlock()
}

func (sup *recsupplier) counts() (acquired, released int64) {
	return atomic.LoadInt64(&sup.acquired), atomic.LoadInt64(&sup.released)
}

func testsettings(minsize, maxsize int64) s.Settings {
	setts := Defaultsettings()
	setts["minsize"], setts["maxsize"] = minsize, maxsize
	return setts
}

// checkinvariants walk the nonfull list of slab and verify that every
// listed page has free slots, links are consistent, and that pages
// left out of the list are exactly the full ones.
func checkinvariants(t testing.TB, slab *Slab) {
	t.Helper()

	slab.mu.Lock()
	defer slab.mu.Unlock()

	seen := map[uintptr]bool{}
	listed, used := int64(0), int64(0)
	prev := uintptr(0)
	for pg := slab.nonfull; pg != nil; pg = pageat(pg.next) {
		require.False(t, seen[pg.base()], "page %x listed twice", pg.base())
		seen[pg.base()] = true
		require.Equal(t, prev, pg.prev, "broken prev link at %x", pg.base())
		require.True(t, pg.free > 0, "full page %x in nonfull list", pg.base())
		require.True(t, pg.free < pg.total, "idle page %x not released", pg.base())
		require.Equal(t, int32(slab.nslots), pg.total)
		require.Equal(t, int64(0), int64(pg.base())&(slab.pagesize-1))

		nfree := int32(0)
		for idx := pg.head; idx != nilslot; idx = *pg.link(idx) {
			require.True(t, idx >= 0 && idx < pg.total, "bad slot index %v", idx)
			nfree++
			require.True(t, nfree <= pg.free, "free list longer than free count")
		}
		require.Equal(t, pg.free, nfree)

		listed++
		used += int64(pg.total - pg.free)
		prev = pg.base()
	}
	full := slab.npages - listed
	require.True(t, full >= 0, "more pages listed than held")
	require.Equal(t, slab.nlive, used+full*slab.nslots)
}
