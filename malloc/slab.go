package malloc

import "fmt"
import "sync"
import "unsafe"

import "github.com/bnclabs/pagealloc/api"

// Slab manages pages of fixed sized slots. Pages with at least one free
// slot are linked into a nonfull list; a page is created lazily when
// the list is empty and given back to page supplier the moment all its
// slots are free. Slab is thread safe, all page bookkeeping happens
// under a mutex owned by the slab.
type Slab struct {
	mu       sync.Mutex
	nonfull  *page
	npages   int64 // pages held from supplier
	nlive    int64 // slots handed out and not yet freed
	supplier api.Pagesupplier

	// stats
	n_allocs   int64
	n_frees    int64
	n_created  int64
	n_released int64

	// configuration
	slotsize int64
	stride   int64
	pagesize int64
	nslots   int64 // slots per page
}

// NewSlab create a slab allocator for `slotsize` bytes, fed with pages
// from `supplier`. Panics if a page cannot hold at least one slot.
func NewSlab(slotsize int64, supplier api.Pagesupplier) *Slab {
	if slotsize <= 0 {
		panicerr("invalid slot size %v", slotsize)
	}
	slab := &Slab{
		supplier: supplier,
		slotsize: slotsize,
		stride:   alignup(slotsize, Alignment),
		pagesize: supplier.Pagesize(),
	}
	slab.nslots = slotsperpage(slab.pagesize, slab.stride)
	if slab.nslots < 1 {
		panicerr("%w: slot size %v leaves no slot in page of %v",
			ErrorMisconfigured, slotsize, slab.pagesize)
	}
	return slab
}

// Allocate a zeroed slot of Slotsize() bytes, aligned to Alignment.
func (slab *Slab) Allocate() unsafe.Pointer {
	slab.mu.Lock()
	if slab.nonfull == nil {
		pg, err := slab.newpage()
		if err != nil {
			slab.mu.Unlock()
			fatal(fmt.Errorf("%w: slab %v: %w", ErrorOutofMemory, slab.slotsize, err))
		}
		slab.pushpage(pg)
	}
	pg := slab.nonfull
	ptr := pg.takeslot()
	if !pg.hascapacity() {
		slab.unlink(pg)
	}
	slab.nlive++
	slab.n_allocs++
	slab.mu.Unlock()

	// slot is not reachable by anyone else, zero it outside the lock.
	zeroblock(ptr, slab.slotsize)
	return ptr
}

// Deallocate slot back to its page. Passing a pointer not allocated
// from this slab is undefined behaviour.
func (slab *Slab) Deallocate(ptr unsafe.Pointer) {
	pg := pageof(ptr, slab.pagesize)
	poisonblock(ptr, slab.slotsize)

	slab.mu.Lock()
	if !pg.hascapacity() { // about to have capacity
		slab.pushpage(pg)
	}
	pg.returnslot(ptr)
	slab.nlive--
	slab.n_frees++
	if pg.isidle() {
		slab.unlink(pg)
		slab.releasepage(pg)
	}
	slab.mu.Unlock()
}

// Slotsize return the size of slots managed by this slab.
func (slab *Slab) Slotsize() int64 {
	return slab.slotsize
}

// Stride return slot size rounded up to Alignment.
func (slab *Slab) Stride() int64 {
	return slab.stride
}

// Slotsperpage return the number of slots in a single page.
func (slab *Slab) Slotsperpage() int64 {
	return slab.nslots
}

// Npages return the number of pages currently held from supplier.
func (slab *Slab) Npages() int64 {
	slab.mu.Lock()
	defer slab.mu.Unlock()
	return slab.npages
}

// Nlive return the number of slots allocated and not yet freed.
func (slab *Slab) Nlive() int64 {
	slab.mu.Lock()
	defer slab.mu.Unlock()
	return slab.nlive
}

// Stats return slab statistics.
func (slab *Slab) Stats() map[string]interface{} {
	slab.mu.Lock()
	defer slab.mu.Unlock()
	return map[string]interface{}{
		"slotsize":   slab.slotsize,
		"stride":     slab.stride,
		"nslots":     slab.nslots,
		"npages":     slab.npages,
		"nlive":      slab.nlive,
		"n_allocs":   slab.n_allocs,
		"n_frees":    slab.n_frees,
		"n_created":  slab.n_created,
		"n_released": slab.n_released,
	}
}

// Destroy check that every slot is back with the slab, at which point
// no page is held from supplier. Panics otherwise.
func (slab *Slab) Destroy() {
	slab.mu.Lock()
	defer slab.mu.Unlock()
	if slab.nlive > 0 || slab.npages > 0 {
		panicerr("destroy slab %v in use: live:%v pages:%v",
			slab.slotsize, slab.nlive, slab.npages)
	}
}

//---- local functions

// newpage shall be called with slab.mu held.
func (slab *Slab) newpage() (*page, error) {
	base, err := slab.supplier.Acquirepage()
	if err != nil {
		return nil, err
	}
	pg := initpage(base, slab.pagesize, slab.stride)
	slab.npages++
	slab.n_created++
	fmsg := "slab: new page %x total pages:%v slot size:%v"
	debugf(fmsg, pg.base(), slab.npages, slab.slotsize)
	return pg, nil
}

// releasepage shall be called with slab.mu held.
func (slab *Slab) releasepage(pg *page) {
	if pg.free != pg.total {
		fmsg := "destroy page in use: total = %v, free = %v"
		panicerr(fmsg, pg.total, pg.free)
	}
	base := pg.base()
	slab.supplier.Releasepage(unsafe.Pointer(pg))
	slab.npages--
	slab.n_released++
	fmsg := "slab: released page %x total pages:%v slot size:%v"
	debugf(fmsg, base, slab.npages, slab.slotsize)
}

// pushpage insert page at the head of nonfull list.
func (slab *Slab) pushpage(pg *page) {
	pg.prev, pg.next = 0, 0
	if slab.nonfull != nil {
		slab.nonfull.prev = pg.base()
		pg.next = slab.nonfull.base()
	}
	slab.nonfull = pg
}

// unlink page from nonfull list.
func (slab *Slab) unlink(pg *page) {
	prev, next := pageat(pg.prev), pageat(pg.next)
	if pg == slab.nonfull {
		slab.nonfull = next
		if next != nil {
			next.prev = 0
		}
	} else {
		if prev != nil {
			prev.next = pg.next
		}
		if next != nil {
			next.prev = pg.prev
		}
	}
	pg.prev, pg.next = 0, 0
}
