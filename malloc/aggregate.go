package malloc

import "fmt"
import "unsafe"
import "sync/atomic"

import "github.com/bnclabs/pagealloc/api"

// Aggregate multiplexes a Slab per size-class behind a single
// allocate/deallocate interface. Requests larger than the largest
// size-class bypass slabs and are served as multi-page regions by
// page supplier. Aggregate owns no pages itself and holds no lock,
// implements api.Mallocer.
type Aggregate struct {
	// 64-bit aligned stats
	n_largeallocs int64
	n_largefrees  int64
	largebytes    int64 // live bytes requested through regions

	tag      Tag
	slabs    []*Slab // one per size-class, in increasing size
	table    api.Sizeclasser
	supplier api.Pagesupplier
}

// NewAggregate create slabs for every class in `table`, all of them
// fed by `supplier`.
func NewAggregate(
	tag Tag, table api.Sizeclasser, supplier api.Pagesupplier) *Aggregate {

	agg := &Aggregate{
		tag:      tag,
		slabs:    make([]*Slab, table.Numclasses()),
		table:    table,
		supplier: supplier,
	}
	for i := range agg.slabs {
		agg.slabs[i] = NewSlab(table.Classtosize(i), supplier)
	}
	infof("aggregate %v: %v size-classes upto %v bytes",
		tag, len(agg.slabs), table.Largest())
	return agg
}

// Tag return the tag this aggregate serves.
func (agg *Aggregate) Tag() Tag {
	return agg.tag
}

// Sizetoclass return the index of size-class serving `size` bytes.
// Returns Numclasses() for sizes served as regions.
func (agg *Aggregate) Sizetoclass(size int64) int {
	return agg.table.Sizetoclass(alignup(size, Alignment))
}

// Numclasses return the number of size-classes.
func (agg *Aggregate) Numclasses() int {
	return len(agg.slabs)
}

// Largest return the largest size served by slabs.
func (agg *Aggregate) Largest() int64 {
	return agg.table.Largest()
}

// Slab return the slab for size-class `index`.
func (agg *Aggregate) Slab(index int) *Slab {
	return agg.slabs[index]
}

// Allocate `size` bytes of zeroed memory.
func (agg *Aggregate) Allocate(size int64) unsafe.Pointer {
	if size < 0 {
		panicerr("invalid allocation size %v", size)
	}
	if alignup(size, Alignment) <= agg.table.Largest() {
		return agg.slabs[agg.Sizetoclass(size)].Allocate()
	}

	ptr, err := agg.supplier.Acquireregion(size)
	if err != nil {
		fatal(fmt.Errorf("%w: region %v: %w", ErrorOutofMemory, size, err))
	}
	atomic.AddInt64(&agg.n_largeallocs, 1)
	atomic.AddInt64(&agg.largebytes, size)
	verbosef("aggregate %v: region %x of %v bytes", agg.tag, ptr, size)
	return ptr
}

// Deallocate memory obtained from Allocate, `size` must be the same
// as the one used for Allocate.
func (agg *Aggregate) Deallocate(ptr unsafe.Pointer, size int64) {
	if alignup(size, Alignment) <= agg.table.Largest() {
		agg.slabs[agg.Sizetoclass(size)].Deallocate(ptr)
		return
	}
	agg.supplier.Releaseregion(ptr, size)
	atomic.AddInt64(&agg.n_largefrees, 1)
	atomic.AddInt64(&agg.largebytes, -size)
}

// Npages return total pages held by all slabs of this aggregate.
func (agg *Aggregate) Npages() (npages int64) {
	for _, slab := range agg.slabs {
		npages += slab.Npages()
	}
	return npages
}

// Destroy all slabs, refer to Slab.Destroy().
func (agg *Aggregate) Destroy() {
	for _, slab := range agg.slabs {
		slab.Destroy()
	}
	if n := atomic.LoadInt64(&agg.largebytes); n > 0 {
		panicerr("destroy aggregate %v: %v bytes in regions", agg.tag, n)
	}
}

//---- api.Mallocer{} interface.

// Slabs implement api.Mallocer{} interface.
func (agg *Aggregate) Slabs() []int64 {
	sizes := make([]int64, 0, len(agg.slabs))
	for _, slab := range agg.slabs {
		sizes = append(sizes, slab.slotsize)
	}
	return sizes
}

// Alloc implement api.Mallocer{} interface.
func (agg *Aggregate) Alloc(n int64) unsafe.Pointer {
	return agg.Allocate(n)
}

// Free implement api.Mallocer{} interface.
func (agg *Aggregate) Free(ptr unsafe.Pointer, n int64) {
	agg.Deallocate(ptr, n)
}

// Info implement api.Mallocer{} interface. Capacity is memory held
// from page supplier, heap is the part of it usable as slots, alloc is
// the part handed out to application and overhead is page headers,
// page tail that cannot fit a slot and book-keeping structures.
func (agg *Aggregate) Info() (capacity, heap, alloc, overhead int64) {
	overhead = int64(unsafe.Sizeof(*agg))
	for _, slab := range agg.slabs {
		slab.mu.Lock()
		npages, nlive := slab.npages, slab.nlive
		slab.mu.Unlock()

		useful := npages * slab.nslots * slab.stride
		capacity += npages * slab.pagesize
		heap += useful
		alloc += nlive * slab.stride
		overhead += (npages * slab.pagesize) - useful
		overhead += int64(unsafe.Sizeof(*slab))
	}
	largebytes := atomic.LoadInt64(&agg.largebytes)
	capacity, heap = capacity+largebytes, heap+largebytes
	alloc += largebytes
	return
}

// Utilization implement api.Mallocer{} interface. Return slot sizes
// holding at least one page and their utilization in percentage.
func (agg *Aggregate) Utilization() ([]int, []float64) {
	ss, zs := make([]int, 0), make([]float64, 0)
	for _, slab := range agg.slabs {
		slab.mu.Lock()
		npages, nlive := slab.npages, slab.nlive
		slab.mu.Unlock()

		if npages > 0 {
			ss = append(ss, int(slab.slotsize))
			zs = append(zs, float64(nlive)/float64(npages*slab.nslots)*100)
		}
	}
	return ss, zs
}

// Stats return aggregate statistics, per size-class stats are keyed
// as "slab.<slotsize>" for classes holding pages.
func (agg *Aggregate) Stats() map[string]interface{} {
	capacity, heap, alloc, overhead := agg.Info()
	stats := map[string]interface{}{
		"tag":           agg.tag.String(),
		"capacity":      capacity,
		"heap":          heap,
		"alloc":         alloc,
		"overhead":      overhead,
		"npages":        agg.Npages(),
		"n_largeallocs": atomic.LoadInt64(&agg.n_largeallocs),
		"n_largefrees":  atomic.LoadInt64(&agg.n_largefrees),
		"largebytes":    atomic.LoadInt64(&agg.largebytes),
	}
	for _, slab := range agg.slabs {
		if slabstats := slab.Stats(); slabstats["npages"].(int64) > 0 {
			stats[fmt.Sprintf("slab.%v", slab.slotsize)] = slabstats
		}
	}
	return stats
}
