// Package api define types and interfaces shared between the slab
// allocator and the page supplier feeding it.
package api

import "unsafe"

// Pagesupplier hands out fixed size, page aligned, raw memory pages and
// multi-page regions. Memory returned by a supplier is not scanned by
// the garbage collector, callers must not store Go pointers in it.
type Pagesupplier interface {
	// Pagesize return the size of a single page, always a power of 2.
	Pagesize() int64

	// Acquirepage return a zeroed block of Pagesize() bytes aligned
	// to Pagesize().
	Acquirepage() (unsafe.Pointer, error)

	// Releasepage give back a page obtained from Acquirepage.
	Releasepage(ptr unsafe.Pointer)

	// Acquireregion return a zeroed block of `size` bytes rounded up to
	// page granularity.
	Acquireregion(size int64) (unsafe.Pointer, error)

	// Releaseregion give back a region, `size` must be same as the
	// one passed to Acquireregion.
	Releaseregion(ptr unsafe.Pointer, size int64)
}

// Sizeclasser maps size-class index to its byte size and back. Both
// mappings are pure and inverses of each other at class boundaries.
type Sizeclasser interface {
	// Classtosize return the slot size for class `index`.
	Classtosize(index int) int64

	// Sizetoclass return the smallest class whose size is >= `size`.
	Sizetoclass(size int64) int

	// Numclasses return the number of configured classes.
	Numclasses() int

	// Largest return the size of the largest class.
	Largest() int64
}
