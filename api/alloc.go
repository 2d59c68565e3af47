package api

import "unsafe"

// Mallocer interface for custom memory management.
type Mallocer interface {
	// Slabs allocatable slab of sizes, sorted in increasing order.
	Slabs() (sizes []int64)

	// Alloc allocate a zeroed chunk of `n` bytes. Allocated memory is
	// always 64-bit aligned.
	Alloc(n int64) unsafe.Pointer

	// Free chunk back to mallocer. `n` must be the same size that was
	// passed to Alloc, chunks carry no size information.
	Free(ptr unsafe.Pointer, n int64)

	// Info of memory accounting for this mallocer.
	Info() (capacity, heap, alloc, overhead int64)

	// Utilization map of slab-size and its utilization
	Utilization() ([]int, []float64)
}
