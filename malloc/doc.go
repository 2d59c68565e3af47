// Package malloc supplies slab allocation for small, fixed size,
// high frequency requests made by runtime subsystems, with a limited
// scope:
//
//   - Memory is obtained from a page supplier in pages of fixed size,
//     aligned to their size. Each page belongs to exactly one Slab and
//     is sliced into equal sized slots.
//   - Slab tracks free slots with an index chained free list inside the
//     page and keeps pages with free slots in a doubly linked list.
//     Allocate and Deallocate are O(1).
//   - A page is created when no page has a free slot and given back to
//     the supplier the moment all its slots are free.
//   - Chunks carry no size information, callers must free with the same
//     size and tag they allocated with. Mismatches are not detected.
//   - Chunks are zeroed and always 64-bit aligned.
//   - Memory is not scanned by the garbage collector, do not store go
//     pointers in it.
//
// Aggregate routes a request to the Slab of the smallest size-class
// that fits, requests beyond the largest size-class are served by the
// page supplier as multi-page regions. Registry holds one Aggregate per
// Tag so that unrelated subsystems never contend on the same locks.
//
// Running out of memory and misconfiguration are fatal, the package
// panics with ErrorOutofMemory or ErrorMisconfigured.
package malloc
