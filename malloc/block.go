package malloc

import "unsafe"

// Raw address arithmetic is confined to this file. Pointers handled
// here always point into memory obtained from a page supplier, outside
// the go-heap.

func alignup(n, align int64) int64 {
	return (n + align - 1) &^ (align - 1)
}

func aligndown(addr uintptr, align int64) uintptr {
	return addr &^ uintptr(align-1)
}

func isaligned(ptr unsafe.Pointer, align int64) bool {
	return (uintptr(ptr) & uintptr(align-1)) == 0
}

// pageof return the page enclosing ptr, pages are aligned to pagesize
// by construction.
func pageof(ptr unsafe.Pointer, pagesize int64) *page {
	return (*page)(unsafe.Pointer(aligndown(uintptr(ptr), pagesize)))
}

func zeroblock(ptr unsafe.Pointer, size int64) {
	clear(unsafe.Slice((*byte)(ptr), size))
}
