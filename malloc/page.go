package malloc

import "unsafe"

// page header, lives at the start of every page handed out by the
// page supplier and is followed by `total` slots of `stride` bytes.
// The header holds no go pointers, memory is not scanned by GC.
//
// Free slots are chained by index: the first 4 bytes of a free slot
// hold the index of the next free slot, -1 terminates the chain.
type page struct {
	prev   uintptr // previous page in owner's nonfull list
	next   uintptr // next page in owner's nonfull list
	head   int32   // first free slot, -1 if none
	total  int32
	free   int32
	stride int32
	offset int32 // header size, rounded up to Alignment
	_      int32
}

const nilslot = int32(-1)

var pageheadersize = alignup(int64(unsafe.Sizeof(page{})), Alignment)

// slotsperpage number of slots of `stride` bytes a page can hold.
func slotsperpage(pagesize, stride int64) int64 {
	return (pagesize - pageheadersize) / stride
}

// initpage construct page header on a raw block of pagesize bytes and
// chain all its slots, in ascending address order, into free list.
func initpage(base unsafe.Pointer, pagesize, stride int64) *page {
	total := slotsperpage(pagesize, stride)
	if total < 1 {
		panicerr("%w: slot size %v leaves no slot in page of %v",
			ErrorMisconfigured, stride, pagesize)
	}

	pg := (*page)(base)
	pg.prev, pg.next = 0, 0
	pg.total, pg.free = int32(total), int32(total)
	pg.stride, pg.offset = int32(stride), int32(pageheadersize)
	pg.head = 0
	for i := int32(0); i < pg.total-1; i++ {
		*pg.link(i) = i + 1
	}
	*pg.link(pg.total - 1) = nilslot
	return pg
}

// takeslot pop a slot from free list, return nil if page is full.
func (pg *page) takeslot() unsafe.Pointer {
	if pg.head == nilslot {
		return nil
	}
	idx := pg.head
	pg.head = *pg.link(idx)
	pg.free--
	return pg.slotptr(idx)
}

// returnslot push slot to free list. Slot must have been taken from
// this page and not already returned, no double-free detection.
func (pg *page) returnslot(ptr unsafe.Pointer) {
	idx := pg.slotindex(ptr)
	*pg.link(idx) = pg.head
	pg.head = idx
	pg.free++
}

func (pg *page) hascapacity() bool {
	return pg.free != 0
}

func (pg *page) isidle() bool {
	return pg.free == pg.total
}

func (pg *page) base() uintptr {
	return uintptr(unsafe.Pointer(pg))
}

func (pg *page) slotptr(idx int32) unsafe.Pointer {
	off := uintptr(pg.offset) + uintptr(idx)*uintptr(pg.stride)
	return unsafe.Add(unsafe.Pointer(pg), off)
}

func (pg *page) slotindex(ptr unsafe.Pointer) int32 {
	off := uintptr(ptr) - pg.base() - uintptr(pg.offset)
	return int32(off / uintptr(pg.stride))
}

func (pg *page) link(idx int32) *int32 {
	return (*int32)(pg.slotptr(idx))
}

// pageat convert an address held in prev/next back to its page.
func pageat(addr uintptr) *page {
	if addr == 0 {
		return nil
	}
	return (*page)(unsafe.Pointer(addr))
}
