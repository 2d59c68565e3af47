//go:build debug

package malloc

import "unsafe"

// poisonblock fill a freed slot with 0xff so that use-after-free shows
// up as garbage instead of stale data.
func poisonblock(ptr unsafe.Pointer, size int64) {
	block := unsafe.Slice((*byte)(ptr), size)
	for off := 0; off < len(block); off += len(poolblkinit) {
		copy(block[off:], poolblkinit)
	}
}

var poolblkinit = make([]byte, 1024)

func init() {
	for i := 0; i < len(poolblkinit); i++ {
		poolblkinit[i] = 0xff
	}
}
