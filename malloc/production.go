//go:build !debug

package malloc

import "unsafe"

func poisonblock(ptr unsafe.Pointer, size int64) {}
