//go:build unix

package pagepool

import "golang.org/x/sys/unix"

func ospagesize() int64 {
	return int64(unix.Getpagesize())
}

// osmap map `size` bytes of anonymous memory aligned to `align`. When
// `align` is larger than OS page size the mapping is over-sized and the
// aligned start is picked from within, the full mapping is remembered
// for osunmap.
func osmap(size, align int64) (raw []byte, base uintptr, err error) {
	raw, err = unix.Mmap(
		-1, 0, int(osmapsize(size, align)),
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, 0, err
	}
	return raw, alignup(addrof(raw), align), nil
}

// osmapsize bytes osmap maps from OS for `size` bytes aligned to `align`.
func osmapsize(size, align int64) int64 {
	if align > ospagesize() {
		return size + align
	}
	return size
}

func osunmap(raw []byte) error {
	return unix.Munmap(raw)
}
