//go:build !unix

package pagepool

import "os"

func ospagesize() int64 {
	return int64(os.Getpagesize())
}

// osmap fall back to go-heap on platforms without anonymous mmap. The
// pool keeps `raw` referenced until osunmap, go-heap objects do not
// move so the aligned base stays valid till then.
func osmap(size, align int64) (raw []byte, base uintptr, err error) {
	raw = make([]byte, osmapsize(size, align))
	return raw, alignup(addrof(raw), align), nil
}

func osmapsize(size, align int64) int64 {
	return size + align
}

func osunmap(raw []byte) error {
	return nil
}
