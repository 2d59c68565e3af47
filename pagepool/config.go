package pagepool

import s "github.com/bnclabs/gosettings"
import "github.com/cloudfoundry/gosigar"

// Defaultpagesize used when no pagesize is configured.
const Defaultpagesize = int64(4096)

// Fallbackcapacity used as default "capacity" when free memory cannot be
// learnt from OS.
const Fallbackcapacity = int64(1024 * 1024 * 1024)

// Maxpagesize upper limit for a page, slot indices within a page are
// book-kept as 32-bit integers and large pages defeat the purpose of a
// slab.
const Maxpagesize = int64(1024 * 1024)

// Defaultsettings for pagepool.
//
// "pagesize" (int64, default: 4096)
//		Size of a single page, must be a power of 2. Pages are always
//		aligned to their size.
//
// "capacity" (int64, default: <free RAM>)
//		Maximum bytes the pool is allowed to map from OS, including
//		cached pages. Acquiring beyond this limit fails with
//		ErrorOutofMemory.
//
// "cachepages" (int64, default: 64)
//		Number of released pages kept mapped for reuse, instead of
//		giving them back to OS.
func Defaultsettings() s.Settings {
	_, _, free := getsysmem()
	if free == 0 { // sigar not supported on this platform.
		free = uint64(Fallbackcapacity)
	}
	return s.Settings{
		"pagesize":   Defaultpagesize,
		"capacity":   int64(free),
		"cachepages": int64(64),
	}
}

func getsysmem() (total, used, free uint64) {
	mem := sigar.Mem{}
	mem.Get()
	return mem.Total, mem.ActualUsed, mem.ActualFree
}
