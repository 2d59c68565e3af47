package malloc

import "fmt"

import s "github.com/bnclabs/gosettings"
import "github.com/bnclabs/pagealloc/pagepool"

// Alignment of every slot handed out by this package, slot sizes are
// rounded up to a multiple of Alignment.
const Alignment = int64(8)

// MEMUtilization is the expected ratio between memory requested by
// application and slot size it is served from, used to space out
// size-classes.
const MEMUtilization = float64(0.95)

// Minsize default smallest size-class.
const Minsize = Alignment

// Maxsize default largest size-class, requests above this size are
// served directly from page supplier as multi-page regions.
const Maxsize = int64(2048)

// Defaultsettings for malloc.
//
// "minsize" (int64, default: 8)
//		Smallest size-class, should be a multiple of Alignment.
//
// "maxsize" (int64, default: 2048)
//		Largest size-class, should be a multiple of Alignment and
//		leave room for at least one slot in a page.
//
// "pagepool.*"
//		Settings for the default page supplier, refer to
//		pagepool.Defaultsettings().
func Defaultsettings() s.Settings {
	setts := s.Settings{
		"minsize": Minsize,
		"maxsize": Maxsize,
	}
	for key, value := range pagepool.Defaultsettings() {
		setts["pagepool."+key] = value
	}
	return setts
}

func validatesettings(setts s.Settings) (minsize, maxsize int64) {
	minsize, maxsize = setts.Int64("minsize"), setts.Int64("maxsize")
	if minsize > maxsize {
		panic(fmt.Errorf("minsize(%v) > maxsize(%v)", minsize, maxsize))
	}
	return minsize, maxsize
}
