package pagepool

import "fmt"
import "unsafe"

func alignup(n uintptr, align int64) uintptr {
	mask := uintptr(align - 1)
	return (n + mask) &^ mask
}

func addrof(raw []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(raw)))
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}
