package malloc

import "fmt"
import "errors"

// ErrorOutofMemory page supplier could not supply a page or region.
// Allocation failures are not recoverable, this error is only ever
// seen as a panic value.
var ErrorOutofMemory = errors.New("malloc.outofmemory")

// ErrorMisconfigured slot size leaves no usable slot in a page.
var ErrorMisconfigured = errors.New("malloc.misconfigured")

// Sizeclasses generate slot sizes between minsize and maxsize, spaced
// such that a request falling in a class wastes on average no more
// than (1-MEMUtilization) of the slot.
func Sizeclasses(minsize, maxsize int64) []int64 {
	if maxsize < minsize { // validate and cure the input params
		panicerr("maxsize %v < minsize %v", maxsize, minsize)
	} else if minsize <= 0 || (minsize%Alignment) != 0 {
		fmsg := "minsize %v is not a positive multiple of %v"
		panicerr(fmsg, minsize, Alignment)
	} else if (maxsize % Alignment) != 0 {
		panicerr("maxsize %v is not multiple of %v", maxsize, Alignment)
	}

	nextsize := func(from int64) int64 {
		addby := int64(float64(from) * (1.0 - MEMUtilization))
		if addby <= Alignment {
			addby = Alignment
		} else if addby%Alignment != 0 {
			addby = (addby / Alignment) * Alignment
		}
		size := from + addby
		for (float64(from+size)/2.0)/float64(size) > MEMUtilization {
			size += addby
		}
		return size
	}

	sizes := make([]int64, 0, 64)
	for size := minsize; size < maxsize; {
		sizes = append(sizes, size)
		size = nextsize(size)
	}
	sizes = append(sizes, maxsize)
	return sizes
}

func panicerr(fmsg string, args ...interface{}) {
	panic(fmt.Errorf(fmsg, args...))
}

// fatal log and panic, allocation failures are not recoverable.
func fatal(err error) {
	fatalf("%v", err)
	panic(err)
}
