package malloc

import "math"
import "reflect"
import "unsafe"

// Stdalloc allocates arrays of T for container types, backed by the
// aggregate of its tag. Stdalloc is stateless beyond its tag and
// registry, any two instances with the same tag and registry can free
// each other's memory.
//
// Memory is not scanned by the garbage collector, hence T must not
// contain go pointers; NewStdalloc panics otherwise.
type Stdalloc[T any] struct {
	tag Tag
	reg *Registry
}

// NewStdalloc create an allocator of T served by `reg` under `tag`.
func NewStdalloc[T any](reg *Registry, tag Tag) Stdalloc[T] {
	if tag >= Maxtags {
		panicerr("invalid allocation tag %v", tag)
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if haspointers(typ) {
		panicerr("%v holds go pointers, cannot live in slab memory", typ)
	}
	return Stdalloc[T]{tag: tag, reg: reg}
}

// Defaultstdalloc same as NewStdalloc with Defaultregistry().
func Defaultstdalloc[T any](tag Tag) Stdalloc[T] {
	return NewStdalloc[T](Defaultregistry(), tag)
}

// Tag return the tag this allocator serves.
func (a Stdalloc[T]) Tag() Tag {
	return a.tag
}

// Allocate zeroed memory for `count` elements of T.
func (a Stdalloc[T]) Allocate(count int) *T {
	return (*T)(a.reg.Instancefor(a.tag).Allocate(a.sizeof(count)))
}

// Deallocate memory obtained from Allocate, `count` must be the same.
func (a Stdalloc[T]) Deallocate(p *T, count int) {
	a.reg.Instancefor(a.tag).Deallocate(unsafe.Pointer(p), a.sizeof(count))
}

// Slice allocate `count` elements of T as a slice, len and cap are
// `count`.
func (a Stdalloc[T]) Slice(count int) []T {
	return unsafe.Slice(a.Allocate(count), count)
}

// Freeslice free a slice obtained from Slice, capacity of the slice
// shall not be altered.
func (a Stdalloc[T]) Freeslice(s []T) {
	a.Deallocate(unsafe.SliceData(s), cap(s))
}

// Equal is true for allocators sharing tag and registry.
func (a Stdalloc[T]) Equal(other Stdalloc[T]) bool {
	return a.tag == other.tag && a.reg == other.reg
}

// Maxsize return the largest count that can be passed to Allocate.
func (a Stdalloc[T]) Maxsize() int {
	var zero T
	if size := int(unsafe.Sizeof(zero)); size > 0 {
		return math.MaxInt / size
	}
	return math.MaxInt
}

func (a Stdalloc[T]) sizeof(count int) int64 {
	if count < 0 || count > a.Maxsize() {
		panicerr("invalid element count %v", count)
	}
	var zero T
	return int64(unsafe.Sizeof(zero)) * int64(count)
}

func haspointers(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Pointer, reflect.UnsafePointer, reflect.Map, reflect.Slice,
		reflect.String, reflect.Interface, reflect.Chan, reflect.Func:
		return true

	case reflect.Array:
		return typ.Len() > 0 && haspointers(typ.Elem())

	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if haspointers(typ.Field(i).Type) {
				return true
			}
		}
	}
	return false
}
