package malloc

import "sort"

// Classtable maps size-class index to its slot size and back,
// implements api.Sizeclasser. Immutable once created.
type Classtable struct {
	sizes []int64 // sorted list of slot sizes
}

// NewClasstable create a table of size-classes between minsize and
// maxsize, refer to Sizeclasses().
func NewClasstable(minsize, maxsize int64) *Classtable {
	return &Classtable{sizes: Sizeclasses(minsize, maxsize)}
}

// Classtosize implement api.Sizeclasser{} interface.
func (table *Classtable) Classtosize(index int) int64 {
	return table.sizes[index]
}

// Sizetoclass implement api.Sizeclasser{} interface. Sizes beyond the
// largest class return Numclasses().
func (table *Classtable) Sizetoclass(size int64) int {
	return sort.Search(len(table.sizes), func(i int) bool {
		return table.sizes[i] >= size
	})
}

// Numclasses implement api.Sizeclasser{} interface.
func (table *Classtable) Numclasses() int {
	return len(table.sizes)
}

// Largest implement api.Sizeclasser{} interface.
func (table *Classtable) Largest() int64 {
	return table.sizes[len(table.sizes)-1]
}

// Sizes return a copy of all slot sizes in increasing order.
func (table *Classtable) Sizes() []int64 {
	sizes := make([]int64, len(table.sizes))
	copy(sizes, table.sizes)
	return sizes
}
