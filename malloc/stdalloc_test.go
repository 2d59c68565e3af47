package malloc

import "testing"
import "unsafe"

import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

type workitem struct {
	addr  uintptr
	depth int32
	flags [4]uint8
}

func TestStdalloc(t *testing.T) {
	reg, sup := newtestregistry(t)
	a := NewStdalloc[workitem](reg, TagGCWorkStack)
	assert.Equal(t, TagGCWorkStack, a.Tag())

	item := a.Allocate(1)
	require.Equal(t, workitem{}, *item)
	item.addr, item.depth = 0xdead, 7
	agg := reg.Instancefor(TagGCWorkStack)
	size := int64(unsafe.Sizeof(workitem{}))
	assert.Equal(t, int64(1), agg.Slab(agg.Sizetoclass(size)).Nlive())
	a.Deallocate(item, 1)
	assert.Equal(t, int64(0), agg.Npages())

	items := a.Slice(100)
	require.Len(t, items, 100)
	require.Equal(t, 100, cap(items))
	for i := range items {
		require.Equal(t, workitem{}, items[i])
		items[i].depth = int32(i)
	}
	for i := range items {
		require.Equal(t, int32(i), items[i].depth)
	}
	a.Freeslice(items)

	// large arrays go through regions.
	items = a.Slice(10000)
	assert.Equal(t, int64(1), agg.Stats()["n_largeallocs"])
	items[9999].addr = 1
	a.Freeslice(items[:10])
	assert.Equal(t, int64(0), agg.Stats()["largebytes"])

	acquired, released := sup.counts()
	assert.Equal(t, acquired, released)
	reg.Destroy()
}

func TestStdallocEqual(t *testing.T) {
	reg, _ := newtestregistry(t)
	a := NewStdalloc[uint64](reg, TagFinalizer)
	b := NewStdalloc[uint64](reg, TagFinalizer)
	c := NewStdalloc[uint64](reg, TagStackPtr)
	assert.True(t, a.Equal(b))
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(c))

	other, _ := newtestregistry(t)
	assert.False(t, a.Equal(NewStdalloc[uint64](other, TagFinalizer)))

	// memory from one instance can be freed by an equal one.
	p := a.Allocate(16)
	b.Deallocate(p, 16)
	assert.Equal(t, int64(0), reg.Instancefor(TagFinalizer).Npages())
}

func TestStdallocPanics(t *testing.T) {
	reg, _ := newtestregistry(t)

	assert.Panics(t, func() { NewStdalloc[uint64](reg, Maxtags) })
	assert.Panics(t, func() { NewStdalloc[*int](reg, TagAllocator) })
	assert.Panics(t, func() { NewStdalloc[string](reg, TagAllocator) })
	assert.Panics(t, func() { NewStdalloc[[]byte](reg, TagAllocator) })
	assert.Panics(t, func() {
		NewStdalloc[struct {
			n int
			m map[int]int
		}](reg, TagAllocator)
	})
	assert.Panics(t, func() { NewStdalloc[[2]interface{}](reg, TagAllocator) })
	assert.NotPanics(t, func() { NewStdalloc[[0]*int](reg, TagAllocator) })
	assert.NotPanics(t, func() { NewStdalloc[[8]uintptr](reg, TagAllocator) })

	a := NewStdalloc[uint64](reg, TagAllocator)
	assert.Panics(t, func() { a.Allocate(-1) })
	assert.Panics(t, func() { a.Allocate(a.Maxsize() + 1) })
}

func TestStdallocMaxsize(t *testing.T) {
	reg, _ := newtestregistry(t)
	assert.Equal(t, int(^uint(0)>>1)/8, NewStdalloc[uint64](reg, TagAllocator).Maxsize())
	assert.Equal(t, int(^uint(0)>>1), NewStdalloc[struct{}](reg, TagAllocator).Maxsize())
}

func TestDefaultstdalloc(t *testing.T) {
	a := Defaultstdalloc[int32](TagMutatorList)
	assert.True(t, a.Equal(NewStdalloc[int32](Defaultregistry(), TagMutatorList)))
	s := a.Slice(3)
	s[0], s[1], s[2] = 1, 2, 3
	assert.Equal(t, []int32{1, 2, 3}, s)
	a.Freeslice(s)
}
