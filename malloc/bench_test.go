package malloc

import "testing"
import "unsafe"
import "math/rand"

func BenchmarkNewAggregate(b *testing.B) {
	sup := newrecsupplier(b, 4096)
	table := NewClasstable(Minsize, Maxsize)
	for i := 0; i < b.N; i++ {
		NewAggregate(TagAllocator, table, sup)
	}
}

func BenchmarkSlabAllocFree(b *testing.B) {
	slab := NewSlab(96, newrecsupplier(b, 4096))
	keep := slab.Allocate() // keep one page alive
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		slab.Deallocate(slab.Allocate())
	}
	b.StopTimer()
	slab.Deallocate(keep)
}

func BenchmarkSlabBatch(b *testing.B) {
	slab := NewSlab(96, newrecsupplier(b, 4096))
	ptrs := make([]unsafe.Pointer, 1024)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for j := range ptrs {
			ptrs[j] = slab.Allocate()
		}
		for _, ptr := range ptrs {
			slab.Deallocate(ptr)
		}
	}
}

func BenchmarkAggregateAlloc(b *testing.B) {
	agg := NewAggregate(
		TagAllocator, NewClasstable(Minsize, Maxsize), newrecsupplier(b, 4096))
	sizes := make([]int64, 1024)
	for i := range sizes {
		sizes[i] = rand.Int63n(Maxsize) + 1
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		size := sizes[i%len(sizes)]
		agg.Free(agg.Alloc(size), size)
	}
}

func BenchmarkAggregateParallel(b *testing.B) {
	agg := NewAggregate(
		TagAllocator, NewClasstable(Minsize, Maxsize), newrecsupplier(b, 4096))
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			agg.Free(agg.Alloc(64), 64)
		}
	})
}

func BenchmarkAggregateInfo(b *testing.B) {
	agg := NewAggregate(
		TagAllocator, NewClasstable(Minsize, Maxsize), newrecsupplier(b, 4096))
	for i := 0; i < 1024; i++ {
		agg.Alloc(int64(rand.Intn(1024)))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		agg.Info()
	}
}

func BenchmarkInstancefor(b *testing.B) {
	reg := NewRegistry(newrecsupplier(b, 4096), testsettings(Minsize, Maxsize))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Instancefor(Tag(i) % Maxtags)
	}
}
