package malloc

import "fmt"
import "strings"
import "sync"
import "sync/atomic"

import humanize "github.com/dustin/go-humanize"
import s "github.com/bnclabs/gosettings"
import "github.com/bnclabs/pagealloc/api"
import "github.com/bnclabs/pagealloc/pagepool"

// Registry holds one Aggregate per Tag. Aggregates are created lazily,
// exactly once, on first use and live as long as the registry. There
// is no need to tear a registry down before exit, pages still held are
// abandoned with the process.
type Registry struct {
	supplier api.Pagesupplier
	table    *Classtable
	entries  [Maxtags]struct {
		once sync.Once
		agg  atomic.Pointer[Aggregate]
	}
}

// NewRegistry create a registry whose aggregates are fed by `supplier`.
// Parameters missing in `setts` are picked from Defaultsettings().
// Panics if the largest size-class cannot fit in a page.
func NewRegistry(supplier api.Pagesupplier, setts s.Settings) *Registry {
	setts = make(s.Settings).Mixin(Defaultsettings(), setts)
	minsize, maxsize := validatesettings(setts)
	reg := &Registry{
		supplier: supplier,
		table:    NewClasstable(minsize, maxsize),
	}
	pagesize, stride := supplier.Pagesize(), alignup(maxsize, Alignment)
	if slotsperpage(pagesize, stride) < 1 {
		panicerr("%w: maxsize %v leaves no slot in page of %v",
			ErrorMisconfigured, maxsize, pagesize)
	}
	infof("registry: %v size-classes between %v and %v, pagesize %v",
		reg.table.Numclasses(), minsize, maxsize, pagesize)
	return reg
}

// Instancefor return the aggregate serving `tag`, creating it on first
// call. Safe to call concurrently.
func (reg *Registry) Instancefor(tag Tag) *Aggregate {
	if tag >= Maxtags {
		panicerr("invalid allocation tag %v", tag)
	}
	entry := &reg.entries[tag]
	entry.once.Do(func() {
		entry.agg.Store(NewAggregate(tag, reg.table, reg.supplier))
	})
	return entry.agg.Load()
}

// Classtable return the size-classes shared by all aggregates.
func (reg *Registry) Classtable() *Classtable {
	return reg.table
}

// Supplier return the page supplier feeding this registry.
func (reg *Registry) Supplier() api.Pagesupplier {
	return reg.supplier
}

// Stats for `tag`, empty if the tag was never used.
func (reg *Registry) Stats(tag Tag) map[string]interface{} {
	if agg := reg.created(tag); agg != nil {
		return agg.Stats()
	}
	return map[string]interface{}{"tag": tag.String()}
}

// Log memory usage of `tag`, if humanize is true byte counts are
// logged in human readable form.
func (reg *Registry) Log(tag Tag, humanize bool) {
	infof("%v", reg.Logstring(tag, humanize))
}

// Logstring same as Log but return the text instead of logging it.
func (reg *Registry) Logstring(tag Tag, humanize bool) string {
	agg := reg.created(tag)
	if agg == nil {
		return fmt.Sprintf("%v unused", tag)
	}
	return logstring(agg, humanize)
}

// Destroy every aggregate created so far, panics if any of them still
// has memory handed out. Meant for tests and orderly shutdown, refer
// to Slab.Destroy().
func (reg *Registry) Destroy() {
	for tag := Tag(0); tag < Maxtags; tag++ {
		if agg := reg.created(tag); agg != nil {
			agg.Destroy()
		}
	}
}

func (reg *Registry) created(tag Tag) *Aggregate {
	if tag >= Maxtags {
		panicerr("invalid allocation tag %v", tag)
	}
	return reg.entries[tag].agg.Load()
}

func logstring(agg *Aggregate, dohumanize bool) string {
	bytes := func(n int64) string {
		if dohumanize {
			return humanize.Bytes(uint64(n))
		}
		return fmt.Sprintf("%v", n)
	}

	capacity, heap, alloc, overhead := agg.Info()
	lines := []string{fmt.Sprintf(
		"%v capacity:%v heap:%v alloc:%v overhead:%v pages:%v",
		agg.tag, bytes(capacity), bytes(heap), bytes(alloc), bytes(overhead),
		agg.Npages(),
	)}
	ss, zs := agg.Utilization() // sorted by slot size
	for i, size := range ss {
		lines = append(lines, fmt.Sprintf("  slot %4v utilization %.2f%%", size, zs[i]))
	}
	if n := atomic.LoadInt64(&agg.largebytes); n > 0 {
		lines = append(lines, fmt.Sprintf("  regions %v", bytes(n)))
	}
	return strings.Join(lines, "\n")
}

var defaultreg struct {
	once sync.Once
	reg  *Registry
}

// Defaultregistry return the process wide registry, fed by a pagepool
// built from Defaultsettings(), created on first call.
func Defaultregistry() *Registry {
	defaultreg.once.Do(func() {
		setts := Defaultsettings()
		pool := pagepool.New(setts.Section("pagepool.").Trim("pagepool."))
		defaultreg.reg = NewRegistry(pool, setts)
	})
	return defaultreg.reg
}
