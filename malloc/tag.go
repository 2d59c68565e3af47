package malloc

import "fmt"

// Tag identify the subsystem consuming memory. Each tag is served by
// its own Aggregate, so subsystems never contend on each other's locks
// and their memory can be accounted separately.
type Tag uint32

const (
	// TagFinalizer containers held by finalizer processing.
	TagFinalizer Tag = iota
	// TagAllocator bookkeeping of other allocators.
	TagAllocator
	// TagMutatorList list of mutators.
	TagMutatorList
	// TagGCWorkStack gc mark stacks and write barrier buffers.
	TagGCWorkStack
	// TagGCTaskQueue gc task queues.
	TagGCTaskQueue
	// TagStackPtr buffers used while growing stacks.
	TagStackPtr
	// Maxtags number of tags, not a valid tag.
	Maxtags
)

var tagnames = [Maxtags]string{
	"finalizer", "allocator", "mutatorlist", "gcworkstack", "gctaskqueue",
	"stackptr",
}

func (tag Tag) String() string {
	if tag < Maxtags {
		return tagnames[tag]
	}
	return fmt.Sprintf("tag(%d)", uint32(tag))
}
