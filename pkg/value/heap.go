package value

// slot is one entry in the heap's backing array: either a live object with
// a generation counter (to detect stale Handles), or a free slot linked
// into the freelist via nextFree.
type slot struct {
	obj      Object
	gen      uint32
	live     bool
	nextFree int32
}

// Heap is a slotted arena of Objects with freelist reuse, the allocation
// strategy a non-moving mark-sweep collector needs: a Handle's Index is
// stable for the object's lifetime, so no pointer inside the VM or another
// object ever needs fixing up after a collection.
//
// tenuredWatermark protects the natives/preload objects installed before
// any script runs: slots with Index < tenuredWatermark are always treated
// as GC roots in addition to the stack/environment roots, since nothing
// else would keep e.g. Object.prototype reachable once the program that
// referenced it returns.
type Heap struct {
	slots            []slot
	freeHead         int32
	tenuredWatermark int32
	capacity         int32 // 0 means unbounded

	bytesSinceGC int64
	gcThreshold  int64
}

const freeListEnd = -1

// NewHeap creates an empty heap. gcThreshold is the approximate number of
// allocated bytes (estimated per-object, not exact) that triggers the next
// collection; 0 selects a reasonable default. capacity bounds the number of
// live slots the heap will ever hold (spec's "heap capacity is fixed at
// program start"); 0 means unbounded, which test and REPL callers prefer.
func NewHeap(gcThreshold int64, capacity int) *Heap {
	if gcThreshold <= 0 {
		gcThreshold = 1 << 20
	}
	return &Heap{freeHead: freeListEnd, gcThreshold: gcThreshold, capacity: int32(capacity)}
}

// Alloc installs obj in the heap and returns its Handle and true, or
// returns ok=false without installing anything once capacity slots are
// live and none are free - the caller (the VM) turns that into a
// bad-heap-alloc status rather than growing without bound.
func (h *Heap) Alloc(obj Object) (Handle, bool) {
	if h.freeHead != freeListEnd {
		idx := h.freeHead
		s := &h.slots[idx]
		h.freeHead = s.nextFree
		s.obj = obj
		s.live = true
		h.bytesSinceGC += estimateSize(obj)
		return Handle{Index: idx, Gen: s.gen}, true
	}
	if h.capacity > 0 && int32(len(h.slots)) >= h.capacity {
		return NoHandle, false
	}
	idx := int32(len(h.slots))
	h.slots = append(h.slots, slot{obj: obj, live: true})
	h.bytesSinceGC += estimateSize(obj)
	return Handle{Index: idx, Gen: 0}, true
}

// Tenure marks every slot allocated so far as permanently rooted; called
// once after installing the native/global preload, before any user
// program runs.
func (h *Heap) Tenure() {
	h.tenuredWatermark = int32(len(h.slots))
}

// Get resolves h's Handle to its Object, or nil if the handle is stale
// (its slot was freed and/or reused under a different generation).
func (h *Heap) Get(handle Handle) Object {
	if handle == NoHandle || int(handle.Index) >= len(h.slots) {
		return nil
	}
	s := &h.slots[handle.Index]
	if !s.live || s.gen != handle.Gen {
		return nil
	}
	return s.obj
}

// ShouldCollect reports whether enough has been allocated since the last
// collection to justify a GC pass, per spec's byte-overhead trigger.
func (h *Heap) ShouldCollect() bool {
	return h.bytesSinceGC >= h.gcThreshold
}

// estimateSize gives the GC trigger a rough per-kind cost without needing
// unsafe.Sizeof bookkeeping on every field mutation.
func estimateSize(obj Object) int64 {
	switch o := obj.(type) {
	case *Array:
		return 64 + int64(len(o.Elements))*16
	case *DynamicString:
		return 48 + int64(len(o.Value))
	default:
		return 64
	}
}
