package value

// Roots is everything outside the heap that can keep an object alive: the
// operand stack and the capture-environment pointer of every live call
// frame. The VM assembles this once per collection; pkg/value never
// reaches into VM internals directly, keeping the dependency one-way.
type Roots struct {
	Stack []Value
	Envs  []Handle
}

// Collect runs one mark-sweep pass: mark walks outward from roots plus
// every tenured slot, sweep frees every slot that mark didn't reach.
// Non-moving: no Handle is invalidated by a collection, only slots nothing
// references become eligible for Alloc reuse.
func (h *Heap) Collect(roots Roots) {
	reached := make([]bool, len(h.slots))

	var stack []Handle
	push := func(han Handle) {
		if han == NoHandle {
			return
		}
		if int(han.Index) >= len(h.slots) {
			return
		}
		if reached[han.Index] {
			return
		}
		reached[han.Index] = true
		stack = append(stack, han)
	}

	for i := int32(0); i < h.tenuredWatermark; i++ {
		if h.slots[i].live {
			push(Handle{Index: i, Gen: h.slots[i].gen})
		}
	}
	for _, v := range roots.Stack {
		if v.IsObject() {
			push(v.Handle())
		}
	}
	for _, e := range roots.Envs {
		push(e)
	}

	var scratch []Handle
	for len(stack) > 0 {
		han := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s := &h.slots[han.Index]
		if !s.live {
			continue
		}
		scratch = scratch[:0]
		scratch = s.obj.mark(scratch)
		for _, child := range scratch {
			push(child)
		}
	}

	for i := range h.slots {
		if i < int(h.tenuredWatermark) {
			continue
		}
		if !h.slots[i].live {
			continue
		}
		if !reached[i] {
			h.free(int32(i))
		}
	}

	h.bytesSinceGC = 0
}

func (h *Heap) free(idx int32) {
	h.slots[idx].obj = nil
	h.slots[idx].live = false
	h.slots[idx].gen++
	h.slots[idx].nextFree = h.freeHead
	h.freeHead = idx
}
