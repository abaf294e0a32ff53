package bridge

import (
	"sync"

	"github.com/cleansine/wasapi-exclusive/internal/runtime"
	"github.com/cleansine/wasapi-exclusive/internal/wasapi"
)

// registry maps the opaque, pointer-sized handles issued by Open (spec.md
// §6: "Handles are pointer-sized opaque integers... the host must not
// dereference it") to the RuntimeData they denote. Zero is never issued
// and always means "no such handle", matching the host boundary's
// documented open failure value.
type registry struct {
	mu    sync.Mutex
	next  int64
	table map[int64]*runtime.RuntimeData
}

func newRegistry() *registry {
	return &registry{next: 1, table: make(map[int64]*runtime.RuntimeData)}
}

func (r *registry) put(rtd *runtime.RuntimeData) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := r.next
	r.next++
	r.table[h] = rtd
	return h
}

func (r *registry) get(handle int64) (*runtime.RuntimeData, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rtd, ok := r.table[handle]
	return rtd, ok
}

func (r *registry) remove(handle int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.table, handle)
}

func directionOf(isRender bool) wasapi.Direction {
	if isRender {
		return wasapi.Render
	}
	return wasapi.Capture
}
