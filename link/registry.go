package link

import (
	"sync"

	"github.com/telsis/ocpclient/wire"
)

// registry is the per-link task-id → handler map. The management task id
// bypasses the map entirely via a dedicated slot, per §4.6.
type registry struct {
	mu         sync.RWMutex
	handlers   map[uint32]Handler
	management Handler
}

func newRegistry() *registry {
	return &registry{handlers: make(map[uint32]Handler)}
}

func (r *registry) register(taskID uint32, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[taskID] = h
}

func (r *registry) deregister(taskID uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, taskID)
}

func (r *registry) registerManagement(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.management = h
}

// lookup returns the handler for taskID, falling back to the management
// handler when taskID is the reserved management task id. The caller
// must not hold r's lock while invoking the returned handler.
func (r *registry) lookup(taskID uint32) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if taskID == wire.ManagementTaskID {
		return r.management
	}
	return r.handlers[taskID]
}

// size is the in-progress call count: the task-id map's cardinality,
// excluding the dedicated management slot.
func (r *registry) size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.handlers)
}

// clear removes every per-call handler, leaving the management slot
// untouched. Called each time a fresh connection reaches CONNECTED so a
// reconnect cannot resurrect a handler registered against a prior TCP
// session: a same-numbered task id on the new connection must be
// unmatched and draw Abort(TASK_NOT_RUNNING), not a stale handler.
func (r *registry) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[uint32]Handler)
}
