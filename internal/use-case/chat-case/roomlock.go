package chat_service

import "sync"

// roomLocks linearizes sends per room. Holding the room's mutex across
// persist+broadcast makes delivery order equal storage order without
// serializing unrelated rooms against each other. Entries are created
// lazily and never evicted; a mutex per active room is cheap.
type roomLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newRoomLocks() *roomLocks {
	return &roomLocks{locks: make(map[string]*sync.Mutex)}
}

func (r *roomLocks) get(roomID string) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		r.locks[roomID] = l
	}
	return l
}
