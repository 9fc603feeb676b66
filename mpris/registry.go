package mpris

import "sync"

// Registry maps identities to live player handles. The discovery loop is
// its only writer (insert on attach, remove on detach); everyone else
// reads. The lock is never held across a bus call.
type Registry struct {
	mu      sync.RWMutex
	players map[Identity]*Player
}

func NewRegistry() *Registry {
	return &Registry{
		players: make(map[Identity]*Player),
	}
}

func (r *Registry) Insert(id Identity, p *Player) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players[id] = p
}

// Remove deletes the entry for id and returns it, if one existed.
func (r *Registry) Remove(id Identity) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if ok {
		delete(r.players, id)
	}
	return p, ok
}

func (r *Registry) Get(id Identity) (*Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

// Players returns a snapshot of the registered handles. The snapshot is
// stable; the registry itself may change right after this returns.
func (r *Registry) Players() []*Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}
