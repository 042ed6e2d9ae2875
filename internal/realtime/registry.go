package realtime

import (
	"context"
	"sync"
)

// Member recibe los payloads publicados en las salas a las que esta unido.
type Member interface {
	Deliver(payload []byte)
}

// Registry mantiene la membresia de salas y reparte publicaciones a todos
// los miembros actuales, incluido el emisor. Join y Leave son idempotentes;
// Leave sobre un no-miembro no hace nada. La instancia se inyecta en cada
// sesion, nunca es estado global.
type Registry interface {
	Join(ctx context.Context, room string, m Member) error
	Leave(ctx context.Context, room string, m Member) error
	Publish(ctx context.Context, room string, payload []byte) error
}

// MemoryRegistry implementa Registry dentro de un solo proceso.
type MemoryRegistry struct {
	mu    sync.RWMutex
	rooms map[string]map[Member]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{
		rooms: make(map[string]map[Member]struct{}),
	}
}

func (r *MemoryRegistry) Join(_ context.Context, room string, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[Member]struct{})
	}
	r.rooms[room][m] = struct{}{}
	return nil
}

func (r *MemoryRegistry) Leave(_ context.Context, room string, m Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.rooms[room]
	if !ok {
		return nil
	}
	delete(members, m)
	if len(members) == 0 {
		delete(r.rooms, room)
	}
	return nil
}

func (r *MemoryRegistry) Publish(_ context.Context, room string, payload []byte) error {
	r.mu.RLock()
	members := make([]Member, 0, len(r.rooms[room]))
	for m := range r.rooms[room] {
		members = append(members, m)
	}
	r.mu.RUnlock()

	for _, m := range members {
		m.Deliver(payload)
	}
	return nil
}

// MemberCount devuelve cuantos miembros locales tiene una sala.
func (r *MemoryRegistry) MemberCount(room string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[room])
}
