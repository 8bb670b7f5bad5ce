package tcserver

import "github.com/lansalot/aog-taskcontroller/internal/isobus"

// Store is the Partner → ClientState mapping, accessed only from the
// event loop thread: no locking.
type Store struct {
	clients map[isobus.PartnerID]*ClientState
}

func newStore() *Store {
	return &Store{clients: make(map[isobus.PartnerID]*ClientState)}
}

// Get returns the client state for partner, if any.
func (s *Store) Get(partner isobus.PartnerID) (*ClientState, bool) {
	cs, ok := s.clients[partner]
	return cs, ok
}

// Put installs cs for partner, replacing any prior state.
func (s *Store) Put(partner isobus.PartnerID, cs *ClientState) {
	s.clients[partner] = cs
}

// Remove drops partner's client state. Idempotent.
func (s *Store) Remove(partner isobus.PartnerID) {
	delete(s.clients, partner)
}

// Range calls f for every active client, in unspecified order.
func (s *Store) Range(f func(partner isobus.PartnerID, cs *ClientState)) {
	for partner, cs := range s.clients {
		f(partner, cs)
	}
}

// Len returns the number of active clients.
func (s *Store) Len() int { return len(s.clients) }
