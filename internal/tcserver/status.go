package tcserver

import (
	"github.com/sasha-s/go-deadlock"

	"github.com/lansalot/aog-taskcontroller/internal/isobus"
)

// ClientSummary is a JSON-friendly snapshot of one connected partner's
// state, used by the status web UI.
type ClientSummary struct {
	Partner               string `json:"partner"`
	NumberOfSections      int    `json:"number_of_sections"`
	SectionControlEnabled bool   `json:"section_control_enabled"`
	SetpointWorkState     bool   `json:"setpoint_work_state"`
	ActualWorkState       bool   `json:"actual_work_state"`
	Setpoints             []bool `json:"section_setpoints"`
	Actuals               []bool `json:"section_actuals"`
}

// snapshotCache holds the most recently built status snapshot. Store
// itself is only ever touched from the event-loop goroutine; statusweb's
// HTTP handler and push-loop goroutines read this cache instead, the
// same way the reference project's uibroadcaster guards its socket list
// with a mutex rather than letting arbitrary goroutines walk shared
// state unsynchronized.
type snapshotCache struct {
	mu   deadlock.RWMutex
	data []ClientSummary
}

func (c *snapshotCache) set(data []ClientSummary) {
	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
}

func (c *snapshotCache) get() []ClientSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data
}

// RefreshSnapshot rebuilds the cached status snapshot from the live
// store. Must only be called from the event-loop goroutine.
func (s *Server) RefreshSnapshot() {
	s.snapshot.set(s.buildSnapshot())
}

// Snapshot returns the status snapshot as of the last RefreshSnapshot
// call. Safe to call from any goroutine.
func (s *Server) Snapshot() []ClientSummary {
	return s.snapshot.get()
}

func (s *Server) buildSnapshot() []ClientSummary {
	var out []ClientSummary
	s.store.Range(func(partner isobus.PartnerID, cs *ClientState) {
		summary := ClientSummary{
			Partner:               partner.String(),
			NumberOfSections:      cs.NumberOfSections,
			SectionControlEnabled: cs.SectionControlEnabled,
			SetpointWorkState:     cs.SetpointWorkState,
			ActualWorkState:       cs.ActualWorkState,
			Setpoints:             make([]bool, cs.NumberOfSections),
			Actuals:               make([]bool, cs.NumberOfSections),
		}
		for i := 0; i < cs.NumberOfSections; i++ {
			summary.Setpoints[i] = cs.SetpointAt(i) == isobus.SectionOn
			summary.Actuals[i] = cs.ActualAt(i) == isobus.SectionOn
		}
		out = append(out, summary)
	})
	return out
}
