package tcserver

import "github.com/lansalot/aog-taskcontroller/internal/isobus"

// HeartbeatPayload builds the AOG heartbeat payload for partner's
// current state: [section_control_enabled, number_of_sections,
// bitpacked_actual_on...]. ok is false if partner has no active client
// state.
func (s *Server) HeartbeatPayload(partner isobus.PartnerID) (payload []byte, ok bool) {
	cs, has := s.store.Get(partner)
	if !has {
		return nil, false
	}

	enabled := byte(0)
	if cs.SectionControlEnabled {
		enabled = 1
	}

	payload = append(payload, enabled, byte(cs.NumberOfSections))
	payload = append(payload, cs.ActualOnBitmap()...)
	return payload, true
}
