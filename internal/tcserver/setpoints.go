package tcserver

import "github.com/lansalot/aog-taskcontroller/internal/isobus"

const windowSize = 16

// UpdateSectionStates reconciles desired section on/off states (as
// decoded from an AOG steer-data frame) against every active client
// with section control enabled. Manual-mode clients are skipped
// entirely on entry, simpler than gating inside the per-window flush
// and avoiding accumulating diffs that would never be sent.
func (s *Server) UpdateSectionStates(desired []bool) {
	s.store.Range(func(partner isobus.PartnerID, cs *ClientState) {
		if !cs.SectionControlEnabled {
			return
		}
		s.updateClientSectionStates(partner, cs, desired)
	})
}

func (s *Server) updateClientSectionStates(partner isobus.PartnerID, cs *ClientState, desired []bool) {
	windowDirty := false
	windowStart := 0

	flush := func(start int) {
		window := start / windowSize
		ddi := isobus.SetpointCondensedWorkStateDDI(window)
		element, ok := cs.DDIToElementNumber[ddi]
		if !ok {
			return
		}
		end := start + windowSize
		if end > cs.NumberOfSections {
			end = cs.NumberOfSections
		}
		word := isobus.PackSectionStates(cs.SectionSetpointStates[start:end])
		_ = s.stack.SendSetValue(partner, element, ddi, int32(word))
	}

	for i := 0; i < cs.NumberOfSections; i++ {
		if i > 0 && i%windowSize == 0 {
			if windowDirty {
				flush(windowStart)
			}
			windowDirty = false
			windowStart = i
		}

		want := i < len(desired) && desired[i]
		have := cs.SectionSetpointStates[i] == isobus.SectionOn

		if want != have {
			if want {
				cs.SectionSetpointStates[i] = isobus.SectionOn
			} else {
				cs.SectionSetpointStates[i] = isobus.SectionOff
			}
			windowDirty = true
		}
	}
	if windowDirty {
		flush(windowStart)
	}

	anyOn := cs.AnySectionSetpointOn()
	if anyOn != cs.SetpointWorkState {
		element, ok := cs.DDIToElementNumber[isobus.DDISetpointWorkState]
		if ok {
			value := int32(0)
			if anyOn {
				value = 1
			}
			_ = s.stack.SendSetValue(partner, element, isobus.DDISetpointWorkState, value)
		}
		cs.SetpointWorkState = anyOn
	}
}

// UpdateSectionControlEnabled propagates a manual/auto mode change from
// AOG to every client whose cached mode differs, emitting exactly one
// SET-VALUE per changed client.
func (s *Server) UpdateSectionControlEnabled(enabled bool) {
	s.store.Range(func(partner isobus.PartnerID, cs *ClientState) {
		if cs.SectionControlEnabled == enabled {
			return
		}
		cs.SectionControlEnabled = enabled
		element, ok := cs.DDIToElementNumber[isobus.DDISectionControlState]
		if !ok {
			return
		}
		value := int32(0)
		if enabled {
			value = 1
		}
		_ = s.stack.SendSetValue(partner, element, isobus.DDISectionControlState, value)
	})
}
