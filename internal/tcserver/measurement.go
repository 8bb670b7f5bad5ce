package tcserver

import (
	"github.com/lansalot/aog-taskcontroller/internal/ddop"
	"github.com/lansalot/aog-taskcontroller/internal/isobus"
)

const (
	onChangeThreshold  = 1
	timeIntervalMillis = 1000
)

// RequestMeasurementCommands walks every activated client whose
// measurement subscriptions haven't been sent yet, binds each relevant
// DDI to its owning element number, and issues the appropriate
// subscription. Unlike the original source's per-tick O(pool^2) walk,
// this consults the O(pool) index built once at activation
// (ddop.Pool.BuildIndex) — same observable subscription traffic,
// different complexity.
func (s *Server) RequestMeasurementCommands() {
	s.store.Range(func(partner isobus.PartnerID, cs *ClientState) {
		if cs.MeasurementCommandsSent {
			return
		}
		s.subscribeActualDDIs(partner, cs)
		s.subscribeSetpointDDIs(partner, cs)
		cs.MeasurementCommandsSent = true
	})
}

func (s *Server) subscribeActualDDIs(partner isobus.PartnerID, cs *ClientState) {
	ddis := []uint16{isobus.DDIActualWorkState}
	for k := 0; k < 16; k++ {
		ddis = append(ddis, isobus.ActualCondensedWorkStateDDI(k))
	}
	s.bindAndSubscribe(partner, cs, ddis, true)
}

func (s *Server) subscribeSetpointDDIs(partner isobus.PartnerID, cs *ClientState) {
	ddis := []uint16{isobus.DDISectionControlState, isobus.DDISetpointWorkState}
	for k := 0; k < 16; k++ {
		ddis = append(ddis, isobus.SetpointCondensedWorkStateDDI(k))
	}
	s.bindAndSubscribe(partner, cs, ddis, false)
}

// bindAndSubscribe binds each ddi present in the pool to its owning
// element number and issues a subscription. includeTimeInterval also
// issues a time-interval subscription when the process-data object
// advertises it; the setpoint-side DDIs only ever subscribe on-change.
func (s *Server) bindAndSubscribe(partner isobus.PartnerID, cs *ClientState, ddis []uint16, includeTimeInterval bool) {
	for _, ddi := range ddis {
		for _, pd := range cs.Index.ProcessDataByDDI[ddi] {
			element, ok := cs.Index.ElementForObject[pd.ObjectID()]
			if !ok {
				continue
			}
			cs.DDIToElementNumber[ddi] = element.ElementNumber

			if pd.HasTrigger(ddop.TriggerOnChange) {
				_ = s.stack.SendChangeThresholdMeasurementCommand(partner, element.ElementNumber, ddi, onChangeThreshold)
			}
			if includeTimeInterval && pd.HasTrigger(ddop.TriggerTimeInterval) {
				_ = s.stack.SendTimeIntervalMeasurementCommand(partner, element.ElementNumber, ddi, timeIntervalMillis)
			}
		}
	}
}
