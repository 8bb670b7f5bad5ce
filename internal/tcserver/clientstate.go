// Package tcserver implements the ISO 11783-10 task controller state
// machine: per-partner pool binding, section setpoint/actual
// reconciliation and measurement subscription, driven by isobus.Stack
// through the isobus.Hooks interface.
package tcserver

import (
	"github.com/lansalot/aog-taskcontroller/internal/ddop"
	"github.com/lansalot/aog-taskcontroller/internal/isobus"
)

// MaxSections bounds number_of_sections, per the data model.
const MaxSections = 256

// ClientState holds everything the server tracks for one partner: its
// bound pool, section vectors and subscription bookkeeping.
type ClientState struct {
	Pool  *ddop.Pool
	Index *ddop.Index

	UploadedChunks [][]byte

	NumberOfSections      int
	SectionSetpointStates []isobus.SectionState
	SectionActualStates   []isobus.SectionState

	SetpointWorkState bool
	ActualWorkState   bool

	SectionControlEnabled   bool
	MeasurementCommandsSent bool

	// DDIToElementNumber maps a DDI to the element number of the DDOP
	// element that parents the corresponding process-data object,
	// populated by RequestMeasurementCommands.
	DDIToElementNumber map[uint16]uint16

	elementWorkState map[uint16]bool
}

func newClientState(pool *ddop.Pool, numberOfSections int) *ClientState {
	if numberOfSections > MaxSections {
		numberOfSections = MaxSections
	}
	cs := &ClientState{
		Pool:                  pool,
		Index:                 pool.BuildIndex(),
		NumberOfSections:      numberOfSections,
		SectionSetpointStates: make([]isobus.SectionState, numberOfSections),
		SectionActualStates:   make([]isobus.SectionState, numberOfSections),
		DDIToElementNumber:    make(map[uint16]uint16),
		elementWorkState:      make(map[uint16]bool),
	}
	for i := range cs.SectionSetpointStates {
		cs.SectionSetpointStates[i] = isobus.SectionOff
		cs.SectionActualStates[i] = isobus.SectionOff
	}
	return cs
}

// SetpointAt returns the setpoint state of section i, or NOT_INSTALLED
// if i is out of bounds.
func (cs *ClientState) SetpointAt(i int) isobus.SectionState {
	if i < 0 || i >= cs.NumberOfSections {
		return isobus.SectionNotInstalled
	}
	return cs.SectionSetpointStates[i]
}

// ActualAt returns the actual state of section i, or NOT_INSTALLED if i
// is out of bounds.
func (cs *ClientState) ActualAt(i int) isobus.SectionState {
	if i < 0 || i >= cs.NumberOfSections {
		return isobus.SectionNotInstalled
	}
	return cs.SectionActualStates[i]
}

// SetActualAt writes section i's actual state; writes past
// NumberOfSections are silently dropped per the bounded-writes
// invariant.
func (cs *ClientState) SetActualAt(i int, s isobus.SectionState) {
	if i < 0 || i >= cs.NumberOfSections {
		return
	}
	cs.SectionActualStates[i] = s
}

// SetSetpointAt writes section i's setpoint state; writes past
// NumberOfSections are silently dropped.
func (cs *ClientState) SetSetpointAt(i int, s isobus.SectionState) {
	if i < 0 || i >= cs.NumberOfSections {
		return
	}
	cs.SectionSetpointStates[i] = s
}

// ApplyActualCondensedWorkState unpacks word into 16 section actual
// states starting at offset, dropping any that fall past
// NumberOfSections.
func (cs *ClientState) ApplyActualCondensedWorkState(offset int, word uint32) {
	states := isobus.UnpackSectionStates(word, 16)
	for i, s := range states {
		cs.SetActualAt(offset+i, s)
	}
}

// SetElementWorkState stores a per-element master override. It is pure
// storage: no inbound CAN path currently drives it, kept available for
// a future master-override PGN.
func (cs *ClientState) SetElementWorkState(element uint16, working bool) {
	cs.elementWorkState[element] = working
}

// ElementWorkState reads a per-element master override, reporting
// whether one has ever been set.
func (cs *ClientState) ElementWorkState(element uint16) (working, present bool) {
	working, present = cs.elementWorkState[element]
	return
}

// AnySectionSetpointOn reports whether any section's setpoint is ON.
func (cs *ClientState) AnySectionSetpointOn() bool {
	for _, s := range cs.SectionSetpointStates {
		if s == isobus.SectionOn {
			return true
		}
	}
	return false
}

// ActualOnBitmap packs the actual states into a LSB-first bitmap sized
// ceil(NumberOfSections/8) bytes, for the AOG heartbeat payload.
func (cs *ClientState) ActualOnBitmap() []byte {
	n := (cs.NumberOfSections + 7) / 8
	bitmap := make([]byte, n)
	for i, s := range cs.SectionActualStates {
		if s == isobus.SectionOn {
			bitmap[i/8] |= 1 << uint(i%8)
		}
	}
	return bitmap
}
