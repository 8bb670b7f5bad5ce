package isobus

// Data Description Index values. The ISO 11783-11 standard assigns
// specific numeric codes to these; the full DDI table was not available
// to ground this on, so the values below are this module's own
// self-consistent assignment (documented in DESIGN.md) — what matters
// for the task controller's behaviour is that each condensed-work-state
// range is 16 contiguous DDIs and that the DDI-to-behaviour mapping
// below is what on_value_command and request_measurement_commands key
// off of, not the exact standard-conformant integer.
const (
	// DDIActualCondensedWorkStateBase is the first of 16 contiguous DDIs
	// covering sections 1-16, 17-32, ..., 241-256.
	DDIActualCondensedWorkStateBase uint16 = 0x00A0

	// DDISetpointCondensedWorkStateBase is the setpoint counterpart.
	DDISetpointCondensedWorkStateBase uint16 = 0x00C0

	DDISectionControlState uint16 = 0x00E0
	DDISetpointWorkState   uint16 = 0x00E1
	DDIActualWorkState     uint16 = 0x00E2
)

// condensedWorkStateRangeSize is the number of contiguous DDIs in each
// condensed-work-state range (sections 1-16 .. 241-256).
const condensedWorkStateRangeSize = 16

// ActualCondensedWorkStateDDI returns the DDI for the k'th 16-section
// window (k=0 covers sections 1-16, k=1 covers 17-32, and so on).
func ActualCondensedWorkStateDDI(k int) uint16 {
	return DDIActualCondensedWorkStateBase + uint16(k)
}

// SetpointCondensedWorkStateDDI returns the setpoint counterpart of
// ActualCondensedWorkStateDDI.
func SetpointCondensedWorkStateDDI(k int) uint16 {
	return DDISetpointCondensedWorkStateBase + uint16(k)
}

// ActualCondensedWorkStateWindow reports whether ddi falls in the actual
// condensed work state range, and if so which 16-section window it
// covers.
func ActualCondensedWorkStateWindow(ddi uint16) (window int, ok bool) {
	if ddi < DDIActualCondensedWorkStateBase || ddi >= DDIActualCondensedWorkStateBase+condensedWorkStateRangeSize {
		return 0, false
	}
	return int(ddi - DDIActualCondensedWorkStateBase), true
}

// SetpointCondensedWorkStateWindow is the setpoint counterpart of
// ActualCondensedWorkStateWindow.
func SetpointCondensedWorkStateWindow(ddi uint16) (window int, ok bool) {
	if ddi < DDISetpointCondensedWorkStateBase || ddi >= DDISetpointCondensedWorkStateBase+condensedWorkStateRangeSize {
		return 0, false
	}
	return int(ddi - DDISetpointCondensedWorkStateBase), true
}
