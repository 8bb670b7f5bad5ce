package tcserver

import (
	"testing"

	"github.com/lansalot/aog-taskcontroller/internal/ddop"
	"github.com/lansalot/aog-taskcontroller/internal/isobus"
	"github.com/lansalot/aog-taskcontroller/internal/tclog"
)

// buildFixturePool builds a DDOP with one boom (element number 5) and
// numSections sections, wired with process-data objects for every DDI
// window the sections span, plus SectionControlState/SetpointWorkState/
// ActualWorkState — enough to exercise activation, measurement
// subscription and setpoint propagation end to end.
func buildFixturePool(numSections int) []byte {
	nextID := uint16(1)
	alloc := func() uint16 {
		id := nextID
		nextID++
		return id
	}

	deviceID := alloc()
	boomID := alloc()

	var sectionIDs []uint16
	for i := 0; i < numSections; i++ {
		sectionIDs = append(sectionIDs, alloc())
	}

	var pdObjs []ddop.Object
	var pdIDs []uint16

	windows := (numSections + 15) / 16
	for k := 0; k < windows; k++ {
		actualID, setpointID := alloc(), alloc()
		pdObjs = append(pdObjs,
			ddop.NewDeviceProcessData(actualID, isobus.ActualCondensedWorkStateDDI(k), ddop.TriggerOnChange|ddop.TriggerTimeInterval),
			ddop.NewDeviceProcessData(setpointID, isobus.SetpointCondensedWorkStateDDI(k), ddop.TriggerOnChange),
		)
		pdIDs = append(pdIDs, actualID, setpointID)
	}

	sectionControlID, setpointWorkID, actualWorkID := alloc(), alloc(), alloc()
	pdObjs = append(pdObjs,
		ddop.NewDeviceProcessData(sectionControlID, isobus.DDISectionControlState, ddop.TriggerOnChange),
		ddop.NewDeviceProcessData(setpointWorkID, isobus.DDISetpointWorkState, ddop.TriggerOnChange),
		ddop.NewDeviceProcessData(actualWorkID, isobus.DDIActualWorkState, ddop.TriggerOnChange),
	)
	pdIDs = append(pdIDs, sectionControlID, setpointWorkID, actualWorkID)

	boomChildren := append(append([]uint16{}, sectionIDs...), pdIDs...)

	all := []ddop.Object{
		ddop.NewDeviceElement(deviceID, ddop.ElementTypeDevice, 0, 0, ddop.NoParent, []uint16{boomID}),
		ddop.NewDeviceElement(boomID, ddop.ElementTypeFunction, ddop.FunctionTypeBoom, 5, deviceID, boomChildren),
	}
	for i, id := range sectionIDs {
		all = append(all, ddop.NewDeviceElement(id, ddop.ElementTypeSection, 0, uint16(10+i), boomID, nil))
	}
	all = append(all, pdObjs...)

	return ddop.Encode(all)
}

func newTestServer() (*Server, *isobus.Stack, *isobus.FakeTransport) {
	log := tclog.New(tclog.LevelDebug)
	server := NewServer(log)
	transport := isobus.NewFakeTransport(0xF6)
	stack := isobus.NewStack(transport, server)
	server.AttachStack(stack)
	return server, stack, transport
}

func TestActivatePoolAndMeasurementSubscription(t *testing.T) {
	server, _, _ := newTestServer()
	partner := isobus.PartnerID(0x21)

	data := buildFixturePool(3)
	mid := len(data) / 2
	server.StorePool(partner, data[:mid], true)
	server.StorePool(partner, data[mid:], true)

	ok, _, _, _, _ := server.ActivatePool(partner)
	if !ok {
		t.Fatalf("expected activation to succeed")
	}

	cs, has := server.Store().Get(partner)
	if !has {
		t.Fatalf("expected client state to be installed")
	}
	if cs.NumberOfSections != 3 {
		t.Fatalf("expected 3 sections, got %d", cs.NumberOfSections)
	}

	server.RequestMeasurementCommands()
	if !cs.MeasurementCommandsSent {
		t.Fatalf("expected measurement commands sent flag to be set")
	}
	if elem := cs.DDIToElementNumber[isobus.ActualCondensedWorkStateDDI(0)]; elem != 5 {
		t.Fatalf("expected ActualCondensedWorkState1_16 bound to element 5, got %d", elem)
	}
}

func TestActualStateFeedsHeartbeat(t *testing.T) {
	server, _, _ := newTestServer()
	partner := isobus.PartnerID(0x21)

	data := buildFixturePool(3)
	server.StorePool(partner, data, true)
	server.ActivatePool(partner)
	server.RequestMeasurementCommands()

	ok, code := server.OnValueCommand(partner, isobus.ActualCondensedWorkStateDDI(0), 5, 0b0101)
	if !ok || code != 0 {
		t.Fatalf("OnValueCommand failed: ok=%v code=%d", ok, code)
	}

	payload, has := server.HeartbeatPayload(partner)
	if !has {
		t.Fatalf("expected heartbeat payload")
	}
	want := []byte{0, 3, 0b011}
	if len(payload) != len(want) {
		t.Fatalf("got %v want %v", payload, want)
	}
	for i := range want {
		if payload[i] != want[i] {
			t.Fatalf("got %v want %v", payload, want)
		}
	}
}

func TestUpdateSectionStatesManualModeSilence(t *testing.T) {
	server, _, transport := newTestServer()
	partner := isobus.PartnerID(0x21)

	data := buildFixturePool(20)
	server.StorePool(partner, data, true)
	server.ActivatePool(partner)
	server.RequestMeasurementCommands()

	// Discard the measurement subscriptions sent above; only frames
	// emitted by UpdateSectionStates are under test.
	transport.Sent = nil

	desired := make([]bool, 20)
	for i := range desired {
		desired[i] = true
	}
	server.UpdateSectionStates(desired)

	if len(transport.Sent) != 0 {
		t.Fatalf("expected no SET-VALUEs while section control disabled, got %d", len(transport.Sent))
	}
}

func TestUpdateSectionStatesAutoModeFlushesWindows(t *testing.T) {
	server, _, transport := newTestServer()
	partner := isobus.PartnerID(0x21)

	data := buildFixturePool(20)
	server.StorePool(partner, data, true)
	server.ActivatePool(partner)
	server.RequestMeasurementCommands()

	cs, _ := server.Store().Get(partner)
	cs.SectionControlEnabled = true
	// Measurement subscriptions on the setpoint condensed DDIs share the
	// process-data PGN; drop them so only SET-VALUEs are counted.
	transport.Sent = nil

	desired := make([]bool, 20)
	for i := 0; i < 17; i++ {
		desired[i] = true
	}

	server.UpdateSectionStates(desired)

	var setValueCount int
	for _, sent := range transport.Sent {
		if sent.PGN.PDUFormat != isobus.PGNProcessData.PDUFormat {
			continue
		}
		msg, err := isobus.DecodeProcessDataMessage(sent.Data)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if window, ok := isobus.SetpointCondensedWorkStateWindow(msg.DDI); ok {
			setValueCount++
			if window == 0 {
				want := isobus.PackSectionStates(cs.SectionSetpointStates[0:16])
				if uint32(msg.Value) != want {
					t.Fatalf("window 0: got %#x want %#x", msg.Value, want)
				}
			}
		}
	}
	if setValueCount != 2 {
		t.Fatalf("expected 2 SetpointCondensedWorkState SET-VALUEs, got %d", setValueCount)
	}
}

func TestUpdateSectionControlEnabledEmitsOnceOnChange(t *testing.T) {
	server, _, transport := newTestServer()
	partner := isobus.PartnerID(0x21)

	data := buildFixturePool(3)
	server.StorePool(partner, data, true)
	server.ActivatePool(partner)
	server.RequestMeasurementCommands()
	// The on-change subscription for SectionControlState shares the
	// process-data PGN and DDI; drop it so only SET-VALUEs are counted.
	transport.Sent = nil

	server.UpdateSectionControlEnabled(true)
	server.UpdateSectionControlEnabled(true)

	count := 0
	for _, sent := range transport.Sent {
		if sent.PGN.PDUFormat != isobus.PGNProcessData.PDUFormat {
			continue
		}
		msg, err := isobus.DecodeProcessDataMessage(sent.Data)
		if err == nil && msg.DDI == isobus.DDISectionControlState {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one SectionControlState SET-VALUE, got %d", count)
	}
}

func TestOnClientTimeoutDropsStateButNotChunks(t *testing.T) {
	server, _, _ := newTestServer()
	partner := isobus.PartnerID(0x21)

	data := buildFixturePool(3)
	server.StorePool(partner, data, true)
	server.ActivatePool(partner)

	server.OnClientTimeout(partner)

	if _, has := server.Store().Get(partner); has {
		t.Fatalf("expected client state to be dropped after timeout")
	}
}
