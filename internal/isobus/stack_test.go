package isobus

import "testing"

type recordingHooks struct {
	storedChunks   [][]byte
	valueCommands  []struct {
		partner       PartnerID
		ddi, element  uint16
		value         int32
	}
	timedOut []PartnerID
}

func (h *recordingHooks) StorePool(partner PartnerID, chunk []byte, appendMode bool) {
	h.storedChunks = append(h.storedChunks, append([]byte(nil), chunk...))
}
func (h *recordingHooks) ActivatePool(partner PartnerID) (bool, uint8, uint8, uint16, uint16) {
	return true, 0, 0, 0, 0
}
func (h *recordingHooks) DeactivatePool(partner PartnerID) {}
func (h *recordingHooks) DeletePool(partner PartnerID)     {}
func (h *recordingHooks) PoolStoredByStructureLabel(partner PartnerID, label []byte) bool {
	return false
}
func (h *recordingHooks) PoolStoredByLocalizationLabel(partner PartnerID, label []byte) bool {
	return false
}
func (h *recordingHooks) EnoughMemory(size uint32) bool  { return true }
func (h *recordingHooks) IdentifyTaskController(n uint8) {}
func (h *recordingHooks) OnClientTimeout(partner PartnerID) {
	h.timedOut = append(h.timedOut, partner)
}
func (h *recordingHooks) OnValueCommand(partner PartnerID, ddi, element uint16, value int32) (bool, uint8) {
	h.valueCommands = append(h.valueCommands, struct {
		partner      PartnerID
		ddi, element uint16
		value        int32
	}{partner, ddi, element, value})
	return true, 0
}
func (h *recordingHooks) OnProcessDataAcknowledge(partner PartnerID, ddi, element uint16, errorCode uint8) {
}
func (h *recordingHooks) OnChangeDesignator(partner PartnerID, element uint16, designator string) bool {
	return true
}

func TestStackDispatchesPoolChunksAndValueCommands(t *testing.T) {
	transport := NewFakeTransport(0xF6)
	hooks := &recordingHooks{}
	stack := NewStack(transport, hooks)

	chunkFrame, _ := PoolChunkFrame{Data: []byte{1, 2, 3}, Last: true}.Encode()
	transport.Deliver(Frame{Source: 0x21, PGN: PGN{PDUFormat: PGNPoolTransfer.PDUFormat}, Data: chunkFrame[:]})

	valueFrame := ProcessDataMessage{ElementNumber: 5, DDI: DDIActualWorkState, Value: 1}.Encode()
	transport.Deliver(Frame{Source: 0x21, PGN: PGN{PDUFormat: PGNProcessData.PDUFormat}, Data: valueFrame[:]})

	stack.Update()

	if len(hooks.storedChunks) != 1 || string(hooks.storedChunks[0]) != "\x01\x02\x03" {
		t.Fatalf("expected one stored chunk, got %v", hooks.storedChunks)
	}
	if len(hooks.valueCommands) != 1 {
		t.Fatalf("expected one value command, got %d", len(hooks.valueCommands))
	}
	vc := hooks.valueCommands[0]
	if vc.ddi != DDIActualWorkState || vc.element != 5 || vc.value != 1 {
		t.Fatalf("unexpected value command: %+v", vc)
	}
	if vc.partner != PartnerID(0x21) {
		t.Fatalf("expected placeholder partner 0x21, got %#x", vc.partner)
	}
}

func TestStackSendSetValueToKnownPartner(t *testing.T) {
	transport := NewFakeTransport(0xF6)
	hooks := &recordingHooks{}
	stack := NewStack(transport, hooks)

	partner := PartnerID(0x21)
	if err := stack.SendSetValue(partner, 5, DDISectionControlState, 1); err != nil {
		t.Fatalf("SendSetValue: %v", err)
	}
	if len(transport.Sent) != 1 {
		t.Fatalf("expected one sent frame, got %d", len(transport.Sent))
	}
	sent := transport.Sent[0]
	if sent.PGN.PDUFormat != PGNProcessData.PDUFormat || sent.PGN.PDUSpecific != 0x21 {
		t.Fatalf("unexpected PGN: %+v", sent.PGN)
	}
	got, err := DecodeProcessDataMessage(sent.Data)
	if err != nil {
		t.Fatalf("decode sent frame: %v", err)
	}
	if got.DDI != DDISectionControlState || got.ElementNumber != 5 || got.Value != 1 {
		t.Fatalf("unexpected sent message: %+v", got)
	}
}

func TestStackSendToUnknownPartnerFails(t *testing.T) {
	transport := NewFakeTransport(0xF6)
	stack := NewStack(transport, &recordingHooks{})

	// 0x1_0000_0000 doesn't fit in a uint8 CAN address, so addressOf's placeholder
	// fallback cannot resolve it and no address-claim frame ever bound it.
	if err := stack.SendSetValue(PartnerID(0x1_0000_0000), 1, 1, 1); err == nil {
		t.Fatalf("expected error for unresolvable partner")
	}
}
