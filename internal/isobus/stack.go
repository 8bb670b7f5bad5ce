package isobus

import "time"

// ClientTimeout is the silence duration after which a partner is
// considered gone.
const ClientTimeout = 6 * time.Second

// Stack dispatches received CAN frames to a Hooks implementation and
// offers the outbound message senders the task controller core drives
// from update_section_states/update_section_control_enabled/
// request_measurement_commands. It owns no client state of its own —
// that lives in tcserver.Server, reachable only through Hooks — so it
// needs no locking beyond what Transport already provides via its
// buffered frame channel.
type Stack struct {
	transport Transport
	hooks     Hooks
	priority  uint8

	Language LanguageCommand

	// partnerNames maps a CAN source address to the NAME last seen
	// claiming it. Until an address-claim frame is observed for an
	// address, frames from it are attributed to a placeholder NAME
	// equal to the address itself — a documented simplification, since
	// this module's address-claim procedure is not a full ISO 11783-5
	// implementation (see DESIGN.md).
	partnerNames map[uint8]PartnerID
	lastSeen     map[PartnerID]time.Time
}

// NewStack constructs a Stack over transport, dispatching to hooks.
func NewStack(transport Transport, hooks Hooks) *Stack {
	return &Stack{
		transport:    transport,
		hooks:        hooks,
		priority:     3,
		Language:     LanguageCommand{Language: "en", Country: "US"},
		partnerNames: make(map[uint8]PartnerID),
		lastSeen:     make(map[PartnerID]time.Time),
	}
}

func (s *Stack) partnerFor(source uint8) PartnerID {
	if name, ok := s.partnerNames[source]; ok {
		return name
	}
	return PartnerID(source)
}

// Update drains every frame currently queued on the transport and
// dispatches it, then checks for timed-out partners. It never blocks:
// this is the CAN half of the event loop's per-tick tc.update() call.
func (s *Stack) Update() {
	now := time.Now()
	for {
		select {
		case frame := <-s.transport.Frames():
			s.dispatch(frame, now)
		default:
			s.checkTimeouts(now)
			return
		}
	}
}

func (s *Stack) dispatch(frame Frame, now time.Time) {
	partner := s.partnerFor(frame.Source)
	s.lastSeen[partner] = now

	switch frame.PGN.PDUFormat {
	case PGNAddressClaim.PDUFormat:
		claim, err := DecodeAddressClaimFrame(frame.Data)
		if err != nil {
			return
		}
		delete(s.lastSeen, partner)
		s.partnerNames[frame.Source] = claim.NAME
		s.lastSeen[claim.NAME] = now

	case PGNPoolTransfer.PDUFormat:
		chunk, err := DecodePoolChunkFrame(frame.Data)
		if err != nil {
			return
		}
		s.hooks.StorePool(partner, chunk.Data, true)
		if chunk.Last {
			ok, activationErr, poolErr, parentObjectID, objectID := s.hooks.ActivatePool(partner)
			s.sendPoolControlResponse(frame.Source, PoolControlActivate, ok, activationErr, poolErr, parentObjectID, objectID)
		}

	case PGNPoolControl.PDUFormat:
		ctrl, err := DecodePoolControlMessage(frame.Data)
		if err != nil {
			return
		}
		switch ctrl.Opcode {
		case PoolControlDeactivate:
			s.hooks.DeactivatePool(partner)
		case PoolControlDelete:
			s.hooks.DeletePool(partner)
		}

	case PGNProcessData.PDUFormat:
		msg, err := DecodeProcessDataMessage(frame.Data)
		if err != nil {
			return
		}
		ok, errCode := s.hooks.OnValueCommand(partner, msg.DDI, msg.ElementNumber, msg.Value)
		if !ok {
			s.sendAck(frame.Source, msg.ElementNumber, msg.DDI, errCode)
		}

	case PGNProcessDataAck.PDUFormat:
		ack, err := DecodeProcessDataAckMessage(frame.Data)
		if err != nil {
			return
		}
		s.hooks.OnProcessDataAcknowledge(partner, ack.DDI, ack.ElementNumber, ack.ErrorCode)

	case PGNLanguageCommand.PDUFormat:
		// A bare request carries no payload of interest; answer with the
		// retained language/country pair.
		s.sendLanguageCommand(frame.Source)
	}
}

func (s *Stack) checkTimeouts(now time.Time) {
	for partner, seen := range s.lastSeen {
		if now.Sub(seen) > ClientTimeout {
			delete(s.lastSeen, partner)
			s.hooks.OnClientTimeout(partner)
		}
	}
}

func (s *Stack) sendAck(destAddress uint8, elementNumber, ddi uint16, errorCode uint8) {
	ack := ProcessDataAckMessage{ElementNumber: elementNumber, DDI: ddi, ErrorCode: errorCode}.Encode()
	pgn := PGN{DataPage: PGNProcessDataAck.DataPage, PDUFormat: PGNProcessDataAck.PDUFormat, PDUSpecific: destAddress}
	_ = s.transport.Send(s.priority, pgn, ack[:])
}

func (s *Stack) sendPoolControlResponse(destAddress uint8, opcode PoolControlOpcode, ok bool, activationErr, poolErr uint8, parentObjectID, objectID uint16) {
	resp := PoolControlResponse{
		Opcode:         opcode,
		OK:             ok,
		ActivationErr:  activationErr,
		PoolErr:        poolErr,
		ParentObjectID: parentObjectID,
		ObjectID:       objectID,
	}.Encode()
	pgn := PGN{DataPage: PGNPoolControl.DataPage, PDUFormat: PGNPoolControl.PDUFormat, PDUSpecific: destAddress}
	_ = s.transport.Send(s.priority, pgn, resp[:])
}

func (s *Stack) sendLanguageCommand(destAddress uint8) {
	var b [8]byte
	copy(b[0:2], s.Language.Language)
	copy(b[2:4], s.Language.Country)
	pgn := PGN{DataPage: PGNLanguageCommand.DataPage, PDUFormat: PGNLanguageCommand.PDUFormat, PDUSpecific: destAddress}
	_ = s.transport.Send(s.priority, pgn, b[:])
}

func (s *Stack) sendTo(destAddress uint8, pgnBase PGN, data []byte) error {
	pgn := PGN{DataPage: pgnBase.DataPage, PDUFormat: pgnBase.PDUFormat, PDUSpecific: destAddress}
	return s.transport.Send(s.priority, pgn, data)
}

func (s *Stack) addressOf(partner PartnerID) (uint8, bool) {
	for addr, name := range s.partnerNames {
		if name == partner {
			return addr, true
		}
	}
	if addr := uint8(partner); PartnerID(addr) == partner {
		return addr, true
	}
	return 0, false
}

// SendSetValue emits a SET-VALUE process-data command to partner.
func (s *Stack) SendSetValue(partner PartnerID, elementNumber, ddi uint16, value int32) error {
	addr, ok := s.addressOf(partner)
	if !ok {
		return errUnknownPartner(partner)
	}
	frame := ProcessDataMessage{ElementNumber: elementNumber, DDI: ddi, Value: value}.Encode()
	return s.sendTo(addr, PGNProcessData, frame[:])
}

// SendChangeThresholdMeasurementCommand subscribes partner to report
// ddi/elementNumber whenever it changes by more than threshold.
func (s *Stack) SendChangeThresholdMeasurementCommand(partner PartnerID, elementNumber, ddi uint16, threshold int32) error {
	addr, ok := s.addressOf(partner)
	if !ok {
		return errUnknownPartner(partner)
	}
	frame := MeasurementCommandMessage{
		ElementNumber: elementNumber,
		DDI:           ddi,
		Trigger:       MeasurementOnChange,
		Threshold:     threshold,
	}.Encode()
	return s.sendTo(addr, PGNProcessData, frame[:])
}

// SendTimeIntervalMeasurementCommand subscribes partner to report
// ddi/elementNumber every intervalMS milliseconds.
func (s *Stack) SendTimeIntervalMeasurementCommand(partner PartnerID, elementNumber, ddi uint16, intervalMS uint32) error {
	addr, ok := s.addressOf(partner)
	if !ok {
		return errUnknownPartner(partner)
	}
	frame := MeasurementCommandMessage{
		ElementNumber: elementNumber,
		DDI:           ddi,
		Trigger:       MeasurementTimeInterval,
		IntervalMS:    intervalMS,
	}.Encode()
	return s.sendTo(addr, PGNProcessData, frame[:])
}

// Terminate shuts the underlying transport down.
func (s *Stack) Terminate() error {
	return s.transport.Close()
}

type unknownPartnerError struct{ partner PartnerID }

func (e unknownPartnerError) Error() string {
	return "isobus: unknown partner"
}

func errUnknownPartner(partner PartnerID) error { return unknownPartnerError{partner} }
