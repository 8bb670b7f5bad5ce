package tcserver

import (
	"github.com/lansalot/aog-taskcontroller/internal/ddop"
	"github.com/lansalot/aog-taskcontroller/internal/isobus"
	"github.com/lansalot/aog-taskcontroller/internal/tclog"
)

// Server is the task controller core: it implements isobus.Hooks and
// exposes the per-tick operations the event loop drives
// (RequestMeasurementCommands, UpdateSectionStates,
// UpdateSectionControlEnabled). It is a value type registered with
// isobus.Stack at construction — no inheritance from a CAN stack base
// class.
type Server struct {
	stack *isobus.Stack
	log   *tclog.Logger

	store         *Store
	pendingChunks map[isobus.PartnerID][][]byte

	snapshot snapshotCache
}

// NewServer constructs a Server. AttachStack must be called once the
// isobus.Stack wrapping this Server exists, since the two are
// mutually referential (the stack dispatches to the server's hooks;
// the server sends through the stack).
func NewServer(log *tclog.Logger) *Server {
	return &Server{
		log:           log,
		store:         newStore(),
		pendingChunks: make(map[isobus.PartnerID][][]byte),
	}
}

// AttachStack wires the isobus.Stack this server sends SET-VALUEs and
// measurement commands through.
func (s *Server) AttachStack(stack *isobus.Stack) { s.stack = stack }

// Store exposes the client store, e.g. for the event loop's heartbeat
// pass.
func (s *Server) Store() *Store { return s.store }

// --- isobus.Hooks ---

func (s *Server) StorePool(partner isobus.PartnerID, chunk []byte, appendMode bool) {
	cp := append([]byte(nil), chunk...)
	if !appendMode {
		s.pendingChunks[partner] = [][]byte{cp}
		return
	}
	s.pendingChunks[partner] = append(s.pendingChunks[partner], cp)
}

func (s *Server) ActivatePool(partner isobus.PartnerID) (ok bool, activationErr, poolErr uint8, parentObjectID, objectID uint16) {
	chunks, has := s.pendingChunks[partner]
	if !has || len(chunks) == 0 {
		return false, activationErrorNoPool, 0, 0, 0
	}

	pool, err := ddop.Deserialize(chunks)
	if err != nil {
		s.log.Warningf("activate_pool: partner %#x pool deserialisation failed: %v", partner, err)
		return false, activationErrorBadPool, poolErrorDeserialization, 0, 0
	}

	geometry := ddop.GetImplementGeometry(pool)
	numberOfSections := geometry.NumberOfSections()

	cs := newClientState(pool, numberOfSections)
	cs.UploadedChunks = chunks
	s.store.Put(partner, cs)
	delete(s.pendingChunks, partner)

	s.log.Infof("partner %#x activated: %d section(s) across %d boom(s)", partner, numberOfSections, len(geometry.Booms))
	return true, 0, 0, 0, 0
}

func (s *Server) DeactivatePool(partner isobus.PartnerID) {
	s.store.Remove(partner)
	delete(s.pendingChunks, partner)
}

func (s *Server) DeletePool(partner isobus.PartnerID) {
	s.store.Remove(partner)
	delete(s.pendingChunks, partner)
}

func (s *Server) PoolStoredByStructureLabel(partner isobus.PartnerID, label []byte) bool {
	return false
}

func (s *Server) PoolStoredByLocalizationLabel(partner isobus.PartnerID, label []byte) bool {
	return false
}

func (s *Server) EnoughMemory(size uint32) bool { return true }

func (s *Server) IdentifyTaskController(number uint8) {}

func (s *Server) OnClientTimeout(partner isobus.PartnerID) {
	s.log.Infof("partner %#x timed out", partner)
	s.store.Remove(partner)
}

func (s *Server) OnValueCommand(partner isobus.PartnerID, ddi, element uint16, value int32) (ok bool, errorCode uint8) {
	cs, has := s.store.Get(partner)
	if !has {
		return false, valueCommandErrorUnknownPartner
	}

	if window, isActual := isobus.ActualCondensedWorkStateWindow(ddi); isActual {
		cs.ApplyActualCondensedWorkState(window*16, uint32(value))
		return true, 0
	}

	switch ddi {
	case isobus.DDISectionControlState:
		cs.SectionControlEnabled = value == 1
	case isobus.DDIActualWorkState:
		// The original source writes this into setpoint_work_state,
		// almost certainly a bug; this implementation applies the
		// corrected behaviour (see DESIGN.md).
		cs.ActualWorkState = value == 1
	}

	return true, 0
}

func (s *Server) OnProcessDataAcknowledge(partner isobus.PartnerID, ddi, element uint16, errorCode uint8) {
	if errorCode != 0 {
		s.log.Warningf("partner %#x nacked ddi %#x element %d: error %d", partner, ddi, element, errorCode)
	}
}

func (s *Server) OnChangeDesignator(partner isobus.PartnerID, element uint16, designator string) bool {
	return true
}

const (
	activationErrorNoPool  uint8 = 1
	activationErrorBadPool uint8 = 2

	poolErrorDeserialization uint8 = 1

	valueCommandErrorUnknownPartner uint8 = 1
)
