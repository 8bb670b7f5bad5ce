package isobus

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/brutella/can"
)

// Frame is a received CAN frame decoded down to the fields this module
// cares about.
type Frame struct {
	Source   uint8
	Priority uint8
	PGN      PGN
	Data     []byte
}

// Transport is the CAN bus abstraction the rest of isobus and tcserver
// depend on. Received frames arrive on a buffered channel drained
// exclusively by the event loop goroutine, so no lock is needed around
// client state — grounded on the channel-based dispatch idiom in
// ssokol-rcdcan's bus.SubscribeFunc callback (there feeding a
// mutex-guarded RcdState; here generalized to a channel instead of a
// mutex).
type Transport interface {
	// Send transmits data (up to 8 bytes) as a single CAN frame with the
	// given priority, PGN and this transport's source address.
	Send(priority uint8, pgn PGN, data []byte) error
	// Frames returns the channel received frames are delivered on.
	Frames() <-chan Frame
	// SourceAddress is this node's current bus address.
	SourceAddress() uint8
	// Close shuts the transport down.
	Close() error
}

// CANBusTransport wraps github.com/brutella/can, the one CAN backend
// present in the retrieved corpus (ssokol-rcdcan/rcdcan.go).
type CANBusTransport struct {
	bus     *can.Bus
	conn    can.ReadWriteCloser
	source  uint8
	frames  chan Frame
	dropped uint64
}

// NewCANBusTransport opens ifaceName (e.g. "can0") and starts pumping
// received frames into the returned transport's channel. Callers must
// still invoke Run to actually service the bus (brutella/can's
// ConnectAndPublish call blocks, mirroring rcdcan.go's main()).
func NewCANBusTransport(ifaceName string, source uint8, queueDepth int) (*CANBusTransport, error) {
	iface, err := net.InterfaceByName(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("isobus: CAN interface %s not found: %w", ifaceName, err)
	}

	conn, err := can.NewReadWriteCloserForInterface(iface)
	if err != nil {
		return nil, fmt.Errorf("isobus: opening CAN bus %s: %w", ifaceName, err)
	}

	t := &CANBusTransport{
		bus:    can.NewBus(conn),
		conn:   conn,
		source: source,
		frames: make(chan Frame, queueDepth),
	}
	t.bus.SubscribeFunc(t.handleFrame)
	return t, nil
}

func (t *CANBusTransport) handleFrame(f can.Frame) {
	if !isExtended(f.ID) {
		return
	}
	frame := Frame{
		Source:   extractSourceAddress(f.ID),
		Priority: extractPriority(f.ID),
		PGN:      extractPGN(f.ID),
		Data:     append([]byte(nil), f.Data[:f.Length]...),
	}
	select {
	case t.frames <- frame:
	default:
		atomic.AddUint64(&t.dropped, 1)
	}
}

// Run services the bus, blocking until the connection closes. Callers
// should invoke this in its own goroutine.
func (t *CANBusTransport) Run() error {
	return t.bus.ConnectAndPublish()
}

func (t *CANBusTransport) Send(priority uint8, pgn PGN, data []byte) error {
	if len(data) > 8 {
		return fmt.Errorf("isobus: frame payload too long (%d bytes)", len(data))
	}
	frame := can.Frame{
		ID:     makeCANID(priority, pgn, t.source),
		Length: uint8(len(data)),
	}
	copy(frame.Data[:], data)
	return t.bus.Publish(frame)
}

func (t *CANBusTransport) Frames() <-chan Frame { return t.frames }

func (t *CANBusTransport) SourceAddress() uint8 { return t.source }

// DroppedFrames returns the number of received frames discarded because
// the channel buffer was full.
func (t *CANBusTransport) DroppedFrames() uint64 { return atomic.LoadUint64(&t.dropped) }

func (t *CANBusTransport) Close() error {
	return t.bus.Disconnect()
}

// FakeTransport is an in-memory Transport for tests: Send appends to
// Sent instead of touching real hardware, and tests inject inbound
// traffic with Deliver, which pushes onto the buffered channel that
// Frames() returns.
type FakeTransport struct {
	source uint8
	frames chan Frame
	Sent   []SentFrame
}

// SentFrame records one outbound Send call.
type SentFrame struct {
	Priority uint8
	PGN      PGN
	Data     []byte
}

func NewFakeTransport(source uint8) *FakeTransport {
	return &FakeTransport{source: source, frames: make(chan Frame, 64)}
}

func (t *FakeTransport) Send(priority uint8, pgn PGN, data []byte) error {
	cp := append([]byte(nil), data...)
	t.Sent = append(t.Sent, SentFrame{Priority: priority, PGN: pgn, Data: cp})
	return nil
}

func (t *FakeTransport) Frames() <-chan Frame { return t.frames }

func (t *FakeTransport) SourceAddress() uint8 { return t.source }

// Deliver injects an inbound frame as if it arrived over the bus.
func (t *FakeTransport) Deliver(f Frame) { t.frames <- f }

func (t *FakeTransport) Close() error { close(t.frames); return nil }
