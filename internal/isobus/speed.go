package isobus

import "time"

// DDIWheelBasedMachineSpeed carries the navigation-derived ground speed
// in mm/s, broadcast cyclically the way a real ISO 11783 speed message
// PGN would be.
const DDIWheelBasedMachineSpeed uint16 = 0x00F0

// broadcastAddress is used as the PDU-specific byte for messages with
// no single destination, standing in for a proper PDU2-format PGN.
const broadcastAddress uint8 = 0xFF

// SpeedInterface cyclically broadcasts the current machine speed,
// mirroring speed_interface.update() in the original source.
type SpeedInterface struct {
	stack         *Stack
	interval      time.Duration
	lastSent      time.Time
	speedMMPerSec int32
}

// NewSpeedInterface constructs a SpeedInterface broadcasting at most
// once per interval.
func NewSpeedInterface(stack *Stack, interval time.Duration) *SpeedInterface {
	return &SpeedInterface{stack: stack, interval: interval}
}

// SetSpeed updates the speed value the next broadcast will carry.
func (s *SpeedInterface) SetSpeed(mmPerSec int32) { s.speedMMPerSec = mmPerSec }

// Update broadcasts the current speed if interval has elapsed since
// the last broadcast.
func (s *SpeedInterface) Update(now time.Time) {
	if now.Sub(s.lastSent) < s.interval {
		return
	}
	s.lastSent = now
	frame := ProcessDataMessage{DDI: DDIWheelBasedMachineSpeed, Value: s.speedMMPerSec}.Encode()
	pgn := PGN{DataPage: PGNProcessData.DataPage, PDUFormat: PGNProcessData.PDUFormat, PDUSpecific: broadcastAddress}
	_ = s.stack.transport.Send(s.stack.priority, pgn, frame[:])
}
