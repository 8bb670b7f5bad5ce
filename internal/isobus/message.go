package isobus

import (
	"encoding/binary"
	"fmt"
)

// SectionState is the 2-bit code a condensed work state packs 16 of.
type SectionState uint8

const (
	SectionOff SectionState = iota
	SectionOn
	SectionError
	SectionNotInstalled
)

// PackSectionStates packs up to 16 section states into a 32-bit
// condensed work state word, little-endian in the two-bit slots:
// section i occupies bits 2i..2i+1. Missing trailing sections (when
// fewer than 16 are given) are packed as SectionNotInstalled.
func PackSectionStates(states []SectionState) uint32 {
	var word uint32
	for i := 0; i < 16; i++ {
		s := SectionNotInstalled
		if i < len(states) {
			s = states[i]
		}
		word |= uint32(s&0x03) << uint(2*i)
	}
	return word
}

// UnpackSectionStates unpacks the low 2*n bits of word into n section
// states.
func UnpackSectionStates(word uint32, n int) []SectionState {
	states := make([]SectionState, n)
	for i := 0; i < n; i++ {
		states[i] = SectionState((word >> uint(2*i)) & 0x03)
	}
	return states
}

// ProcessDataMessage is a SET-VALUE process-data command: a DDI/element
// pair carrying a signed 32-bit value, the ISO 11783-10 message shape
// used for both setpoint and actual condensed work states, section
// control mode and overall work state.
type ProcessDataMessage struct {
	ElementNumber uint16
	DDI           uint16
	Value         int32
}

// Encode packs m into the 8-byte single-frame payload this module uses
// on PGNProcessData: element number (2B LE), DDI (2B LE), value (4B LE).
func (m ProcessDataMessage) Encode() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint16(b[0:2], m.ElementNumber)
	binary.LittleEndian.PutUint16(b[2:4], m.DDI)
	binary.LittleEndian.PutUint32(b[4:8], uint32(m.Value))
	return b
}

// DecodeProcessDataMessage is the inverse of Encode.
func DecodeProcessDataMessage(data []byte) (ProcessDataMessage, error) {
	if len(data) < 8 {
		return ProcessDataMessage{}, fmt.Errorf("isobus: short process data frame (%d bytes)", len(data))
	}
	return ProcessDataMessage{
		ElementNumber: binary.LittleEndian.Uint16(data[0:2]),
		DDI:           binary.LittleEndian.Uint16(data[2:4]),
		Value:         int32(binary.LittleEndian.Uint32(data[4:8])),
	}, nil
}

// MeasurementTrigger selects which subscription request a measurement
// command message carries.
type MeasurementTrigger uint8

const (
	MeasurementOnChange MeasurementTrigger = iota
	MeasurementTimeInterval
)

// MeasurementCommandMessage subscribes a client to report a DDI/element
// either on change (with Threshold) or periodically (with IntervalMS).
type MeasurementCommandMessage struct {
	ElementNumber uint16
	DDI           uint16
	Trigger       MeasurementTrigger
	Threshold     int32 // meaningful when Trigger == MeasurementOnChange
	IntervalMS    uint32 // meaningful when Trigger == MeasurementTimeInterval
}

// Encode packs the message into the same 8-byte layout as
// ProcessDataMessage, with the trigger folded into the top bit of the
// element number field (element numbers never use bit 15) and the
// threshold/interval sharing the value field.
func (m MeasurementCommandMessage) Encode() [8]byte {
	elementField := m.ElementNumber & 0x7FFF
	if m.Trigger == MeasurementTimeInterval {
		elementField |= 0x8000
	}
	value := m.Threshold
	if m.Trigger == MeasurementTimeInterval {
		value = int32(m.IntervalMS)
	}
	return ProcessDataMessage{ElementNumber: elementField, DDI: m.DDI, Value: value}.Encode()
}

// DecodeMeasurementCommandMessage is the inverse of Encode.
func DecodeMeasurementCommandMessage(data []byte) (MeasurementCommandMessage, error) {
	pd, err := DecodeProcessDataMessage(data)
	if err != nil {
		return MeasurementCommandMessage{}, err
	}
	m := MeasurementCommandMessage{ElementNumber: pd.ElementNumber & 0x7FFF, DDI: pd.DDI}
	if pd.ElementNumber&0x8000 != 0 {
		m.Trigger = MeasurementTimeInterval
		m.IntervalMS = uint32(pd.Value)
	} else {
		m.Trigger = MeasurementOnChange
		m.Threshold = pd.Value
	}
	return m, nil
}

// ProcessDataAckMessage acknowledges a client-originated SET-VALUE.
type ProcessDataAckMessage struct {
	ElementNumber uint16
	DDI           uint16
	ErrorCode     uint8
}

func (m ProcessDataAckMessage) Encode() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint16(b[0:2], m.ElementNumber)
	binary.LittleEndian.PutUint16(b[2:4], m.DDI)
	b[4] = m.ErrorCode
	return b
}

func DecodeProcessDataAckMessage(data []byte) (ProcessDataAckMessage, error) {
	if len(data) < 5 {
		return ProcessDataAckMessage{}, fmt.Errorf("isobus: short ack frame (%d bytes)", len(data))
	}
	return ProcessDataAckMessage{
		ElementNumber: binary.LittleEndian.Uint16(data[0:2]),
		DDI:           binary.LittleEndian.Uint16(data[2:4]),
		ErrorCode:     data[4],
	}, nil
}
