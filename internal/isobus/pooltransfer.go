package isobus

import (
	"encoding/binary"
	"fmt"
)

// PoolChunkFrame carries up to 6 bytes of a DDOP being uploaded across
// PGNPoolTransfer, single-frame at a time — a simple multi-packet
// transfer scheme standing in for ISO 11783's transport protocol
// (TP/ETP), whose fragmentation timing this module does not model.
type PoolChunkFrame struct {
	Last bool
	Data []byte // at most 6 bytes
}

// Encode packs the chunk into an 8-byte frame: byte0 bit0 = last-chunk
// flag, byte1 = payload length, byte2.. = payload.
func (c PoolChunkFrame) Encode() ([8]byte, error) {
	var b [8]byte
	if len(c.Data) > 6 {
		return b, fmt.Errorf("isobus: pool chunk too long (%d bytes)", len(c.Data))
	}
	if c.Last {
		b[0] = 1
	}
	b[1] = byte(len(c.Data))
	copy(b[2:], c.Data)
	return b, nil
}

// DecodePoolChunkFrame is the inverse of Encode.
func DecodePoolChunkFrame(data []byte) (PoolChunkFrame, error) {
	if len(data) < 2 {
		return PoolChunkFrame{}, fmt.Errorf("isobus: short pool chunk frame (%d bytes)", len(data))
	}
	n := int(data[1])
	if 2+n > len(data) {
		return PoolChunkFrame{}, fmt.Errorf("isobus: pool chunk length %d exceeds frame", n)
	}
	return PoolChunkFrame{
		Last: data[0]&0x01 != 0,
		Data: append([]byte(nil), data[2:2+n]...),
	}, nil
}

// SplitPoolChunks splits a raw DDOP byte slice into the sequence of
// PoolChunkFrame values needed to transfer it, six bytes at a time.
func SplitPoolChunks(pool []byte) []PoolChunkFrame {
	if len(pool) == 0 {
		return []PoolChunkFrame{{Last: true}}
	}
	var frames []PoolChunkFrame
	for off := 0; off < len(pool); off += 6 {
		end := off + 6
		if end > len(pool) {
			end = len(pool)
		}
		frames = append(frames, PoolChunkFrame{Data: pool[off:end]})
	}
	frames[len(frames)-1].Last = true
	return frames
}

// PoolControlOpcode selects which pool lifecycle operation a
// PoolControlMessage requests, carried on PGNPoolControl.
type PoolControlOpcode uint8

const (
	PoolControlActivate PoolControlOpcode = iota
	PoolControlDeactivate
	PoolControlDelete
)

// PoolControlMessage is a client-originated (or, for Activate, stack-
// originated after the last upload chunk) pool lifecycle request.
type PoolControlMessage struct {
	Opcode PoolControlOpcode
}

func (m PoolControlMessage) Encode() [8]byte {
	var b [8]byte
	b[0] = byte(m.Opcode)
	return b
}

// DecodePoolControlMessage is the inverse of Encode.
func DecodePoolControlMessage(data []byte) (PoolControlMessage, error) {
	if len(data) < 1 {
		return PoolControlMessage{}, fmt.Errorf("isobus: short pool control frame (%d bytes)", len(data))
	}
	return PoolControlMessage{Opcode: PoolControlOpcode(data[0])}, nil
}

// PoolControlResponse answers a PoolControlActivate request with the
// result of Hooks.ActivatePool, mirroring the ISO 11783-10 Object Pool
// Activate/Deactivate Response's error-bits-plus-object-id shape.
type PoolControlResponse struct {
	Opcode         PoolControlOpcode
	OK             bool
	ActivationErr  uint8
	PoolErr        uint8
	ParentObjectID uint16
	ObjectID       uint16
}

// Encode packs the response into 8 bytes: opcode, ok flag, activation
// error, pool error, parent object id (2B LE), object id (2B LE).
func (m PoolControlResponse) Encode() [8]byte {
	var b [8]byte
	b[0] = byte(m.Opcode)
	if m.OK {
		b[1] = 1
	}
	b[2] = m.ActivationErr
	b[3] = m.PoolErr
	binary.LittleEndian.PutUint16(b[4:6], m.ParentObjectID)
	binary.LittleEndian.PutUint16(b[6:8], m.ObjectID)
	return b
}
