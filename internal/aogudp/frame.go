// Package aogudp implements the small framed UDP protocol AgOpenGPS
// speaks over the LAN: two non-blocking sockets, subnet
// auto-discovery, and a handful of known PGNs (steer data, section
// control, subnet announce, heartbeat).
package aogudp

const (
	startByte0 = 0x80
	startByte1 = 0x81

	// maxBufferedBytes bounds the reassembly buffer, matching the
	// original source's fixed 512-byte receive buffer.
	maxBufferedBytes = 512
)

// Frame is one deframed AOG packet.
type Frame struct {
	Source  uint8
	PGN     uint8
	Payload []byte
}

func checksum(b []byte) byte {
	var sum byte
	for _, v := range b {
		sum += v
	}
	return sum
}

// buildFrame packs src/pgn/payload into a full wire frame, appending
// the checksum over [source, pgn, length, payload].
func buildFrame(src, pgn uint8, payload []byte) []byte {
	buf := make([]byte, 0, 5+len(payload)+1)
	buf = append(buf, startByte0, startByte1, src, pgn, byte(len(payload)))
	buf = append(buf, payload...)
	buf = append(buf, checksum(buf[2:]))
	return buf
}
