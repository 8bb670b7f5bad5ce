package aogudp

// Known source ids and PGNs on the AOG wire protocol.
const (
	SourceAOG uint8 = 0x7F
	SourceTC  uint8 = 0x80

	PGNSteerData      uint8 = 0xFE
	PGNSectionControl uint8 = 0xF1
	PGNSubnetAnnounce uint8 = 0xC9
	PGNHeartbeat      uint8 = 0xF0
)

// SteerFrame is the decoded "Steer Data" PGN: navigation speed, an
// unused status byte, and the desired section-on bitmap.
type SteerFrame struct {
	SpeedTenthsKmh uint16
	// Status is decoded but not consumed: in the original source it
	// only gates an NMEA2000 cross-track-error emission in one variant,
	// out of scope here.
	Status        byte
	DesiredOnBits uint16
}

// DecodeSteerFrame parses payload[0..1] as little-endian tenths of
// km/h, payload[2] as the status byte, and payload[6..7] as a
// little-endian 16-bit desired-section-on bitmap.
func DecodeSteerFrame(payload []byte) (SteerFrame, bool) {
	if len(payload) < 8 {
		return SteerFrame{}, false
	}
	return SteerFrame{
		SpeedTenthsKmh: uint16(payload[0]) | uint16(payload[1])<<8,
		Status:         payload[2],
		DesiredOnBits:  uint16(payload[6]) | uint16(payload[7])<<8,
	}, true
}

// DesiredSections expands DesiredOnBits into an n-length bool slice,
// padded with false past the 16 bits carried on the wire.
func (f SteerFrame) DesiredSections(n int) []bool {
	out := make([]bool, n)
	for i := 0; i < n && i < 16; i++ {
		out[i] = f.DesiredOnBits&(1<<uint(i)) != 0
	}
	return out
}

// SpeedTenthsKmhToMmPerSec converts tenths-of-km/h to mm/s using the
// mathematically correct integer form; the original source alternates
// between this and an incorrect ×1000/36 shortcut.
func SpeedTenthsKmhToMmPerSec(tenthsKmh uint16) int32 {
	return int32(int64(tenthsKmh) * 100000 / 3600)
}

// DecodeSectionControlFrame parses the "Section Control" PGN: a single
// enable byte.
func DecodeSectionControlFrame(payload []byte) (enabled bool, ok bool) {
	if len(payload) < 1 {
		return false, false
	}
	return payload[0] == 1, true
}

// SubnetAnnounceFrame is the decoded discovery-socket "Subnet
// Announcement" PGN.
type SubnetAnnounceFrame struct {
	A, B, C byte
}

// DecodeSubnetAnnounceFrame validates and parses a subnet announcement:
// payload[0..1] must both be 0xC9, payload[2..4] carry the new prefix.
func DecodeSubnetAnnounceFrame(payload []byte) (SubnetAnnounceFrame, bool) {
	if len(payload) < 5 || payload[0] != 0xC9 || payload[1] != 0xC9 {
		return SubnetAnnounceFrame{}, false
	}
	return SubnetAnnounceFrame{A: payload[2], B: payload[3], C: payload[4]}, true
}
