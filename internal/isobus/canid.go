package isobus

// CAN identifier bit-packing, generalized from ssokol-rcdcan's makeCanID/
// extractClass/extractFunction (rcdcan.go) into the J1939/ISO 11783
// 29-bit extended identifier layout: 3-bit priority, an 18-bit PGN
// (reserved/data-page/PDU-format/PDU-specific), and an 8-bit source
// address.

const effFlag uint32 = 1 << 31

const (
	posSourceAddress = 0
	posPDUSpecific   = 8
	posPDUFormat     = 16
	posDataPage      = 24
	posPriority      = 26
)

// PGN is an 18-bit J1939 parameter group number, held here as (data
// page, PDU format, PDU specific) rather than decomposed further; when
// PDUFormat < 240 the PDU-specific byte is a destination address
// (PDU1), otherwise it is a group extension (PDU2).
type PGN struct {
	DataPage   uint8
	PDUFormat  uint8
	PDUSpecific uint8
}

// PGNProcessData is the single-frame process-data PGN this module uses
// to carry SET-VALUE / command frames between the task controller and
// an implement. It is a PDU1-format PGN: PDUSpecific in the CAN ID
// carries the destination address.
var PGNProcessData = PGN{DataPage: 0, PDUFormat: 0xCB}

// PGNPoolTransfer carries chunked DDOP upload frames.
var PGNPoolTransfer = PGN{DataPage: 0, PDUFormat: 0xCC}

// PGNPoolControl carries pool lifecycle opcodes (activate/deactivate/
// delete) from a client and the task controller's activation response.
var PGNPoolControl = PGN{DataPage: 0, PDUFormat: 0xCD}

// PGNProcessDataAck carries acknowledgements of client-originated
// SET-VALUE commands.
var PGNProcessDataAck = PGN{DataPage: 0, PDUFormat: 0xCA}

// PGNAddressClaim is the standard J1939 address-claim PGN, used here in
// the simplified single-round contention procedure described in
// DESIGN.md.
var PGNAddressClaim = PGN{DataPage: 0, PDUFormat: 0xEE, PDUSpecific: 0x00}

// PGNLanguageCommand carries the language/country command PDU.
var PGNLanguageCommand = PGN{DataPage: 0, PDUFormat: 0xFE, PDUSpecific: 0x0B}

func makeCANID(priority uint8, pgn PGN, source uint8) uint32 {
	id := uint32(0)
	id |= (uint32(priority) & 0x07) << posPriority
	id |= (uint32(pgn.DataPage) & 0x01) << posDataPage
	id |= uint32(pgn.PDUFormat) << posPDUFormat
	id |= uint32(pgn.PDUSpecific) << posPDUSpecific
	id |= uint32(source) << posSourceAddress
	id |= effFlag
	return id
}

func extractPGN(id uint32) PGN {
	return PGN{
		DataPage:    uint8((id >> posDataPage) & 0x01),
		PDUFormat:   uint8((id >> posPDUFormat) & 0xFF),
		PDUSpecific: uint8((id >> posPDUSpecific) & 0xFF),
	}
}

func extractSourceAddress(id uint32) uint8 {
	return uint8((id >> posSourceAddress) & 0xFF)
}

func extractPriority(id uint32) uint8 {
	return uint8((id >> posPriority) & 0x07)
}

// isExtended reports whether the 29-bit extended-frame flag is set.
func isExtended(id uint32) bool {
	return id&effFlag != 0
}
