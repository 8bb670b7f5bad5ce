package isobus

import (
	"encoding/binary"
	"fmt"
	"time"
)

// PreferredAddress is this server's default bus address, modeled after
// isobus_preferred_addresses' TaskController_MappingComputer entry.
const PreferredAddress uint8 = 0xF6

// AddressClaimFrame is the standard J1939 address-claim payload: a
// NAME broadcast on the claimed address.
type AddressClaimFrame struct {
	NAME NAME
}

func (f AddressClaimFrame) Encode() [8]byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], uint64(f.NAME))
	return b
}

func DecodeAddressClaimFrame(data []byte) (AddressClaimFrame, error) {
	if len(data) < 8 {
		return AddressClaimFrame{}, fmt.Errorf("isobus: short address claim frame (%d bytes)", len(data))
	}
	return AddressClaimFrame{NAME: NAME(binary.LittleEndian.Uint64(data[:8]))}, nil
}

// ClaimAddress runs a deliberately simplified single-round address
// claim: broadcast a claim for preferred, then listen for listenFor —
// if a competing claim for the same address arrives from a different
// NAME, contention is deemed to have failed. This intentionally skips
// the full ISO 11783-5 contention algorithm (name-priority comparison
// and cascading re-claim), documented as a simplification in
// DESIGN.md.
func ClaimAddress(t Transport, name NAME, preferred uint8, listenFor time.Duration) (uint8, error) {
	claim := AddressClaimFrame{NAME: name}.Encode()
	if err := t.Send(6, PGNAddressClaim, claim[:]); err != nil {
		return 0, fmt.Errorf("isobus: broadcasting address claim: %w", err)
	}

	deadline := time.NewTimer(listenFor)
	defer deadline.Stop()

	for {
		select {
		case frame := <-t.Frames():
			if frame.PGN.PDUFormat != PGNAddressClaim.PDUFormat {
				continue
			}
			if frame.Source != preferred {
				continue
			}
			claimant, err := DecodeAddressClaimFrame(frame.Data)
			if err != nil {
				continue
			}
			if claimant.NAME != name {
				return 0, fmt.Errorf("isobus: address 0x%02X contended by NAME %#x", preferred, claimant.NAME)
			}
		case <-deadline.C:
			return preferred, nil
		}
	}
}
