package aogudp

import (
	"testing"

	"github.com/lansalot/aog-taskcontroller/internal/tclog"
)

func TestChecksumRoundTrip(t *testing.T) {
	payload := []byte{1, 2, 3, 4}
	frame := buildFrame(0x80, 0xF0, payload)

	want := checksum(frame[2 : len(frame)-1])
	got := frame[len(frame)-1]
	if got != want {
		t.Fatalf("checksum mismatch: got %d want %d", got, want)
	}

	if frame[0] != startByte0 || frame[1] != startByte1 {
		t.Fatalf("bad start-of-packet bytes")
	}
	if frame[2] != 0x80 || frame[3] != 0xF0 || frame[4] != byte(len(payload)) {
		t.Fatalf("bad header fields")
	}
}

func TestFrameReaderDispatchesCompleteFrames(t *testing.T) {
	log := tclog.New(tclog.LevelCritical)
	var got []Frame
	reader := newFrameReader("test", log, false, func(f Frame) { got = append(got, f) })

	frame1 := buildFrame(0x7F, PGNSectionControl, []byte{1})
	frame2 := buildFrame(0x7F, PGNSteerData, []byte{10, 0, 0, 0, 0, 0, 0b011, 0})

	// Feed both frames split across two calls to exercise reassembly.
	combined := append(append([]byte{}, frame1...), frame2...)
	reader.feed(combined[:3])
	reader.feed(combined[3:])

	if len(got) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(got))
	}
	if got[0].PGN != PGNSectionControl || got[1].PGN != PGNSteerData {
		t.Fatalf("unexpected frame order: %+v", got)
	}
}

func TestFrameReaderDiscardsOnBadStart(t *testing.T) {
	log := tclog.New(tclog.LevelCritical)
	var got []Frame
	reader := newFrameReader("test", log, false, func(f Frame) { got = append(got, f) })

	reader.feed([]byte{0xFF, 0xFF, 0, 0, 0, 0})
	if len(got) != 0 {
		t.Fatalf("expected no frames from a bad start-of-packet")
	}

	frame := buildFrame(0x7F, PGNSectionControl, []byte{1})
	reader.feed(frame)
	if len(got) != 1 {
		t.Fatalf("expected reader to recover and parse the next valid frame")
	}
}

func TestFrameReaderRejectsBadChecksum(t *testing.T) {
	log := tclog.New(tclog.LevelCritical)
	var got []Frame
	reader := newFrameReader("test", log, false, func(f Frame) { got = append(got, f) })

	frame := buildFrame(0x7F, PGNSectionControl, []byte{1})
	frame[len(frame)-1] ^= 0xFF
	reader.feed(frame)
	if len(got) != 0 {
		t.Fatalf("expected corrupted frame to be dropped")
	}
}

func TestDecodeSteerFrame(t *testing.T) {
	payload := []byte{100, 0, 0, 0, 0, 0, 0b00000011, 0}
	steer, ok := DecodeSteerFrame(payload)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if steer.SpeedTenthsKmh != 100 {
		t.Fatalf("expected speed 100, got %d", steer.SpeedTenthsKmh)
	}
	sections := steer.DesiredSections(3)
	if !sections[0] || !sections[1] || sections[2] {
		t.Fatalf("unexpected desired sections: %v", sections)
	}
}

func TestSpeedConversion(t *testing.T) {
	// 100 tenths km/h == 10.0 km/h == 2777.77.. mm/s
	got := SpeedTenthsKmhToMmPerSec(100)
	if got != 2777 {
		t.Fatalf("expected 2777mm/s, got %d", got)
	}
}

func TestDecodeSubnetAnnounceFrame(t *testing.T) {
	payload := []byte{0xC9, 0xC9, 16, 32, 48}
	announce, ok := DecodeSubnetAnnounceFrame(payload)
	if !ok {
		t.Fatalf("expected decode to succeed")
	}
	if announce.A != 16 || announce.B != 32 || announce.C != 48 {
		t.Fatalf("unexpected announce: %+v", announce)
	}

	if _, ok := DecodeSubnetAnnounceFrame([]byte{1, 2, 3}); ok {
		t.Fatalf("expected short/malformed payload to fail")
	}
}
