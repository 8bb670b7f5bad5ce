package isobus

import "testing"

func TestPackUnpackSectionStatesRoundTrip(t *testing.T) {
	states := []SectionState{SectionOn, SectionOff, SectionOn, SectionError}
	word := PackSectionStates(states)
	got := UnpackSectionStates(word, len(states))
	for i, want := range states {
		if got[i] != want {
			t.Fatalf("section %d: got %v want %v", i, got[i], want)
		}
	}
}

func TestPackSectionStatesPadsNotInstalled(t *testing.T) {
	word := PackSectionStates([]SectionState{SectionOn})
	got := UnpackSectionStates(word, 16)
	if got[0] != SectionOn {
		t.Fatalf("expected section 0 on, got %v", got[0])
	}
	for i := 1; i < 16; i++ {
		if got[i] != SectionNotInstalled {
			t.Fatalf("expected section %d not-installed, got %v", i, got[i])
		}
	}
}

func TestProcessDataMessageRoundTrip(t *testing.T) {
	msg := ProcessDataMessage{ElementNumber: 5, DDI: DDIActualWorkState, Value: -12345}
	frame := msg.Encode()
	got, err := DecodeProcessDataMessage(frame[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != msg {
		t.Fatalf("got %+v want %+v", got, msg)
	}
}

func TestMeasurementCommandMessageRoundTrip(t *testing.T) {
	onChange := MeasurementCommandMessage{ElementNumber: 7, DDI: 0x100, Trigger: MeasurementOnChange, Threshold: 1}
	f := onChange.Encode()
	got, err := DecodeMeasurementCommandMessage(f[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got != onChange {
		t.Fatalf("got %+v want %+v", got, onChange)
	}

	interval := MeasurementCommandMessage{ElementNumber: 7, DDI: 0x100, Trigger: MeasurementTimeInterval, IntervalMS: 1000}
	f2 := interval.Encode()
	got2, err := DecodeMeasurementCommandMessage(f2[:])
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got2 != interval {
		t.Fatalf("got %+v want %+v", got2, interval)
	}
}

func TestCondensedWorkStateWindows(t *testing.T) {
	if ddi := ActualCondensedWorkStateDDI(0); ddi != DDIActualCondensedWorkStateBase {
		t.Fatalf("window 0 ddi = %#x", ddi)
	}
	window, ok := ActualCondensedWorkStateWindow(ActualCondensedWorkStateDDI(3))
	if !ok || window != 3 {
		t.Fatalf("expected window 3, got %d ok=%v", window, ok)
	}
	if _, ok := ActualCondensedWorkStateWindow(DDIActualWorkState); ok {
		t.Fatalf("ActualWorkState DDI should not fall in the condensed window range")
	}
}

func TestPoolChunkRoundTrip(t *testing.T) {
	pool := []byte("DPone-two-three-boom-section-data")
	chunks := SplitPoolChunks(pool)

	var reassembled []byte
	for i, c := range chunks {
		frame, err := c.Encode()
		if err != nil {
			t.Fatalf("encode chunk %d: %v", i, err)
		}
		decoded, err := DecodePoolChunkFrame(frame[:])
		if err != nil {
			t.Fatalf("decode chunk %d: %v", i, err)
		}
		reassembled = append(reassembled, decoded.Data...)
		if i == len(chunks)-1 && !decoded.Last {
			t.Fatalf("expected last chunk to be flagged")
		}
		if i != len(chunks)-1 && decoded.Last {
			t.Fatalf("chunk %d should not be flagged last", i)
		}
	}

	if string(reassembled) != string(pool) {
		t.Fatalf("reassembled %q want %q", reassembled, pool)
	}
}
