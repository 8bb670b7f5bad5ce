package ddop

import "testing"

// buildFixture constructs a pool with one device, one boom (element 5)
// carrying three sections (element numbers 10, 11, 12), and a single
// DeviceProcessData object for ActualCondensedWorkState1_16 parented by
// the boom element.
func buildFixture() []Object {
	const (
		idDevice        = 1
		idBoom          = 2
		idSection10     = 3
		idSection11     = 4
		idSection12     = 5
		idActualWorkPD  = 6
		idXOffsetProp   = 7
	)

	device := &DeviceObject{baseObject{idDevice}}
	boom := &DeviceElementObject{
		baseObject:     baseObject{idBoom},
		ElementType:    ElementTypeFunction,
		FunctionType:   FunctionTypeBoom,
		ElementNumber:  5,
		ParentObjectID: idDevice,
		ChildObjectIDs: []uint16{idSection10, idSection11, idSection12, idActualWorkPD},
	}
	deviceElement := &DeviceElementObject{
		baseObject:     baseObject{idDevice},
		ElementType:    ElementTypeDevice,
		ParentObjectID: NoParent,
		ChildObjectIDs: []uint16{idBoom},
	}
	section10 := &DeviceElementObject{
		baseObject:     baseObject{idSection10},
		ElementType:    ElementTypeSection,
		ElementNumber:  10,
		ParentObjectID: idBoom,
		ChildObjectIDs: []uint16{idXOffsetProp},
	}
	section11 := &DeviceElementObject{
		baseObject:     baseObject{idSection11},
		ElementType:    ElementTypeSection,
		ElementNumber:  11,
		ParentObjectID: idBoom,
	}
	section12 := &DeviceElementObject{
		baseObject:     baseObject{idSection12},
		ElementType:    ElementTypeSection,
		ElementNumber:  12,
		ParentObjectID: idBoom,
	}
	actualWorkPD := &DeviceProcessDataObject{
		baseObject: baseObject{idActualWorkPD},
		DDI:        0xA0, // ActualCondensedWorkState1_16, see internal/isobus/ddi.go
		Triggers:   TriggerOnChange | TriggerTimeInterval,
	}
	xOffset := &DevicePropertyObject{
		baseObject: baseObject{idXOffsetProp},
		DDI:        PropertyDDIXOffset,
		ValueMM:    150,
	}

	// Note device appears twice conceptually (root Device object vs. its
	// DeviceElement wrapper); real pools always carry both. Return the
	// DeviceElement (used for tree walking) not the bare DeviceObject to
	// keep this fixture minimal, plus everything else.
	_ = device
	return []Object{deviceElement, boom, section10, section11, section12, actualWorkPD, xOffset}
}

func TestDeserializeAndGeometry(t *testing.T) {
	data := Encode(buildFixture())

	// Split into two chunks to exercise the multi-chunk upload path.
	mid := len(data) / 2
	pool, err := Deserialize([][]byte{data[:mid], data[mid:]})
	if err != nil {
		t.Fatalf("Deserialize: %v", err)
	}

	if pool.Size() != 7 {
		t.Fatalf("expected 7 objects, got %d", pool.Size())
	}

	impl := GetImplementGeometry(pool)
	if len(impl.Booms) != 1 {
		t.Fatalf("expected 1 boom, got %d", len(impl.Booms))
	}
	if got := impl.NumberOfSections(); got != 3 {
		t.Fatalf("expected 3 sections, got %d", got)
	}
	if impl.Booms[0].ElementNumber != 5 {
		t.Fatalf("expected boom element number 5, got %d", impl.Booms[0].ElementNumber)
	}

	var elementNumbers []uint16
	for _, s := range impl.Booms[0].Sections {
		elementNumbers = append(elementNumbers, s.ElementNumber)
	}
	want := []uint16{10, 11, 12}
	if len(elementNumbers) != len(want) {
		t.Fatalf("expected element numbers %v, got %v", want, elementNumbers)
	}
	for i := range want {
		if elementNumbers[i] != want[i] {
			t.Fatalf("expected element numbers %v, got %v", want, elementNumbers)
		}
	}

	if impl.Booms[0].Sections[0].XOffsetMM != 150 {
		t.Fatalf("expected section 10 x-offset 150mm, got %d", impl.Booms[0].Sections[0].XOffsetMM)
	}

	idx := pool.BuildIndex()
	elem, ok := idx.ElementForObject[6] // idActualWorkPD
	if !ok {
		t.Fatalf("expected element bound to process data object 6")
	}
	if elem.ElementNumber != 5 {
		t.Fatalf("expected process data 6 bound to element number 5, got %d", elem.ElementNumber)
	}
	pdList := idx.ProcessDataByDDI[0xA0]
	if len(pdList) != 1 {
		t.Fatalf("expected exactly one process data object for DDI 0xA0, got %d", len(pdList))
	}
}

func TestDeserializeTruncatedFails(t *testing.T) {
	data := Encode(buildFixture())
	_, err := Deserialize([][]byte{data[:len(data)-3]})
	if err == nil {
		t.Fatalf("expected error for truncated pool")
	}
}

func TestDeserializeBadMagicFails(t *testing.T) {
	data := Encode(buildFixture())
	data[0] = 0x00
	_, err := Deserialize([][]byte{data})
	if err == nil {
		t.Fatalf("expected error for bad magic")
	}
}
