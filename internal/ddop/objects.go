// Package ddop implements a compact binary reader and object model for
// device descriptor object pools (DDOPs) — the ISO 11783-10 tree of
// device/element/process-data/property objects an implement uploads to
// describe its booms, sub-booms and sections.
//
// The wire format read here is a minimal, self-contained encoding: the
// full ISO 11783-10 Annex B binary grammar was not available to ground
// this package on, so the layout parsed and encoded in parse.go is this
// module's own (DESIGN.md records it as self-designed), shaped after the
// object hierarchy the original source
// walks: a Device root, DeviceElement nodes (booms, sub-booms, sections),
// and DeviceProcessData/DeviceProperty leaves attached to elements.
package ddop

// ObjectType identifies the kind of a pool object.
type ObjectType uint8

const (
	ObjectTypeDevice ObjectType = iota + 1
	ObjectTypeDeviceElement
	ObjectTypeDeviceProcessData
	ObjectTypeDeviceProperty
)

// ElementType classifies a DeviceElement node.
type ElementType uint8

const (
	ElementTypeDevice ElementType = iota
	ElementTypeFunction
	ElementTypeBin
	ElementTypeSection
	ElementTypeUnit
	ElementTypeConnector
)

// FunctionType further classifies a Function element; only meaningful
// when ElementType == ElementTypeFunction.
type FunctionType uint8

const (
	FunctionTypeBoom FunctionType = iota
	FunctionTypeSubBoom
)

// TriggerMethod flags describe how a DeviceProcessData object can report
// changes, mirroring AvailableTriggerMethods in the original source.
type TriggerMethod uint8

const (
	TriggerOnChange TriggerMethod = 1 << iota
	TriggerTimeInterval
)

// Object is the common interface every pool member satisfies.
type Object interface {
	ObjectID() uint16
	Type() ObjectType
}

type baseObject struct {
	id uint16
}

func (b baseObject) ObjectID() uint16 { return b.id }

// DeviceObject is the pool's root object.
type DeviceObject struct {
	baseObject
}

func (DeviceObject) Type() ObjectType { return ObjectTypeDevice }

// NewDevice constructs a DeviceObject with the given pool-unique id, for
// callers outside this package building pool fixtures.
func NewDevice(id uint16) *DeviceObject {
	return &DeviceObject{baseObject{id}}
}

// DeviceElementObject is a node in the boom/sub-boom/section tree.
type DeviceElementObject struct {
	baseObject
	ElementType    ElementType
	FunctionType   FunctionType // meaningful only if ElementType == ElementTypeFunction
	ElementNumber  uint16
	ParentObjectID uint16 // NoParent if this is the root device element
	ChildObjectIDs []uint16
}

func (DeviceElementObject) Type() ObjectType { return ObjectTypeDeviceElement }

// NewDeviceElement constructs a DeviceElementObject with the given
// pool-unique id, for callers outside this package building pool
// fixtures.
func NewDeviceElement(id uint16, elementType ElementType, functionType FunctionType, elementNumber uint16, parentObjectID uint16, children []uint16) *DeviceElementObject {
	return &DeviceElementObject{
		baseObject:     baseObject{id},
		ElementType:    elementType,
		FunctionType:   functionType,
		ElementNumber:  elementNumber,
		ParentObjectID: parentObjectID,
		ChildObjectIDs: children,
	}
}

// NoParent marks a DeviceElementObject with no parent (the root).
const NoParent uint16 = 0xFFFF

// HasChild reports whether id is present in the element's child list —
// the lookup request_measurement_commands performs to find the element
// that parents a given process-data or property object.
func (e *DeviceElementObject) HasChild(id uint16) bool {
	for _, c := range e.ChildObjectIDs {
		if c == id {
			return true
		}
	}
	return false
}

// DeviceProcessDataObject describes one process-data quantity (a DDI)
// belonging to some element.
type DeviceProcessDataObject struct {
	baseObject
	DDI      uint16
	Triggers TriggerMethod
}

func (DeviceProcessDataObject) Type() ObjectType { return ObjectTypeDeviceProcessData }

// NewDeviceProcessData constructs a DeviceProcessDataObject with the
// given pool-unique id, for callers outside this package building pool
// fixtures.
func NewDeviceProcessData(id uint16, ddi uint16, triggers TriggerMethod) *DeviceProcessDataObject {
	return &DeviceProcessDataObject{baseObject: baseObject{id}, DDI: ddi, Triggers: triggers}
}

// HasTrigger reports whether the object advertises the given trigger method.
func (p *DeviceProcessDataObject) HasTrigger(m TriggerMethod) bool {
	return p.Triggers&m != 0
}

// DeviceProperty DDIs used for section geometry (offsets/width), matching
// the fields task_controller.cpp logs from the geometry helper.
const (
	PropertyDDIXOffset uint16 = 0x01
	PropertyDDIYOffset uint16 = 0x02
	PropertyDDIZOffset uint16 = 0x03
	PropertyDDIWidth   uint16 = 0x04
)

// DevicePropertyObject is a fixed value attached to an element, such as a
// section's X/Y/Z offset or width, in millimetres.
type DevicePropertyObject struct {
	baseObject
	DDI      uint16
	ValueMM  int32
}

func (DevicePropertyObject) Type() ObjectType { return ObjectTypeDeviceProperty }

// NewDeviceProperty constructs a DevicePropertyObject with the given
// pool-unique id, for callers outside this package building pool
// fixtures.
func NewDeviceProperty(id uint16, ddi uint16, valueMM int32) *DevicePropertyObject {
	return &DevicePropertyObject{baseObject: baseObject{id}, DDI: ddi, ValueMM: valueMM}
}
