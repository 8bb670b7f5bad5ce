package ddop

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var magic = [2]byte{'D', 'P'}

const formatVersion = 1

// ErrIncomplete is returned when data ends mid-object; the caller
// (activate_pool) treats this the same as any other deserialisation
// failure: the pool is not installed.
var ErrIncomplete = errors.New("ddop: truncated pool data")

// Deserialize concatenates chunks (as uploaded across one or more
// store_pool calls) and attempts to parse the result as a complete pool.
// It mirrors the source's "feed accumulated chunks until one is
// accepted" loop with a single-pass equivalent: DDOPs are uploaded whole
// or not at all, so concatenating first and parsing once yields the same
// observable success/failure as sequential feeding for well-formed
// input, without needing partial-parse checkpointing.
func Deserialize(chunks [][]byte) (*Pool, error) {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	buf := make([]byte, 0, total)
	for _, c := range chunks {
		buf = append(buf, c...)
	}
	return parse(buf)
}

func parse(data []byte) (*Pool, error) {
	if len(data) < 5 {
		return nil, ErrIncomplete
	}
	if data[0] != magic[0] || data[1] != magic[1] {
		return nil, fmt.Errorf("ddop: bad magic")
	}
	if data[2] != formatVersion {
		return nil, fmt.Errorf("ddop: unsupported version %d", data[2])
	}
	count := binary.LittleEndian.Uint16(data[3:5])
	off := 5

	pool := &Pool{
		objects: make([]Object, 0, count),
		byID:    make(map[uint16]Object, count),
	}

	for i := 0; i < int(count); i++ {
		obj, next, err := parseObject(data, off)
		if err != nil {
			return nil, err
		}
		pool.objects = append(pool.objects, obj)
		pool.byID[obj.ObjectID()] = obj
		off = next
	}

	return pool, nil
}

func need(data []byte, off, n int) error {
	if off+n > len(data) {
		return ErrIncomplete
	}
	return nil
}

func parseObject(data []byte, off int) (Object, int, error) {
	if err := need(data, off, 3); err != nil {
		return nil, off, err
	}
	id := binary.LittleEndian.Uint16(data[off:])
	typ := ObjectType(data[off+2])
	off += 3

	switch typ {
	case ObjectTypeDevice:
		return &DeviceObject{baseObject{id}}, off, nil

	case ObjectTypeDeviceElement:
		if err := need(data, off, 6); err != nil {
			return nil, off, err
		}
		elementType := ElementType(data[off])
		functionType := FunctionType(data[off+1])
		elementNumber := binary.LittleEndian.Uint16(data[off+2:])
		parentObjectID := binary.LittleEndian.Uint16(data[off+4:])
		off += 6
		if err := need(data, off, 2); err != nil {
			return nil, off, err
		}
		numChildren := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
		if err := need(data, off, 2*numChildren); err != nil {
			return nil, off, err
		}
		children := make([]uint16, numChildren)
		for i := 0; i < numChildren; i++ {
			children[i] = binary.LittleEndian.Uint16(data[off:])
			off += 2
		}
		return &DeviceElementObject{
			baseObject:     baseObject{id},
			ElementType:    elementType,
			FunctionType:   functionType,
			ElementNumber:  elementNumber,
			ParentObjectID: parentObjectID,
			ChildObjectIDs: children,
		}, off, nil

	case ObjectTypeDeviceProcessData:
		if err := need(data, off, 3); err != nil {
			return nil, off, err
		}
		ddi := binary.LittleEndian.Uint16(data[off:])
		triggers := TriggerMethod(data[off+2])
		off += 3
		return &DeviceProcessDataObject{
			baseObject: baseObject{id},
			DDI:        ddi,
			Triggers:   triggers,
		}, off, nil

	case ObjectTypeDeviceProperty:
		if err := need(data, off, 6); err != nil {
			return nil, off, err
		}
		ddi := binary.LittleEndian.Uint16(data[off:])
		value := int32(binary.LittleEndian.Uint32(data[off+2:]))
		off += 6
		return &DevicePropertyObject{
			baseObject: baseObject{id},
			DDI:        ddi,
			ValueMM:    value,
		}, off, nil

	default:
		return nil, off, fmt.Errorf("ddop: unknown object type %d", typ)
	}
}

// Encode serialises objs into the wire format Deserialize/parse expects.
// It exists primarily to build test fixtures without hand-assembling
// byte slices, but is equally usable to author fixtures for
// multi-chunk uploads by slicing the returned buffer.
func Encode(objs []Object) []byte {
	buf := []byte{magic[0], magic[1], formatVersion, 0, 0}
	binary.LittleEndian.PutUint16(buf[3:], uint16(len(objs)))

	for _, o := range objs {
		switch v := o.(type) {
		case *DeviceObject:
			buf = appendHeader(buf, v.ObjectID(), ObjectTypeDevice)
		case *DeviceElementObject:
			buf = appendHeader(buf, v.ObjectID(), ObjectTypeDeviceElement)
			buf = append(buf, byte(v.ElementType), byte(v.FunctionType))
			buf = appendU16(buf, v.ElementNumber)
			buf = appendU16(buf, v.ParentObjectID)
			buf = appendU16(buf, uint16(len(v.ChildObjectIDs)))
			for _, c := range v.ChildObjectIDs {
				buf = appendU16(buf, c)
			}
		case *DeviceProcessDataObject:
			buf = appendHeader(buf, v.ObjectID(), ObjectTypeDeviceProcessData)
			buf = appendU16(buf, v.DDI)
			buf = append(buf, byte(v.Triggers))
		case *DevicePropertyObject:
			buf = appendHeader(buf, v.ObjectID(), ObjectTypeDeviceProperty)
			buf = appendU16(buf, v.DDI)
			buf = appendU32(buf, uint32(v.ValueMM))
		}
	}
	return buf
}

func appendHeader(buf []byte, id uint16, typ ObjectType) []byte {
	buf = appendU16(buf, id)
	return append(buf, byte(typ))
}

func appendU16(buf []byte, v uint16) []byte {
	return append(buf, byte(v), byte(v>>8))
}

func appendU32(buf []byte, v uint32) []byte {
	return append(buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}
