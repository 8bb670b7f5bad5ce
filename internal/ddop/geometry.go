package ddop

// Section is one boom section, with the offsets and width the original
// source logs at activation time.
type Section struct {
	ElementNumber uint16
	XOffsetMM     int32
	YOffsetMM     int32
	ZOffsetMM     int32
	WidthMM       int32
}

// SubBoom is a Function element nested under a Boom that carries its own
// sections.
type SubBoom struct {
	ElementNumber uint16
	Sections      []Section
}

// Boom is a top-level Function element under the Device root.
type Boom struct {
	ElementNumber uint16
	SubBooms      []SubBoom
	Sections      []Section
}

// Implement is the geometry view get_implement_geometry produces: every
// boom, its direct sections, and its sub-booms' sections.
type Implement struct {
	Booms []Boom
}

// NumberOfSections counts every section across all booms and sub-booms,
// exactly as activate_object_pool's numberOfSections++ loop does.
func (i Implement) NumberOfSections() int {
	n := 0
	for _, b := range i.Booms {
		n += len(b.Sections)
		for _, sb := range b.SubBooms {
			n += len(sb.Sections)
		}
	}
	return n
}

// GetImplementGeometry walks the element tree (via ParentObjectID) to
// recover the boom/sub-boom/section hierarchy.
func GetImplementGeometry(p *Pool) Implement {
	elementsByParent := make(map[uint16][]*DeviceElementObject)
	for _, o := range p.objects {
		if e, ok := o.(*DeviceElementObject); ok {
			elementsByParent[e.ParentObjectID] = append(elementsByParent[e.ParentObjectID], e)
		}
	}

	var impl Implement
	for _, o := range p.objects {
		root, ok := o.(*DeviceElementObject)
		if !ok || root.ElementType != ElementTypeDevice {
			continue
		}
		for _, child := range elementsByParent[root.ObjectID()] {
			if child.ElementType != ElementTypeFunction || child.FunctionType != FunctionTypeBoom {
				continue
			}
			boom := Boom{ElementNumber: child.ElementNumber}
			for _, grandchild := range elementsByParent[child.ObjectID()] {
				switch {
				case grandchild.ElementType == ElementTypeSection:
					boom.Sections = append(boom.Sections, sectionFrom(p, grandchild))
				case grandchild.ElementType == ElementTypeFunction && grandchild.FunctionType == FunctionTypeSubBoom:
					sub := SubBoom{ElementNumber: grandchild.ElementNumber}
					for _, sectionElement := range elementsByParent[grandchild.ObjectID()] {
						if sectionElement.ElementType == ElementTypeSection {
							sub.Sections = append(sub.Sections, sectionFrom(p, sectionElement))
						}
					}
					boom.SubBooms = append(boom.SubBooms, sub)
				}
			}
			impl.Booms = append(impl.Booms, boom)
		}
	}
	return impl
}

func sectionFrom(p *Pool, e *DeviceElementObject) Section {
	sec := Section{ElementNumber: e.ElementNumber}
	for _, childID := range e.ChildObjectIDs {
		obj, ok := p.ObjectByID(childID)
		if !ok {
			continue
		}
		prop, ok := obj.(*DevicePropertyObject)
		if !ok {
			continue
		}
		switch prop.DDI {
		case PropertyDDIXOffset:
			sec.XOffsetMM = prop.ValueMM
		case PropertyDDIYOffset:
			sec.YOffsetMM = prop.ValueMM
		case PropertyDDIZOffset:
			sec.ZOffsetMM = prop.ValueMM
		case PropertyDDIWidth:
			sec.WidthMM = prop.ValueMM
		}
	}
	return sec
}
