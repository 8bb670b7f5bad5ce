package ddop

// Pool is a deserialised device descriptor object pool: a flat list of
// objects, indexable by position (as the original source's
// get_object_by_index/size() pair requires) and by object id.
type Pool struct {
	objects []Object
	byID    map[uint16]Object
}

// Size returns the number of objects in the pool.
func (p *Pool) Size() int { return len(p.objects) }

// ObjectByIndex returns the i'th object in pool order.
func (p *Pool) ObjectByIndex(i int) Object { return p.objects[i] }

// ObjectByID looks up an object by its pool-unique id.
func (p *Pool) ObjectByID(id uint16) (Object, bool) {
	o, ok := p.byID[id]
	return o, ok
}

// Index is the O(pool) precomputed lookup structure built once at
// activation time, replacing the nested O(pool^2) scan the original
// source performs on every request_measurement_commands call.
type Index struct {
	// ElementForObject maps a process-data or property object id to the
	// DeviceElement that lists it as a child — i.e. the element that
	// "owns" it.
	ElementForObject map[uint16]*DeviceElementObject
	// ProcessDataByDDI maps a DDI to every DeviceProcessData object in
	// the pool advertising it (ordinarily exactly one).
	ProcessDataByDDI map[uint16][]*DeviceProcessDataObject
}

// BuildIndex walks the pool once, building both lookup tables.
func (p *Pool) BuildIndex() *Index {
	idx := &Index{
		ElementForObject: make(map[uint16]*DeviceElementObject),
		ProcessDataByDDI: make(map[uint16][]*DeviceProcessDataObject),
	}

	for _, o := range p.objects {
		if elem, ok := o.(*DeviceElementObject); ok {
			for _, childID := range elem.ChildObjectIDs {
				idx.ElementForObject[childID] = elem
			}
		}
	}

	for _, o := range p.objects {
		if pd, ok := o.(*DeviceProcessDataObject); ok {
			idx.ProcessDataByDDI[pd.DDI] = append(idx.ProcessDataByDDI[pd.DDI], pd)
		}
	}

	return idx
}
