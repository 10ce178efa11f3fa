package octree

// Identifiable is implemented by payloads that carry integer identifiers. A
// payload standing for a hierarchy of objects returns the identifiers of the
// whole hierarchy so that any of them can be looked up with ContainsID.
type Identifiable interface {
	OctreeIDs() []int64
}

// idSet counts, per identifier, how many stored elements registered it.
type idSet map[int64]int

func (s idSet) register(obj any) {
	ided, ok := obj.(Identifiable)
	if !ok {
		return
	}

	for _, id := range ided.OctreeIDs() {
		s[id]++
	}
}

func (s idSet) unregister(obj any) {
	ided, ok := obj.(Identifiable)
	if !ok {
		return
	}

	for _, id := range ided.OctreeIDs() {
		switch n := s[id]; {
		case n <= 1:
			delete(s, id)
		default:
			s[id] = n - 1
		}
	}
}

func (s idSet) contains(id int64) bool {
	_, ok := s[id]
	return ok
}
