package pool

// slotSet is a sparse set of slot indices. Membership tests and removal are
// O(1) and the dense list gives cheap iteration.
type slotSet struct {
	dense  []int
	sparse []int
}

func (s *slotSet) has(slot int) bool {
	if slot < 0 || slot >= len(s.sparse) {
		return false
	}
	idx := s.sparse[slot]
	return idx >= 0 && idx < len(s.dense) && s.dense[idx] == slot
}

func (s *slotSet) add(slot int) bool {
	if slot < 0 || s.has(slot) {
		return false
	}
	for slot >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	s.dense = append(s.dense, slot)
	s.sparse[slot] = len(s.dense) - 1
	return true
}

func (s *slotSet) remove(slot int) bool {
	if !s.has(slot) {
		return false
	}
	idx := s.sparse[slot]
	last := len(s.dense) - 1
	lastSlot := s.dense[last]

	s.dense[idx] = lastSlot
	s.sparse[lastSlot] = idx

	s.dense = s.dense[:last]
	s.sparse[slot] = -1
	return true
}

func (s *slotSet) len() int {
	return len(s.dense)
}

// snapshot copies the dense list so callers can mutate the set while
// iterating.
func (s *slotSet) snapshot() []int {
	out := make([]int, len(s.dense))
	copy(out, s.dense)
	return out
}

func (s *slotSet) reset() {
	s.dense = nil
	s.sparse = nil
}
