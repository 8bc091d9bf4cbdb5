package bulkaction

import "sync"

// Selection is the ordered set of checked row identifiers.
type Selection struct {
	mu    sync.Mutex
	order []string
	index map[string]struct{}
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{index: make(map[string]struct{})}
}

// Toggle adds id when absent, removes it otherwise. It returns the new membership.
func (s *Selection) Toggle(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[id]; ok {
		s.removeLocked(id)
		return false
	}
	s.addLocked(id)
	return true
}

// Add selects every id not already selected, preserving order.
func (s *Selection) Add(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		if _, ok := s.index[id]; !ok {
			s.addLocked(id)
		}
	}
}

// Has reports membership.
func (s *Selection) Has(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[id]
	return ok
}

// Len returns the number of selected ids.
func (s *Selection) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// IDs returns the selected ids in selection order.
func (s *Selection) IDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.order...)
}

// Clear empties the selection.
func (s *Selection) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.index = make(map[string]struct{})
}

// Replace sets the selection to exactly ids.
func (s *Selection) Replace(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.index = make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := s.index[id]; !ok {
			s.addLocked(id)
		}
	}
}

// Retain drops ids for which keep returns false and reports how many were dropped.
func (s *Selection) Retain(keep func(id string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.order[:0]
	dropped := 0
	for _, id := range s.order {
		if keep(id) {
			kept = append(kept, id)
			continue
		}
		delete(s.index, id)
		dropped++
	}
	s.order = kept
	return dropped
}

func (s *Selection) addLocked(id string) {
	s.index[id] = struct{}{}
	s.order = append(s.order, id)
}

func (s *Selection) removeLocked(id string) {
	delete(s.index, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
