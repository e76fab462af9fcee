package cache

import (
	"encoding/json"
	"sort"
)

// IgnoreSet is the permanent exclusion list of app ids that could not be
// resolved to a name or a size. It only grows; it is persisted as a sorted
// JSON array of integers.
type IgnoreSet struct {
	ids map[int]struct{}
}

// NewIgnoreSet returns a set holding ids.
func NewIgnoreSet(ids ...int) *IgnoreSet {
	s := &IgnoreSet{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Contains reports whether id is ignored.
func (s *IgnoreSet) Contains(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Add ignores id and reports whether it was new.
func (s *IgnoreSet) Add(id int) bool {
	if s.Contains(id) {
		return false
	}
	s.ids[id] = struct{}{}
	return true
}

// Len returns the number of ignored ids.
func (s *IgnoreSet) Len() int {
	return len(s.ids)
}

// IDs returns the ignored ids in ascending order.
func (s *IgnoreSet) IDs() []int {
	ids := make([]int, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// FilterPlaytimes returns a copy of playtimes without ignored ids.
func (s *IgnoreSet) FilterPlaytimes(playtimes map[int]int) map[int]int {
	out := make(map[int]int, len(playtimes))
	for id, minutes := range playtimes {
		if !s.Contains(id) {
			out[id] = minutes
		}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s *IgnoreSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.IDs())
}

// UnmarshalJSON replaces the set with the decoded array.
func (s *IgnoreSet) UnmarshalJSON(data []byte) error {
	var ids []int
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	s.reset()
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return nil
}

func (s *IgnoreSet) reset() {
	s.ids = make(map[int]struct{})
}
