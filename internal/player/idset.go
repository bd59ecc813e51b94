package player

import (
	"encoding/json"
	"strings"
)

// IDSet is an insertion-ordered set of ids. The zero value is ready to use.
type IDSet struct {
	ids   []string
	index map[string]struct{}
}

func NewIDSet(ids ...string) IDSet {
	var s IDSet
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether it was new.
func (s *IDSet) Add(id string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{}, len(s.ids)+1)
		for _, existing := range s.ids {
			s.index[existing] = struct{}{}
		}
	}
	if _, ok := s.index[id]; ok {
		return false
	}
	s.index[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

func (s IDSet) Has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s IDSet) Len() int { return len(s.ids) }

// IDs returns a copy in insertion order.
func (s IDSet) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// CountPrefix counts members whose id starts with prefix.
func (s IDSet) CountPrefix(prefix string) int {
	n := 0
	for _, id := range s.ids {
		if strings.HasPrefix(id, prefix) {
			n++
		}
	}
	return n
}

func (s IDSet) Clone() IDSet {
	return NewIDSet(s.ids...)
}

func (s IDSet) Equal(other IDSet) bool {
	if len(s.ids) != len(other.ids) {
		return false
	}
	for i := range s.ids {
		if s.ids[i] != other.ids[i] {
			return false
		}
	}
	return true
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	if s.ids == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.ids)
}

func (s *IDSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
