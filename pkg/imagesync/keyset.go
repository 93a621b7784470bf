package imagesync

// KeySet is a set of object keys that remembers listing order.
// The zero value is not usable; use NewKeySet.
type KeySet struct {
	keys  []string
	index map[string]struct{}
}

// NewKeySet builds a set from keys, dropping duplicates and keeping first-seen order.
func NewKeySet(keys []string) *KeySet {
	s := &KeySet{
		keys:  make([]string, 0, len(keys)),
		index: make(map[string]struct{}, len(keys)),
	}
	for _, k := range keys {
		if _, dup := s.index[k]; dup {
			continue
		}
		s.index[k] = struct{}{}
		s.keys = append(s.keys, k)
	}
	return s
}

// Contains reports membership in O(1).
func (s *KeySet) Contains(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Len returns the number of distinct keys.
func (s *KeySet) Len() int {
	return len(s.keys)
}

// Keys returns the keys in listing order. The slice must not be modified.
func (s *KeySet) Keys() []string {
	return s.keys
}
