package image

import "fmt"

// Ref is a validated container image reference of the form
// [registry/]repository[:tag]. The zero value is not a valid reference; use
// NewRef to construct one.
type Ref struct {
	name string
}

// NewRef validates candidate and wraps it in a Ref.
func NewRef(candidate string) (Ref, error) {
	if err := validateReference(candidate); err != nil {
		return Ref{}, fmt.Errorf("%w: %q", err, candidate)
	}
	return Ref{name: candidate}, nil
}

// MustRef is like NewRef but panics on an invalid reference. It is intended
// for constants and tests.
func MustRef(candidate string) Ref {
	ref, err := NewRef(candidate)
	if err != nil {
		panic(err)
	}
	return ref
}

// String returns the reference exactly as it appeared in the source text.
func (r Ref) String() string {
	return r.name
}

// IsZero reports whether r was never initialized through NewRef.
func (r Ref) IsZero() bool {
	return r.name == ""
}

// MarshalText implements encoding.TextMarshaler so a Ref serializes as a plain string.
func (r Ref) MarshalText() ([]byte, error) {
	return []byte(r.name), nil
}

// Set is an insertion-ordered collection of unique references.
type Set struct {
	items []Ref
	seen  map[string]struct{}
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Add appends ref unless it is already present. It reports whether the set changed.
func (s *Set) Add(ref Ref) bool {
	if _, ok := s.seen[ref.name]; ok {
		return false
	}
	s.seen[ref.name] = struct{}{}
	s.items = append(s.items, ref)
	return true
}

// Contains reports whether ref is in the set.
func (s *Set) Contains(ref Ref) bool {
	_, ok := s.seen[ref.name]
	return ok
}

// Len returns the number of references in the set.
func (s *Set) Len() int {
	return len(s.items)
}

// Items returns the references in first-seen order. The returned slice is a copy.
func (s *Set) Items() []Ref {
	out := make([]Ref, len(s.items))
	copy(out, s.items)
	return out
}

// Strings returns the references as plain strings in first-seen order.
func (s *Set) Strings() []string {
	out := make([]string, 0, len(s.items))
	for _, ref := range s.items {
		out = append(out, ref.name)
	}
	return out
}
