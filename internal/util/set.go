package util

import (
	"fmt"
	"sort"
	"strings"
)

// ISet is the common interface implemented by every set flavor in this
// package. It is kept small and value-oriented: sets are compared by
// contents, not by identity or backing representation.
type ISet[E any] interface {
	Container[E]

	// Add adds the given element to the Set. If the element is already in the
	// set, no effect occurs.
	Add(element E)

	// AddAll adds all elements in s2 to the Set.
	AddAll(s2 ISet[E])

	// Has returns whether the given set has the specified element.
	Has(element E) bool

	// Len returns the number of elements in the set.
	Len() int

	// Copy returns a copy of the Set.
	Copy() ISet[E]

	// Equal returns whether a Set equals another value.
	Equal(o any) bool

	// Empty returns whether the set is empty.
	Empty() bool
}

// Container is the minimal read surface shared by every set flavor: the
// ability to enumerate its elements.
type Container[E any] interface {
	Elements() []E
}

// KeySet is a set over any comparable element type, backed by a map. This is
// the workhorse set used for grammar symbol sets (FIRST sets, terminal/
// nonterminal partitions) and for interned LR item sets, where elements are
// plain comparable structs or strings rather than strings alone.
type KeySet[E comparable] map[E]struct{}

// NewKeySet returns a new, empty KeySet, optionally seeded from existing
// maps of the same key type.
func NewKeySet[E comparable](of ...map[E]struct{}) KeySet[E] {
	s := KeySet[E]{}
	for _, m := range of {
		for k := range m {
			s.Add(k)
		}
	}
	return s
}

// KeySetOf builds a KeySet from a slice of elements.
func KeySetOf[E comparable](sl []E) KeySet[E] {
	s := NewKeySet[E]()
	for _, e := range sl {
		s.Add(e)
	}
	return s
}

func (s KeySet[E]) Add(element E) {
	s[element] = struct{}{}
}

func (s KeySet[E]) AddAll(s2 ISet[E]) {
	for _, e := range s2.Elements() {
		s.Add(e)
	}
}

func (s KeySet[E]) Has(element E) bool {
	_, ok := s[element]
	return ok
}

func (s KeySet[E]) Len() int {
	return len(s)
}

func (s KeySet[E]) Empty() bool {
	return len(s) == 0
}

func (s KeySet[E]) Copy() ISet[E] {
	return NewKeySet(map[E]struct{}(s))
}

func (s KeySet[E]) Elements() []E {
	elems := make([]E, 0, len(s))
	for e := range s {
		elems = append(elems, e)
	}
	return elems
}

// Equal returns whether two KeySets contain the same elements. Anything that
// is not an ISet[E] is never equal.
func (s KeySet[E]) Equal(o any) bool {
	other, ok := o.(ISet[E])
	if !ok {
		return false
	}
	if s.Len() != other.Len() {
		return false
	}
	for e := range s {
		if !other.Has(e) {
			return false
		}
	}
	return true
}

// StringElements renders the set's elements via fmt.Sprintf("%v", ...),
// sorted for deterministic output. Useful for error messages and table dumps
// where element order must not vary between runs.
func StringElements[E any](elems []E) string {
	strs := make([]string, len(elems))
	for i, e := range elems {
		strs[i] = fmt.Sprintf("%v", e)
	}
	sort.Strings(strs)

	var sb strings.Builder
	sb.WriteRune('{')
	sb.WriteString(strings.Join(strs, ", "))
	sb.WriteRune('}')
	return sb.String()
}

// OrderedKeys returns the keys of a map, sorted. It is used wherever
// iteration order over a map must be made deterministic, such as when
// enumerating states or symbols for table output.
func OrderedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
