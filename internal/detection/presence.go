package detection

import "sort"

// ClassSet is the fixed set of class ids whose presence triggers a signal.
// It is built once at startup and never modified.
type ClassSet struct {
	ids map[int]struct{}
}

// DefaultClassIDs are person, bicycle, car and motorcycle.
var DefaultClassIDs = []int{ClassPerson, ClassBicycle, ClassCar, ClassMotorcycle}

// NewClassSet builds a ClassSet from ids. Duplicates are ignored.
func NewClassSet(ids ...int) ClassSet {
	set := ClassSet{ids: make(map[int]struct{}, len(ids))}
	for _, id := range ids {
		set.ids[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is a class of interest.
func (s ClassSet) Contains(id int) bool {
	_, ok := s.ids[id]
	return ok
}

// Len returns the number of classes of interest.
func (s ClassSet) Len() int {
	return len(s.ids)
}

// IDs returns the classes of interest in ascending order.
func (s ClassSet) IDs() []int {
	ids := make([]int, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// PresenceFlags maps every class of interest to whether it appears in the
// current frame.
type PresenceFlags map[int]bool

// Aggregate derives PresenceFlags for one frame. Every class in set gets an
// entry; classes outside the set are ignored. Confidence and geometry play
// no part beyond the upstream threshold.
func Aggregate(records []Record, set ClassSet) PresenceFlags {
	flags := make(PresenceFlags, set.Len())
	for id := range set.ids {
		flags[id] = false
	}
	for _, r := range records {
		if set.Contains(r.ClassID) {
			flags[r.ClassID] = true
		}
	}
	return flags
}

// AnyPresent is the logical OR over all flags.
func (f PresenceFlags) AnyPresent() bool {
	for _, present := range f {
		if present {
			return true
		}
	}
	return false
}

// Present returns the ids flagged present, in ascending order.
func (f PresenceFlags) Present() []int {
	var ids []int
	for id, present := range f {
		if present {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}
