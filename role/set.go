package role

import "strings"

// Set is an immutable bitmask of roles. The zero value is the empty set.
type Set uint8

// NewSet builds a Set from roles. None and out-of-range values are ignored.
func NewSet(roles ...Role) Set {
	var s Set
	for _, r := range roles {
		if !r.Valid() {
			continue
		}
		s |= 1 << r
	}
	return s
}

// ParseSet builds a Set from wire names and reports the names it rejected.
func ParseSet(names ...string) (Set, []string) {
	var (
		roles    []Role
		rejected []string
	)
	for _, name := range names {
		r, ok := Parse(name)
		if !ok {
			rejected = append(rejected, name)
			continue
		}
		roles = append(roles, r)
	}
	return NewSet(roles...), rejected
}

// Has reports whether r is a member of s.
func (s Set) Has(r Role) bool {
	if !r.Valid() {
		return false
	}
	return s&(1<<r) != 0
}

// Empty reports whether s has no members.
func (s Set) Empty() bool {
	return s == 0
}

// Len returns the number of members.
func (s Set) Len() int {
	n := 0
	for r := Admin; r < roleCount; r++ {
		if s.Has(r) {
			n++
		}
	}
	return n
}

// Roles returns the members in declaration order.
func (s Set) Roles() []Role {
	out := make([]Role, 0, roleCount-1)
	for r := Admin; r < roleCount; r++ {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

func (s Set) String() string {
	roles := s.Roles()
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = r.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}
