package domain

import "sort"

// PermissionSet is a set of permissions keyed by permission id.
type PermissionSet map[int64]Permission

// NewPermissionSet builds a set from the given permissions, collapsing duplicate ids.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p.ID] = p
	}
	return set
}

// Add inserts p, replacing any entry with the same id.
func (s PermissionSet) Add(p Permission) {
	s[p.ID] = p
}

// Contains reports whether a permission with the given id is in the set.
func (s PermissionSet) Contains(id int64) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of distinct permissions.
func (s PermissionSet) Len() int {
	return len(s)
}

// SubsetOf reports whether every permission in s is present in other.
// The empty set is a subset of every set.
func (s PermissionSet) SubsetOf(other PermissionSet) bool {
	for id := range s {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}

// Missing returns the permissions of s absent from granted, ordered by id.
func (s PermissionSet) Missing(granted PermissionSet) []Permission {
	var missing []Permission
	for id, p := range s {
		if !granted.Contains(id) {
			missing = append(missing, p)
		}
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i].ID < missing[j].ID })
	return missing
}

// ContainsName reports whether the set holds the named atom (resource.action).
func (s PermissionSet) ContainsName(name string) bool {
	for _, p := range s {
		if p.Name() == name {
			return true
		}
	}
	return false
}

// Sorted returns the permissions ordered by id.
func (s PermissionSet) Sorted() []Permission {
	out := make([]Permission, 0, len(s))
	for _, p := range s {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Names returns the resource.action names ordered by id.
func (s PermissionSet) Names() []string {
	sorted := s.Sorted()
	names := make([]string, 0, len(sorted))
	for _, p := range sorted {
		names = append(names, p.Name())
	}
	return names
}

// RequiredPermissions is the policy attached to a (path, method) pair.
// Registered is false when no endpoint row exists, which is distinct from
// a registered endpoint with an empty permission set.
type RequiredPermissions struct {
	Registered  bool
	Endpoint    *Endpoint
	Permissions PermissionSet
}

// Unregistered returns the sentinel for a (path, method) pair with no endpoint row.
func Unregistered() RequiredPermissions {
	return RequiredPermissions{Registered: false, Permissions: PermissionSet{}}
}
