package authz

// PermissionSet is a fully populated capability map: every capability
// in the closed enumeration has an explicit boolean entry.
type PermissionSet map[Capability]bool

// Override is a sparse capability map persisted on a profile. Only the
// capabilities it names take effect; everything else keeps the role
// template value.
type Override map[Capability]bool

// Derive computes the effective permission set for a role plus an
// optional per-user override. It is pure: same inputs, same output.
//
// Precedence, lowest to highest: all-false base, role template,
// override. An unknown role falls back to DefaultRole's template.
func Derive(role Role, override Override) PermissionSet {
	set := make(PermissionSet, len(capabilities))
	for _, c := range capabilities {
		set[c] = false
	}
	tpl := roleTemplates[role]
	if tpl == nil {
		tpl = roleTemplates[DefaultRole]
	}
	for c, v := range tpl {
		set[c] = v
	}
	for c, v := range override {
		if _, ok := capabilityIndex[c]; !ok {
			// Stale or foreign key in stored override data; it cannot
			// grant anything outside the closed enumeration.
			continue
		}
		set[c] = v
	}
	return set
}

// Has reports the explicit boolean for a known capability. Missing
// entries read as false, which only happens for sets not produced by
// Derive.
func (s PermissionSet) Has(c Capability) bool {
	return s[c]
}

// Equal reports whether two sets grant identical capabilities.
func (s PermissionSet) Equal(other PermissionSet) bool {
	if len(s) != len(other) {
		return false
	}
	for c, v := range s {
		if other[c] != v {
			return false
		}
	}
	return true
}
