package role

import "strings"

// Role is one of the four HRive portal roles, or None.
type Role uint8

const (
	// None is the absent role: the user's role is unknown or unresolved.
	None Role = iota
	// Admin administers the whole tenant.
	Admin
	// HRManager runs recruitment, payroll, and leave for the organisation.
	HRManager
	// LineManager approves leave and attendance for direct reports.
	LineManager
	// Employee is the self-service portal role.
	Employee
	roleCount
)

// Unknown is a resolved role that names none of the portal roles. It is
// never Valid, never a Set member, and its home is SignInPath.
const Unknown Role = roleCount

// SignInPath is where unauthenticated users and unrecognized roles are sent.
const SignInPath = "/login"

var names = [roleCount]string{
	None:        "",
	Admin:       "admin",
	HRManager:   "hr_manager",
	LineManager: "line_manager",
	Employee:    "employee",
}

// All returns the four named roles in declaration order.
func All() []Role {
	return []Role{Admin, HRManager, LineManager, Employee}
}

// Parse maps a wire name ("admin", "hr_manager", ...) to a Role.
// Matching ignores case and surrounding whitespace. Unrecognized input
// returns (None, false).
func Parse(s string) (Role, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return None, false
	}
	for r := Admin; r < roleCount; r++ {
		if names[r] == s {
			return r, true
		}
	}
	return None, false
}

// Lookup maps a resolved role string to a Role. Empty input is None;
// unrecognized input is Unknown.
func Lookup(s string) Role {
	if strings.TrimSpace(s) == "" {
		return None
	}
	if r, ok := Parse(s); ok {
		return r
	}
	return Unknown
}

// Valid reports whether r is one of the four named roles.
func (r Role) Valid() bool {
	return r > None && r < roleCount
}

// String returns the wire name, "" for None and "unknown" for out-of-range values.
func (r Role) String() string {
	if r >= roleCount {
		return "unknown"
	}
	return names[r]
}

// MarshalText encodes the wire name. None encodes as an empty string.
func (r Role) MarshalText() ([]byte, error) {
	if r >= roleCount {
		return []byte{}, nil
	}
	return []byte(names[r]), nil
}

// UnmarshalText decodes a wire name. Unrecognized names decode as None.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, _ := Parse(string(text))
	*r = parsed
	return nil
}

// HomePath returns the designated dashboard root for r.
// None and out-of-range values map to SignInPath.
func HomePath(r Role) string {
	switch r {
	case Admin:
		return "/admin"
	case HRManager:
		return "/hr/dashboard"
	case LineManager:
		return "/manager/dashboard"
	case Employee:
		return "/employee/dashboard"
	default:
		return SignInPath
	}
}
