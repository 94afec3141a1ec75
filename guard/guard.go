package guard

import (
	"errors"

	"github.com/hrive/hriveauth/role"
)

// ErrNoAllowedRoles is returned by New when a route allows no role at all.
var ErrNoAllowedRoles = errors.New("guard: allowed role set is empty")

// User is the authenticated identity as seen by the guard.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// Session is the resolver output consumed by the guard. While Loading is
// true, User and Role are not authoritative.
type Session struct {
	User    *User
	Role    role.Role
	Loading bool
}

// Authenticated reports whether a resolved session carries a user.
func (s Session) Authenticated() bool {
	return !s.Loading && s.User != nil
}

// State is the resolver-visible authentication state.
type State uint8

const (
	StatePending State = iota
	StateUnauthenticated
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// StateOf classifies a session.
func StateOf(s Session) State {
	switch {
	case s.Loading:
		return StatePending
	case s.User == nil:
		return StateUnauthenticated
	default:
		return StateAuthenticated
	}
}

// Outcome is what the guarded view must do.
type Outcome uint8

const (
	OutcomeLoading Outcome = iota
	OutcomeRender
	OutcomeRedirect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeLoading:
		return "loading"
	case OutcomeRender:
		return "render"
	case OutcomeRedirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Reason explains a decision for logs and metrics.
type Reason uint8

const (
	ReasonPending Reason = iota
	ReasonUnauthenticated
	ReasonWrongRole
	ReasonAllowed
	ReasonRoleUnresolved
)

func (r Reason) String() string {
	switch r {
	case ReasonPending:
		return "pending"
	case ReasonUnauthenticated:
		return "unauthenticated"
	case ReasonWrongRole:
		return "wrong_role"
	case ReasonAllowed:
		return "allowed"
	case ReasonRoleUnresolved:
		return "role_unresolved"
	default:
		return "unknown"
	}
}

// Decision is the guard output. Target, Replace, and ReturnTo are only
// meaningful for OutcomeRedirect; ReturnTo is only set for sign-in redirects.
type Decision struct {
	Outcome  Outcome
	State    State
	Reason   Reason
	Target   string
	Replace  bool
	ReturnTo string
}

// Equal reports whether two decisions are identical.
func (d Decision) Equal(o Decision) bool {
	return d == o
}

// Redirect reports whether d is a redirect.
func (d Decision) Redirect() bool {
	return d.Outcome == OutcomeRedirect
}

// Evaluate decides what a view protected by allowed shows for s at currentPath.
func Evaluate(s Session, allowed role.Set, currentPath string) Decision {
	if s.Loading {
		return Decision{Outcome: OutcomeLoading, State: StatePending, Reason: ReasonPending}
	}

	if s.User == nil {
		return Decision{
			Outcome:  OutcomeRedirect,
			State:    StateUnauthenticated,
			Reason:   ReasonUnauthenticated,
			Target:   role.SignInPath,
			Replace:  true,
			ReturnTo: currentPath,
		}
	}

	if s.Role != role.None && !allowed.Has(s.Role) {
		target := role.HomePath(s.Role)
		d := Decision{
			Outcome: OutcomeRedirect,
			State:   StateAuthenticated,
			Reason:  ReasonWrongRole,
			Target:  target,
			Replace: true,
		}
		// Out-of-enum roles land on sign-in; keep the path so login can return.
		if target == role.SignInPath {
			d.ReturnTo = currentPath
		}
		return d
	}

	reason := ReasonAllowed
	if s.Role == role.None {
		reason = ReasonRoleUnresolved
	}
	return Decision{Outcome: OutcomeRender, State: StateAuthenticated, Reason: reason}
}

// Guard is a route's allowed-role set, fixed at construction.
type Guard struct {
	allowed role.Set
}

// New builds a Guard for a route. It fails when no valid role is allowed.
func New(allowed ...role.Role) (*Guard, error) {
	set := role.NewSet(allowed...)
	if set.Empty() {
		return nil, ErrNoAllowedRoles
	}
	return &Guard{allowed: set}, nil
}

// MustNew is New for static route tables; it panics on an empty set.
func MustNew(allowed ...role.Role) *Guard {
	g, err := New(allowed...)
	if err != nil {
		panic(err)
	}
	return g
}

// Allowed returns the route's role set.
func (g *Guard) Allowed() role.Set {
	return g.allowed
}

// Evaluate applies the package-level Evaluate with the guard's role set.
func (g *Guard) Evaluate(s Session, currentPath string) Decision {
	return Evaluate(s, g.allowed, currentPath)
}
