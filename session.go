package courier

import (
	"fmt"
)

// State is a session machine state. Authenticated sub-states are written
// "authenticated.<role>".
type State string

const (
	StateIdle               State = "idle"
	StateRestoring          State = "restoring"
	StateUnauthenticated    State = "unauthenticated"
	StateLoggingInAdmin     State = "loggingInAdmin"
	StateLoggingInStaff     State = "loggingInStaff"
	StateAuthenticated      State = "authenticated"
	StateAuthenticatedAdmin State = "authenticated.admin"
	StateAuthenticatedStaff State = "authenticated.staff"
	StateLoggingOut         State = "loggingOut"
)

// Matches reports whether s is parent or one of its sub-states.
func (s State) Matches(parent State) bool {
	if s == parent {
		return true
	}
	return len(s) > len(parent) && s[:len(parent)] == parent && s[len(parent)] == '.'
}

// Transient reports whether s is waiting on an asynchronous step.
func (s State) Transient() bool {
	switch s {
	case StateRestoring, StateLoggingInAdmin, StateLoggingInStaff, StateLoggingOut:
		return true
	default:
		return false
	}
}

// Status is the coarse session status exposed to hosts.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
)

// Session is the in memory authenticated identity. Role and Token are set
// and cleared together, and only the profile matching Role is populated.
type Session struct {
	Role  Role          `json:"role,omitempty"`
	Token string        `json:"-"`
	Admin *AdminProfile `json:"admin,omitempty"`
	Staff *StaffProfile `json:"staff,omitempty"`
	// RoleHint is a pre-authentication UI hint set by SET_ROLE. It does not
	// authenticate anything.
	RoleHint Role   `json:"role_hint,omitempty"`
	Error    string `json:"error,omitempty"`
}

// IsZero reports whether no identity is held.
func (s Session) IsZero() bool {
	return s.Role == "" && s.Token == "" && s.Admin == nil && s.Staff == nil
}

// Consistent reports whether the role, token and profile invariants hold.
func (s Session) Consistent() bool {
	if (s.Role == "") != (s.Token == "") {
		return false
	}
	switch s.Role {
	case "":
		return s.Admin == nil && s.Staff == nil
	case RoleAdmin:
		return s.Admin != nil && s.Staff == nil
	case RoleStaff:
		return s.Staff != nil && s.Admin == nil
	default:
		return false
	}
}

func (s Session) clone() Session {
	c := s
	c.Admin = s.Admin.clone()
	c.Staff = s.Staff.clone()
	return c
}

func (s Session) String() string {
	token := "<none>"
	if s.Token != "" {
		token = "<redacted>"
	}
	return fmt.Sprintf("role=%s token=%s admin=%t staff=%t error=%q", s.Role, token, s.Admin != nil, s.Staff != nil, s.Error)
}

// Snapshot is a point in time copy of the machine.
type Snapshot struct {
	State   State
	Session Session
	// Durable is true once the current session is known to be persisted.
	Durable bool
	// Err is the last restore or persistence failure, if any.
	Err error
}

// Status maps the state to the coarse host facing status.
func (s Snapshot) Status() Status {
	switch {
	case s.State.Matches(StateAuthenticated):
		return StatusAuthenticated
	case s.State == StateUnauthenticated:
		return StatusUnauthenticated
	default:
		return StatusLoading
	}
}

func (s Snapshot) IsLoading() bool {
	return s.Status() == StatusLoading
}

func (s Snapshot) IsAuthenticated() bool {
	return s.Status() == StatusAuthenticated
}

// Role returns the authenticated role, or "" when not authenticated.
func (s Snapshot) Role() Role {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.Session.Role
}

func (s Snapshot) IsAdmin() bool {
	return s.State == StateAuthenticatedAdmin
}

func (s Snapshot) IsStaff() bool {
	return s.State == StateAuthenticatedStaff
}

func (s Snapshot) Admin() *AdminProfile {
	return s.Session.Admin
}

func (s Snapshot) Staff() *StaffProfile {
	return s.Session.Staff
}

func (s Snapshot) Token() string {
	return s.Session.Token
}
