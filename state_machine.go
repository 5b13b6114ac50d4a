package courier

import (
	"context"
	"fmt"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

// EventType names an event accepted by the session machine.
type EventType string

const (
	EventRestore    EventType = "RESTORE"
	EventLoginAdmin EventType = "LOGIN_ADMIN"
	EventLoginStaff EventType = "LOGIN_STAFF"
	EventSetRole    EventType = "SET_ROLE"
	EventLogout     EventType = "LOGOUT"
	EventHardReset  EventType = "HARD_RESET"
)

// Event is a command sent to the machine. Only the fields relevant to Type
// are read.
type Event struct {
	Type  EventType
	Admin *AdminProfile
	Staff *StaffProfile
	Token string
	Role  Role
}

// RestoreEvent requests loading the persisted session.
func RestoreEvent() Event { return Event{Type: EventRestore} }

// LoginAdminEvent logs in as an administrator.
func LoginAdminEvent(admin *AdminProfile, token string) Event {
	return Event{Type: EventLoginAdmin, Admin: admin, Token: token}
}

// LoginStaffEvent logs in as a staff member.
func LoginStaffEvent(staff *StaffProfile, token string) Event {
	return Event{Type: EventLoginStaff, Staff: staff, Token: token}
}

// SetRoleEvent records a pre-authentication role hint.
func SetRoleEvent(role Role) Event { return Event{Type: EventSetRole, Role: role} }

// LogoutEvent clears the session.
func LogoutEvent() Event { return Event{Type: EventLogout} }

// HardResetEvent clears the session and any stale persisted slots.
func HardResetEvent() Event { return Event{Type: EventHardReset} }

// validate checks only what the session invariants depend on: a profile
// for the role being logged in, a token, and a known role.
func (e Event) validate() error {
	switch e.Type {
	case EventLoginAdmin:
		if e.Admin == nil {
			return fmt.Errorf("%w: admin profile is required", ErrInvalidEvent)
		}
		if err := validation.Validate(e.Token, validation.Required); err != nil {
			return fmt.Errorf("%w: token: %v", ErrInvalidEvent, err)
		}
	case EventLoginStaff:
		if e.Staff == nil {
			return fmt.Errorf("%w: staff profile is required", ErrInvalidEvent)
		}
		if err := validation.Validate(e.Token, validation.Required); err != nil {
			return fmt.Errorf("%w: token: %v", ErrInvalidEvent, err)
		}
	case EventSetRole:
		if !e.Role.IsValid() {
			return fmt.Errorf("%w: unknown role %q", ErrInvalidEvent, e.Role)
		}
	}
	return nil
}

// validateProfile applies the profile rules enabled by WithProfileValidation.
func (e Event) validateProfile(region string) error {
	switch e.Type {
	case EventLoginAdmin:
		if err := e.Admin.Validate(); err != nil {
			return fmt.Errorf("%w: admin profile: %v", ErrInvalidEvent, err)
		}
	case EventLoginStaff:
		if err := e.Staff.ValidateInRegion(region); err != nil {
			return fmt.Errorf("%w: staff profile: %v", ErrInvalidEvent, err)
		}
	}
	return nil
}

// MachineOption customizes machine construction.
type MachineOption func(*SessionMachine)

// WithMachineLogger overrides the default hclog logger.
func WithMachineLogger(logger Logger) MachineOption {
	return func(m *SessionMachine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMachineActivitySink sets the ActivitySink used to publish transitions.
func WithMachineActivitySink(sink ActivitySink) MachineOption {
	return func(m *SessionMachine) {
		m.activitySink = normalizeActivitySink(sink)
	}
}

// WithMachineClock injects a custom clock (useful for tests).
func WithMachineClock(clock func() time.Time) MachineOption {
	return func(m *SessionMachine) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithPhoneRegion sets the region used to read staff phone numbers written
// without a country prefix.
func WithPhoneRegion(region string) MachineOption {
	return func(m *SessionMachine) {
		if region != "" {
			m.phoneRegion = region
		}
	}
}

// WithProfileValidation rejects logins whose profile fails Validate with
// ErrInvalidEvent. Profiles are stored as given by default.
func WithProfileValidation() MachineOption {
	return func(m *SessionMachine) {
		m.validateProfiles = true
	}
}

// WithPhoneNormalization rewrites valid staff phone numbers to E.164 before
// the session is persisted. Numbers that do not parse are kept as given.
func WithPhoneNormalization() MachineOption {
	return func(m *SessionMachine) {
		m.normalizePhones = true
	}
}

// SessionMachine is the single source of truth for the current session.
// It is safe for concurrent use; asynchronous steps run on the caller's
// goroutine inside Send.
type SessionMachine struct {
	store            SecureStore
	tokens           TokenSetter
	nav              Navigator
	logger           Logger
	activitySink     ActivitySink
	now              func() time.Time
	phoneRegion      string
	validateProfiles bool
	normalizePhones  bool
	transitions      map[State]map[EventType]State

	mu        sync.Mutex
	state     State
	session   Session
	durable   bool
	lastErr   error
	listeners map[int]func(Snapshot)
	nextID    int
}

// NewSessionMachine builds a machine in the idle state. tokens and nav may be
// nil, in which case token updates and redirects are dropped.
func NewSessionMachine(store SecureStore, tokens TokenSetter, nav Navigator, opts ...MachineOption) (*SessionMachine, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if tokens == nil {
		tokens = noopTokenSetter{}
	}
	if nav == nil {
		nav = NavigatorFuncs{}
	}

	m := &SessionMachine{
		store:  store,
		tokens: tokens,
		nav:    nav,
		transitions: map[State]map[EventType]State{
			StateIdle: {
				EventRestore: StateRestoring,
			},
			StateUnauthenticated: {
				EventLoginAdmin: StateLoggingInAdmin,
				EventLoginStaff: StateLoggingInStaff,
				EventSetRole:    StateUnauthenticated,
				EventHardReset:  StateLoggingOut,
			},
			StateAuthenticatedAdmin: {
				EventLogout:    StateLoggingOut,
				EventHardReset: StateLoggingOut,
			},
			StateAuthenticatedStaff: {
				EventLogout:    StateLoggingOut,
				EventHardReset: StateLoggingOut,
			},
		},
		logger:       newDefaultLogger(),
		activitySink: noopActivitySink{},
		now:          time.Now,
		phoneRegion:  DefaultPhoneRegion,
		state:        StateIdle,
		listeners:    map[int]func(Snapshot){},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m, nil
}

// Send delivers an event and runs any asynchronous step it starts to
// completion. The returned error is non-nil only when the event was rejected
// (ErrEventNotAccepted, ErrInvalidEvent); storage failures are reported
// through the returned snapshot.
func (m *SessionMachine) Send(ctx context.Context, evt Event) (Snapshot, error) {
	m.mu.Lock()
	from := m.state
	target, ok := m.next(from, evt.Type)
	if !ok {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, fmt.Errorf("%w: %s in state %s", ErrEventNotAccepted, evt.Type, from)
	}

	err := evt.validate()
	if err == nil && m.validateProfiles {
		err = evt.validateProfile(m.phoneRegion)
	}
	if err != nil {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, err
	}

	switch evt.Type {
	case EventSetRole:
		m.session.RoleHint = evt.Role
		snap := m.snapshotLocked()
		m.mu.Unlock()
		m.logger.Debug("session role hint set", "role", evt.Role)
		m.publish(ctx, evt.Type, from, snap)
		return snap, nil
	case EventLoginAdmin:
		m.session = Session{Role: RoleAdmin, Token: evt.Token, Admin: evt.Admin.clone()}
		m.durable = false
		m.lastErr = nil
	case EventLoginStaff:
		staff := evt.Staff.clone()
		if m.normalizePhones {
			if phone, err := NormalizePhone(staff.Phone, m.phoneRegion); err == nil {
				staff.Phone = phone
			}
		}
		m.session = Session{Role: RoleStaff, Token: evt.Token, Staff: staff}
		m.durable = false
		m.lastErr = nil
	}

	m.state = target
	snap := m.snapshotLocked()
	m.mu.Unlock()
	m.publish(ctx, evt.Type, from, snap)

	switch target {
	case StateRestoring:
		return m.restore(ctx, evt.Type), nil
	case StateLoggingInAdmin, StateLoggingInStaff:
		return m.persist(ctx, evt.Type, snap.Session), nil
	case StateLoggingOut:
		return m.clear(ctx, evt.Type), nil
	}
	return snap, nil
}

// Restore sends RESTORE.
func (m *SessionMachine) Restore(ctx context.Context) (Snapshot, error) {
	return m.Send(ctx, RestoreEvent())
}

// LoginAdmin sends LOGIN_ADMIN.
func (m *SessionMachine) LoginAdmin(ctx context.Context, admin *AdminProfile, token string) (Snapshot, error) {
	return m.Send(ctx, LoginAdminEvent(admin, token))
}

// LoginStaff sends LOGIN_STAFF.
func (m *SessionMachine) LoginStaff(ctx context.Context, staff *StaffProfile, token string) (Snapshot, error) {
	return m.Send(ctx, LoginStaffEvent(staff, token))
}

// SetRole sends SET_ROLE.
func (m *SessionMachine) SetRole(ctx context.Context, role Role) (Snapshot, error) {
	return m.Send(ctx, SetRoleEvent(role))
}

// Logout sends LOGOUT.
func (m *SessionMachine) Logout(ctx context.Context) (Snapshot, error) {
	return m.Send(ctx, LogoutEvent())
}

// HardReset sends HARD_RESET.
func (m *SessionMachine) HardReset(ctx context.Context) (Snapshot, error) {
	return m.Send(ctx, HardResetEvent())
}

// Snapshot returns a copy of the current state and session.
func (m *SessionMachine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *SessionMachine) State() State {
	return m.Snapshot().State
}

func (m *SessionMachine) Status() Status {
	return m.Snapshot().Status()
}

func (m *SessionMachine) Admin() *AdminProfile {
	return m.Snapshot().Admin()
}

func (m *SessionMachine) Staff() *StaffProfile {
	return m.Snapshot().Staff()
}

func (m *SessionMachine) Token() string {
	return m.Snapshot().Token()
}

// Can reports whether the current state accepts the event type.
func (m *SessionMachine) Can(event EventType) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.next(m.state, event)
	return ok
}

// Subscribe registers fn to receive a snapshot after every transition. The
// returned function removes the subscription.
func (m *SessionMachine) Subscribe(fn func(Snapshot)) func() {
	if fn == nil {
		return func() {}
	}
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

func (m *SessionMachine) next(from State, event EventType) (State, bool) {
	if allowed, ok := m.transitions[from]; ok {
		to, exists := allowed[event]
		return to, exists
	}
	return "", false
}

func (m *SessionMachine) restore(ctx context.Context, event EventType) Snapshot {
	record, err := loadSession(ctx, m.store)
	if err == nil && record != nil {
		m.tokens.SetToken(record.Token)
	}

	m.mu.Lock()
	var navigate func()
	switch {
	case err != nil:
		m.enterUnauthenticatedLocked(fmt.Errorf("%w: %w", ErrRestoreFailed, err))
	case record.hasAdminSession():
		m.session = Session{Role: RoleAdmin, Token: record.Token, Admin: record.Admin}
		m.durable = true
		m.state = StateAuthenticatedAdmin
		navigate = m.nav.NavigateAdmin
	case record.hasStaffSession():
		m.session = Session{Role: RoleStaff, Token: record.Token, Staff: record.Staff}
		m.durable = true
		m.state = StateAuthenticatedStaff
		navigate = m.nav.NavigateStaff
	default:
		m.enterUnauthenticatedLocked(nil)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("session restore failed", "error", err)
	} else if record != nil && navigate == nil {
		// A token was registered for a record the guards rejected.
		m.tokens.SetToken("")
		m.logger.Info("persisted session incomplete, starting unauthenticated", "role", record.Role)
	}

	m.publish(ctx, event, StateRestoring, snap)
	if navigate != nil {
		navigate()
	}
	return snap
}

func (m *SessionMachine) persist(ctx context.Context, event EventType, pending Session) Snapshot {
	from := StateLoggingInAdmin
	if pending.Role == RoleStaff {
		from = StateLoggingInStaff
	}

	err := persistSession(ctx, m.store, pending)
	if err == nil {
		m.tokens.SetToken(pending.Token)
	}

	m.mu.Lock()
	var navigate func()
	if err != nil {
		// Roll back the in memory session; it never became durable.
		m.enterUnauthenticatedLocked(fmt.Errorf("%w: %w", ErrPersistFailed, err))
	} else {
		m.durable = true
		if pending.Role == RoleAdmin {
			m.state = StateAuthenticatedAdmin
			navigate = m.nav.NavigateAdmin
		} else {
			m.state = StateAuthenticatedStaff
			navigate = m.nav.NavigateStaff
		}
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("session persist failed", "role", pending.Role, "error", err)
	} else {
		m.logger.Info("session authenticated", "role", pending.Role)
	}

	m.publish(ctx, event, from, snap)
	if navigate != nil {
		navigate()
	}
	return snap
}

func (m *SessionMachine) clear(ctx context.Context, event EventType) Snapshot {
	err := clearSession(ctx, m.store)
	m.tokens.SetToken("")

	m.mu.Lock()
	if err != nil {
		m.enterUnauthenticatedLocked(fmt.Errorf("%w: %w", ErrPersistFailed, err))
	} else {
		m.enterUnauthenticatedLocked(nil)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if err != nil {
		m.logger.Warn("session clear incomplete", "error", err)
	} else {
		m.logger.Info("session cleared")
	}

	m.publish(ctx, event, StateLoggingOut, snap)
	m.nav.NavigateHome()
	return snap
}

// enterUnauthenticatedLocked is the entry action of the unauthenticated
// state: the in memory session is always cleared.
func (m *SessionMachine) enterUnauthenticatedLocked(cause error) {
	m.session = Session{}
	m.durable = false
	m.lastErr = cause
	if cause != nil {
		m.session.Error = cause.Error()
	}
	m.state = StateUnauthenticated
}

func (m *SessionMachine) snapshotLocked() Snapshot {
	return Snapshot{
		State:   m.state,
		Session: m.session.clone(),
		Durable: m.durable,
		Err:     m.lastErr,
	}
}

func (m *SessionMachine) publish(ctx context.Context, event EventType, from State, snap Snapshot) {
	m.logger.Debug("session transition", "event", event, "from", from, "to", snap.State)

	m.mu.Lock()
	listeners := make([]func(Snapshot), 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}

	m.recordActivity(ctx, ActivityEvent{
		EventType: classifyActivity(from, snap.State, snap.Err != nil),
		Event:     event,
		Role:      snap.Session.Role,
		FromState: from,
		ToState:   snap.State,
		Metadata:  activityMetadata(snap),
	})
}

func (m *SessionMachine) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = m.now()
	}

	sink := normalizeActivitySink(m.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		m.logger.Warn("session activity sink error", "error", err)
	}
}

func activityMetadata(snap Snapshot) map[string]any {
	if snap.Err == nil {
		return nil
	}
	return map[string]any{"error": snap.Err.Error()}
}
