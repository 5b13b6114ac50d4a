package courier

import (
	"context"
	"errors"
	"time"
)

// ActivityEventType enumerates supported activity categories.
type ActivityEventType string

const (
	ActivityEventStateChanged   ActivityEventType = "session.state.changed"
	ActivityEventRestored       ActivityEventType = "session.restored"
	ActivityEventRestoreFailed  ActivityEventType = "session.restore.failed"
	ActivityEventLoginSuccess   ActivityEventType = "session.login.success"
	ActivityEventLoginFailure   ActivityEventType = "session.login.failure"
	ActivityEventLogout         ActivityEventType = "session.logout"
	ActivityEventLogoutDegraded ActivityEventType = "session.logout.degraded"
)

// ActivityEvent describes one machine transition.
type ActivityEvent struct {
	EventType  ActivityEventType
	Event      EventType
	Role       Role
	FromState  State
	ToState    State
	Metadata   map[string]any
	OccurredAt time.Time
}

// ActivitySink consumes activity events for auditing/telemetry purposes.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// ActivitySinkFunc adapts a function to the ActivitySink interface.
type ActivitySinkFunc func(ctx context.Context, event ActivityEvent) error

// Record implements ActivitySink.
func (f ActivitySinkFunc) Record(ctx context.Context, event ActivityEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopActivitySink struct{}

func (noopActivitySink) Record(context.Context, ActivityEvent) error {
	return nil
}

// MultiActivitySink fans events out to every sink. All sinks are called even
// when one fails; the failures are joined.
func MultiActivitySink(sinks ...ActivitySink) ActivitySink {
	filtered := make([]ActivitySink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return ActivitySinkFunc(func(ctx context.Context, event ActivityEvent) error {
		var errs []error
		for _, s := range filtered {
			if err := s.Record(ctx, event); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func normalizeActivitySink(s ActivitySink) ActivitySink {
	if s == nil {
		return noopActivitySink{}
	}
	return s
}

// classifyActivity names the outcome a transition represents.
func classifyActivity(from, to State, failed bool) ActivityEventType {
	switch {
	case from == StateRestoring && to.Matches(StateAuthenticated):
		return ActivityEventRestored
	case from == StateRestoring && failed:
		return ActivityEventRestoreFailed
	case (from == StateLoggingInAdmin || from == StateLoggingInStaff) && to.Matches(StateAuthenticated):
		return ActivityEventLoginSuccess
	case from == StateLoggingInAdmin || from == StateLoggingInStaff:
		return ActivityEventLoginFailure
	case from == StateLoggingOut && failed:
		return ActivityEventLogoutDegraded
	case from == StateLoggingOut:
		return ActivityEventLogout
	default:
		return ActivityEventStateChanged
	}
}
