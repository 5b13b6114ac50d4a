package activitymap_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-courier"
	"github.com/goliatone/go-courier/activitymap"
	"github.com/goliatone/go-courier/storage"
	"github.com/google/uuid"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 1, 10, 9, 30, 0, 0, time.UTC)
	event := courier.ActivityEvent{
		EventType: courier.ActivityEventLoginSuccess,
		Event:     courier.EventLoginStaff,
		Role:      courier.RoleStaff,
		FromState: courier.StateLoggingInStaff,
		ToState:   courier.StateAuthenticatedStaff,
		Metadata: map[string]any{
			"device": "pda-7",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "staff" {
		t.Fatalf("expected actor_id staff, got %q", out.ActorID)
	}
	if out.Verb != string(courier.ActivityEventLoginSuccess) {
		t.Fatalf("expected verb %q, got %q", courier.ActivityEventLoginSuccess, out.Verb)
	}
	if out.ObjectType != "session" {
		t.Fatalf("expected object_type session, got %q", out.ObjectType)
	}
	if out.ObjectID != string(courier.StateAuthenticatedStaff) {
		t.Fatalf("expected object_id %q, got %q", courier.StateAuthenticatedStaff, out.ObjectID)
	}
	if out.Channel != "courier" {
		t.Fatalf("expected channel courier, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["device"] != "pda-7" {
		t.Fatalf("expected metadata device pda-7, got %#v", out.Metadata["device"])
	}
	if out.Metadata[activitymap.MetadataKeyEvent] != string(courier.EventLoginStaff) {
		t.Fatalf("expected metadata event LOGIN_STAFF, got %#v", out.Metadata[activitymap.MetadataKeyEvent])
	}
	if out.Metadata[activitymap.MetadataKeyFromState] != string(courier.StateLoggingInStaff) {
		t.Fatalf("expected metadata from_state, got %#v", out.Metadata[activitymap.MetadataKeyFromState])
	}
	if out.Metadata[activitymap.MetadataKeyToState] != string(courier.StateAuthenticatedStaff) {
		t.Fatalf("expected metadata to_state, got %#v", out.Metadata[activitymap.MetadataKeyToState])
	}

	if _, ok := event.Metadata[activitymap.MetadataKeyEvent]; ok {
		t.Fatalf("expected source metadata to stay untouched")
	}
}

func TestNormalizeOptionsAndFallbacks(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	event := courier.ActivityEvent{
		EventType: courier.ActivityEventLogout,
		Event:     courier.EventLogout,
		ToState:   courier.StateUnauthenticated,
	}

	out := activitymap.Normalize(event,
		activitymap.WithDefaultChannel(" driver-app "),
		activitymap.WithDefaultObjectType("operator_session"),
		activitymap.WithActorFallback("device-1"),
		activitymap.WithObjectIDResolver(func(courier.ActivityEvent) string { return " tenant-1 " }),
		activitymap.WithClock(func() time.Time { return now }),
	)

	if out.ActorID != "device-1" {
		t.Fatalf("expected actor fallback device-1, got %q", out.ActorID)
	}
	if out.Channel != "driver-app" {
		t.Fatalf("expected trimmed channel, got %q", out.Channel)
	}
	if out.ObjectType != "operator_session" {
		t.Fatalf("expected object type operator_session, got %q", out.ObjectType)
	}
	if out.ObjectID != "tenant-1" {
		t.Fatalf("expected resolved object id tenant-1, got %q", out.ObjectID)
	}
	if !out.OccurredAt.Equal(now) {
		t.Fatalf("expected clock time %v, got %v", now, out.OccurredAt)
	}
	if _, ok := out.Metadata[activitymap.MetadataKeyFromState]; ok {
		t.Fatalf("expected empty from_state to be omitted")
	}
}

func TestRecorderCollectsMachineActivity(t *testing.T) {
	t.Parallel()

	recorder := activitymap.NewRecorder()
	m, err := courier.NewSessionMachine(storage.NewMemoryStore(), nil, nil,
		courier.WithMachineActivitySink(recorder))
	if err != nil {
		t.Fatalf("new machine: %v", err)
	}

	ctx := context.Background()
	if _, err := m.Restore(ctx); err != nil {
		t.Fatalf("restore: %v", err)
	}
	admin := &courier.AdminProfile{ID: uuid.NewString(), Email: "ops@example.com"}
	if _, err := m.LoginAdmin(ctx, admin, "token"); err != nil {
		t.Fatalf("login: %v", err)
	}

	entries := recorder.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(entries))
	}
	last := entries[len(entries)-1]
	if last.Verb != string(courier.ActivityEventLoginSuccess) || last.ActorID != "admin" {
		t.Fatalf("unexpected last entry %+v", last)
	}
	if entries[0].ActorID != "system" {
		t.Fatalf("expected system actor before login, got %q", entries[0].ActorID)
	}
}
