package activitymap

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-courier"
)

const (
	// MetadataKeyEvent stores the machine event that caused the transition.
	MetadataKeyEvent = "event"
	// MetadataKeyFromState stores the source machine state.
	MetadataKeyFromState = "from_state"
	// MetadataKeyToState stores the target machine state.
	MetadataKeyToState = "to_state"
)

const (
	defaultChannel    = "courier"
	defaultObjectType = "session"
	defaultActorID    = "system"
)

// Normalized is a transport-agnostic activity shape for downstream systems.
type Normalized struct {
	ActorID    string         `json:"actor_id"`
	Verb       string         `json:"verb"`
	ObjectType string         `json:"object_type,omitempty"`
	ObjectID   string         `json:"object_id,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// Option customizes normalization behavior.
type Option func(*normalizeOptions)

type normalizeOptions struct {
	channel          string
	objectType       string
	actorFallback    string
	objectIDResolver func(courier.ActivityEvent) string
	now              func() time.Time
}

// Normalize converts a courier.ActivityEvent into a generic normalized shape.
// The session role is the actor; unauthenticated transitions fall back to
// the configured actor.
func Normalize(event courier.ActivityEvent, opts ...Option) Normalized {
	options := defaultNormalizeOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	actorID := firstNonEmpty(
		strings.TrimSpace(string(event.Role)),
		strings.TrimSpace(options.actorFallback),
	)

	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = options.now().UTC()
	}

	return Normalized{
		ActorID:    actorID,
		Verb:       string(event.EventType),
		ObjectType: strings.TrimSpace(options.objectType),
		ObjectID:   resolveObjectID(event, options.objectIDResolver),
		Channel:    strings.TrimSpace(options.channel),
		Metadata:   normalizeMetadata(event),
		OccurredAt: occurredAt,
	}
}

// WithDefaultChannel sets the default channel for normalized records.
func WithDefaultChannel(channel string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.channel = strings.TrimSpace(channel)
	}
}

// WithDefaultObjectType sets the default object type for normalized records.
func WithDefaultObjectType(objectType string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectType = strings.TrimSpace(objectType)
	}
}

// WithObjectIDResolver overrides object-id extraction. By default the target
// state is the object id.
func WithObjectIDResolver(resolver func(courier.ActivityEvent) string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.objectIDResolver = resolver
	}
}

// WithActorFallback sets the actor id used when the event carries no role.
func WithActorFallback(actorID string) Option {
	return func(opts *normalizeOptions) {
		if opts == nil {
			return
		}
		opts.actorFallback = strings.TrimSpace(actorID)
	}
}

// WithClock sets the clock used for events without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(opts *normalizeOptions) {
		if opts == nil || now == nil {
			return
		}
		opts.now = now
	}
}

func defaultNormalizeOptions() normalizeOptions {
	return normalizeOptions{
		channel:       defaultChannel,
		objectType:    defaultObjectType,
		actorFallback: defaultActorID,
		now:           time.Now,
	}
}

func resolveObjectID(event courier.ActivityEvent, resolver func(courier.ActivityEvent) string) string {
	if resolver != nil {
		return strings.TrimSpace(resolver(event))
	}
	return strings.TrimSpace(string(event.ToState))
}

func normalizeMetadata(event courier.ActivityEvent) map[string]any {
	metadata := cloneMap(event.Metadata)

	set := func(key, value string) {
		if value == "" {
			return
		}
		if metadata == nil {
			metadata = map[string]any{}
		}
		metadata[key] = value
	}
	set(MetadataKeyEvent, string(event.Event))
	set(MetadataKeyFromState, string(event.FromState))
	set(MetadataKeyToState, string(event.ToState))

	return metadata
}

func cloneMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if value != "" {
			return value
		}
	}
	return ""
}

// Recorder is a courier.ActivitySink keeping normalized records in memory.
type Recorder struct {
	opts []Option

	mu      sync.Mutex
	entries []Normalized
}

// NewRecorder returns a Recorder normalizing with opts.
func NewRecorder(opts ...Option) *Recorder {
	return &Recorder{opts: opts}
}

// Record implements courier.ActivitySink.
func (r *Recorder) Record(_ context.Context, event courier.ActivityEvent) error {
	entry := Normalize(event, r.opts...)
	r.mu.Lock()
	r.entries = append(r.entries, entry)
	r.mu.Unlock()
	return nil
}

// Entries returns a copy of the recorded entries in arrival order.
func (r *Recorder) Entries() []Normalized {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Normalized(nil), r.entries...)
}

var _ courier.ActivitySink = (*Recorder)(nil)
