// Package promsink exports session machine activity as Prometheus metrics.
package promsink

import (
	"context"

	"github.com/goliatone/go-courier"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "courier"
	subsystem = "session"
)

// Sink implements courier.ActivitySink.
type Sink struct {
	transitions   *prometheus.CounterVec
	authenticated *prometheus.GaugeVec
}

// New registers the session metrics on reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Sink {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Sink{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "activity_total",
			Help:      "Session machine activity, labeled by activity type and triggering event",
		}, []string{"activity", "event"}),
		authenticated: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "authenticated",
			Help:      "1 while a session of the role is authenticated",
		}, []string{"role"}),
	}
}

// Record implements courier.ActivitySink.
func (s *Sink) Record(_ context.Context, event courier.ActivityEvent) error {
	if s == nil {
		return nil
	}
	s.transitions.WithLabelValues(string(event.EventType), string(event.Event)).Inc()

	switch event.ToState {
	case courier.StateAuthenticatedAdmin, courier.StateAuthenticatedStaff:
		for _, role := range courier.GetAllRoles() {
			value := 0.0
			if role == event.Role {
				value = 1
			}
			s.authenticated.WithLabelValues(role.String()).Set(value)
		}
	case courier.StateUnauthenticated:
		for _, role := range courier.GetAllRoles() {
			s.authenticated.WithLabelValues(role.String()).Set(0)
		}
	}
	return nil
}

var _ courier.ActivitySink = (*Sink)(nil)

// TransitionsFor returns the activity counter for one label pair.
func (s *Sink) TransitionsFor(activity courier.ActivityEventType, event courier.EventType) prometheus.Counter {
	return s.transitions.WithLabelValues(string(activity), string(event))
}

// AuthenticatedFor returns the authenticated gauge of role.
func (s *Sink) AuthenticatedFor(role courier.Role) prometheus.Gauge {
	return s.authenticated.WithLabelValues(role.String())
}
