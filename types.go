package courier

import (
	"context"

	"github.com/hashicorp/go-hclog"
)

// Logger is the structured logger used by the session machine. Arguments are
// alternating key/value pairs; hclog.Logger satisfies it.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SecureStore is the key/value store holding the persisted session. Get
// reports absent keys with ok=false and a nil error.
type SecureStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// BatchStore is implemented by stores that can write or delete several keys
// all-or-nothing. The machine prefers it over independent writes.
type BatchStore interface {
	SecureStore
	SetMany(ctx context.Context, values map[string]string) error
	DeleteMany(ctx context.Context, keys ...string) error
}

// TokenSetter receives the authoritative bearer token. An empty token means
// no token.
type TokenSetter interface {
	SetToken(token string)
}

// TokenSetterFunc adapts a function to the TokenSetter interface.
type TokenSetterFunc func(token string)

// SetToken implements TokenSetter.
func (f TokenSetterFunc) SetToken(token string) {
	if f != nil {
		f(token)
	}
}

// Navigator performs the role based redirects triggered by transitions.
type Navigator interface {
	NavigateHome()
	NavigateAdmin()
	NavigateStaff()
}

// NavigatorFuncs adapts plain functions to Navigator. Nil fields are no-ops.
type NavigatorFuncs struct {
	Home  func()
	Admin func()
	Staff func()
}

func (n NavigatorFuncs) NavigateHome() {
	if n.Home != nil {
		n.Home()
	}
}

func (n NavigatorFuncs) NavigateAdmin() {
	if n.Admin != nil {
		n.Admin()
	}
}

func (n NavigatorFuncs) NavigateStaff() {
	if n.Staff != nil {
		n.Staff()
	}
}

type noopTokenSetter struct{}

func (noopTokenSetter) SetToken(string) {}

func newDefaultLogger() Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "courier",
		Level: hclog.Info,
	})
}
