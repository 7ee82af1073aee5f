package chat

import (
	"context"
	"errors"

	"campusbot/internal/model"
)

// ErrBackendNotConfigured is returned by NopBackend.
var ErrBackendNotConfigured = errors.New("chat backend not configured")

// Backend answers free-text chat turns that are not event searches.
// history holds the conversation before message, oldest first.
type Backend interface {
	Send(ctx context.Context, message string, history []model.Message) (string, error)
}

// Configurable is implemented by backends that can report whether they are
// ready to take requests.
type Configurable interface {
	Configured() bool
}

// NopBackend is the default backend. It is never configured, so chat turns
// fall back to the canned responder.
type NopBackend struct{}

func (NopBackend) Send(context.Context, string, []model.Message) (string, error) {
	return "", ErrBackendNotConfigured
}

func (NopBackend) Configured() bool { return false }

// BackendFunc adapts a function to Backend.
type BackendFunc func(ctx context.Context, message string, history []model.Message) (string, error)

func (f BackendFunc) Send(ctx context.Context, message string, history []model.Message) (string, error) {
	return f(ctx, message, history)
}

func backendConfigured(b Backend) bool {
	if b == nil {
		return false
	}
	if c, ok := b.(Configurable); ok {
		return c.Configured()
	}
	return true
}
