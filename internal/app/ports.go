package app

import "context"

// Documents is a JSON document tree addressed by slash-separated paths.
// Get leaves out untouched when the path holds no value.
type Documents interface {
	Get(ctx context.Context, path string, out any) error
	Put(ctx context.Context, path string, value any) error
	Delete(ctx context.Context, path string) error
}

// Logger is the structured logger surface used by the service.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
	Error(msg any, keyvals ...any)
}
