package middleware

import (
	"github.com/google/uuid"

	"github.com/wsforge-go/wsforge"
)

// requestIDKey is the Extensions key RequestID stamps and ID reads back.
const requestIDKey = "request_id"

// RequestID stamps a fresh UUID onto Extensions for every dispatch, so
// downstream middleware and telemetry (wsforge/events) can correlate a
// single inbound message across logs.
func RequestID() wsforge.Middleware {
	return func(ctx *wsforge.Context, next wsforge.Next) (wsforge.Response, error) {
		ctx.Ext.Set(requestIDKey, uuid.NewString())
		return next(ctx)
	}
}

// ID returns the request id stamped by RequestID, if that middleware ran.
func ID(ctx *wsforge.Context) (string, bool) {
	v, ok := ctx.Ext.Get(requestIDKey)
	if !ok {
		return "", false
	}
	id, ok := v.(string)
	return id, ok
}
