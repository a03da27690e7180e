package wsforge

import "fmt"

// ErrorKind tags an Error with the category of failure that produced it, so
// callers can branch on cause without string matching.
type ErrorKind int

const (
	// KindTransport covers I/O failures on the underlying stream.
	KindTransport ErrorKind = iota
	// KindFraming covers WebSocket protocol violations from the framing library.
	KindFraming
	// KindSerialization covers JSON parse/emit failures.
	KindSerialization
	// KindInvalidMessage covers a payload that doesn't match the shape a
	// caller expected (e.g. Text expected, Binary received).
	KindInvalidMessage
	// KindConnectionNotFound covers dispatch targeting an id no longer in
	// the registry.
	KindConnectionNotFound
	// KindRouteNotFound covers a resolved route with no handler and no
	// default.
	KindRouteNotFound
	// KindHandler covers an application-level failure raised by user code.
	KindHandler
	// KindExtractor covers a required input that was absent or ill-typed.
	KindExtractor
	// KindCustom covers an application-specific error with a free-form message.
	KindCustom
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindFraming:
		return "framing"
	case KindSerialization:
		return "serialization"
	case KindInvalidMessage:
		return "invalid_message"
	case KindConnectionNotFound:
		return "connection_not_found"
	case KindRouteNotFound:
		return "route_not_found"
	case KindHandler:
		return "handler"
	case KindExtractor:
		return "extractor"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every core operation. It carries a
// Kind for programmatic branching and a Detail for a human-readable
// description, and wraps any underlying cause so errors.Is/errors.As keep
// working through the stack.
type Error struct {
	Kind   ErrorKind
	Detail string
	cause  error
}

func newError(kind ErrorKind, detail string) *Error {
	return &Error{Kind: kind, Detail: detail}
}

func wrapError(kind ErrorKind, detail string, cause error) *Error {
	return &Error{Kind: kind, Detail: detail, cause: cause}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.cause }

// Is reports whether target is an *Error with the same Kind, so callers can
// write errors.Is(err, wsforge.ErrRouteNotFound) style checks against a
// sentinel built with the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// NewCustomError builds a KindCustom error carrying msg, for application code
// that wants to fail a dispatch without picking a more specific kind.
func NewCustomError(msg string) error {
	return newError(KindCustom, msg)
}

// NewHandlerError builds a KindHandler error, for application handlers that
// want to report a business-logic failure distinct from an extractor or
// transport problem.
func NewHandlerError(msg string) error {
	return newError(KindHandler, msg)
}

// ErrConnectionNotFound is a sentinel usable with errors.Is to detect a
// dispatch that targeted a connection id no longer present in the registry.
var ErrConnectionNotFound = newError(KindConnectionNotFound, "connection not found")

// ErrRouteNotFound is a sentinel usable with errors.Is to detect a dispatch
// with no matching route and no default handler.
var ErrRouteNotFound = newError(KindRouteNotFound, "no route matched and no default handler configured")
