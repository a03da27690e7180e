package wsforge

import "reflect"

// Extractor is the Go shape of the extractor protocol from spec.md §4.5: a
// projection from the dispatch Context to a typed handler argument. Rust's
// compile-time trait dispatch doesn't translate directly, so the contract is
// a plain generic function value instead of an interface with a method —
// every built-in extractor below has this same shape, and handler
// constructors (H0..H8) compose them positionally.
type Extractor[T any] func(ctx *Context) (T, error)

// ExtractMessage returns a copy of the inbound message.
func ExtractMessage(ctx *Context) (Message, error) {
	return ctx.Message, nil
}

// ExtractConnection returns the Connection handle the message arrived on.
func ExtractConnection(ctx *Context) (Connection, error) {
	return ctx.Conn, nil
}

// ExtractConnInfo returns the connection's immutable metadata.
func ExtractConnInfo(ctx *Context) (ConnectionInfo, error) {
	return ctx.Conn.Info(), nil
}

// ExtractData returns the inbound message's raw payload bytes.
func ExtractData(ctx *Context) ([]byte, error) {
	return ctx.Message.Bytes(), nil
}

// ExtractJSON deserializes the inbound Text payload into T. It fails with
// KindInvalidMessage if the message isn't Text, or KindSerialization if the
// payload doesn't parse.
func ExtractJSON[T any](ctx *Context) (T, error) {
	var v T
	if err := ctx.Message.JSON(&v); err != nil {
		return v, err
	}
	return v, nil
}

// ExtractState returns the StateMap value stored for type T, failing with
// KindExtractor if absent.
func ExtractState[T any](ctx *Context) (T, error) {
	v, ok := GetState[T](ctx.State)
	if !ok {
		var zero T
		return zero, newError(KindExtractor, "no state registered for type "+typeName[T]())
	}
	return v, nil
}

// ExtractPath returns the value stored under the well-known "path_params"
// Extensions key, failing with KindExtractor if absent or of the wrong type.
func ExtractPath[T any](ctx *Context) (T, error) {
	return extractExtensionKey[T](ctx, pathParamsKey)
}

// ExtractQuery returns the value stored under the well-known
// "query_params" Extensions key, failing with KindExtractor if absent or of
// the wrong type.
func ExtractQuery[T any](ctx *Context) (T, error) {
	return extractExtensionKey[T](ctx, queryParamsKey)
}

// ExtractExtension returns the value stored in Extensions under the string
// form of T's type identity — the portable fallback the design notes call
// out explicitly, since it needs no reflect.Type comparability guarantees.
func ExtractExtension[T any](ctx *Context) (T, error) {
	return extractExtensionKey[T](ctx, typeName[T]())
}

func extractExtensionKey[T any](ctx *Context, key string) (T, error) {
	var zero T
	raw, ok := ctx.Ext.Get(key)
	if !ok {
		return zero, newError(KindExtractor, "no extension registered for key "+key)
	}
	v, ok := raw.(T)
	if !ok {
		return zero, newError(KindExtractor, "extension under key "+key+" has unexpected type")
	}
	return v, nil
}

func typeName[T any]() string {
	var zero T
	return reflect.TypeOf(&zero).Elem().String()
}
