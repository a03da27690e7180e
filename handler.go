package wsforge

// Response is what a handler hands back to the dispatcher: at most one
// outbound Message. Handlers build Response values via the constructors
// below rather than touching the wire representation directly.
type Response struct {
	message Message
	empty   bool
}

// NoResponse means "no reply" — nothing is enqueued on the connection.
func NoResponse() Response { return Response{empty: true} }

// TextResponse replies with a Text message.
func TextResponse(s string) Response { return Response{message: NewText(s)} }

// BinaryResponse replies with a Binary message built from b.
func BinaryResponse(b []byte) Response { return Response{message: NewBinary(b)} }

// MessageResponse replies with a caller-built Message verbatim.
func MessageResponse(m Message) Response { return Response{message: m} }

// JSONResponse serializes v and replies with it as Text.
func JSONResponse(v any) (Response, error) {
	msg, err := TextJSON(v)
	if err != nil {
		return Response{}, err
	}
	return Response{message: msg}, nil
}

// Handler is the uniform callable the dispatcher invokes for a resolved
// route: Handle runs whatever extractors the handler was built with (see
// H0..H8) against the Context, does the application work, and returns an
// optional reply.
type Handler interface {
	Handle(ctx *Context) (Response, error)
}

// HandlerFunc adapts a plain function to Handler.
type HandlerFunc func(ctx *Context) (Response, error)

// Handle implements Handler.
func (f HandlerFunc) Handle(ctx *Context) (Response, error) { return f(ctx) }

// H0 builds a Handler taking no extracted arguments.
func H0(fn func(ctx *Context) (Response, error)) Handler {
	return HandlerFunc(fn)
}

// H1 builds a Handler taking one extracted argument.
func H1[A any](a Extractor[A], fn func(ctx *Context, av A) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av)
	})
}

// H2 builds a Handler taking two extracted arguments.
func H2[A, B any](a Extractor[A], b Extractor[B], fn func(ctx *Context, av A, bv B) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		bv, err := b(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av, bv)
	})
}

// H3 builds a Handler taking three extracted arguments.
func H3[A, B, C any](a Extractor[A], b Extractor[B], c Extractor[C], fn func(ctx *Context, av A, bv B, cv C) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		bv, err := b(ctx)
		if err != nil {
			return Response{}, err
		}
		cv, err := c(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av, bv, cv)
	})
}

// H4 builds a Handler taking four extracted arguments.
func H4[A, B, C, D any](a Extractor[A], b Extractor[B], c Extractor[C], d Extractor[D], fn func(ctx *Context, av A, bv B, cv C, dv D) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		bv, err := b(ctx)
		if err != nil {
			return Response{}, err
		}
		cv, err := c(ctx)
		if err != nil {
			return Response{}, err
		}
		dv, err := d(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av, bv, cv, dv)
	})
}

// H5 builds a Handler taking five extracted arguments.
func H5[A, B, C, D, E any](a Extractor[A], b Extractor[B], c Extractor[C], d Extractor[D], e Extractor[E], fn func(ctx *Context, av A, bv B, cv C, dv D, ev E) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		bv, err := b(ctx)
		if err != nil {
			return Response{}, err
		}
		cv, err := c(ctx)
		if err != nil {
			return Response{}, err
		}
		dv, err := d(ctx)
		if err != nil {
			return Response{}, err
		}
		ev, err := e(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av, bv, cv, dv, ev)
	})
}

// H6 builds a Handler taking six extracted arguments.
func H6[A, B, C, D, E, F any](a Extractor[A], b Extractor[B], c Extractor[C], d Extractor[D], e Extractor[E], f Extractor[F], fn func(ctx *Context, av A, bv B, cv C, dv D, ev E, fv F) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		bv, err := b(ctx)
		if err != nil {
			return Response{}, err
		}
		cv, err := c(ctx)
		if err != nil {
			return Response{}, err
		}
		dv, err := d(ctx)
		if err != nil {
			return Response{}, err
		}
		ev, err := e(ctx)
		if err != nil {
			return Response{}, err
		}
		fv, err := f(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av, bv, cv, dv, ev, fv)
	})
}

// H7 builds a Handler taking seven extracted arguments.
func H7[A, B, C, D, E, F, G any](a Extractor[A], b Extractor[B], c Extractor[C], d Extractor[D], e Extractor[E], f Extractor[F], g Extractor[G], fn func(ctx *Context, av A, bv B, cv C, dv D, ev E, fv F, gv G) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		bv, err := b(ctx)
		if err != nil {
			return Response{}, err
		}
		cv, err := c(ctx)
		if err != nil {
			return Response{}, err
		}
		dv, err := d(ctx)
		if err != nil {
			return Response{}, err
		}
		ev, err := e(ctx)
		if err != nil {
			return Response{}, err
		}
		fv, err := f(ctx)
		if err != nil {
			return Response{}, err
		}
		gv, err := g(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av, bv, cv, dv, ev, fv, gv)
	})
}

// H8 builds a Handler taking eight extracted arguments — the arity ceiling
// of spec.md §4.5.
func H8[A, B, C, D, E, F, G, I any](a Extractor[A], b Extractor[B], c Extractor[C], d Extractor[D], e Extractor[E], f Extractor[F], g Extractor[G], i Extractor[I], fn func(ctx *Context, av A, bv B, cv C, dv D, ev E, fv F, gv G, iv I) (Response, error)) Handler {
	return HandlerFunc(func(ctx *Context) (Response, error) {
		av, err := a(ctx)
		if err != nil {
			return Response{}, err
		}
		bv, err := b(ctx)
		if err != nil {
			return Response{}, err
		}
		cv, err := c(ctx)
		if err != nil {
			return Response{}, err
		}
		dv, err := d(ctx)
		if err != nil {
			return Response{}, err
		}
		ev, err := e(ctx)
		if err != nil {
			return Response{}, err
		}
		fv, err := f(ctx)
		if err != nil {
			return Response{}, err
		}
		gv, err := g(ctx)
		if err != nil {
			return Response{}, err
		}
		iv, err := i(ctx)
		if err != nil {
			return Response{}, err
		}
		return fn(ctx, av, bv, cv, dv, ev, fv, gv, iv)
	})
}

// dispatchResponse converts a handler's (Response, error) pair into the
// optional outbound Message the router enqueues, applying the
// "Error: <detail>" convention of spec.md §4.6 when the handler failed.
func dispatchResponse(resp Response, err error) (Message, bool) {
	if err != nil {
		return NewText("Error: " + errorDetail(err)), true
	}
	if resp.empty {
		return Message{}, false
	}
	return resp.message, true
}

func errorDetail(err error) string {
	if e, ok := err.(*Error); ok {
		return e.Detail
	}
	return err.Error()
}
