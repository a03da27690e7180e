package wsforge

// Next is the opaque continuation a Middleware invokes to advance to the
// next middleware in the chain, or to the terminal handler if none remain.
// A middleware that never calls Next short-circuits the chain.
type Next func(ctx *Context) (Response, error)

// Middleware wraps a Handler with pre/post behavior: it may inspect or
// rewrite ctx before calling next, decide not to call next at all, and
// inspect or transform whatever next returns.
type Middleware func(ctx *Context, next Next) (Response, error)

// MiddlewareChain is an ordered sequence of Middleware ending in a terminal
// Handler, shared across every dispatch. Middleware runs in registration
// order on the way in; post-processing unwinds in reverse, since each layer
// wraps the next as a Next closure.
type MiddlewareChain struct {
	layers  []Middleware
	handler Handler
}

// NewMiddlewareChain builds a chain terminating in handler.
func NewMiddlewareChain(handler Handler) *MiddlewareChain {
	return &MiddlewareChain{handler: handler}
}

// Use appends mw to the end of the chain (it runs after everything already
// registered, and its post-processing unwinds before theirs).
func (c *MiddlewareChain) Use(mw Middleware) *MiddlewareChain {
	c.layers = append(c.layers, mw)
	return c
}

// Run invokes the chain once for ctx, in registration order, terminating in
// the wrapped Handler.
func (c *MiddlewareChain) Run(ctx *Context) (Response, error) {
	var next Next
	idx := 0
	next = func(ctx *Context) (Response, error) {
		if idx >= len(c.layers) {
			return c.handler.Handle(ctx)
		}
		mw := c.layers[idx]
		idx++
		return mw(ctx, next)
	}
	return next(ctx)
}
