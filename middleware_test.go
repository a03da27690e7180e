package wsforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareChainOrderingAndPostProcessing(t *testing.T) {
	var order []string

	mark := func(name string) Middleware {
		return func(ctx *Context, next Next) (Response, error) {
			order = append(order, "pre:"+name)
			resp, err := next(ctx)
			order = append(order, "post:"+name)
			return resp, err
		}
	}

	handler := HandlerFunc(func(ctx *Context) (Response, error) {
		order = append(order, "handler")
		return NoResponse(), nil
	})

	chain := NewMiddlewareChain(handler).Use(mark("a")).Use(mark("b"))
	ctx := newTestContext(NewText("x"))

	_, err := chain.Run(ctx)
	require.NoError(t, err)

	assert.Equal(t, []string{"pre:a", "pre:b", "handler", "post:b", "post:a"}, order)
}

func TestMiddlewareShortCircuit(t *testing.T) {
	handlerCalled := false
	handler := HandlerFunc(func(ctx *Context) (Response, error) {
		handlerCalled = true
		return NoResponse(), nil
	})

	blocking := func(ctx *Context, next Next) (Response, error) {
		return TextResponse("blocked"), nil
	}

	chain := NewMiddlewareChain(handler).Use(blocking)
	ctx := newTestContext(NewText("x"))

	resp, err := chain.Run(ctx)
	require.NoError(t, err)
	assert.False(t, handlerCalled, "a middleware that never calls next must short-circuit the handler")
	text, _ := resp.message.Text()
	assert.Equal(t, "blocked", text)
}

func TestMiddlewareRunIsSafeForConcurrentDispatch(t *testing.T) {
	handler := HandlerFunc(func(ctx *Context) (Response, error) {
		return TextResponse("ok"), nil
	})
	chain := NewMiddlewareChain(handler).Use(func(ctx *Context, next Next) (Response, error) {
		return next(ctx)
	})

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			ctx := newTestContext(NewText("x"))
			_, err := chain.Run(ctx)
			done <- err
		}()
	}
	for i := 0; i < 20; i++ {
		require.NoError(t, <-done)
	}
}
