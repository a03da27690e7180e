package wsforge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesOnKind(t *testing.T) {
	err := newError(KindRouteNotFound, "no route for /foo")
	assert.True(t, errors.Is(err, ErrRouteNotFound))
	assert.False(t, errors.Is(err, ErrConnectionNotFound))
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("disk full")
	wrapped := wrapError(KindTransport, "writing frame", cause)

	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, wrapped.Error(), "disk full")
	assert.Contains(t, wrapped.Error(), "writing frame")
}

func TestNewCustomAndHandlerErrorKinds(t *testing.T) {
	var wfErr *Error

	err := NewCustomError("application said no")
	assert.ErrorAs(t, err, &wfErr)
	assert.Equal(t, KindCustom, wfErr.Kind)

	err = NewHandlerError("business rule violated")
	assert.ErrorAs(t, err, &wfErr)
	assert.Equal(t, KindHandler, wfErr.Kind)
}

func TestErrorKindStringCoversAllKinds(t *testing.T) {
	kinds := []ErrorKind{
		KindTransport, KindFraming, KindSerialization, KindInvalidMessage,
		KindConnectionNotFound, KindRouteNotFound, KindHandler, KindExtractor, KindCustom,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "unknown", k.String())
	}
}
