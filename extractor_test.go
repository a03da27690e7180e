package wsforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestContext(msg Message) *Context {
	q := newOutboundQueue(0, OverflowDropOldest)
	conn := newConnection(ConnectionInfo{ID: "conn_t"}, q)
	return &Context{
		Message: msg,
		Conn:    conn,
		State:   NewStateMap(),
		Ext:     NewExtensions(),
	}
}

func TestExtractMessageAndData(t *testing.T) {
	ctx := newTestContext(NewText("payload"))

	msg, err := ExtractMessage(ctx)
	require.NoError(t, err)
	assert.True(t, msg.IsText())

	data, err := ExtractData(ctx)
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), data)
}

func TestExtractConnectionAndInfo(t *testing.T) {
	ctx := newTestContext(NewText("x"))

	conn, err := ExtractConnection(ctx)
	require.NoError(t, err)
	assert.Equal(t, ConnectionID("conn_t"), conn.ID())

	info, err := ExtractConnInfo(ctx)
	require.NoError(t, err)
	assert.Equal(t, ConnectionID("conn_t"), info.ID)
}

func TestExtractJSONSuccessAndFailure(t *testing.T) {
	type payload struct {
		N int `json:"n"`
	}

	ctx := newTestContext(NewText(`{"n": 5}`))
	v, err := ExtractJSON[payload](ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, v.N)

	ctx = newTestContext(NewBinary([]byte("x")))
	_, err = ExtractJSON[payload](ctx)
	require.Error(t, err)
}

func TestExtractStatePresentAndAbsent(t *testing.T) {
	ctx := newTestContext(NewText("x"))
	InsertState(ctx.State, "shared-value")

	v, err := ExtractState[string](ctx)
	require.NoError(t, err)
	assert.Equal(t, "shared-value", v)

	_, err = ExtractState[int](ctx)
	require.Error(t, err)
	var wfErr *Error
	require.ErrorAs(t, err, &wfErr)
	assert.Equal(t, KindExtractor, wfErr.Kind)
}

func TestExtractPathAndQuery(t *testing.T) {
	ctx := newTestContext(NewText("x"))
	ctx.Ext.Set(pathParamsKey, map[string]string{"id": "42"})
	ctx.Ext.Set(queryParamsKey, map[string]string{"verbose": "true"})

	path, err := ExtractPath[map[string]string](ctx)
	require.NoError(t, err)
	assert.Equal(t, "42", path["id"])

	query, err := ExtractQuery[map[string]string](ctx)
	require.NoError(t, err)
	assert.Equal(t, "true", query["verbose"])
}

func TestExtractPathMissingFails(t *testing.T) {
	ctx := newTestContext(NewText("x"))
	_, err := ExtractPath[string](ctx)
	require.Error(t, err)
}

func TestExtractExtensionByTypeName(t *testing.T) {
	type marker struct{ V int }
	ctx := newTestContext(NewText("x"))
	ctx.Ext.Set(typeName[marker](), marker{V: 7})

	v, err := ExtractExtension[marker](ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, v.V)
}
