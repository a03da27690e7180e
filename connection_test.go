package wsforge

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextConnectionIDMonotonicAndFormatted(t *testing.T) {
	first := nextConnectionID()
	second := nextConnectionID()

	assert.True(t, strings.HasPrefix(string(first), "conn_"))
	assert.NotEqual(t, first, second)
}

func TestConnectionSendEnqueuesOntoQueue(t *testing.T) {
	q := newOutboundQueue(0, OverflowDropOldest)
	conn := newConnection(ConnectionInfo{ID: "conn_x"}, q)

	require.NoError(t, conn.SendText("hi"))
	msg, ok := q.pop()
	require.True(t, ok)
	text, _ := msg.Text()
	assert.Equal(t, "hi", text)
}

func TestConnectionSendJSON(t *testing.T) {
	q := newOutboundQueue(0, OverflowDropOldest)
	conn := newConnection(ConnectionInfo{ID: "conn_y"}, q)

	require.NoError(t, conn.SendJSON(map[string]int{"a": 1}))
	msg, ok := q.pop()
	require.True(t, ok)
	var decoded map[string]int
	require.NoError(t, msg.JSON(&decoded))
	assert.Equal(t, 1, decoded["a"])
}

func TestConnectionSendWithNoQueueFails(t *testing.T) {
	conn := Connection{info: ConnectionInfo{ID: "conn_z"}}
	err := conn.Send(NewText("x"))
	require.Error(t, err)
}
