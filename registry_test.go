package wsforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection(id ConnectionID) (Connection, *outboundQueue) {
	q := newOutboundQueue(0, OverflowDropOldest)
	return newConnection(ConnectionInfo{ID: id}, q), q
}

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewConnectionRegistry()
	conn, _ := newTestConnection("conn_0")

	count := r.Add(conn)
	assert.Equal(t, 1, count)

	got, ok := r.Get("conn_0")
	require.True(t, ok)
	assert.Equal(t, conn.ID(), got.ID())

	assert.Equal(t, 1, r.Count())

	removed, ok := r.Remove("conn_0")
	require.True(t, ok)
	assert.Equal(t, conn.ID(), removed.ID())
	assert.Equal(t, 0, r.Count())

	_, ok = r.Get("conn_0")
	assert.False(t, ok, "registry membership: get must return absent strictly outside connect/disconnect window")
}

func TestRegistryBroadcastReachesAll(t *testing.T) {
	r := NewConnectionRegistry()
	conn1, q1 := newTestConnection("conn_1")
	conn2, q2 := newTestConnection("conn_2")
	r.Add(conn1)
	r.Add(conn2)

	r.Broadcast(NewText("hello"))

	for _, q := range []*outboundQueue{q1, q2} {
		msg, ok := q.pop()
		require.True(t, ok)
		text, _ := msg.Text()
		assert.Equal(t, "hello", text)
	}
}

func TestRegistryBroadcastExceptSkipsOne(t *testing.T) {
	r := NewConnectionRegistry()
	conn1, q1 := newTestConnection("conn_1")
	conn2, q2 := newTestConnection("conn_2")
	r.Add(conn1)
	r.Add(conn2)

	r.BroadcastExcept("conn_1", NewText("hi"))

	q1.close()
	_, ok := q1.pop()
	assert.False(t, ok, "excepted connection must not receive the broadcast")

	msg, ok := q2.pop()
	require.True(t, ok)
	text, _ := msg.Text()
	assert.Equal(t, "hi", text)
}

func TestRegistryBroadcastToSubset(t *testing.T) {
	r := NewConnectionRegistry()
	conn1, q1 := newTestConnection("conn_1")
	conn2, q2 := newTestConnection("conn_2")
	conn3, q3 := newTestConnection("conn_3")
	r.Add(conn1)
	r.Add(conn2)
	r.Add(conn3)

	r.BroadcastTo([]ConnectionID{"conn_1", "conn_3", "conn_unknown"}, NewText("targeted"))

	for _, q := range []*outboundQueue{q1, q3} {
		msg, ok := q.pop()
		require.True(t, ok)
		text, _ := msg.Text()
		assert.Equal(t, "targeted", text)
	}

	q2.close()
	_, ok := q2.pop()
	assert.False(t, ok, "connection not in the target list must not receive the message")
}

func TestRegistryAllIDsSnapshot(t *testing.T) {
	r := NewConnectionRegistry()
	conn1, _ := newTestConnection("conn_1")
	conn2, _ := newTestConnection("conn_2")
	r.Add(conn1)
	r.Add(conn2)

	ids := r.AllIDs()
	assert.ElementsMatch(t, []ConnectionID{"conn_1", "conn_2"}, ids)
}
