package wsforge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConfig struct {
	Name string
}

func TestStateMapInsertGetRemove(t *testing.T) {
	sm := NewStateMap()

	_, ok := GetState[*fakeConfig](sm)
	assert.False(t, ok)

	InsertState(sm, &fakeConfig{Name: "a"})
	v, ok := GetState[*fakeConfig](sm)
	require.True(t, ok)
	assert.Equal(t, "a", v.Name)

	assert.True(t, ContainsState[*fakeConfig](sm))
	assert.Equal(t, 1, sm.Len())

	InsertState(sm, &fakeConfig{Name: "b"})
	v, ok = GetState[*fakeConfig](sm)
	require.True(t, ok)
	assert.Equal(t, "b", v.Name, "insert of same type replaces prior entry")
	assert.Equal(t, 1, sm.Len())

	removed, ok := RemoveState[*fakeConfig](sm)
	require.True(t, ok)
	assert.Equal(t, "b", removed.Name)
	assert.False(t, ContainsState[*fakeConfig](sm))
}

func TestStateMapDistinctTypesDoNotCollide(t *testing.T) {
	sm := NewStateMap()

	type typeA struct{ V int }
	type typeB struct{ V int }

	InsertState(sm, typeA{V: 1})
	InsertState(sm, typeB{V: 2})

	a, ok := GetState[typeA](sm)
	require.True(t, ok)
	assert.Equal(t, 1, a.V)

	b, ok := GetState[typeB](sm)
	require.True(t, ok)
	assert.Equal(t, 2, b.V)
}

func TestStateMapClear(t *testing.T) {
	sm := NewStateMap()
	InsertState(sm, 42)
	require.Equal(t, 1, sm.Len())
	sm.Clear()
	assert.Equal(t, 0, sm.Len())
}
