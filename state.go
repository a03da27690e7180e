package wsforge

import (
	"reflect"
	"sync"
)

// StateMap is a thread-safe, type-indexed container for shared singletons —
// database handles, the ConnectionRegistry itself, application config. It is
// populated once before the listener starts serving and read from every
// dispatch thereafter; the map structure itself stays read-mostly, though the
// values stored in it may be internally mutable.
//
// Go has no compile-time TypeId, so the lookup key is the value's
// reflect.Type — comparable, stable across calls, and requires no generated
// glue or string hashing.
type StateMap struct {
	mu   sync.RWMutex
	data map[reflect.Type]any
}

// NewStateMap returns an empty StateMap ready for use.
func NewStateMap() *StateMap {
	return &StateMap{data: make(map[reflect.Type]any)}
}

// InsertState stores value under its own runtime type, replacing any prior
// entry of the same type. It's a free function rather than a StateMap method
// because Go methods can't be generic over T while the receiver stays
// concrete.
func InsertState[T any](s *StateMap, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[reflect.TypeOf(value)] = value
}

// GetState looks up the value stored for type T, if any.
func GetState[T any](s *StateMap) (T, bool) {
	var zero T
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	return v.(T), true
}

// ContainsState reports whether a value of type T is stored.
func ContainsState[T any](s *StateMap) bool {
	var zero T
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[reflect.TypeOf(zero)]
	return ok
}

// RemoveState deletes the value stored for type T, returning it if present.
func RemoveState[T any](s *StateMap) (T, bool) {
	var zero T
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[reflect.TypeOf(zero)]
	if !ok {
		return zero, false
	}
	delete(s.data, reflect.TypeOf(zero))
	return v.(T), true
}

// Len reports how many distinct types are currently stored.
func (s *StateMap) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Clear removes every stored value.
func (s *StateMap) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[reflect.Type]any)
}
