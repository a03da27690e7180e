package wsforge

import "sync"

// well-known Extensions keys used by the built-in Path/Query extractors.
const (
	pathParamsKey  = "path_params"
	queryParamsKey = "query_params"
)

// Extensions is a thread-safe, string-keyed scratchpad created fresh for
// every inbound Message, threaded through the middleware chain, and
// discarded once the handler returns. Unlike StateMap it is request-scoped
// and its keys are chosen by middleware authors at runtime rather than by
// static type.
type Extensions struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewExtensions returns an empty Extensions ready for one dispatch.
func NewExtensions() *Extensions {
	return &Extensions{data: make(map[string]any)}
}

// Set stores value under key, replacing any prior entry.
func (e *Extensions) Set(key string, value any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.data[key] = value
}

// Get looks up the value stored under key.
func (e *Extensions) Get(key string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.data[key]
	return v, ok
}

// Remove deletes the value stored under key.
func (e *Extensions) Remove(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.data, key)
}

// Len reports how many keys are currently stored.
func (e *Extensions) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.data)
}
