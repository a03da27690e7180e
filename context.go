package wsforge

// Context is the per-dispatch value threaded through extractors, middleware,
// and the terminal handler: the inbound Message, the Connection it arrived
// on, the process-wide StateMap, and the fresh per-dispatch Extensions.
type Context struct {
	Message Message
	Conn    Connection
	State   *StateMap
	Ext     *Extensions
}
