package pigpio

import "github.com/obinnaokechukwu/gopigpio/internal/handles"

// Handler receives events for the source it is registered on.
//
// Invoke runs on the hardware layer's monitoring thread. It should return
// quickly: a slow handler delays later events from the same source.
// A handler must not synchronously Unregister its own source; do that from
// another goroutine.
type Handler interface {
	Invoke(index, value int, tick uint32)
}

// ContextHandler is a Handler that also accepts the userdata passed to
// Register. When userdata was registered, InvokeContext is called instead of
// Invoke.
type ContextHandler interface {
	Handler
	InvokeContext(index, value int, tick uint32, userdata any)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(index, value int, tick uint32)

// Invoke calls f.
func (f HandlerFunc) Invoke(index, value int, tick uint32) {
	f(index, value, tick)
}

// ContextHandlerFunc adapts a function to ContextHandler.
type ContextHandlerFunc func(index, value int, tick uint32, userdata any)

// Invoke calls f with nil userdata.
func (f ContextHandlerFunc) Invoke(index, value int, tick uint32) {
	f(index, value, tick, nil)
}

// InvokeContext calls f.
func (f ContextHandlerFunc) InvokeContext(index, value int, tick uint32, userdata any) {
	f(index, value, tick, userdata)
}

// Retainer and Releaser may be implemented by handlers and userdata to
// observe how long the registry keeps them pinned. Each is called exactly
// once per registration.
type (
	Retainer = handles.Retainer
	Releaser = handles.Releaser
)
