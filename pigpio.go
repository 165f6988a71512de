// Package pigpio delivers asynchronous pigpio events (level alerts, edge
// interrupts, generic events and OS signals) from the library's native
// monitoring threads to Go handlers without CGO using purego.
//
// A Registry holds one handler per event source. The hardware layer calls
// Registry.Dispatch from its own thread whenever a source fires; Dispatch
// resolves the handler, enters the configured Runtime and invokes it,
// containing any panic. Unregister does not return until an in-flight
// dispatch for the same source has finished, so a handler is never used after
// it has been released.
//
// For most programs, establish the runtime handle once, then initialize the
// process-wide registry with the native layer:
//
//	if err := pigpio.Load(pigpio.LockedThreadRuntime{}); err != nil {
//		return err
//	}
//	hw, err := pigpio.OpenNative(pigpio.NativeConfig{})
//	if err != nil {
//		return err
//	}
//	defer hw.Close()
//	if _, err := pigpio.Init(hw); err != nil {
//		return err
//	}
//	defer pigpio.Shutdown()
//	err = pigpio.Register(pigpio.EdgeInterrupt, 17, pigpio.HandlerFunc(
//		func(pin, level int, tick uint32) { ... }), nil)
//
// The mock package provides a simulated Hardware for tests.
package pigpio

import (
	"sync"
	"sync/atomic"
)

var (
	defaultMu       sync.Mutex
	defaultRegistry atomic.Pointer[Registry]
)

// Init creates the process-wide registry. It may be called once; later calls
// return the existing registry and ErrAlreadyInitialized.
func Init(hw Hardware, opts ...Option) (*Registry, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if r := defaultRegistry.Load(); r != nil {
		return r, ErrAlreadyInitialized
	}
	r := NewRegistry(hw, opts...)
	defaultRegistry.Store(r)
	return r, nil
}

// Default returns the process-wide registry, or nil before Init.
func Default() *Registry {
	return defaultRegistry.Load()
}

// Register installs h on the process-wide registry. It panics before Init.
func Register(kind Kind, index int, h Handler, userdata any) error {
	r := Default()
	if r == nil {
		panic("pigpio: Register called before Init")
	}
	return r.Register(kind, index, h, userdata)
}

// Unregister removes the handler for (kind, index) from the process-wide
// registry. Before Init nothing can be registered, so only the index is
// checked.
func Unregister(kind Kind, index int) error {
	r := Default()
	if r == nil {
		if !kind.Valid(index) {
			return rangeError("unregister", kind, index)
		}
		return nil
	}
	return r.Unregister(kind, index)
}

// TerminateAll releases every registration of the process-wide registry.
func TerminateAll() {
	if r := Default(); r != nil {
		r.TerminateAll()
	}
}

// Shutdown silences the hardware and closes the process-wide registry.
func Shutdown() {
	if r := Default(); r != nil {
		r.Shutdown()
	}
}

// Dispatch delivers an event through the process-wide registry. Events that
// arrive before Init are logged and dropped.
func Dispatch(kind Kind, index, value int, tick uint32) {
	r := Default()
	if r == nil {
		Logger().Error("dropping event before Init", sourceFields(kind, index)...)
		return
	}
	r.Dispatch(kind, index, value, tick)
}
