package pigpio

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Runtime is the environment a native monitoring thread must enter before a
// handler may run on it. Attach is called once per dispatch and the returned
// detach is always called, even when the handler panics.
type Runtime interface {
	Attach() (detach func(), err error)
}

// LockedThreadRuntime keeps the dispatching goroutine on its OS thread for
// the duration of the handler call. Use it when handlers touch thread-bound
// state such as thread-local C libraries.
type LockedThreadRuntime struct{}

// Attach locks the current goroutine to its thread.
func (LockedThreadRuntime) Attach() (func(), error) {
	runtime.LockOSThread()
	return runtime.UnlockOSThread, nil
}

// DirectRuntime runs handlers with no attach step.
type DirectRuntime struct{}

// Attach does nothing.
func (DirectRuntime) Attach() (func(), error) {
	return func() {}, nil
}

// runtimeHandle is a Runtime slot that is written at most once.
type runtimeHandle struct {
	once sync.Once
	rt   atomic.Pointer[Runtime]
}

func (h *runtimeHandle) set(rt Runtime) error {
	if rt == nil {
		return ErrRuntimeNotLoaded
	}
	err := ErrAlreadyLoaded
	h.once.Do(func() {
		h.rt.Store(&rt)
		err = nil
	})
	return err
}

func (h *runtimeHandle) get() Runtime {
	p := h.rt.Load()
	if p == nil {
		return nil
	}
	return *p
}

var processRuntime runtimeHandle

// Load establishes the process-wide runtime handle. It succeeds exactly once;
// later calls return ErrAlreadyLoaded and leave the handle unchanged.
func Load(rt Runtime) error {
	return processRuntime.set(rt)
}

// Loaded reports whether Load has established the process-wide handle.
func Loaded() bool {
	return processRuntime.get() != nil
}
