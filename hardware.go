package pigpio

import "github.com/obinnaokechukwu/gopigpio/internal/platform"

// DispatchFunc is the entry point the hardware layer calls, from its own
// thread, each time a source fires.
type DispatchFunc func(kind Kind, index, value int, tick uint32)

// Hardware is the layer that actually produces events.
//
// Result codes follow pigpio: >= 0 is success, < 0 is a PI_* error code.
// After DisableDelivery returns, no new call to fn may start for that source.
type Hardware interface {
	EnableDelivery(kind Kind, index int, fn DispatchFunc) int32
	DisableDelivery(kind Kind, index int) int32

	// DisableAllDelivery silences every source at once. It is called before
	// a bulk teardown.
	DisableAllDelivery()
}

// NativeSupported reports whether OpenNative can work on this platform.
// Elsewhere it always returns ErrNativeUnsupported.
func NativeSupported() bool {
	return platform.SupportsNative
}
