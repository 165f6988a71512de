//go:build !(linux && (amd64 || arm64))

package pigpio

// Native is unavailable on this platform; OpenNative always fails.
type Native struct{}

// NativeConfig configures the native layer.
type NativeConfig struct {
	LibDir     string
	ISREdge    Edge
	ISRTimeout int
}

// DefaultNativeConfig returns the configuration pigpio itself defaults to.
func DefaultNativeConfig() NativeConfig {
	return NativeConfig{ISREdge: EitherEdge}
}

// OpenNative returns ErrNativeUnsupported.
func OpenNative(NativeConfig) (*Native, error) {
	return nil, ErrNativeUnsupported
}

func (*Native) EnableDelivery(Kind, int, DispatchFunc) int32 { return PI_NOT_INITIALISED }
func (*Native) DisableDelivery(Kind, int) int32              { return PI_NOT_INITIALISED }
func (*Native) DisableAllDelivery()                          {}
func (*Native) TriggerEvent(int) error                       { return ErrNativeUnsupported }
func (*Native) Version() uint32                              { return 0 }
func (*Native) HardwareRevision() uint32                     { return 0 }
func (*Native) Close() error                                 { return nil }
