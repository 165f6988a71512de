package pigpio

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// ErrIndexOutOfRange indicates an index outside its kind's range.
	ErrIndexOutOfRange = errors.New("pigpio: index out of range")

	// ErrHardwareRejected indicates the hardware layer refused to enable delivery.
	ErrHardwareRejected = errors.New("pigpio: hardware rejected request")

	// ErrRuntimeAttachFailed indicates a dispatch could not re-enter the runtime.
	ErrRuntimeAttachFailed = errors.New("pigpio: runtime attach failed")

	// ErrHandlerFault indicates a handler panicked during dispatch.
	ErrHandlerFault = errors.New("pigpio: handler fault")

	// ErrRuntimeNotLoaded indicates the process-wide runtime handle is unset.
	ErrRuntimeNotLoaded = errors.New("pigpio: runtime handle not loaded")

	// ErrAlreadyLoaded indicates Load was called more than once.
	ErrAlreadyLoaded = errors.New("pigpio: runtime handle already loaded")

	// ErrNilHandler indicates Register was called without a handler.
	ErrNilHandler = errors.New("pigpio: handler cannot be nil; use Unregister")

	// ErrContextUnsupported indicates userdata was supplied for a handler that
	// does not implement ContextHandler.
	ErrContextUnsupported = errors.New("pigpio: handler does not accept userdata")

	// ErrClosed indicates the registry has been shut down.
	ErrClosed = errors.New("pigpio: registry is shut down")

	// ErrAlreadyInitialized indicates Init was called more than once.
	ErrAlreadyInitialized = errors.New("pigpio: default registry already initialized")

	// ErrNativeOpen indicates the native layer is already open in this process.
	ErrNativeOpen = errors.New("pigpio: native layer already open")

	// ErrNativeUnsupported indicates libpigpio cannot be used on this platform.
	ErrNativeUnsupported = errors.New("pigpio: native layer requires linux on amd64 or arm64")
)

// pigpio error codes (PI_* values) the bridge can surface.
const (
	PI_INIT_FAILED     int32 = -1
	PI_BAD_USER_GPIO   int32 = -2
	PI_BAD_GPIO        int32 = -3
	PI_BAD_SIGNUM      int32 = -22
	PI_NOT_INITIALISED int32 = -31
	PI_BAD_EDGE        int32 = -122
	PI_BAD_ISR_INIT    int32 = -123
	PI_BAD_EVENT_ID    int32 = -143
)

// Error is a failed registry or hardware operation.
type Error struct {
	Op    string // Operation that failed
	Kind  Kind   // Source kind, or noKind for process-level operations
	Index int    // Source index
	Code  int32  // Raw pigpio code, 0 if the failure is local
	Err   error  // Sentinel error
}

// Error implements the error interface.
func (e *Error) Error() string {
	op := e.Op
	if e.Kind.Max() >= 0 {
		op = fmt.Sprintf("%s %s[%d]", e.Op, e.Kind, e.Index)
	}
	if e.Code != 0 {
		return fmt.Sprintf("pigpio %s: %s (code %d)", op, ErrorString(e.Code), e.Code)
	}
	return fmt.Sprintf("pigpio %s: %v", op, e.Err)
}

// Unwrap returns the sentinel so errors.Is works.
func (e *Error) Unwrap() error {
	return e.Err
}

// noKind marks an Error that is not tied to a source.
const noKind Kind = -1

func rangeError(op string, kind Kind, index int) error {
	return &Error{Op: op, Kind: kind, Index: index, Err: ErrIndexOutOfRange}
}

// hardwareError returns nil if code >= 0.
func hardwareError(op string, kind Kind, index int, code int32) error {
	if code >= 0 {
		return nil
	}
	return &Error{Op: op, Kind: kind, Index: index, Code: code, Err: ErrHardwareRejected}
}

// Code returns the pigpio error code from an error, or 0 if there is none.
func Code(err error) int32 {
	var pErr *Error
	if errors.As(err, &pErr) {
		return pErr.Code
	}
	return 0
}

// IsOutOfRange returns true if err reports an invalid index.
func IsOutOfRange(err error) bool {
	return errors.Is(err, ErrIndexOutOfRange)
}

// ErrorString returns pigpio's description of code.
func ErrorString(code int32) string {
	switch code {
	case PI_INIT_FAILED:
		return "pigpio initialisation failed"
	case PI_BAD_USER_GPIO:
		return "GPIO not 0-31"
	case PI_BAD_GPIO:
		return "GPIO not 0-53"
	case PI_BAD_SIGNUM:
		return "signum not 0-63"
	case PI_NOT_INITIALISED:
		return "function called before gpioInitialise"
	case PI_BAD_EDGE:
		return "bad ISR edge value, not 0-2"
	case PI_BAD_ISR_INIT:
		return "bad ISR initialisation"
	case PI_BAD_EVENT_ID:
		return "bad event id"
	default:
		if code >= 0 {
			return "success"
		}
		return "unknown error"
	}
}
