//go:build linux && (amd64 || arm64)

package pigpio

import (
	"sync"
	"sync/atomic"

	"github.com/ebitengine/purego"
	"go.uber.org/zap"

	"github.com/obinnaokechukwu/gopigpio/internal/bindings"
)

// Native is the Hardware backed by libpigpio. pigpio is a per-process
// library, so at most one Native may be open at a time.
type Native struct {
	cfg NativeConfig

	mu      sync.Mutex
	enabled [numKinds]map[int]bool
	closed  bool

	// fns[k] is the dispatch entry the trampolines forward kind k to.
	fns [numKinds]atomic.Pointer[DispatchFunc]
}

// NativeConfig configures the native layer.
type NativeConfig struct {
	// LibDir restricts the libpigpio search to one directory. When empty the
	// PIGPIO_LIB_DIR environment variable and the system paths are used.
	LibDir string

	// ISREdge selects which edges fire EdgeInterrupt sources.
	ISREdge Edge

	// ISRTimeout is the interrupt watchdog in milliseconds. When it expires
	// with no edge, handlers receive level Timeout. Zero disables it.
	ISRTimeout int
}

// DefaultNativeConfig returns the configuration pigpio itself defaults to:
// interrupts on either edge and no watchdog.
func DefaultNativeConfig() NativeConfig {
	return NativeConfig{ISREdge: EitherEdge}
}

// Pre-registered callbacks to avoid hitting purego's callback limit.
// They are created once and shared by every source; the pigpio index they
// receive selects the slot.
var (
	trampolineOnce    sync.Once
	alertCallbackPtr  uintptr
	isrCallbackPtr    uintptr
	eventCallbackPtr  uintptr
	signalCallbackPtr uintptr

	activeNative atomic.Pointer[Native]
)

func initTrampolines() {
	trampolineOnce.Do(func() {
		// void gpioAlertFunc_t(int gpio, int level, uint32_t tick)
		alertCallbackPtr = purego.NewCallback(func(_ purego.CDecl, gpio, level int32, tick uint32) {
			forward(LevelAlert, int(gpio), int(level), tick)
		})

		// void gpioISRFunc_t(int gpio, int level, uint32_t tick)
		isrCallbackPtr = purego.NewCallback(func(_ purego.CDecl, gpio, level int32, tick uint32) {
			forward(EdgeInterrupt, int(gpio), int(level), tick)
		})

		// void eventFunc_t(int event, uint32_t tick)
		eventCallbackPtr = purego.NewCallback(func(_ purego.CDecl, event int32, tick uint32) {
			forward(GenericEvent, int(event), 0, tick)
		})

		// void gpioSignalFunc_t(int signum)
		signalCallbackPtr = purego.NewCallback(func(_ purego.CDecl, signum int32) {
			forward(OsSignal, int(signum), 0, 0)
		})
	})
}

// forward runs on a pigpio thread.
func forward(kind Kind, index, value int, tick uint32) {
	n := activeNative.Load()
	if n == nil {
		return
	}
	fn := n.fns[kind].Load()
	if fn == nil {
		return
	}
	(*fn)(kind, index, value, tick)
}

// OpenNative loads libpigpio and initialises it.
// Call Close when done; it terminates the library.
func OpenNative(cfg NativeConfig) (*Native, error) {
	if cfg.LibDir != "" {
		bindings.SetSearchDir(cfg.LibDir)
	}
	if err := bindings.Load(); err != nil {
		return nil, err
	}
	initTrampolines()

	n := &Native{cfg: cfg}
	for i := range n.enabled {
		n.enabled[i] = make(map[int]bool)
	}
	if !activeNative.CompareAndSwap(nil, n) {
		return nil, ErrNativeOpen
	}

	code, err := bindings.Initialise()
	if err == nil {
		err = hardwareError("initialise", noKind, 0, code)
	}
	if err != nil {
		activeNative.CompareAndSwap(n, nil)
		return nil, err
	}

	Logger().Info("pigpio initialised",
		zap.Int32("version", code),
		zap.String("library", bindings.Path()))
	return n, nil
}

// EnableDelivery installs the trampoline for (kind, index) and routes its
// events to fn.
func (n *Native) EnableDelivery(kind Kind, index int, fn DispatchFunc) int32 {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return PI_NOT_INITIALISED
	}
	if !kind.Valid(index) {
		return badIndexCode(kind)
	}

	n.fns[kind].Store(&fn)
	code, err := n.set(kind, index, true)
	if err != nil {
		Logger().Warn("native enable failed", append(sourceFields(kind, index), zap.Error(err))...)
		return PI_NOT_INITIALISED
	}
	if code >= 0 {
		n.enabled[kind][index] = true
	}
	return code
}

// DisableDelivery removes the callback for (kind, index). pigpio stops
// scheduling the callback before it returns.
func (n *Native) DisableDelivery(kind Kind, index int) int32 {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return PI_NOT_INITIALISED
	}
	if !kind.Valid(index) {
		return badIndexCode(kind)
	}

	code, err := n.set(kind, index, false)
	if err != nil {
		return PI_NOT_INITIALISED
	}
	delete(n.enabled[kind], index)
	return code
}

// DisableAllDelivery removes every callback this layer installed and stops
// forwarding events.
func (n *Native) DisableAllDelivery() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disableAllLocked()
}

func (n *Native) disableAllLocked() {
	for _, kind := range Kinds() {
		n.fns[kind].Store(nil)
		for index := range n.enabled[kind] {
			_, _ = n.set(kind, index, false)
		}
		n.enabled[kind] = make(map[int]bool)
	}
}

func (n *Native) set(kind Kind, index int, on bool) (int32, error) {
	var cb uintptr
	switch kind {
	case LevelAlert:
		if on {
			cb = alertCallbackPtr
		}
		return bindings.SetAlertFunc(uint32(index), cb)
	case EdgeInterrupt:
		if on {
			return bindings.SetISRFunc(uint32(index), uint32(n.cfg.ISREdge), int32(n.cfg.ISRTimeout), isrCallbackPtr)
		}
		return bindings.SetISRFunc(uint32(index), 0, 0, 0)
	case GenericEvent:
		if on {
			cb = eventCallbackPtr
		}
		return bindings.SetEventFunc(uint32(index), cb)
	case OsSignal:
		if on {
			cb = signalCallbackPtr
		}
		return bindings.SetSignalFunc(uint32(index), cb)
	}
	return badIndexCode(kind), nil
}

// TriggerEvent fires generic event id on the pigpio side.
func (n *Native) TriggerEvent(id int) error {
	if !GenericEvent.Valid(id) {
		return rangeError("trigger", GenericEvent, id)
	}
	code, err := bindings.TriggerEvent(uint32(id))
	if err != nil {
		return err
	}
	return hardwareError("trigger", GenericEvent, id, code)
}

// Version returns the pigpio library version.
func (n *Native) Version() uint32 {
	return bindings.Version()
}

// HardwareRevision returns the board's hardware revision.
func (n *Native) HardwareRevision() uint32 {
	return bindings.HardwareRevision()
}

// Close disables every source and terminates libpigpio.
func (n *Native) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	n.disableAllLocked()
	bindings.Terminate()
	activeNative.CompareAndSwap(n, nil)
	return nil
}

func badIndexCode(kind Kind) int32 {
	switch kind {
	case LevelAlert:
		return PI_BAD_USER_GPIO
	case EdgeInterrupt:
		return PI_BAD_GPIO
	case GenericEvent:
		return PI_BAD_EVENT_ID
	case OsSignal:
		return PI_BAD_SIGNUM
	default:
		return PI_BAD_GPIO
	}
}
