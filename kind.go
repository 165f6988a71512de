package pigpio

import "fmt"

// Kind is a class of event source. Each kind has its own index range and
// registry table.
type Kind int

const (
	// LevelAlert reports level changes on a user GPIO (gpioSetAlertFunc).
	LevelAlert Kind = iota
	// EdgeInterrupt reports edges on any GPIO (gpioSetISRFunc).
	EdgeInterrupt
	// GenericEvent reports pigpio events 0-31 (eventSetFunc).
	GenericEvent
	// OsSignal reports delivery of an OS signal (gpioSetSignalFunc).
	OsSignal

	numKinds = 4
)

// Index bounds, inclusive. These mirror pigpio's PI_MAX_USER_GPIO, PI_MAX_GPIO,
// PI_MAX_EVENT and PI_MAX_SIGNUM.
const (
	MaxUserGPIO = 31
	MaxGPIO     = 53
	MaxEvent    = 31
	MaxSignum   = 63
)

// Kinds returns every event source kind in table order.
func Kinds() []Kind {
	return []Kind{LevelAlert, EdgeInterrupt, GenericEvent, OsSignal}
}

// Max returns the largest valid index for k, or -1 for an unknown kind.
func (k Kind) Max() int {
	switch k {
	case LevelAlert:
		return MaxUserGPIO
	case EdgeInterrupt:
		return MaxGPIO
	case GenericEvent:
		return MaxEvent
	case OsSignal:
		return MaxSignum
	default:
		return -1
	}
}

// Valid reports whether index lies within k's range.
func (k Kind) Valid(index int) bool {
	return index >= 0 && index <= k.Max()
}

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case LevelAlert:
		return "alert"
	case EdgeInterrupt:
		return "isr"
	case GenericEvent:
		return "event"
	case OsSignal:
		return "signal"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Level is the value delivered with pin events.
type Level int

// Level constants matching pigpio's PI_LOW, PI_HIGH and PI_TIMEOUT.
const (
	Low     Level = 0
	High    Level = 1
	Timeout Level = 2 // ISR watchdog expired without an edge
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case Low:
		return "low"
	case High:
		return "high"
	case Timeout:
		return "timeout"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// Edge selects which transitions fire an EdgeInterrupt.
type Edge uint32

// Edge constants matching pigpio's RISING_EDGE, FALLING_EDGE and EITHER_EDGE.
const (
	RisingEdge  Edge = 0
	FallingEdge Edge = 1
	EitherEdge  Edge = 2
)
