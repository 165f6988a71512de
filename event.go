package pigpio

import "fmt"

// Event is one fired hardware condition on its way to a handler.
// It is built by the hardware layer and consumed by a single Dispatch call.
type Event struct {
	Kind  Kind
	Index int

	// Value is the pin level for LevelAlert and EdgeInterrupt, and 0 for
	// GenericEvent and OsSignal.
	Value int

	// Tick is pigpio's microsecond tick at the time of the event. It wraps
	// roughly every 72 minutes. Signals carry no tick.
	Tick uint32
}

// Level returns Value as a pin level.
func (e Event) Level() Level {
	return Level(e.Value)
}

// String returns a human-readable description of the event.
func (e Event) String() string {
	switch e.Kind {
	case LevelAlert, EdgeInterrupt:
		return fmt.Sprintf("%s pin=%d level=%s tick=%d", e.Kind, e.Index, e.Level(), e.Tick)
	case GenericEvent:
		return fmt.Sprintf("event id=%d tick=%d", e.Index, e.Tick)
	case OsSignal:
		if name := signalName(e.Index); name != "" {
			return fmt.Sprintf("signal %d (%s)", e.Index, name)
		}
		return fmt.Sprintf("signal %d", e.Index)
	default:
		return fmt.Sprintf("%s index=%d value=%d tick=%d", e.Kind, e.Index, e.Value, e.Tick)
	}
}
