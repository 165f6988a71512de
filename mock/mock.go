// Package mock provides a simulated pigpio hardware layer.
//
// Each event source kind has its own monitor goroutine standing in for the
// native thread pigpio would call back on. Fired events are queued per kind
// and dispatched in order from that goroutine, so delivery is serialized per
// kind and concurrent across kinds, as on a real board.
package mock

import (
	"sync"
	"time"

	"github.com/eapache/queue"

	pigpio "github.com/obinnaokechukwu/gopigpio"
)

type source struct {
	kind  pigpio.Kind
	index int
}

type pending struct {
	fn    pigpio.DispatchFunc
	event pigpio.Event
}

type monitor struct {
	queue *queue.Queue // of pending
	busy  bool
}

// Hardware is an in-memory pigpio.Hardware.
type Hardware struct {
	mu   sync.Mutex
	cond *sync.Cond
	wg   sync.WaitGroup

	start    time.Time
	monitors [4]*monitor
	enabled  map[source]pigpio.DispatchFunc
	reject   map[source]int32
	closed   bool

	enableCalls     int
	disableCalls    int
	disableAllCalls int
	dispatched      int
}

var _ pigpio.Hardware = (*Hardware)(nil)

// New starts a simulated hardware layer. Call Close to stop its monitors.
func New() *Hardware {
	h := &Hardware{
		start:   time.Now(),
		enabled: make(map[source]pigpio.DispatchFunc),
		reject:  make(map[source]int32),
	}
	h.cond = sync.NewCond(&h.mu)
	for _, kind := range pigpio.Kinds() {
		m := &monitor{queue: queue.New()}
		h.monitors[kind] = m
		h.wg.Add(1)
		go h.run(m)
	}
	return h
}

func (h *Hardware) run(m *monitor) {
	defer h.wg.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	for {
		for m.queue.Length() == 0 && !h.closed {
			h.cond.Wait()
		}
		if h.closed {
			return
		}

		p := m.queue.Remove().(pending)
		m.busy = true
		h.mu.Unlock()

		p.fn(p.event.Kind, p.event.Index, p.event.Value, p.event.Tick)

		h.mu.Lock()
		m.busy = false
		h.dispatched++
		h.cond.Broadcast()
	}
}

// EnableDelivery starts routing fired events for (kind, index) to fn.
func (h *Hardware) EnableDelivery(kind pigpio.Kind, index int, fn pigpio.DispatchFunc) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.enableCalls++
	if h.closed {
		return pigpio.PI_NOT_INITIALISED
	}
	if !kind.Valid(index) {
		return badIndexCode(kind)
	}
	src := source{kind, index}
	if code, ok := h.reject[src]; ok {
		delete(h.reject, src)
		return code
	}
	h.enabled[src] = fn
	return 0
}

// DisableDelivery stops routing events for (kind, index) and discards any
// that were fired but not yet dispatched.
func (h *Hardware) DisableDelivery(kind pigpio.Kind, index int) int32 {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.disableCalls++
	if h.closed {
		return pigpio.PI_NOT_INITIALISED
	}
	if !kind.Valid(index) {
		return badIndexCode(kind)
	}
	delete(h.enabled, source{kind, index})
	h.purge(func(e pigpio.Event) bool { return e.Kind == kind && e.Index == index })
	return 0
}

// DisableAllDelivery silences every source.
func (h *Hardware) DisableAllDelivery() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.disableAllCalls++
	h.enabled = make(map[source]pigpio.DispatchFunc)
	h.purge(func(pigpio.Event) bool { return true })
}

// purge drops queued events matching drop. Callers hold h.mu.
func (h *Hardware) purge(drop func(pigpio.Event) bool) {
	for _, m := range h.monitors {
		kept := queue.New()
		for m.queue.Length() > 0 {
			p := m.queue.Remove().(pending)
			if !drop(p.event) {
				kept.Add(p)
			}
		}
		m.queue = kept
	}
	h.cond.Broadcast()
}

// Fire queues an event as if the hardware had detected it. It reports false,
// and queues nothing, if the source is not enabled.
func (h *Hardware) Fire(kind pigpio.Kind, index, value int, tick uint32) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}
	fn, ok := h.enabled[source{kind, index}]
	if !ok {
		return false
	}
	h.monitors[kind].queue.Add(pending{
		fn:    fn,
		event: pigpio.Event{Kind: kind, Index: index, Value: value, Tick: tick},
	})
	h.cond.Broadcast()
	return true
}

// Tick returns microseconds since New, wrapping like pigpio's gpioTick.
func (h *Hardware) Tick() uint32 {
	return uint32(time.Since(h.start).Microseconds())
}

// TriggerEvent fires generic event id with the current tick.
func (h *Hardware) TriggerEvent(id int) error {
	if !pigpio.GenericEvent.Valid(id) {
		return &pigpio.Error{Op: "trigger", Kind: pigpio.GenericEvent, Index: id, Err: pigpio.ErrIndexOutOfRange}
	}
	h.Fire(pigpio.GenericEvent, id, 0, h.Tick())
	return nil
}

// Flush blocks until every queued event has been dispatched and no monitor
// is mid-dispatch.
func (h *Hardware) Flush() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for !h.closed && !h.idle() {
		h.cond.Wait()
	}
}

func (h *Hardware) idle() bool {
	for _, m := range h.monitors {
		if m.busy || m.queue.Length() > 0 {
			return false
		}
	}
	return true
}

// Reject makes the next EnableDelivery for (kind, index) fail with code.
func (h *Hardware) Reject(kind pigpio.Kind, index int, code int32) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reject[source{kind, index}] = code
}

// Enabled reports whether (kind, index) is currently delivering.
func (h *Hardware) Enabled(kind pigpio.Kind, index int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.enabled[source{kind, index}]
	return ok
}

// EnableCalls returns how many times EnableDelivery has been called.
func (h *Hardware) EnableCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.enableCalls
}

// DisableCalls returns how many times DisableDelivery has been called.
func (h *Hardware) DisableCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disableCalls
}

// DisableAllCalls returns how many times DisableAllDelivery has been called.
func (h *Hardware) DisableAllCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disableAllCalls
}

// Dispatched returns how many events the monitors have handed to dispatch.
func (h *Hardware) Dispatched() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dispatched
}

// Close stops the monitors. Queued events are discarded; a dispatch already
// running is allowed to finish.
func (h *Hardware) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.cond.Broadcast()
	h.mu.Unlock()

	h.wg.Wait()
	return nil
}

func badIndexCode(kind pigpio.Kind) int32 {
	switch kind {
	case pigpio.LevelAlert:
		return pigpio.PI_BAD_USER_GPIO
	case pigpio.GenericEvent:
		return pigpio.PI_BAD_EVENT_ID
	case pigpio.OsSignal:
		return pigpio.PI_BAD_SIGNUM
	default:
		return pigpio.PI_BAD_GPIO
	}
}
