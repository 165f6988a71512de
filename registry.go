package pigpio

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/obinnaokechukwu/gopigpio/internal/handles"
)

// registration is one active Register call. The handler and userdata are
// reached only through their pinned handles.
type registration struct {
	handlerRef  handles.Handle
	userdataRef handles.Handle // 0 if no userdata was registered

	// Guarded by the owning slot's mu.
	active  int
	retired bool
	drained chan struct{} // closed when active drops to 0 after retirement
}

// slot holds at most one registration for a (kind, index) pair.
type slot struct {
	op sync.Mutex // serializes Register, Unregister and TerminateAll on this slot

	mu  sync.Mutex
	reg *registration
}

// acquire returns the current registration, counting the caller as in flight.
func (s *slot) acquire() *registration {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg := s.reg
	if reg != nil {
		reg.active++
	}
	return reg
}

func (s *slot) release(reg *registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	reg.active--
	if reg.active == 0 && reg.retired {
		close(reg.drained)
	}
}

func (s *slot) install(reg *registration) {
	s.mu.Lock()
	s.reg = reg
	s.mu.Unlock()
}

// retire empties the slot and blocks until every dispatch that acquired the
// removed registration has released it. Returns nil if the slot was empty.
func (s *slot) retire() *registration {
	s.mu.Lock()
	reg := s.reg
	if reg == nil {
		s.mu.Unlock()
		return nil
	}
	s.reg = nil
	reg.retired = true
	wait := reg.active > 0
	s.mu.Unlock()

	if wait {
		<-reg.drained
	}
	return reg
}

func (s *slot) registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reg != nil
}

// Registry maps every event source to at most one handler.
//
// Tables are fixed-size arrays sized to pigpio's limits, so lookups are O(1)
// and never allocate. Register, Unregister and TerminateAll may be called from
// any goroutine; Dispatch may run concurrently with all of them.
type Registry struct {
	hw       Hardware
	rt       *runtimeHandle
	log      *zap.Logger
	refs     handles.Table
	dispatch DispatchFunc
	closed   atomic.Bool

	alerts  [MaxUserGPIO + 1]slot
	isrs    [MaxGPIO + 1]slot
	events  [MaxEvent + 1]slot
	signals [MaxSignum + 1]slot
}

// Option configures a Registry.
type Option func(*Registry)

// WithRuntime makes the registry attach through rt instead of the
// process-wide runtime handle.
func WithRuntime(rt Runtime) Option {
	return func(r *Registry) {
		h := &runtimeHandle{}
		if h.set(rt) == nil {
			r.rt = h
		}
	}
}

// WithLogger sets the registry's logger. By default the package Logger is used.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		r.log = l
	}
}

// NewRegistry creates an empty registry delivering through hw.
func NewRegistry(hw Hardware, opts ...Option) *Registry {
	r := &Registry{
		hw: hw,
		rt: &processRuntime,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.dispatch = r.Dispatch
	return r
}

func (r *Registry) logger() *zap.Logger {
	if r.log != nil {
		return r.log
	}
	return Logger()
}

func (r *Registry) table(kind Kind) []slot {
	switch kind {
	case LevelAlert:
		return r.alerts[:]
	case EdgeInterrupt:
		return r.isrs[:]
	case GenericEvent:
		return r.events[:]
	case OsSignal:
		return r.signals[:]
	default:
		return nil
	}
}

// slot returns the slot for (kind, index), or nil if index is out of range.
func (r *Registry) slot(kind Kind, index int) *slot {
	t := r.table(kind)
	if index < 0 || index >= len(t) {
		return nil
	}
	return &t[index]
}

func (r *Registry) pin(h Handler, userdata any) *registration {
	reg := &registration{
		handlerRef: r.refs.Pin(h),
		drained:    make(chan struct{}),
	}
	if userdata != nil {
		reg.userdataRef = r.refs.Pin(userdata)
	}
	return reg
}

func (r *Registry) unpin(reg *registration) {
	if reg == nil {
		return
	}
	r.refs.Unpin(reg.handlerRef)
	if reg.userdataRef != 0 {
		r.refs.Unpin(reg.userdataRef)
	}
}

// Register installs h as the handler for (kind, index) and asks the hardware
// layer to start delivering that source. userdata, if non-nil, is passed back
// unchanged on every call and requires h to implement ContextHandler.
//
// A previous registration on the same source is fully released before h is
// installed. If the hardware rejects the request the slot is left empty and
// the returned error wraps ErrHardwareRejected.
//
// Register panics if the registry has no runtime handle: call Load or use
// WithRuntime first.
func (r *Registry) Register(kind Kind, index int, h Handler, userdata any) error {
	s := r.slot(kind, index)
	if s == nil {
		return rangeError("register", kind, index)
	}
	if h == nil {
		return &Error{Op: "register", Kind: kind, Index: index, Err: ErrNilHandler}
	}
	if userdata != nil {
		if _, ok := h.(ContextHandler); !ok {
			return &Error{Op: "register", Kind: kind, Index: index, Err: ErrContextUnsupported}
		}
	}
	if r.rt.get() == nil {
		panic("pigpio: Register called before the runtime handle was loaded")
	}

	s.op.Lock()
	defer s.op.Unlock()

	if r.closed.Load() {
		return ErrClosed
	}

	log := r.logger()
	if old := s.retire(); old != nil {
		r.unpin(old)
		log.Debug("replaced registration", sourceFields(kind, index)...)
	}

	reg := r.pin(h, userdata)
	s.install(reg)

	code := r.hw.EnableDelivery(kind, index, r.dispatch)
	if err := hardwareError("register", kind, index, code); err != nil {
		r.unpin(s.retire())
		log.Warn("hardware rejected registration", append(sourceFields(kind, index), zap.Error(err))...)
		return err
	}

	log.Debug("registered", sourceFields(kind, index)...)
	return nil
}

// Unregister stops delivery for (kind, index) and releases its handler.
// It is a no-op if nothing is registered. Unregister returns only after any
// dispatch already running for that source has finished.
func (r *Registry) Unregister(kind Kind, index int) error {
	s := r.slot(kind, index)
	if s == nil {
		return rangeError("unregister", kind, index)
	}

	s.op.Lock()
	defer s.op.Unlock()

	if !s.registered() {
		return nil
	}

	log := r.logger()
	if code := r.hw.DisableDelivery(kind, index); code < 0 {
		// Release anyway; late events will find the slot empty.
		log.Warn("hardware disable failed",
			append(sourceFields(kind, index), zap.Int32("code", code), zap.String("reason", ErrorString(code)))...)
	}

	r.unpin(s.retire())
	log.Debug("unregistered", sourceFields(kind, index)...)
	return nil
}

// TerminateAll releases every registration of every kind without asking the
// hardware to disable each source; the caller is expected to have silenced
// the hardware already. It is safe to call repeatedly.
func (r *Registry) TerminateAll() {
	released := 0
	for _, kind := range Kinds() {
		t := r.table(kind)
		for i := range t {
			s := &t[i]
			s.op.Lock()
			reg := s.retire()
			s.op.Unlock()
			if reg != nil {
				r.unpin(reg)
				released++
			}
		}
	}
	if released > 0 {
		r.logger().Info("terminated all registrations", zap.Int("released", released))
	}
}

// Shutdown silences the hardware, releases every registration and closes the
// registry for good. Later Register calls return ErrClosed.
func (r *Registry) Shutdown() {
	if r.closed.Swap(true) {
		return
	}
	r.hw.DisableAllDelivery()
	r.TerminateAll()
}

// Registered reports whether a handler is installed for (kind, index).
func (r *Registry) Registered(kind Kind, index int) bool {
	s := r.slot(kind, index)
	return s != nil && s.registered()
}

// Len returns the number of installed registrations across all kinds.
func (r *Registry) Len() int {
	n := 0
	for _, kind := range Kinds() {
		t := r.table(kind)
		for i := range t {
			if t[i].registered() {
				n++
			}
		}
	}
	return n
}

// Pinned returns how many handler and userdata references the registry
// currently holds.
func (r *Registry) Pinned() int {
	return r.refs.Len()
}
