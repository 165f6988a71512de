package pigpio

import (
	"fmt"

	"go.uber.org/zap"
)

// Dispatch delivers one fired event to the handler registered for
// (kind, index). It is the DispatchFunc the registry hands to the hardware
// layer and may be called from any thread, concurrently for any sources.
//
// Dispatch never returns an error and never panics: an empty slot, a failed
// runtime attach or a panicking handler drops the event and is logged.
func (r *Registry) Dispatch(kind Kind, index, value int, tick uint32) {
	log := r.logger()

	rt := r.rt.get()
	if rt == nil {
		log.Error("dropping event", append(sourceFields(kind, index), zap.Error(ErrRuntimeNotLoaded))...)
		return
	}

	detach, err := attach(rt)
	if err != nil {
		log.Error("dropping event", append(sourceFields(kind, index), zap.Error(err))...)
		return
	}
	defer detach()

	s := r.slot(kind, index)
	if s == nil {
		log.Warn("dropping event for out of range source", sourceFields(kind, index)...)
		return
	}

	reg := s.acquire()
	if reg == nil {
		// Unregistered between the hardware firing and this call.
		log.Debug("dropping event for empty slot", sourceFields(kind, index)...)
		return
	}
	defer s.release(reg)

	r.invoke(reg, Event{Kind: kind, Index: index, Value: value, Tick: tick})
}

// attach enters rt, converting a failure or panic into ErrRuntimeAttachFailed.
func attach(rt Runtime) (detach func(), err error) {
	defer func() {
		if p := recover(); p != nil {
			detach, err = nil, fmt.Errorf("%w: %v", ErrRuntimeAttachFailed, p)
		}
	}()
	detach, err = rt.Attach()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRuntimeAttachFailed, err)
	}
	if detach == nil {
		detach = func() {}
	}
	return detach, nil
}

func (r *Registry) invoke(reg *registration, e Event) {
	defer func() {
		if p := recover(); p != nil {
			r.logger().Error("handler panicked",
				append(sourceFields(e.Kind, e.Index),
					zap.Error(fmt.Errorf("%w: %v", ErrHandlerFault, p)),
					zap.Stack("stack"))...)
		}
	}()

	v, ok := r.refs.Lookup(reg.handlerRef)
	if !ok {
		r.logger().Error("handler reference released while registered", sourceFields(e.Kind, e.Index)...)
		return
	}
	h := v.(Handler)

	if reg.userdataRef == 0 {
		h.Invoke(e.Index, e.Value, e.Tick)
		return
	}
	userdata, ok := r.refs.Lookup(reg.userdataRef)
	if !ok {
		r.logger().Error("userdata reference released while registered", sourceFields(e.Kind, e.Index)...)
		return
	}
	h.(ContextHandler).InvokeContext(e.Index, e.Value, e.Tick, userdata)
}
