package mock_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	pigpio "github.com/obinnaokechukwu/gopigpio"
	"github.com/obinnaokechukwu/gopigpio/mock"
)

type recorder struct {
	mu     sync.Mutex
	events []pigpio.Event
	kind   pigpio.Kind
}

func (r *recorder) Invoke(index, value int, tick uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, pigpio.Event{Kind: r.kind, Index: index, Value: value, Tick: tick})
}

func (r *recorder) got() []pigpio.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pigpio.Event(nil), r.events...)
}

func newRegistry(t *testing.T) (*pigpio.Registry, *mock.Hardware, *observer.ObservedLogs) {
	t.Helper()
	hw := mock.New()
	t.Cleanup(func() { hw.Close() })
	core, logs := observer.New(zapcore.DebugLevel)
	r := pigpio.NewRegistry(hw, pigpio.WithRuntime(pigpio.DirectRuntime{}), pigpio.WithLogger(zap.New(core)))
	return r, hw, logs
}

func TestFireDeliversInOrder(t *testing.T) {
	r, hw, _ := newRegistry(t)
	rec := &recorder{kind: pigpio.LevelAlert}

	if err := r.Register(pigpio.LevelAlert, 4, rec, nil); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if !hw.Enabled(pigpio.LevelAlert, 4) {
		t.Fatal("source should be enabled after Register")
	}

	for i := 0; i < 10; i++ {
		if !hw.Fire(pigpio.LevelAlert, 4, i%2, uint32(i)) {
			t.Fatalf("Fire %d was not queued", i)
		}
	}
	hw.Flush()

	got := rec.got()
	if len(got) != 10 {
		t.Fatalf("delivered: got %d want 10", len(got))
	}
	for i, e := range got {
		if e.Tick != uint32(i) || e.Value != i%2 || e.Index != 4 {
			t.Errorf("event %d: got %v", i, e)
		}
	}
	if n := hw.Dispatched(); n != 10 {
		t.Errorf("Dispatched: got %d want 10", n)
	}
}

func TestFireUnregisteredSource(t *testing.T) {
	_, hw, _ := newRegistry(t)
	if hw.Fire(pigpio.EdgeInterrupt, 17, 1, 0) {
		t.Error("Fire should not queue for a source that was never enabled")
	}
}

func TestRejectLeavesSlotEmpty(t *testing.T) {
	r, hw, _ := newRegistry(t)
	hw.Reject(pigpio.EdgeInterrupt, 17, pigpio.PI_BAD_ISR_INIT)

	err := r.Register(pigpio.EdgeInterrupt, 17, &recorder{}, nil)
	if !errors.Is(err, pigpio.ErrHardwareRejected) {
		t.Fatalf("Register: got %v want ErrHardwareRejected", err)
	}
	if pigpio.Code(err) != pigpio.PI_BAD_ISR_INIT {
		t.Errorf("Code: got %d", pigpio.Code(err))
	}
	if r.Registered(pigpio.EdgeInterrupt, 17) || r.Pinned() != 0 {
		t.Error("rejected registration should leave nothing behind")
	}

	// The rejection is one-shot.
	if err := r.Register(pigpio.EdgeInterrupt, 17, &recorder{}, nil); err != nil {
		t.Errorf("retry Register failed: %v", err)
	}
}

func TestUnregisterDiscardsQueuedEvents(t *testing.T) {
	r, hw, logs := newRegistry(t)

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	var calls int
	var mu sync.Mutex
	h := pigpio.HandlerFunc(func(int, int, uint32) {
		mu.Lock()
		calls++
		mu.Unlock()
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
	})

	if err := r.Register(pigpio.GenericEvent, 5, h, nil); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		hw.Fire(pigpio.GenericEvent, 5, 0, uint32(i))
	}
	<-started

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := r.Unregister(pigpio.GenericEvent, 5); err != nil {
			t.Errorf("Unregister failed: %v", err)
		}
	}()

	select {
	case <-done:
		t.Fatal("Unregister returned while a dispatch was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-done
	hw.Flush()

	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Errorf("handler calls: got %d want 1", calls)
	}
	if r.Pinned() != 0 {
		t.Errorf("Pinned after Unregister: %d", r.Pinned())
	}
	if logs.FilterMessage("handler panicked").Len() != 0 {
		t.Error("unexpected handler fault")
	}
}

func TestTriggerEvent(t *testing.T) {
	r, hw, _ := newRegistry(t)
	rec := &recorder{kind: pigpio.GenericEvent}
	if err := r.Register(pigpio.GenericEvent, 31, rec, nil); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	if err := hw.TriggerEvent(31); err != nil {
		t.Fatalf("TriggerEvent failed: %v", err)
	}
	if err := hw.TriggerEvent(32); !pigpio.IsOutOfRange(err) {
		t.Errorf("TriggerEvent(32): got %v", err)
	}
	hw.Flush()

	got := rec.got()
	if len(got) != 1 || got[0].Index != 31 || got[0].Value != 0 {
		t.Errorf("delivered: %v", got)
	}
}

func TestShutdownSilencesHardware(t *testing.T) {
	r, hw, _ := newRegistry(t)
	for _, kind := range pigpio.Kinds() {
		if err := r.Register(kind, 1, &recorder{kind: kind}, nil); err != nil {
			t.Fatalf("Register %s failed: %v", kind, err)
		}
	}

	r.Shutdown()
	if hw.DisableAllCalls() != 1 {
		t.Errorf("DisableAllCalls: got %d want 1", hw.DisableAllCalls())
	}
	for _, kind := range pigpio.Kinds() {
		if hw.Enabled(kind, 1) {
			t.Errorf("%s still enabled after Shutdown", kind)
		}
	}
	if r.Len() != 0 || r.Pinned() != 0 {
		t.Errorf("registry not empty after Shutdown: len=%d pinned=%d", r.Len(), r.Pinned())
	}
	if err := r.Register(pigpio.LevelAlert, 1, &recorder{}, nil); !errors.Is(err, pigpio.ErrClosed) {
		t.Errorf("Register after Shutdown: got %v want ErrClosed", err)
	}
}

func TestBadIndexCodes(t *testing.T) {
	hw := mock.New()
	defer hw.Close()
	noop := func(pigpio.Kind, int, int, uint32) {}

	tests := []struct {
		kind  pigpio.Kind
		index int
		code  int32
	}{
		{pigpio.LevelAlert, 32, pigpio.PI_BAD_USER_GPIO},
		{pigpio.EdgeInterrupt, 54, pigpio.PI_BAD_GPIO},
		{pigpio.GenericEvent, 32, pigpio.PI_BAD_EVENT_ID},
		{pigpio.OsSignal, 64, pigpio.PI_BAD_SIGNUM},
	}
	for _, tt := range tests {
		if got := hw.EnableDelivery(tt.kind, tt.index, noop); got != tt.code {
			t.Errorf("%s[%d]: got %d want %d", tt.kind, tt.index, got, tt.code)
		}
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	hw := mock.New()
	noop := func(pigpio.Kind, int, int, uint32) {}
	if code := hw.EnableDelivery(pigpio.OsSignal, 2, noop); code != 0 {
		t.Fatalf("EnableDelivery: %d", code)
	}
	if err := hw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if hw.Fire(pigpio.OsSignal, 2, 0, 0) {
		t.Error("Fire should fail after Close")
	}
	if code := hw.EnableDelivery(pigpio.OsSignal, 2, noop); code != pigpio.PI_NOT_INITIALISED {
		t.Errorf("EnableDelivery after Close: got %d", code)
	}
	hw.Flush()
	_ = hw.Close()
}
