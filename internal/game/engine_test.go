package game

import (
	"context"
	"testing"
)

type stubEngine struct {
	typ     Type
	started bool
	stopped bool
}

func (s *stubEngine) Type() Type                      { return s.typ }
func (s *stubEngine) Start(ctx context.Context) error { s.started = true; return nil }
func (s *stubEngine) Stop() error                     { s.stopped = true; return nil }
func (s *stubEngine) State() any                      { return nil }

func (s *stubEngine) PlaceBet(ctx context.Context, req any) (any, error) {
	return nil, nil
}

func (s *stubEngine) ProcessAction(ctx context.Context, action string, req any) (any, error) {
	return nil, nil
}

func TestFactory(t *testing.T) {
	f := NewFactory(nil)

	wheel := &stubEngine{typ: TypeWheel}
	crash := &stubEngine{typ: TypeCrash}
	f.Register(wheel)
	f.Register(crash)

	t.Run("lookup", func(t *testing.T) {
		if e, ok := f.Engine(TypeWheel); !ok || e != Engine(wheel) {
			t.Error("registered engine not found")
		}
		if _, ok := f.Engine(TypeHiLo); ok {
			t.Error("unregistered engine found")
		}
	})

	t.Run("lifecycle", func(t *testing.T) {
		if err := f.StartAll(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !wheel.started || !crash.started {
			t.Error("not all engines started")
		}
		if err := f.StopAll(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !wheel.stopped || !crash.stopped {
			t.Error("not all engines stopped")
		}
	})
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	h := NewHub()
	// No Run loop draining the queue: fill it past capacity and make sure
	// the overflow is dropped instead of blocking a settlement.
	for i := 0; i < 200; i++ {
		h.Broadcast(WSMessage{Type: "pool_update"})
	}
	if got := h.ClientCount(); got != 0 {
		t.Errorf("client count = %d, want 0", got)
	}
}
