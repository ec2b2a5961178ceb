package game

import (
	"context"
	"log/slog"
)

type Type string

const (
	TypeWheel Type = "wheel"
	TypeChest Type = "chest"
	TypeSlots Type = "slots"
	TypeHiLo  Type = "hilo"
	TypeCrash Type = "crash"
)

// Engine is one playable game. Instant games settle inside PlaceBet; session
// games open a session there and settle through ProcessAction.
type Engine interface {
	Type() Type
	Start(ctx context.Context) error
	Stop() error
	State() any
	PlaceBet(ctx context.Context, req any) (any, error)
	ProcessAction(ctx context.Context, action string, req any) (any, error)
}

// Factory holds the registered engines and runs their lifecycle.
type Factory struct {
	engines map[Type]Engine
	hub     *Hub
	log     *slog.Logger
}

func NewFactory(hub *Hub) *Factory {
	return &Factory{
		engines: make(map[Type]Engine),
		hub:     hub,
		log:     slog.Default().With("component", "factory"),
	}
}

func (f *Factory) Register(e Engine) {
	f.engines[e.Type()] = e
}

func (f *Factory) Engine(t Type) (Engine, bool) {
	e, ok := f.engines[t]
	return e, ok
}

func (f *Factory) StartAll(ctx context.Context) error {
	for t, e := range f.engines {
		if err := e.Start(ctx); err != nil {
			return err
		}
		f.log.Info("engine started", "game", string(t))
	}
	return nil
}

func (f *Factory) StopAll() error {
	for t, e := range f.engines {
		if err := e.Stop(); err != nil {
			return err
		}
		f.log.Info("engine stopped", "game", string(t))
	}
	return nil
}
