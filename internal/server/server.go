package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"prizepool/internal/cache"
	"prizepool/internal/config"
	"prizepool/internal/credits"
	"prizepool/internal/database"
	"prizepool/internal/engine"
	"prizepool/internal/game"
	"prizepool/internal/pool"
	"prizepool/internal/session"
)

type FiberServer struct {
	*fiber.App

	db      database.Service
	cache   cache.Service
	bundle  *config.Bundle
	ledger  *pool.Ledger
	credits credits.Store
	audit   *database.PoolStore
	hub     *game.Hub
	factory *game.Factory
	log     *slog.Logger
}

// New wires the production dependencies: Postgres for the ledger and audit
// trail, Redis for credits and sessions. Either backend may be absent; the
// server then runs on in-memory stores, which is fine for local play but
// loses all state on restart.
func New(bundle *config.Bundle) (*FiberServer, error) {
	return newServer(bundle, database.New(), cache.New())
}

func newServer(bundle *config.Bundle, db database.Service, cacheSvc cache.Service) (*FiberServer, error) {
	log := slog.Default().With("component", "server")

	var rdb *redis.Client
	if cacheSvc != nil {
		rdb = cacheSvc.GetClient()
	}

	var creditStore credits.Store = credits.NewMemoryStore()
	var sessionStore session.Store = session.NewMemoryStore()
	if rdb != nil {
		creditStore = credits.NewRedisStore(rdb)
		sessionStore = session.NewRedisStore(rdb)
	} else {
		log.Warn("redis unavailable, using in-memory credit and session stores")
	}

	var ledgerStore pool.Store
	var audit *database.PoolStore
	if db != nil {
		audit = database.NewPoolStore(db.Pool())
		ledgerStore = audit
	} else {
		log.Warn("database unavailable, pool balance will not survive restarts")
	}

	ctx := context.Background()
	ledger, err := pool.Open(ctx, bundle.OpeningBalance, bundle.Terms, ledgerStore)
	if err != nil {
		return nil, err
	}

	hub := game.NewHub()
	factory := game.NewFactory(hub)

	factory.Register(game.NewDrawEngine(game.TypeWheel,
		map[string]*engine.Table{"default": bundle.WheelTable}, "default",
		bundle.WheelBet, ledger, creditStore, hub, rdb))
	factory.Register(game.NewDrawEngine(game.TypeChest,
		bundle.ChestTables, "bronze",
		bundle.ChestBet, ledger, creditStore, hub, rdb))
	factory.Register(game.NewDrawEngine(game.TypeSlots,
		map[string]*engine.Table{"default": bundle.SlotsTable}, "default",
		bundle.SlotsBet, ledger, creditStore, hub, rdb))

	hilo := session.NewHiLo(bundle.HiLo, ledger, creditStore, nil, sessionStore)
	crash := session.NewCrash(bundle.Crash, ledger, creditStore, sessionStore)
	factory.Register(game.NewHiLoEngine(hilo, hub))
	factory.Register(game.NewCrashEngine(crash, hub))

	server := &FiberServer{
		App: fiber.New(fiber.Config{
			ServerHeader:  "prizepool",
			AppName:       "prizepool",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
			IdleTimeout:   120 * time.Second,
			StrictRouting: false,
		}),

		db:      db,
		cache:   cacheSvc,
		bundle:  bundle,
		ledger:  ledger,
		credits: creditStore,
		audit:   audit,
		hub:     hub,
		factory: factory,
		log:     log,
	}

	server.App.Use(recover.New())
	server.App.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
	}))

	go hub.Run()
	if err := factory.StartAll(ctx); err != nil {
		return nil, err
	}

	log.Info("game engines started", "pool", ledger.Balance().String())
	return server, nil
}

// Shutdown stops the engines and closes the backend connections.
func (s *FiberServer) Shutdown() error {
	s.log.Info("shutting down")

	if s.factory != nil {
		if err := s.factory.StopAll(); err != nil {
			s.log.Error("stopping engines", "error", err)
		}
	}

	if s.cache != nil {
		s.cache.Close()
	}
	if s.db != nil {
		s.db.Close()
	}

	return nil
}
