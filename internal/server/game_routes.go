package server

import "prizepool/internal/game"

// RegisterGameRoutes registers the per-game play endpoints.
func (s *FiberServer) RegisterGameRoutes() {
	api := s.App.Group("/api/v1")

	wheel := api.Group("/wheel")
	wheel.Get("/state", s.gameStateHandler(game.TypeWheel))
	wheel.Post("/spin", s.playHandler(game.TypeWheel))

	chest := api.Group("/chest")
	chest.Get("/state", s.gameStateHandler(game.TypeChest))
	chest.Post("/open", s.playHandler(game.TypeChest))

	slots := api.Group("/slots")
	slots.Get("/state", s.gameStateHandler(game.TypeSlots))
	slots.Post("/spin", s.playHandler(game.TypeSlots))

	hilo := api.Group("/hilo")
	hilo.Post("/bet", s.sessionBetHandler(game.TypeHiLo))
	hilo.Post("/confirm", s.sessionActionHandler(game.TypeHiLo, "confirm"))
	hilo.Post("/guess", s.sessionActionHandler(game.TypeHiLo, "guess"))
	hilo.Post("/cashout", s.sessionActionHandler(game.TypeHiLo, "cashout"))
	hilo.Get("/session/:sessionId", s.sessionStateHandler(game.TypeHiLo))

	crash := api.Group("/crash")
	crash.Post("/bet", s.sessionBetHandler(game.TypeCrash))
	crash.Post("/confirm", s.sessionActionHandler(game.TypeCrash, "confirm"))
	crash.Post("/cashout", s.sessionActionHandler(game.TypeCrash, "cashout"))
	crash.Get("/multiplier/:sessionId", s.multiplierHandler)
	crash.Get("/session/:sessionId", s.sessionStateHandler(game.TypeCrash))
}
