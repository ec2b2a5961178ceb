package server

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

func (s *FiberServer) RegisterFiberRoutes() {
	s.App.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH",
		AllowHeaders:     "Accept,Authorization,Content-Type",
		AllowCredentials: false, // credentials require explicit origins
		MaxAge:           300,
	}))

	s.App.Get("/health", s.healthHandler)

	api := s.App.Group("/api/v1")

	// Pool surface
	api.Get("/pool", s.poolHandler)
	api.Post("/pool/fund", s.fundPoolHandler)
	api.Get("/pool/settlements", s.settlementsHandler)

	// Player credits
	api.Get("/player/:playerId/credits", s.getCreditsHandler)
	api.Post("/player/:playerId/credits", s.setCreditsHandler)

	// Fairness verification
	api.Post("/verify", s.verifyHandler)

	s.RegisterGameRoutes()

	// WebSocket route
	s.App.Get("/ws", websocket.New(s.gameWebSocketHandler))
}

func (s *FiberServer) healthHandler(c *fiber.Ctx) error {
	health := fiber.Map{
		"pool": fiber.Map{
			"balance":   s.ledger.Balance(),
			"available": s.ledger.Available(),
		},
		"game": fiber.Map{
			"status":            "running",
			"connected_clients": s.hub.ClientCount(),
		},
	}
	if s.db != nil {
		health["database"] = s.db.Health()
	}
	if s.cache != nil {
		health["cache"] = s.cache.Health()
	}
	return c.JSON(health)
}
