package server

import (
	"encoding/json"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"prizepool/internal/database"
	"prizepool/internal/game"
	"prizepool/internal/session"
)

// Instant game handlers

func (s *FiberServer) playHandler(t game.Type) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req game.PlayRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.PlayerID == "" {
			return c.Status(400).JSON(fiber.Map{
				"error": "Player ID is required",
			})
		}

		engine, exists := s.factory.Engine(t)
		if !exists {
			return c.Status(500).JSON(fiber.Map{
				"error": string(t) + " game not available",
			})
		}

		resp, err := engine.PlaceBet(c.Context(), req)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		play, ok := resp.(game.PlayResponse)
		if !ok || !play.Success {
			return c.Status(400).JSON(resp)
		}

		if play.Payout.IsPositive() {
			s.recordSettlement(c, database.Settlement{
				ID:       play.PlayID,
				PlayerID: req.PlayerID,
				Game:     string(t),
				Outcome:  play.Outcome,
				Amount:   play.Payout,
				Status:   database.SettlementPaid,
			})
		}

		return c.JSON(resp)
	}
}

func (s *FiberServer) gameStateHandler(t game.Type) fiber.Handler {
	return func(c *fiber.Ctx) error {
		engine, exists := s.factory.Engine(t)
		if !exists {
			return c.Status(500).JSON(fiber.Map{
				"error": string(t) + " game not available",
			})
		}
		return c.JSON(engine.State())
	}
}

// Session game handlers

func (s *FiberServer) sessionBetHandler(t game.Type) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req game.SessionBetRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.PlayerID == "" {
			return c.Status(400).JSON(fiber.Map{
				"error": "Player ID is required",
			})
		}

		engine, exists := s.factory.Engine(t)
		if !exists {
			return c.Status(500).JSON(fiber.Map{
				"error": string(t) + " game not available",
			})
		}

		resp, err := engine.PlaceBet(c.Context(), req)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		if r, ok := resp.(game.SessionResponse); !ok || !r.Success {
			return c.Status(400).JSON(resp)
		}
		return c.JSON(resp)
	}
}

func (s *FiberServer) sessionActionHandler(t game.Type, action string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req game.SessionRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{
				"error": "Invalid request body",
			})
		}

		if req.SessionID == "" {
			return c.Status(400).JSON(fiber.Map{
				"error": "Session ID is required",
			})
		}

		engine, exists := s.factory.Engine(t)
		if !exists {
			return c.Status(500).JSON(fiber.Map{
				"error": string(t) + " game not available",
			})
		}

		resp, err := engine.ProcessAction(c.Context(), action, req)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{
				"error": err.Error(),
			})
		}

		r, ok := resp.(game.SessionResponse)
		if action == "cashout" && ok && r.Session != nil {
			s.auditCashout(c, t, r.Session)
		}
		if !ok || !r.Success {
			return c.Status(400).JSON(resp)
		}
		return c.JSON(resp)
	}
}

func (s *FiberServer) sessionStateHandler(t game.Type) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sessionID := c.Params("sessionId")
		if sessionID == "" {
			return c.Status(400).JSON(fiber.Map{
				"error": "Session ID is required",
			})
		}

		engine, exists := s.factory.Engine(t)
		if !exists {
			return c.Status(500).JSON(fiber.Map{
				"error": string(t) + " game not available",
			})
		}

		resp, err := engine.ProcessAction(c.Context(), "state", game.SessionRequest{SessionID: sessionID})
		if err != nil {
			return c.Status(500).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		if r, ok := resp.(game.SessionResponse); !ok || !r.Success {
			return c.Status(404).JSON(resp)
		}
		return c.JSON(resp)
	}
}

func (s *FiberServer) multiplierHandler(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")

	engine, exists := s.factory.Engine(game.TypeCrash)
	if !exists {
		return c.Status(500).JSON(fiber.Map{
			"error": "crash game not available",
		})
	}

	resp, err := engine.ProcessAction(c.Context(), "multiplier", game.SessionRequest{SessionID: sessionID})
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(resp)
}

// auditCashout appends the settlement outcome of a finished session to the
// audit trail, including failed settlements operators must reconcile.
func (s *FiberServer) auditCashout(c *fiber.Ctx, t game.Type, sess *session.Session) {
	switch sess.Status {
	case session.StatusCashedOut:
		if sess.Payout.IsPositive() {
			s.recordSettlement(c, database.Settlement{
				ID:       sess.ID,
				PlayerID: sess.PlayerID,
				Game:     string(t),
				Outcome:  "cashout",
				Amount:   sess.Payout,
				Status:   database.SettlementPaid,
			})
		}
	case session.StatusSettlementFailed:
		s.recordSettlement(c, database.Settlement{
			ID:       sess.ID,
			PlayerID: sess.PlayerID,
			Game:     string(t),
			Outcome:  "cashout",
			Amount:   sess.Payout,
			Status:   database.SettlementFailed,
		})
	}
}

func (s *FiberServer) recordSettlement(c *fiber.Ctx, st database.Settlement) {
	if s.audit == nil {
		return
	}
	if err := s.audit.RecordSettlement(c.Context(), st); err != nil {
		s.log.Error("recording settlement", "id", st.ID, "error", err)
	}
}

// Pool handlers

func (s *FiberServer) poolHandler(c *fiber.Ctx) error {
	terms := s.ledger.Terms()
	return c.JSON(fiber.Map{
		"balance":                   s.ledger.Balance(),
		"available":                 s.ledger.Available(),
		"reserve_percent":           terms.ReservePercent,
		"max_single_payout_percent": terms.MaxSinglePayoutPercent,
	})
}

func (s *FiberServer) fundPoolHandler(c *fiber.Ctx) error {
	var body struct {
		Amount decimal.Decimal `json:"amount"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !body.Amount.IsPositive() {
		return c.Status(400).JSON(fiber.Map{
			"error": "Amount must be positive",
		})
	}

	balance, err := s.ledger.Credit(c.Context(), body.Amount)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	s.hub.Broadcast(game.WSMessage{Type: "pool_update", Data: game.PoolUpdateMessage{Balance: balance}})
	return c.JSON(fiber.Map{
		"balance": balance,
	})
}

func (s *FiberServer) settlementsHandler(c *fiber.Ctx) error {
	if s.audit == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": "Settlement history requires a database",
		})
	}

	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	settlements, err := s.audit.RecentSettlements(c.Context(), limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"settlements": settlements,
	})
}

// Player credit handlers

func (s *FiberServer) getCreditsHandler(c *fiber.Ctx) error {
	playerID := c.Params("playerId")
	if playerID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Player ID is required",
		})
	}

	balance, err := s.credits.Balance(c.Context(), playerID)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"player_id": playerID,
		"balance":   balance,
	})
}

func (s *FiberServer) setCreditsHandler(c *fiber.Ctx) error {
	playerID := c.Params("playerId")
	if playerID == "" {
		return c.Status(400).JSON(fiber.Map{
			"error": "Player ID is required",
		})
	}

	var body struct {
		Balance decimal.Decimal `json:"balance"`
	}
	if err := c.BodyParser(&body); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if body.Balance.Sign() < 0 {
		return c.Status(400).JSON(fiber.Map{
			"error": "Balance must not be negative",
		})
	}

	if err := s.credits.Set(c.Context(), playerID, body.Balance); err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"player_id": playerID,
		"balance":   body.Balance,
		"message":   "Balance updated successfully",
	})
}

// Fairness verification

func (s *FiberServer) verifyHandler(c *fiber.Ctx) error {
	var req game.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Draw derivation is game-independent; any draw engine can replay it.
	engine, exists := s.factory.Engine(game.TypeWheel)
	if !exists {
		return c.Status(500).JSON(fiber.Map{
			"error": "verification not available",
		})
	}

	resp, err := engine.ProcessAction(c.Context(), "verify", req)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(resp)
}

// WebSocket handler

func (s *FiberServer) gameWebSocketHandler(conn *websocket.Conn) {
	playerID := conn.Query("player_id", "anonymous")

	s.log.Info("websocket connected", "player", playerID)

	client := s.hub.RegisterClient(conn, playerID)
	client.SendWelcome(fiber.Map{
		"pool": game.PoolUpdateMessage{Balance: s.ledger.Balance()},
	})

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			s.hub.UnregisterClient(conn)
			break
		}

		if messageType != websocket.TextMessage {
			continue
		}

		var clientMsg map[string]any
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			continue
		}
		msgType, ok := clientMsg["type"].(string)
		if !ok {
			continue
		}

		switch msgType {
		case "ping":
			pong, _ := json.Marshal(map[string]string{"type": "pong"})
			conn.WriteMessage(websocket.TextMessage, pong)

		case "pool":
			update, _ := json.Marshal(game.WSMessage{
				Type: "pool_update",
				Data: game.PoolUpdateMessage{Balance: s.ledger.Balance()},
			})
			conn.WriteMessage(websocket.TextMessage, update)

		case "clients":
			count, _ := json.Marshal(map[string]any{
				"type":  "clients",
				"count": strconv.Itoa(s.hub.ClientCount()),
			})
			conn.WriteMessage(websocket.TextMessage, count)
		}
	}
}
