package server

import (
	"github.com/gofiber/fiber/v2"

	"LottoLedger/internal/parser"
	"LottoLedger/internal/persistence"
	"LottoLedger/internal/session"
	"LottoLedger/internal/settle"
)

func RegisterSessionRoutes(r fiber.Router, engine *session.Engine) {

	r.Get("/session", func(c *fiber.Ctx) error {
		return c.JSON(engine.ActiveKey())
	})

	r.Put("/session", func(c *fiber.Ctx) error {
		type Req struct {
			LotteryType string `json:"lotteryType"`
			ActiveMode  string `json:"activeMode"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}

		key := session.Key{
			LotteryType: parser.Mode(body.LotteryType),
			ActiveMode:  body.ActiveMode,
		}
		if err := engine.SwitchSession(key); err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(engine.ActiveKey())
	})

	r.Get("/settings", func(c *fiber.Ctx) error {
		return c.JSON(engine.Settings())
	})

	r.Put("/settings", func(c *fiber.Ctx) error {
		var body session.Settings
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		engine.UpdateSettings(body)
		return c.JSON(engine.Settings())
	})
}

func RegisterDirectoryRoutes(r fiber.Router, engine *session.Engine, agents, uppers *persistence.AgentStore) {
	registerRoster(r, "/agents", agents)
	registerRoster(r, "/upperbookies", uppers)

	r.Get("/agents/performance", func(c *fiber.Ctx) error {
		perf, err := engine.AgentPerformance()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(perf)
	})
}

func registerRoster(r fiber.Router, prefix string, store *persistence.AgentStore) {

	r.Get(prefix, func(c *fiber.Ctx) error {
		list, err := store.ListAgents()
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if list == nil {
			list = []settle.Agent{}
		}
		return c.JSON(list)
	})

	r.Put(prefix, func(c *fiber.Ctx) error {
		var body settle.Agent
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "name required"})
		}
		if body.Commission < 0 || body.Commission > 100 {
			return c.Status(422).JSON(fiber.Map{"error": "commission must be 0-100"})
		}
		if err := store.SaveAgent(body); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(body)
	})

	r.Delete(prefix+"/:name", func(c *fiber.Ctx) error {
		deleted, err := store.DeleteAgent(c.Params("name"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !deleted {
			return c.Status(404).JSON(fiber.Map{"error": "not found"})
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})
}
