package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"LottoLedger/internal/session"
)

func RegisterBetRoutes(r fiber.Router, engine *session.Engine) {

	r.Post("/bets", func(c *fiber.Ctx) error {
		type Req struct {
			Text string `json:"text"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}

		entry, err := engine.SubmitDirect(body.Text)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(entry)
	})

	// HTTP variant of the NATS inbox, for agents posting through a gateway.
	r.Post("/inbox", func(c *fiber.Ctx) error {
		type Req struct {
			MessageID string `json:"messageId"`
			Agent     string `json:"agent"`
			Text      string `json:"text"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil || body.Agent == "" {
			return c.Status(400).JSON(fiber.Map{"error": "agent required"})
		}

		result, err := engine.SubmitInbox(body.MessageID, body.Agent, body.Text)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		if result.Duplicate {
			return c.Status(200).JSON(result)
		}
		return c.Status(201).JSON(result)
	})

	r.Get("/history", func(c *fiber.Ctx) error {
		return c.JSON(engine.History())
	})

	r.Post("/history/undo", func(c *fiber.Ctx) error {
		entry, err := engine.UndoLast()
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "history is empty"})
		}
		return c.JSON(entry)
	})

	// Returns the removed entry so its raw text can be edited and resubmitted.
	r.Delete("/history/:id", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid entry id"})
		}
		entry, err := engine.DeleteEntry(id)
		if err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "entry not found"})
		}
		return c.JSON(entry)
	})

	r.Delete("/history", func(c *fiber.Ctx) error {
		engine.ClearAll()
		return c.JSON(fiber.Map{"status": "cleared"})
	})

	r.Delete("/bets/:id", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid bet id"})
		}
		if err := engine.DeleteBet(id); err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "bet not found"})
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})

	r.Get("/grid", func(c *fiber.Ctx) error {
		return c.JSON(engine.Grid())
	})

	r.Get("/numbers/:number", func(c *fiber.Ctx) error {
		cell, ok := engine.Cell(c.Params("number"))
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "unknown number"})
		}
		return c.JSON(cell)
	})

	r.Get("/summary", func(c *fiber.Ctx) error {
		return c.JSON(engine.Summary())
	})

	r.Get("/risk/worstcase", func(c *fiber.Ctx) error {
		wc, ok := engine.WorstCase()
		if !ok {
			return c.Status(404).JSON(fiber.Map{"error": "no bets recorded"})
		}
		return c.JSON(wc)
	})

	r.Get("/risk/ranking", func(c *fiber.Ctx) error {
		return c.JSON(engine.RiskRanking())
	})

	r.Post("/settle", func(c *fiber.Ctx) error {
		type Req struct {
			WinningNumber string `json:"winningNumber"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil || body.WinningNumber == "" {
			return c.Status(400).JSON(fiber.Map{"error": "winningNumber required"})
		}
		report, err := engine.Settle(body.WinningNumber)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(report)
	})
}
