package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"LottoLedger/internal/session"
	"LottoLedger/internal/state"
)

func RegisterLimitRoutes(r fiber.Router, engine *session.Engine) {

	r.Get("/limits/groups", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"defaultLimit": engine.DefaultLimit(),
			"groups":       engine.LimitGroups(),
		})
	})

	r.Post("/limits/groups", func(c *fiber.Ctx) error {
		type Req struct {
			Name   string  `json:"name"`
			Amount float64 `json:"amount"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}

		group, err := engine.AddLimitGroup(body.Name, body.Amount)
		if err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(201).JSON(group)
	})

	r.Delete("/limits/groups/:id", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid group id"})
		}
		if err := engine.RemoveLimitGroup(id); err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "group not found"})
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})

	r.Delete("/limits/groups", func(c *fiber.Ctx) error {
		engine.ClearLimitGroups()
		return c.JSON(fiber.Map{"status": "cleared"})
	})

	r.Patch("/limits/groups/:id", func(c *fiber.Ctx) error {
		type Req struct {
			Amount float64 `json:"amount"`
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid group id"})
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := engine.UpdateLimitGroupAmount(id, body.Amount); err != nil {
			return c.Status(404).JSON(fiber.Map{"error": "group not found"})
		}
		return c.JSON(fiber.Map{"status": "updated"})
	})

	r.Post("/limits/batch", func(c *fiber.Ctx) error {
		type Req struct {
			Op    string  `json:"op"` // add, subtract, set
			Value float64 `json:"value"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}

		var op state.BatchOp
		switch body.Op {
		case "add":
			op = state.BatchAdd
		case "subtract":
			op = state.BatchSubtract
		case "set":
			op = state.BatchSet
		default:
			return c.Status(400).JSON(fiber.Map{"error": "op must be add, subtract or set"})
		}

		if err := engine.ApplyBatchLimit(op, body.Value); err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "applied"})
	})

	r.Put("/limits/default", func(c *fiber.Ctx) error {
		type Req struct {
			Value float64 `json:"value"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid body"})
		}
		if err := engine.SetDefaultLimit(body.Value); err != nil {
			return c.Status(422).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "updated"})
	})
}
