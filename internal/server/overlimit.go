package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"LottoLedger/internal/session"
)

func RegisterOverLimitRoutes(r fiber.Router, engine *session.Engine) {

	r.Get("/overlimit/forwardable", func(c *fiber.Ctx) error {
		return c.JSON(engine.ForwardableList())
	})

	r.Get("/overlimit/held", func(c *fiber.Ctx) error {
		return c.JSON(engine.HeldList())
	})

	r.Get("/overlimit/unacknowledged", func(c *fiber.Ctx) error {
		return c.JSON(engine.UnacknowledgedList())
	})

	// Commits forwardable amounts as acknowledged and returns the voucher
	// text the operator sends upstream.
	r.Post("/overlimit/acknowledge", func(c *fiber.Ctx) error {
		text, err := engine.AcknowledgeForwardable()
		if err != nil {
			if errors.Is(err, session.ErrNothingToForward) {
				return c.Status(409).JSON(fiber.Map{"error": "nothing to forward"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"voucher": text})
	})

	// Main-bookie variant: forwards everything past acknowledged, held
	// amounts included.
	r.Post("/overlimit/acknowledge-all", func(c *fiber.Ctx) error {
		text, err := engine.AcknowledgeUnacknowledged()
		if err != nil {
			if errors.Is(err, session.ErrNothingToForward) {
				return c.Status(409).JSON(fiber.Map{"error": "nothing to forward"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"voucher": text})
	})

	r.Post("/overlimit/convert", func(c *fiber.Ctx) error {
		text, err := engine.ConvertHeld()
		if err != nil {
			if errors.Is(err, session.ErrNothingToForward) {
				return c.Status(409).JSON(fiber.Map{"error": "nothing held"})
			}
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"voucher": text})
	})

	r.Post("/overlimit/hold/:number", func(c *fiber.Ctx) error {
		if err := engine.Hold(c.Params("number")); err != nil {
			return c.Status(404).JSON(fiber.Map{"error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "held"})
	})

	r.Post("/overlimit/release/:number", func(c *fiber.Ctx) error {
		engine.Release(c.Params("number"))
		return c.JSON(fiber.Map{"status": "released"})
	})

	// Preview endpoints render voucher text without committing anything.
	r.Get("/export/forwardable", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"voucher": engine.ForwardablePreview()})
	})

	r.Get("/export/held", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"voucher": engine.HeldPreview()})
	})

	r.Get("/export/voucher", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"voucher": engine.BetListVoucher()})
	})
}
