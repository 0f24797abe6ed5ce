package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"LottoLedger/internal/persistence"
	"LottoLedger/internal/session"
)

func RegisterReportRoutes(r fiber.Router, engine *session.Engine, reports *persistence.ReportStore, agents, uppers *persistence.AgentStore, log zerolog.Logger) {

	// Archives the active workspace: financial summary, settings, limits and
	// the raw submission texts needed to replay the book later.
	r.Post("/reports", func(c *fiber.Ctx) error {
		type Req struct {
			Name string `json:"name"`
		}
		var body Req
		if err := c.BodyParser(&body); err != nil || body.Name == "" {
			return c.Status(400).JSON(fiber.Map{"error": "name required"})
		}

		report := buildReport(engine, body.Name)
		if list, err := agents.ListAgents(); err == nil {
			report.Agents = list
		}
		if list, err := uppers.ListAgents(); err == nil {
			report.UpperBookies = list
		}
		if err := reports.SaveReport(c.Context(), report); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		log.Info().Str("report", body.Name).Str("session", report.SessionKey).Msg("report saved")
		return c.Status(201).JSON(report)
	})

	r.Get("/reports", func(c *fiber.Ctx) error {
		metas, err := reports.ListReports(c.Context(), c.Query("session"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if metas == nil {
			metas = []persistence.ReportMeta{}
		}
		return c.JSON(metas)
	})

	r.Get("/reports/:id", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid report id"})
		}
		report, found, err := reports.GetReport(c.Context(), id)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !found {
			return c.Status(404).JSON(fiber.Map{"error": "report not found"})
		}
		return c.JSON(report)
	})

	// Wipes the active workspace and replays the archived submissions.
	r.Post("/reports/:id/restore", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid report id"})
		}
		report, found, err := reports.GetReport(c.Context(), id)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !found {
			return c.Status(404).JSON(fiber.Map{"error": "report not found"})
		}

		restored := applyReport(engine, report, log)

		log.Info().Str("report", report.Name).Int("restored", restored).
			Int("stored", len(report.RawInputs)).Msg("report restored")
		return c.JSON(fiber.Map{"restored": restored, "stored": len(report.RawInputs)})
	})

	r.Delete("/reports/:id", func(c *fiber.Ctx) error {
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid report id"})
		}
		deleted, err := reports.DeleteReport(c.Context(), id)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": err.Error()})
		}
		if !deleted {
			return c.Status(404).JSON(fiber.Map{"error": "report not found"})
		}
		return c.JSON(fiber.Map{"status": "deleted"})
	})
}

// applyReport rebuilds the active workspace from an archived report:
// settings, default limit, limit groups, then a replay of the raw
// submissions. Returns how many submissions still parse. Stored values that
// no longer validate are skipped with a warning rather than aborting the
// restore.
func applyReport(engine *session.Engine, report persistence.Report, log zerolog.Logger) int {
	engine.UpdateSettings(report.Settings)
	if report.DefaultLimit > 0 {
		if err := engine.SetDefaultLimit(report.DefaultLimit); err != nil {
			log.Warn().Err(err).Float64("limit", report.DefaultLimit).
				Msg("skipping stored default limit on restore")
		}
	}
	engine.ClearLimitGroups()
	for _, g := range report.LimitGroups {
		if _, err := engine.AddLimitGroup(g.Name, g.Amount); err != nil {
			log.Warn().Err(err).Str("group", g.Name).Msg("skipping limit group on restore")
		}
	}
	return engine.RestoreFromInputs(report.RawInputs)
}

func buildReport(engine *session.Engine, name string) persistence.Report {
	history := engine.History()
	inputs := make([]string, 0, len(history))
	for _, entry := range history {
		inputs = append(inputs, entry.Input)
	}

	return persistence.Report{
		ID:           uuid.New(),
		Name:         name,
		SessionKey:   engine.ActiveKey().String(),
		CreatedAt:    time.Now().UTC(),
		Summary:      engine.Summary(),
		Settings:     engine.Settings(),
		DefaultLimit: engine.DefaultLimit(),
		LimitGroups:  engine.LimitGroups(),
		RawInputs:    inputs,
	}
}
