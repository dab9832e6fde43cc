// Package server serves the single-page screening UI and its JSON API.
package server

import (
	"context"
	_ "embed"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/spigell/resume-screener/internal/embedding"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/screening"
	"go.uber.org/zap"
)

//go:embed index.html
var indexHTML string

const defaultBodyLimit = 10 * 1024 * 1024

type Screener interface {
	Screen(ctx context.Context, req screening.Request) (*screening.Report, error)
}

type Config struct {
	AppName      string
	Version      string
	BodyLimit    int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type handler struct {
	screener Screener
	logger   *zap.Logger
	version  string
}

func New(screener Screener, logger *zap.Logger, cfg Config) *fiber.App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.BodyLimit <= 0 {
		cfg.BodyLimit = defaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		BodyLimit:    cfg.BodyLimit,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	app.Use(recover.New())

	h := &handler{screener: screener, logger: logger, version: cfg.Version}

	app.Get("/", h.index)
	app.Get("/api/health", h.health)
	app.Post("/api/score", h.score)

	return app
}

func (h *handler) index(c fiber.Ctx) error {
	c.Type("html", "utf-8")
	return c.SendString(indexHTML)
}

func (h *handler) health(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": h.version,
	})
}

func (h *handler) score(c fiber.Ctx) error {
	req := screening.Request{
		JobTitle:       c.FormValue("job_title"),
		JobDescription: c.FormValue("job_description"),
	}

	if fh, err := c.FormFile("resume"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read uploaded file"})
		}
		defer f.Close()

		data, err := io.ReadAll(f)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "could not read uploaded file"})
		}

		req.Filename = fh.Filename
		req.Data = data
	}

	report, err := h.screener.Screen(c.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status >= fiber.StatusInternalServerError {
			h.logger.Error("screening failed", zap.String("filename", req.Filename), zap.Error(err))
		}
		return c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(report)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, screening.ErrMissingResume), errors.Is(err, screening.ErrEmptyJobDescription):
		return fiber.StatusBadRequest
	case errors.Is(err, extract.ErrExtraction):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, embedding.ErrModelUnavailable):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
