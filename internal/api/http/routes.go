package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/i474232898/hyperweather/internal/weather"
)

var validate = validator.New()

// ForecastReader serves range queries over the canonical store.
type ForecastReader interface {
	Forecast(ctx context.Context, location string, fromNow bool) ([]weather.Record, error)
}

// ReportReader serves stored daily reports.
type ReportReader interface {
	Report(ctx context.Context, location, date string) (weather.Report, error)
}

// NewApp builds the Fiber app with the central error handler, global
// middleware, health and metrics endpoints.
func NewApp(appName string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, forecasts ForecastReader, reports ReportReader, cities []weather.Location) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var q forecastQuery
		if err := bind(c, &q); err != nil {
			return err
		}

		records, err := forecasts.Forecast(c.UserContext(), q.id(), q.FromNow)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch forecast")
		}
		if len(records) == 0 {
			return fiber.NewError(fiber.StatusNotFound, "no forecast found for location")
		}

		return c.JSON(records)
	})

	v1.Get("/report", func(c *fiber.Ctx) error {
		var q reportQuery
		if err := bind(c, &q); err != nil {
			return err
		}

		location := weather.CanonicalID(q.Location)
		report, err := reports.Report(c.UserContext(), location, q.Date)
		if err != nil {
			if errors.Is(err, weather.ErrReportNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no forecast summary for "+location)
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch report")
		}

		return c.JSON(report)
	})

	v1.Get("/cities", func(c *fiber.Ctx) error {
		return c.JSON(cities)
	})
}

// forecastQuery holds the query parameters of the forecast endpoint.
type forecastQuery struct {
	Location string `query:"location" validate:"required"`
	FromNow  bool   `query:"from_now"`
}

func (q forecastQuery) id() string {
	return weather.CanonicalID(q.Location)
}

// reportQuery holds the query parameters of the report endpoint.
type reportQuery struct {
	Location string `query:"location" validate:"required"`
	Date     string `query:"date" validate:"required,datetime=2006-01-02"`
}

// bind parses and validates query parameters, mapping any failure to 400.
func bind(c *fiber.Ctx, q any) error {
	if err := c.QueryParser(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := validate.Struct(q); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}
