// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/pipeline"
)

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Name    string `json:"name"`
	Version string `json:"version"`
}

type pipelineResponse struct {
	Name    string           `json:"name"`
	State   pipeline.State   `json:"state"`
	LastRun *pipeline.Report `json:"lastRun,omitempty"`
}

type runResponse struct {
	Pipeline string `json:"pipeline"`
	Message  string `json:"message"`
}

func statusRoutes(app *fiber.App, name, version string) {
	status := func(c *fiber.Ctx) error {
		return c.JSON(statusResponse{Status: "OK", Name: name, Version: version})
	}

	app.Get("/-/healthz", status)
	app.Get("/-/ready", status)
	app.Get("/-/check-up", status)
}

func pipelineRoutes(app *fiber.App, registry Registry) {
	app.Get("/pipelines", func(c *fiber.Ctx) error {
		return c.JSON(lo.Map(registry.Pipelines(), func(p *pipeline.Pipeline, _ int) pipelineResponse {
			return describe(p)
		}))
	})

	app.Get("/pipelines/:name", func(c *fiber.Ctx) error {
		name := c.Params("name")
		p, found := lo.Find(registry.Pipelines(), func(p *pipeline.Pipeline) bool {
			return p.Name() == name
		})
		if !found {
			return notFound(name)
		}
		return c.JSON(describe(p))
	})

	app.Post("/pipelines/:name/runs", func(c *fiber.Ctx) error {
		name := c.Params("name")
		if _, found := registry.Pipeline(name); !found {
			return notFound(name)
		}

		log := logger.FromContext(c.UserContext()).WithName(loggerName)
		if err := registry.Trigger(name); err != nil {
			if errors.Is(err, pipeline.ErrAlreadyRunning) {
				return fiber.NewError(http.StatusConflict, "pipeline "+name+" is already running")
			}
			log.Error("cannot trigger pipeline", "pipeline", name, "error", err.Error())
			return fiber.NewError(http.StatusServiceUnavailable, err.Error())
		}

		log.Info("pipeline run requested", "pipeline", name)
		return c.Status(http.StatusAccepted).JSON(runResponse{Pipeline: name, Message: "run started"})
	})
}

func describe(p *pipeline.Pipeline) pipelineResponse {
	response := pipelineResponse{Name: p.Name(), State: p.State()}
	if report, ran := p.LastRun(); ran {
		response.LastRun = &report
	}
	return response
}

func notFound(name string) error {
	return fiber.NewError(http.StatusNotFound, "pipeline "+name+" not found")
}

// errorHandler renders every error with the same JSON shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	}

	return c.Status(code).JSON(errorResponse{
		StatusCode: code,
		Error:      http.StatusText(code),
		Message:    message,
	})
}
