// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/mia-platform/etl/internal/info"
	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/pipeline"
)

const (
	loggerName = "etl:server"
)

// Registry gives access to the pipelines served.
type Registry interface {
	Pipelines() []*pipeline.Pipeline
	Pipeline(name string) (*pipeline.Pipeline, bool)
	// Trigger starts a run in background, failing with pipeline.ErrAlreadyRunning
	// when one is in progress.
	Trigger(name string) error
}

type Server interface {
	Start() error
	Stop() error
	StartAsync(ctx context.Context)
}

type impServer struct {
	Config

	app *fiber.App
}

var (
	ErrServerListen   = errors.New("server listen error")
	ErrServerShutdown = errors.New("server shutdown error")
)

// NewServer returns a Server configured from the environment, serving the
// pipelines of registry.
func NewServer(ctx context.Context, registry Registry) (Server, error) {
	cfg, err := LoadServerConfig()
	if err != nil {
		return nil, err
	}

	return newServer(ctx, *cfg, registry), nil
}

func newServer(ctx context.Context, cfg Config, registry Registry) *impServer {
	app := fiber.New(fiber.Config{
		AppName:               info.AppName,
		DisableStartupMessage: cfg.DisableStartupMessage,
		ErrorHandler:          errorHandler,
	})
	log := logger.FromContext(ctx).WithName(loggerName)
	app.Use(logger.RequestMiddlewareLogger(log, []string{"/-/"}))

	statusRoutes(app, info.AppName, info.Version)
	pipelineRoutes(app, registry)

	return &impServer{
		app:    app,
		Config: cfg,
	}
}

func (s *impServer) Start() error {
	address := net.JoinHostPort(s.HTTPHost, strconv.Itoa(s.HTTPPort))
	if err := s.app.Listen(address); err != nil {
		return fmt.Errorf("%w: %w", ErrServerListen, err)
	}
	return nil
}

func (s *impServer) Stop() error {
	if err := s.app.Shutdown(); err != nil {
		return fmt.Errorf("%w: %w", ErrServerShutdown, err)
	}
	return nil
}

func (s *impServer) StartAsync(ctx context.Context) {
	log := logger.FromContext(ctx).WithName(loggerName)
	go func() {
		if err := s.Start(); err != nil {
			log.Error(err.Error())
		}
	}()
}
