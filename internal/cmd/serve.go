// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/mia-platform/etl/internal/logger"
	"github.com/mia-platform/etl/internal/scheduler"
	"github.com/mia-platform/etl/internal/server"
)

const (
	serveCmdUsage = "serve [PIPELINE...]"
	serveCmdShort = "serve pipelines over HTTP and run them on their triggers"
	serveCmdLong  = `Keep the pipelines defined in the given files ready to run.
	Pipelines run when their cron schedule fires, when one of their watched files
	changes or when requested over HTTP. The server also exposes the state and the
	last run report of every pipeline.

	The server is configured with these environment variables:
	- HTTP_HOST: the listening address, default 0.0.0.0
	- HTTP_PORT: the listening port, default 3000
	- DISABLE_STARTUP_MESSAGE: hide the fiber banner, default true`

	serveCmdExample = `# Serve every pipeline defined in a directory
	etl serve -f pipelines/

	# Trigger a run of the orders pipeline
	curl -X POST http://localhost:3000/pipelines/orders/runs`

	serveLoggerName = "etl:serve"
)

var (
	// newServer returns the HTTP server of the serve command.
	// It can be overridden for testing purposes.
	newServer = server.NewServer
)

// ServeCmd return the "serve" cli command for running pipelines as a service.
func ServeCmd() *cobra.Command {
	flags := &flags{}
	cmd := &cobra.Command{
		Use:     serveCmdUsage,
		Short:   heredoc.Doc(serveCmdShort),
		Long:    heredoc.Doc(serveCmdLong),
		Example: heredoc.Doc(serveCmdExample),

		SilenceErrors: true,
		SilenceUsage:  true,

		ValidArgsFunction: validArgsFunc,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := flags.toOptions(cmd, args)
			if err := opts.validate(); err != nil {
				return handleError(cmd, err)
			}

			if err := opts.serve(cmd.Context()); err != nil {
				return handleError(cmd, err)
			}

			return nil
		},
	}

	flags.addFlags(cmd, true)
	return cmd
}

// serve runs the scheduler and the HTTP server until ctx is canceled or an
// interrupt signal is received.
func (o *options) serve(ctx context.Context) error {
	definitions, pipelines, err := o.pipelines()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	log := logger.FromContext(ctx).WithName(serveLoggerName)

	registry := scheduler.New()
	for idx, p := range pipelines {
		if err := registry.Add(p, definitions[idx].Schedule, definitions[idx].Watch); err != nil {
			return err
		}
	}

	srv, err := newServer(ctx, registry)
	if err != nil {
		return err
	}

	if err := registry.Start(ctx); err != nil {
		return err
	}

	srv.StartAsync(ctx)
	log.Info("serving pipelines", "pipelines", len(pipelines))

	<-ctx.Done()
	log.Info("shutting down")

	err = srv.Stop()
	registry.Stop()
	return err
}
