package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/arcade/internal/engine"
	"github.com/roach88/arcade/internal/httpapi"
	"github.com/roach88/arcade/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr    string
	TraceDB string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve both games over HTTP",
		Long: `Start the engine loop and expose it as JSON routes:

  GET  /api/starmatch            POST /api/starmatch/select {"number":n}
  POST /api/starmatch/restart
  GET  /api/tictactoe            POST /api/tictactoe/move {"cell":i}
  POST /api/tictactoe/restart    POST /api/tictactoe/reset-scores

Example:
  arcade serve --addr :8080
  arcade serve --addr 127.0.0.1:9000 --trace-db ./arcade.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringVar(&opts.TraceDB, "trace-db", "", "record every action to this SQLite database")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	cfg := opts.Config
	if cmd.Flags().Changed("addr") {
		cfg.HTTP.Addr = opts.Addr
	}
	if cmd.Flags().Changed("trace-db") {
		cfg.Trace.DB = opts.TraceDB
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	}
	logger := opts.Logger

	ctx, cancel := context.WithCancel(commandContext(cmd))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	engOpts := []engine.EngineOption{
		engine.WithStarMatch(cfg.StarMatch.Seconds, cfg.StarMatch.TickDuration()),
		engine.WithLogger(logger),
	}
	if cfg.Trace.DB != "" {
		st, err := store.Open(cfg.Trace.DB)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open trace database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		last, err := st.LastSeq(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read trace database", err)
		}
		engOpts = append(engOpts, engine.WithRecorder(st), engine.WithClock(engine.NewClockAt(last)))
	}
	eng := engine.New(append(engOpts, opts.engineOpts...)...)

	ln, err := net.Listen("tcp", cfg.HTTP.Addr)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to listen", err)
	}

	srv := &http.Server{
		Handler:           httpapi.New(eng, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	engErr := make(chan error, 1)
	go func() { engErr <- eng.Run(ctx) }()

	srvErr := make(chan error, 1)
	go func() { srvErr <- srv.Serve(ln) }()

	logger.Info("listening", "addr", ln.Addr().String(), "trace_db", cfg.Trace.DB)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", ln.Addr())
	if opts.serveReady != nil {
		opts.serveReady(ln.Addr().String())
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-srvErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = WrapExitError(ExitFailure, "server error", err)
		}
	case err := <-engErr:
		runErr = WrapExitError(ExitFailure, "engine stopped", err)
		engErr <- err
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	cancel()
	if err := <-engErr; err != nil && !errors.Is(err, context.Canceled) && runErr == nil {
		runErr = WrapExitError(ExitFailure, "engine error", err)
	}

	logger.Info("server stopped gracefully")
	return runErr
}
