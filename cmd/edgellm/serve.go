package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"edgellm/internal/config"
	"edgellm/internal/httpapi"
	"edgellm/internal/manager"
	"edgellm/internal/session"
)

const shutdownTimeout = 5 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr        string
		modelsDir   string
		corsOrigins string
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the chat session over HTTP",
		Example: "  edgellm serve --model ~/models/llm/smollm2.gguf --addr :8080",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				a.cfg.Addr = addr
			}
			if cmd.Flags().Changed("models-dir") {
				a.cfg.ModelsDir = modelsDir
			}
			if cmd.Flags().Changed("cors-origins") {
				a.cfg.CORS.Enabled = true
				a.cfg.CORS.Origins = splitCSV(corsOrigins)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			ln, err := net.Listen("tcp", a.cfg.Addr)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", config.Default().Addr, "HTTP listen address; defaults to $EDGELLM_ADDR")
	cmd.Flags().StringVar(&modelsDir, "models-dir", config.Default().ModelsDir, "Directory to scan for *.gguf model files")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	return cmd
}

// serve runs the HTTP server on ln until ctx is done. The model loads in the
// background so /readyz reports loading meanwhile.
func (a *app) serve(ctx context.Context, ln net.Listener) error {
	pub, closeTranscript, err := a.openTranscript(a.cfg.TranscriptPath)
	if err != nil {
		ln.Close()
		return err
	}
	mgr := manager.New(manager.Config{
		Session:      session.Config{Engine: a.engine, Logger: &a.log, Publisher: pub},
		Params:       a.cfg.Params,
		ModelsDir:    a.cfg.ModelsDir,
		SystemPrompt: a.cfg.SystemPrompt,
	})

	httpapi.SetLogger(a.log)
	httpapi.SetBaseContext(ctx)
	httpapi.SetMaxBodyBytes(a.cfg.MaxBodyBytes)
	httpapi.SetChatTimeoutSeconds(a.cfg.ChatTimeoutSec)
	httpapi.SetChunkDefaults(a.cfg.Chunk.Size, a.cfg.Chunk.Overlap)
	httpapi.SetCORSOptions(a.cfg.CORS.Enabled, a.cfg.CORS.Origins, a.cfg.CORS.Methods, a.cfg.CORS.Headers)

	srv := &http.Server{
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	if a.cfg.ModelPath != "" {
		if err := mgr.LoadAsync(ctx, a.cfg.ModelPath); err != nil {
			ln.Close()
			return multierror.Append(err, closeTranscript()).ErrorOrNil()
		}
	} else {
		a.log.Warn().Msg("no model configured; load one with POST /models/{id}/load")
	}

	serveErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", ln.Addr().String()).Str("models_dir", a.cfg.ModelsDir).Msg("edgellm listening")
		serveErr <- srv.Serve(ln)
	}()

	var merr *multierror.Error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			merr = multierror.Append(merr, err)
		}
	case <-ctx.Done():
		a.log.Info().Msg("shutting down")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	merr = multierror.Append(merr, mgr.Close(), closeTranscript())
	return merr.ErrorOrNil()
}
