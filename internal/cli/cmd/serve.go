package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"tubemerge/internal/api"
	"tubemerge/internal/progress"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the info and download actions over HTTP",
		Args:    cobra.NoArgs,
		PreRunE: a.preRun,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.resolve(); err != nil {
				return err
			}
			svc, err := a.newService(progress.Nop{})
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr: a.cfg.Listen,
				Handler: api.NewRouter(svc, api.Options{
					OutDir:         a.cfg.OutDir,
					PublicBaseURL:  a.cfg.PublicBaseURL,
					RequestTimeout: a.cfg.RequestTimeout,
					DownloadRate:   a.cfg.DownloadRate,
					DownloadBurst:  a.cfg.DownloadBurst,
					Logger:         a.logger,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}
			return serve(cmd.Context(), srv, a)
		},
	}
	cmd.Flags().String("listen", "", "Listen address (default :8000)")
	return cmd
}

// serve runs srv until ctx is cancelled, then shuts it down gracefully.
func serve(ctx context.Context, srv *http.Server, a *app) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server",
			"addr", srv.Addr,
			"out_dir", a.cfg.OutDir,
			"public_base_url", a.cfg.PublicBaseURL,
			"extractor", a.cfg.Extractor,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return &ExitError{Code: ExitCLIError, Err: err}
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		a.logger.Error("server shutdown error", "error", err)
		return &ExitError{Code: ExitCLIError, Err: err}
	}
	return nil
}
