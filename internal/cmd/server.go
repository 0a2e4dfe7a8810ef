package cmd

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/mdpane/internal/config/autoconfig"
	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/server"
	"github.com/stateful/mdpane/internal/session"
)

func serverCmd() *cobra.Command {
	var (
		addr  string
		open  bool
		trace bool
	)

	cmd := cobra.Command{
		Use:   "server",
		Short: "Serve previews and session methods over HTTP.",
		Long: `Start an HTTP server exposing the sessions:

  GET  /healthz
  GET  /sessions/{id}/preview
  GET  /sessions/{id}/assets/{path}
  POST /sessions/{id}/{method}

Use "default" as {id} for the default session. The request body of a
POST is passed to the method as its parameter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return autoconfig.Invoke(
				func(
					serverCfg *server.Config,
					dispatcher *host.Dispatcher,
					sessions *session.List,
					logger *zap.Logger,
				) error {
					defer logger.Sync()

					if addr != "" {
						serverCfg.Address = addr
					}
					if trace {
						serverCfg.Trace = cmd.ErrOrStderr()
						serverCfg.TraceColors = !color.NoColor
					}

					logger.Debug("server config", zap.Any("config", serverCfg))

					s, err := server.New(serverCfg, dispatcher, sessions, logger)
					if err != nil {
						return err
					}

					scheme := "http"
					if serverCfg.TLSEnabled {
						scheme = "https"
					}
					baseURL := scheme + "://" + s.Addr()
					_, _ = color.New(color.FgGreen).Fprintf(cmd.ErrOrStderr(), "Preview server listening on %s\n", baseURL)

					if open {
						browser.Stdout = cmd.ErrOrStderr()
						if err := browser.OpenURL(baseURL + "/sessions/" + server.DefaultSessionID + "/preview"); err != nil {
							logger.Info("failed to open browser", zap.Error(err))
						}
					}

					ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
					defer stop()

					g, ctx := errgroup.WithContext(ctx)
					g.Go(s.Serve)
					g.Go(func() error {
						<-ctx.Done()
						shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
						defer cancel()
						return s.Shutdown(shutdownCtx)
					})
					return g.Wait()
				},
			)
		},
	}

	cmd.Flags().StringVar(&addr, "address", "", "Listen on this address instead of server.address from the configuration.")
	cmd.Flags().BoolVar(&open, "open", false, "Open the default session's preview in a browser.")
	cmd.Flags().BoolVar(&trace, "trace", false, "Dump every request and response to stderr.")

	return &cmd
}
