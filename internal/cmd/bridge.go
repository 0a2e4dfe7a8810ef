package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/bridge"
	"github.com/stateful/mdpane/internal/config/autoconfig"
	"github.com/stateful/mdpane/internal/host"
	"github.com/stateful/mdpane/internal/session"
	"github.com/stateful/mdpane/internal/version"
)

func bridgeCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "bridge",
		Short: "Serve a native host over stdin and stdout.",
		Long: `Read one JSON request per line from stdin and answer each with a
Response message on stdout. KeyDown and CodeChange events are written to
stdout as they happen.

When stdout is a terminal there is no host to talk to and outbound
messages go to the log instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return autoconfig.Invoke(
				func(
					sessions *session.List,
					dispatcher *host.Dispatcher,
					transport bridge.Transport,
					logger *zap.Logger,
				) error {
					defer logger.Sync()

					ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
					defer stop()

					ready := bridge.NewReady(sessions.Default().ID, version.BaseVersion())
					if err := transport.Post(ready); err != nil {
						return err
					}

					logger.Debug("bridge started", zap.String("session", ready.SessionID))

					return host.Serve(ctx, cmd.InOrStdin(), dispatcher, transport, logger)
				},
			)
		},
	}

	return &cmd
}
