package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/stateful/mdpane/internal/config"
	"github.com/stateful/mdpane/internal/config/autoconfig"
)

type rootFlags struct {
	configFile string
	basePath   string
	logEnabled bool
	logPath    string
	logVerbose bool
}

func Root() *cobra.Command {
	fl := &rootFlags{}

	cmd := cobra.Command{
		Use:   "mdpane",
		Short: "Markdown editing backend for native hosts",
		Long: `mdpane keeps a Markdown document for a native host application
and renders its preview.

The host talks to "mdpane bridge" with JSON lines on stdin and receives
events and responses on stdout. Settings come from mdpane.yaml in the
current directory, or the file passed with --config.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			autoconfig.Reset()
			if fl.configFile != "" {
				autoconfig.SetConfigFile(fl.configFile)
			}
			return autoconfig.Decorate(func(c *config.Config) *config.Config {
				fl.apply(cmd.Flags(), c)
				return c
			})
		},
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVar(&fl.configFile, "config", "", "Path to the configuration file.")
	pflags.StringVar(&fl.basePath, "base-path", "", "Prefix for relative image references.")
	pflags.BoolVar(&fl.logEnabled, "log", false, "Enable logging.")
	pflags.StringVar(&fl.logPath, "log-path", "", "Write logs to this file instead of stderr.")
	pflags.BoolVar(&fl.logVerbose, "log-verbose", false, "Log at debug level in a human-readable format.")

	cmd.AddCommand(bridgeCmd())
	cmd.AddCommand(renderCmd())
	cmd.AddCommand(serverCmd())
	cmd.AddCommand(versionCmd())

	return &cmd
}

// apply overrides c with the flags set on the command line.
func (fl *rootFlags) apply(flags *pflag.FlagSet, c *config.Config) {
	if flags.Changed("base-path") {
		c.BasePath = fl.basePath
	}
	if flags.Changed("log") {
		c.Log.Enabled = fl.logEnabled
	}
	if flags.Changed("log-path") {
		c.Log.Path = fl.logPath
	}
	if flags.Changed("log-verbose") {
		c.Log.Verbose = fl.logVerbose
		if fl.logVerbose {
			c.Log.Enabled = true
		}
	}
}
