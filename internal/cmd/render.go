package cmd

import (
	"io"
	"os"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/stateful/godotenv"
	"go.uber.org/zap"

	"github.com/stateful/mdpane/internal/config"
	"github.com/stateful/mdpane/internal/config/autoconfig"
	"github.com/stateful/mdpane/internal/preview"
	"github.com/stateful/mdpane/internal/session"
)

func renderCmd() *cobra.Command {
	var (
		columnMaps []string
		variables  []string
		varFiles   []string
		outFile    string
	)

	cmd := cobra.Command{
		Use:   "render [FILE]",
		Short: "Render a Markdown file to HTML.",
		Long: `Render FILE, or stdin when FILE is "-" or missing, the same way the
preview pane does. The first replacement of a name wins, so flags come
before --var-file, which comes before the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd, args)
			if err != nil {
				return err
			}

			flagMaps, err := parsePairs(columnMaps)
			if err != nil {
				return errors.Wrap(err, "invalid --column-map")
			}
			fileVars, err := readVarFiles(varFiles)
			if err != nil {
				return err
			}
			flagVars, err := parsePairs(variables)
			if err != nil {
				return errors.Wrap(err, "invalid --var")
			}
			flagVars = append(flagVars, fileVars...)

			return autoconfig.Invoke(
				func(
					cfg *config.Config,
					renderer *preview.Renderer,
					logger *zap.Logger,
				) error {
					defer logger.Sync()

					in := preview.Input{
						Text:     string(source),
						BasePath: session.NormalizeBasePath(cfg.BasePath),
					}
					for _, p := range flagMaps {
						in.ColumnMaps = append(in.ColumnMaps, preview.ColumnMap{Name: p[0], Value: p[1]})
					}
					for _, p := range flagVars {
						in.Variables = append(in.Variables, preview.UserVariable{Name: p[0], Value: p[1]})
					}
					in.ColumnMaps = append(in.ColumnMaps, cfg.ColumnMaps...)
					in.Variables = append(in.Variables, cfg.Variables...)

					html, err := renderer.Render(in)
					if err != nil {
						return err
					}

					if outFile == "" {
						_, err = io.WriteString(cmd.OutOrStdout(), html)
						return errors.WithStack(err)
					}

					logger.Debug("writing preview", zap.String("path", outFile))
					return errors.WithStack(os.WriteFile(outFile, []byte(html), 0o644))
				},
			)
		},
	}

	cmd.Flags().StringArrayVar(&columnMaps, "column-map", nil, "Replace a heading text, as Name=Value. Repeatable.")
	cmd.Flags().StringArrayVar(&variables, "var", nil, "Replace {Name} with Value, as Name=Value. Repeatable.")
	cmd.Flags().StringArrayVar(&varFiles, "var-file", nil, "Read variables from a dotenv file. Repeatable.")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the HTML to this file instead of stdout.")

	return &cmd
}

func readSource(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		return data, errors.Wrap(err, "failed to read stdin")
	}
	data, err := os.ReadFile(args[0])
	return data, errors.WithStack(err)
}

// readVarFiles reads dotenv files. Variables of one file are sorted by name.
func readVarFiles(names []string) ([][2]string, error) {
	var pairs [][2]string
	for _, name := range names {
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		values, _, err := godotenv.UnmarshalBytesWithComments(data)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to parse %s", name)
		}
		keys := make([]string, 0, len(values))
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pairs = append(pairs, [2]string{k, values[k]})
		}
	}
	return pairs, nil
}

func parsePairs(values []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(values))
	for _, v := range values {
		name, value, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return nil, errors.Errorf("%q is not Name=Value", v)
		}
		pairs = append(pairs, [2]string{name, value})
	}
	return pairs, nil
}
