// Command courier validates and renders delivery message templates and
// manages the persisted operator session.
package main

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-courier/config"
)

type app struct {
	cfg    *config.Config
	logger hclog.Logger
	out    io.Writer

	showMetrics  bool
	showActivity bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	a := &app{}
	var configPath, logLevel string

	root := &cobra.Command{
		Use:           "courier",
		Short:         "Delivery message templates and session tooling",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
				if err := cfg.Validate(); err != nil {
					return err
				}
			}

			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			a.logger = hclog.New(&hclog.LoggerOptions{
				Name:   "courier",
				Level:  cfg.GetLogLevel(),
				Output: cmd.ErrOrStderr(),
			})
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newTemplateCommand(a),
		newSessionCommand(a),
	)
	return root
}
