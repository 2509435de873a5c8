package command

import (
	"github.com/cirruslabs/mediacache/internal/command/fetch"
	"github.com/cirruslabs/mediacache/internal/command/serve"
	"github.com/cirruslabs/mediacache/internal/logginglevel"
	"github.com/cirruslabs/mediacache/internal/version"
	"github.com/spf13/cobra"
	"go.uber.org/zap/zapcore"
)

var debug bool

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "mediacache",
		Short:         "Retrieves, caches and transcodes authenticated media",
		Version:       version.FullVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if debug {
				logginglevel.Level.SetLevel(zapcore.DebugLevel)
			}

			return nil
		},
	}

	cmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	cmd.AddCommand(
		serve.NewCommand(),
		fetch.NewCommand(),
	)

	return cmd
}
