package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/oshokin/tib2xxu/internal/domain/xxu"
	"github.com/oshokin/tib2xxu/internal/logger"
	"github.com/oshokin/tib2xxu/internal/service/inspector"
)

// errInspectArgs is returned when inspect is not given exactly one file.
var errInspectArgs = errors.New("expected one package file")

// newInspectCmd builds the `inspect` subcommand.
func newInspectCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect package.??u",
		Short: "Print the header of an OS package as YAML",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return xxu.NewError(xxu.ErrUsage, "arguments", errInspectArgs)
			}

			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.settings(cmd)
			if err != nil {
				return err
			}

			// Validate has already accepted the level.
			level, _ := logger.ParseLogLevel(cfg.LogLevel)
			logger.SetLevel(level)

			_, err = inspector.Run(cmd.Context(), &inspector.Options{
				Path:   args[0],
				Output: cmd.OutOrStdout(),
			})

			return err
		},
	}
}
