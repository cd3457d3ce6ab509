package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/tib2xxu/internal/config"
	"github.com/oshokin/tib2xxu/internal/domain/xxu"
	"github.com/oshokin/tib2xxu/internal/logger"
	"github.com/oshokin/tib2xxu/internal/service/converter"
	"github.com/oshokin/tib2xxu/internal/version"
)

// rootFlags holds the values bound to the root command flags.
type rootFlags struct {
	// deviceType overrides the device derived from the output extension.
	deviceType string
	// profile selects the header finalization strategy.
	profile string
	// configPath is an optional YAML settings file.
	configPath string
	// logLevel is the minimum level of log entries on stderr.
	logLevel string
	// chunkSize is the copy buffer size in bytes.
	chunkSize int
}

// errArgs is returned when the positional arguments are missing or extra.
var errArgs = errors.New("expected an input and an output file")

// newRootCmd builds the tib2xxu command tree.
func newRootCmd() *cobra.Command {
	flags := new(rootFlags)

	rootCmd := &cobra.Command{
		Use:   "tib2xxu [-t type] infile.tib outfile.??u",
		Short: "Convert a .tib boot-code image into an installable OS package",
		Long: `Converts a raw calculator boot-code image (.tib) into an OS upgrade package
(.89u, .9xu, .v2u) by prepending the 74-byte package header to the unmodified image.

The calculator type is taken from the output file extension unless -t is given.
The "patch" profile (default) writes the header first and patches the device and
size fields afterwards, leaving the date empty. The "rewrite" profile writes the
complete header, including today's date, after the image has been copied.`,
		Args:          exactFiles,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.settings(cmd)
			if err != nil {
				return err
			}

			// Validate has already accepted the level.
			level, _ := logger.ParseLogLevel(cfg.LogLevel)
			logger.SetLevel(level)

			_, err = converter.Run(cmd.Context(), &converter.Options{
				InputPath:     args[0],
				OutputPath:    args[1],
				DeviceType:    flags.deviceType,
				DeviceTypeSet: cmd.Flags().Changed("type"),
				Profile:       xxu.Profile(cfg.Profile),
				ChunkSize:     cfg.ChunkSize,
			})

			return err
		},
	}

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.Flags().StringVarP(&flags.deviceType, "type", "t", "",
		"calculator type ("+strings.Join(xxu.DeviceTokens(), ", ")+"); the output file extension is used if not given")
	rootCmd.Flags().StringVarP(&flags.profile, "profile", "p", string(xxu.DefaultProfile),
		"header profile (patch, rewrite)")
	rootCmd.Flags().StringVarP(&flags.configPath, "config", "c", "", "path to an optional YAML settings file")
	rootCmd.Flags().IntVar(&flags.chunkSize, "chunk-size", config.DefaultChunkSize, "copy buffer size in bytes")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", config.DefaultLogLevel,
		"log level (debug, info, warn, error)")

	// Unknown flags are usage errors like missing arguments.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return xxu.NewError(xxu.ErrUsage, "flags", err)
	})

	// Help goes to stderr, standard output is reserved for inspect reports.
	help := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		cmd.SetOut(cmd.ErrOrStderr())
		help(cmd, args)
	})

	rootCmd.AddCommand(newInspectCmd(flags))
	version.AttachCobraVersionCommand(rootCmd)

	return rootCmd
}

// settings merges the optional settings file with explicitly set flags.
func (f *rootFlags) settings(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.configPath, err)
		}

		cfg = loaded
	}

	if cmd.Flags().Changed("profile") {
		cfg.Profile = f.profile
	}

	if cmd.Flags().Changed("chunk-size") {
		cfg.ChunkSize = f.chunkSize
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, xxu.NewError(xxu.ErrUsage, "settings", err)
	}

	return cfg, nil
}

// exactFiles requires the input and output paths.
func exactFiles(_ *cobra.Command, args []string) error {
	if len(args) != 2 {
		return xxu.NewError(xxu.ErrUsage, "arguments", errArgs)
	}

	return nil
}

// run executes the command tree with args and returns the process exit code.
// Diagnostics are printed as "<program>: <context>: <message>".
func run(ctx context.Context, program string, args []string, stdout, stderr io.Writer) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	cmd, err := rootCmd.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}

	_, _ = fmt.Fprintf(stderr, "%s: %v\n", program, err)

	if errors.Is(err, xxu.ErrUsage) {
		if cmd == nil {
			cmd = rootCmd
		}

		cmd.SetOut(stderr)
		_ = cmd.Usage()
	}

	return 1
}

// Execute runs the tib2xxu CLI and exits with non-zero status on error.
func Execute() {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	code := run(ctx, filepath.Base(os.Args[0]), os.Args[1:], os.Stdout, os.Stderr)

	stop()
	os.Exit(code)
}
