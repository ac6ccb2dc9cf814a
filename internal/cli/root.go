package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Domenick1991/airbooker/config"
	"github.com/Domenick1991/airbooker/internal/bootstrap"
	"github.com/Domenick1991/airbooker/internal/logger"
	"github.com/Domenick1991/airbooker/internal/service/reservation"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Format     string // "json" | "text"
	Verbose    bool

	openEngine EngineFactory
}

// EngineFactory opens the engine a command runs against. The returned
// function releases it.
type EngineFactory func(ctx context.Context, opts *RootOptions) (reservation.UseCase, func() error, error)

var ValidFormats = []string{"text", "json"}

func NewRootCommand() *cobra.Command {
	return NewRootCommandWithEngine(OpenEngine)
}

// NewRootCommandWithEngine builds the CLI over a custom engine source.
func NewRootCommandWithEngine(factory EngineFactory) *cobra.Command {
	opts := &RootOptions{openEngine: factory}

	cmd := &cobra.Command{
		Use:           "airbooker",
		Short:         "AirBooker - flight reservations",
		Long:          "Manage flights and passenger bookings with transactional seat accounting.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = "config.yaml"
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", defaultConfig, "path to the YAML config")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "log at the configured level instead of warnings only")

	cmd.AddCommand(NewFlightsCommand(opts))
	cmd.AddCommand(NewBookCommand(opts))
	cmd.AddCommand(NewCancelCommand(opts))
	cmd.AddCommand(NewBookingsCommand(opts))

	return cmd
}

// OpenEngine loads the config and wires the engine the same way the server does.
func OpenEngine(ctx context.Context, opts *RootOptions) (reservation.UseCase, func() error, error) {
	cfg, err := config.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, nil, err
	}

	level := "warn"
	if opts.Verbose {
		level = cfg.Log.Level
	}
	app, err := bootstrap.NewApp(ctx, cfg, logger.NewWithWriter(os.Stderr, level, true))
	if err != nil {
		return nil, nil, err
	}
	return app.Engine, app.Close, nil
}

// Execute runs cmd and returns the process exit code. Errors the commands
// already reported are not printed again.
func Execute(ctx context.Context, cmd *cobra.Command) int {
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "operation failed: %v\n", err)
	return ExitUsage
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
