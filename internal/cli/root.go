// Package cli exposes the review service and the batch tools as cobra commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"ByteReview/internal/app"
	"ByteReview/internal/config"
	"ByteReview/internal/logging"
)

const configPathEnv = "BYTEREVIEW_CONFIG"

type rootOptions struct {
	configPath string
	out        io.Writer
	in         io.Reader
}

// NewRootCommand builds the command tree writing to out and prompting on in.
func NewRootCommand(out io.Writer, in io.Reader) *cobra.Command {
	opts := &rootOptions{out: out, in: in}

	root := &cobra.Command{
		Use:           "bytereview",
		Short:         "Review and categorize extracted wisdom bytes",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config (overrides "+configPathEnv+")")

	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newCategorizeCommand(opts))
	root.AddCommand(newQueryCommand(opts))
	return root
}

// Execute runs the CLI against the process streams.
func Execute(version string) error {
	root := NewRootCommand(os.Stdout, os.Stdin)
	root.Version = version
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	if o.configPath != "" {
		if err := os.Setenv(configPathEnv, o.configPath); err != nil {
			return config.Config{}, fmt.Errorf("set config path: %w", err)
		}
	}
	return config.Load(), nil
}

// open loads config, lets prepare adjust and check it, starts logging and
// opens the application. The returned func releases everything it opened.
func (o *rootOptions) open(ctx context.Context, prepare func(*config.Config) error) (*app.Application, *slog.Logger, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	if prepare != nil {
		if err := prepare(&cfg); err != nil {
			return nil, nil, nil, fmt.Errorf("invalid config: %w", err)
		}
	}

	logger, logCloser, err := logging.NewWithFile(cfg.Logging.Level, cfg.Logging.Dir, time.Now())
	if err != nil {
		return nil, nil, nil, err
	}

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		_ = logCloser.Close()
		return nil, nil, nil, err
	}

	release := func() {
		if err := application.Close(context.Background()); err != nil {
			logger.Error("close application", "err", err)
		}
		_ = logCloser.Close()
	}
	return application, logger, release, nil
}
