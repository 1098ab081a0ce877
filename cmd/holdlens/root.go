package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"holdlens/internal/config"
	"holdlens/internal/infrastructure"
	"holdlens/internal/insights"
)

// generatorFactory creates the insights generator from the AI configuration.
type generatorFactory func(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (insights.Generator, error)

type rootOptions struct {
	logLevel     string
	out          io.Writer
	errOut       io.Writer
	logger       *slog.Logger
	newGenerator generatorFactory
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	return newRootCmdWithOptions(&rootOptions{
		out:          out,
		errOut:       errOut,
		newGenerator: geminiGenerator,
	})
}

func newRootCmdWithOptions(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Analyze broker holdings exports",
		Long:          "holdlens reads broker-exported holdings files (xlsx or csv) of arbitrary layout and reports allocation, valuation and profit/loss.",
		Version:       config.AppVersion,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := infrastructure.NewLogger(config.LoggingConfig{
				Level:  opts.logLevel,
				Format: "json",
				Output: "console",
			}, opts.errOut)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
	}
	cmd.SetOut(opts.out)
	cmd.SetErr(opts.errOut)
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(newAnalyzeCmd(opts))
	cmd.AddCommand(newSampleCmd(opts))

	return cmd
}

// geminiGenerator creates a Gemini-backed generator. It fails when no API
// key is configured.
func geminiGenerator(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (insights.Generator, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("insights need an API key: set %s_AI_GEMINI_API_KEY", config.EnvPrefix)
	}
	return insights.NewGeminiGenerator(ctx, cfg.APIKey,
		insights.WithModel(cfg.Model),
		insights.WithMaxOutputTokens(cfg.MaxOutputTokens),
		insights.WithLogger(logger))
}
