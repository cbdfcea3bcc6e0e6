package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"slideshow/config"
	"slideshow/internal/logging"
	"slideshow/internal/progress"
	"slideshow/pipeline"
)

func newRootCommand() *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "slideshow",
		Short: "Turn a folder of images into zooming video segments with music",
		Long: `slideshow groups the images in a directory into batches, letterboxes each
image to the output frame size, adds a slow zoom, joins the images of a
batch into one segment, lays the background track over it and encodes the
result to output_video_<N>.mp4.

Settings come from defaults, then a config file (--config, or the first of
./slideshow.yaml, ~/.slideshow/config.yaml, /etc/slideshow/config.yaml),
then command-line flags.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, used, err := config.Load(configPath, cmd.Flags())
			if err != nil {
				return err
			}
			return runSlideshow(cmd.Context(), cfg, used, cmd.OutOrStdout())
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (YAML or TOML)")
	config.RegisterFlags(rootCmd.Flags())
	rootCmd.Flags().SortFlags = false

	rootCmd.AddCommand(newConfigCommand(&configPath))

	return rootCmd
}

func runSlideshow(ctx context.Context, cfg *config.Config, configFile string, out io.Writer) error {
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	if configFile != "" {
		logger.Debug("configuration loaded", slog.String("path", configFile))
	}

	if cfg.DryRun {
		fmt.Fprintln(out, "DRY RUN: no video will be encoded")
		cfg.PrintConfig(out)
	}

	runner, err := pipeline.NewRunner(cfg, logger)
	if err != nil {
		return err
	}
	display := progress.New(os.Stderr, cfg.Progress, logger)
	runner.SetEncoder(pipeline.NewFFmpegEncoder(cfg, display, logger))

	report, err := runner.Run(ctx)
	if report != nil {
		renderSummary(out, report)
	}
	return err
}
