// Package cmd defines and implements the CLI commands for the hn-crawler executable.
package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/hn-crawler/internal/config"
	"github.com/JakeFAU/hn-crawler/internal/logging"
)

// newCrawlCmd creates the 'crawl' subcommand. It is equivalent to running the
// root command without arguments.
func newCrawlCmd(v *viper.Viper, cfgFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "crawl",
		Short: "Starts the poll loop",
		Long: `Polls the top stories every --interval seconds and crawls up to --num of
them. Runs until interrupted with SIGINT or SIGTERM, then waits for in-flight
stories to finish.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, v, *cfgFile)
		},
	}
}

func runCrawl(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	cfg, err := config.LoadFrom(v, cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(logging.Options{
		Development: cfg.Logging.Development,
		Debug:       cfg.Logging.Debug,
		OutputPath:  cfg.Logging.File,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appInstance, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application services", zap.Error(err))
		return fmt.Errorf("init app: %w", err)
	}
	defer appInstance.Close()

	logger.Info("crawler starting",
		zap.Duration("interval", cfg.Poll.Interval()),
		zap.Int("num_stories", cfg.Poll.NumStories),
		zap.String("root_dir", cfg.Crawler.RootDir),
		zap.Int("max_in_flight", cfg.Crawler.MaxInFlight),
	)
	if err := appInstance.Run(ctx); err != nil {
		logger.Error("crawler stopped with error", zap.Error(err))
		return err
	}
	logger.Info("crawler stopped")
	return nil
}
