package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/JakeFAU/hn-crawler/internal/app"
	"github.com/JakeFAU/hn-crawler/internal/config"
)

// App defines the application interface that commands will use.
// This allows us to inject a mock app during tests.
type App interface {
	Run(ctx context.Context) error
	Close()
}

// newApp is the application factory. It's a variable so we can
// replace it with a mock factory in our tests.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

// flagKeys maps command line flags to their configuration keys.
var flagKeys = map[string]string{
	"log":      "logging.file",
	"debug":    "logging.debug",
	"interval": "poll.interval_seconds",
	"num":      "poll.num_stories",
	"root-dir": "crawler.root_dir",
	"port":     "server.port",
}

// newRootCmd creates and configures the root command. Running it without a
// subcommand starts the crawl.
func newRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "hn-crawler",
		Short: "Crawls Hacker News top stories and the pages their comments link to.",
		Long: `hn-crawler polls the Hacker News front page, walks every story's comment
tree and saves the story page plus every page linked from its comments under
./pages/<story>/<page>. Each page is downloaded at most once per story.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd, v, cfgFile)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.StringP("log", "l", "", "write logs to this file instead of stderr")
	flags.BoolP("debug", "d", false, "enable debug logging")
	flags.IntP("interval", "i", 5, "seconds to wait between front page polls")
	flags.IntP("num", "n", 30, "number of top stories to crawl per poll")
	flags.String("root-dir", "./pages", "directory story folders are created in")
	flags.Int("port", 0, "ops server port serving /healthz, /metrics and /v1/status (0 disables)")
	if err := bindFlags(v, flags); err != nil {
		panic(err)
	}

	cmd.AddCommand(newCrawlCmd(v, &cfgFile))
	return cmd
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	for name, key := range flagKeys {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
