package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/app"
	"github.com/carmandale/spy-fly/internal/config"
)

var (
	cfgFile string
	fixture string
	verbose bool
	logger  *zap.Logger
	cfg     *config.Config
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "spy-fly",
		Short: "Rank same-day SPY bull call spreads",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip config loading for help commands
			if cmd.Name() == "help" || cmd.Name() == "completion" {
				var err error
				logger, err = app.NewLogger("scanner", verbose, nil)
				return err
			}

			if fixture != "" {
				os.Setenv("SPYFLY_MARKET_DATA_SOURCE", config.SourceFile)
				os.Setenv("SPYFLY_MARKET_DATA_FIXTURE_PATH", fixture)
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}

			logger, err = app.NewLogger("scanner", verbose, &cfg.Logging)
			return err
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("SPYFLY_CONFIG"), "config file path (or set SPYFLY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&fixture, "fixture", "", "serve market data from a snapshot file instead of the API")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(scanCmd())
	rootCmd.AddCommand(sentimentCmd())
	rootCmd.AddCommand(compressCmd())

	// Setup signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
