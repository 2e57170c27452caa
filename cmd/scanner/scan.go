package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carmandale/spy-fly/internal/app"
	"github.com/carmandale/spy-fly/internal/selector"
)

func scanCmd() *cobra.Command {
	var (
		accountSize  float64
		maxResults   int
		forceRefresh bool
		asJSON       bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the option chain and print ranked spreads",
		Long: `Fetch market context and the same-day option chain, build every
bull call spread, size and validate each one, then print the top ranked.

Examples:
  # Scan with the configured account size
  spy-fly scan

  # Override the account size and result count
  spy-fly scan --account-size 25000 --max 3

  # Replay a recorded snapshot
  spy-fly --fixture testdata/snapshot.json scan --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !cmd.Flags().Changed("account-size") {
				accountSize = cfg.Scan.AccountSize
			}

			a, err := app.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Selector.Scan(ctx, selector.ScanRequest{
				AccountSize:        accountSize,
				MaxRecommendations: maxResults,
				ForceRefresh:       forceRefresh,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			fmt.Print(formatScan(cfg.Symbols.Underlying, result))

			logger.Info("scan complete",
				zap.String("state", string(result.State)),
				zap.Int("recommendations", len(result.Recommendations)),
			)

			if result.State == selector.Error {
				return fmt.Errorf("scan ended in error: %s", result.Reason)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&accountSize, "account-size", 0, "account size in dollars (default from config)")
	cmd.Flags().IntVar(&maxResults, "max", 0, "maximum recommendations (default from config)")
	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "bypass the sentiment cache")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full scan result as JSON")

	return cmd
}

func sentimentCmd() *cobra.Command {
	var forceRefresh bool

	cmd := &cobra.Command{
		Use:   "sentiment",
		Short: "Print the composite sentiment score and its breakdown",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Build(cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.Sentiment.Calculate(cmd.Context(), forceRefresh)
			if err != nil {
				return err
			}

			fmt.Print(formatSentiment(result))
			return nil
		},
	}

	cmd.Flags().BoolVar(&forceRefresh, "force-refresh", false, "bypass the sentiment cache")

	return cmd
}
