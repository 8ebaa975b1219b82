package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"CryptoGraph/internal/config"
	"CryptoGraph/internal/logger"
)

var (
	cfgPath string
	verbose bool
	timeout time.Duration

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cryptograph",
	Short: "CryptoGraph - track up to five coins and their recent price action",
	Long: `CryptoGraph follows a small selection of crypto coins.

It keeps a sliding window of OHLC samples per selected coin, refreshed on a
schedule from CoinGecko and CryptoCompare, and serves the selection, series
and reports over an HTTP API and a Telegram bot.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		if err := logger.Init(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		return nil
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the refresh scheduler, HTTP API and Telegram bot",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var coinsCmd = &cobra.Command{
	Use:   "coins",
	Short: "List market coins, optionally filtered by name or symbol",
	Long: `Lists the market catalog ordered by market cap.

Example:
  cryptograph coins --search eth`,
	Args: cobra.NoArgs,
	RunE: runCoins,
}

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Manage the persisted coin selection",
	Long: `Manage the selected coins. At most five coins can be selected.

Available subcommands:
  list          - Show the selected coins
  toggle <id>   - Add or remove a coin
  remove <id>   - Remove a coin
  clear         - Remove every coin`,
}

var selectListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the selected coins",
	Args:  cobra.NoArgs,
	RunE:  runSelectList,
}

var selectToggleCmd = &cobra.Command{
	Use:   "toggle [coin-id]",
	Short: "Add a coin to the selection, or remove it if already selected",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelectToggle,
}

var selectRemoveCmd = &cobra.Command{
	Use:   "remove [coin-id]",
	Short: "Remove a coin from the selection",
	Args:  cobra.ExactArgs(1),
	RunE:  runSelectRemove,
}

var selectClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every coin from the selection",
	Args:  cobra.NoArgs,
	RunE:  runSelectClear,
}

var priceCmd = &cobra.Command{
	Use:   "price [coin-id]",
	Short: "Show the USD, EUR and ILS price of a coin",
	Args:  cobra.ExactArgs(1),
	RunE:  runPrice,
}

var recommendCmd = &cobra.Command{
	Use:   "recommend [coin-id]",
	Short: "Ask the configured LLM for a buy / do-not-buy recommendation",
	Args:  cobra.ExactArgs(1),
	RunE:  runRecommend,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", config.PathFromEnv(), "Config file (or set CONFIG_PATH env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for one-shot commands")

	coinsCmd.Flags().String("search", "", "Filter by name or symbol (case-insensitive)")
	coinsCmd.Flags().Int("limit", 50, "Maximum number of rows to print (0 for all)")

	selectCmd.AddCommand(selectListCmd)
	selectCmd.AddCommand(selectToggleCmd)
	selectCmd.AddCommand(selectRemoveCmd)
	selectCmd.AddCommand(selectClearCmd)

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(coinsCmd)
	rootCmd.AddCommand(selectCmd)
	rootCmd.AddCommand(priceCmd)
	rootCmd.AddCommand(recommendCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
