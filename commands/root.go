package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/K0NGR3SS/minewatch/internal/config"
	"github.com/K0NGR3SS/minewatch/internal/ui"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

var (
	cfgFile  string
	logLevel string

	cfg    *config.Config
	appLog *logger.Logger
)

var rootCmd = &cobra.Command{
	Use:   "minewatch",
	Short: "MineWatch scores apps for covert crypto mining and tracks risk over time",
	Long: `MineWatch assesses installed apps or running processes for signs of hidden
cryptocurrency mining, keeps a bounded history of scan sessions and reports
trends, a risk heatmap and session-to-session comparisons.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.LoadConfig(cfgFile)
		if err != nil {
			return err
		}
		if logLevel != "" {
			c.Logger.Level = logLevel
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		cfg = c

		appLog = logger.New(logger.Config{
			Level:      cfg.Logger.Level,
			Format:     cfg.Logger.Format,
			TimeFormat: time.RFC3339,
		})

		if !jsonOutput() && cmd.Name() != "version" && cmd.Name() != "serve" {
			ui.PrintBanner(Version)
		}
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		pterm.Error.Println(err)
		stop()
		os.Exit(1)
	}
}

func jsonOutput() bool {
	return cfg != nil && cfg.OutputFormat == "json"
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to the YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error, disabled)")
}
