package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/K0NGR3SS/minewatch/internal/ui"
)

// withApp runs fn against a freshly opened app with a bounded context.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	a, err := newApp(ctx, cfg, appLog)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List retained scan sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			sessions, err := a.engine.Sessions(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return ui.PrintJSON(os.Stdout, sessions)
			}
			ui.PrintSessions(sessions)
			return nil
		})
	},
}

var cpuHistoryCmd = &cobra.Command{
	Use:   "cpu-history <package>",
	Short: "Show the recorded CPU and memory samples of a package",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			samples, err := a.engine.CPUHistory(ctx, args[0])
			if err != nil {
				return err
			}
			if jsonOutput() {
				return ui.PrintJSON(os.Stdout, samples)
			}
			ui.PrintCPUHistory(samples)
			return nil
		})
	},
}

var heatmapCmd = &cobra.Command{
	Use:   "heatmap",
	Short: "Show the average risk of every package across retained sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			items, err := a.engine.RiskHeatmap(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return ui.PrintJSON(os.Stdout, items)
			}
			ui.PrintHeatmap(items)
			return nil
		})
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show dashboard statistics and risk trends",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			stats, err := a.engine.DashboardStats(ctx)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return ui.PrintJSON(os.Stdout, stats)
			}
			ui.PrintStats(stats)
			return nil
		})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <older-session-id> <newer-session-id>",
	Short: "Diff the high risk apps and weighted risk of two sessions",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			cmp, ok, err := a.engine.CompareSessions(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("session %s or %s is not in the retained history", args[0], args[1])
			}
			if jsonOutput() {
				return ui.PrintJSON(os.Stdout, cmp)
			}
			ui.PrintComparison(cmp)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd, cpuHistoryCmd, heatmapCmd, statsCmd, compareCmd)
}
