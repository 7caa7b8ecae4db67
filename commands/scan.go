package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/internal/notifications"
	"github.com/K0NGR3SS/minewatch/internal/ui"
)

var scanCmd = &cobra.Command{
	Use:   "scan [package...]",
	Short: "Score packages and record a scan session",
	Long: `Collects telemetry for each package, scores it for covert mining and stores
the session in the analytics history. Without arguments the packages listed
in the telemetry inventory are scanned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
		defer cancel()

		a, err := newApp(ctx, cfg, appLog)
		if err != nil {
			return err
		}
		defer a.Close()

		packages := args
		if len(packages) == 0 {
			packages = a.packages
		}
		if len(packages) == 0 {
			return fmt.Errorf("no packages to scan: name them or configure an inventory")
		}

		var session models.ScanSession
		if jsonOutput() {
			session, err = a.engine.ScanAll(ctx, packages)
		} else {
			spinner := ui.StartSpinner(fmt.Sprintf("Scanning %d packages...", len(packages)))
			session, err = a.engine.ScanAll(ctx, packages)
			if err != nil {
				spinner.Fail("Scan failed")
			} else {
				spinner.Success(fmt.Sprintf("Scanned %d packages", session.TotalApps))
			}
		}
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		if err := printSession(session); err != nil {
			return err
		}

		if cfg.Scan.MetricsFile != "" {
			if err := prometheus.WriteToTextfile(cfg.Scan.MetricsFile, a.registry); err != nil {
				appLog.Warn().Err(err).Str("file", cfg.Scan.MetricsFile).Msg("failed to write metrics file")
			}
		}

		if cfg.Slack.WebhookURL != "" {
			notifier := notifications.NewSlackNotifier(cfg.Slack.WebhookURL, cfg.Slack.Channel)
			if err := notifier.SendSession(ctx, session); err != nil {
				appLog.Warn().Err(err).Msg("failed to send slack notification")
			} else {
				appLog.Info().Str("session_id", session.ID).Msg("slack notification sent")
			}
		}

		return nil
	},
}

// printSession renders session. min_risk hides lower results from the table
// only; JSON output always carries the full session.
func printSession(session models.ScanSession) error {
	if jsonOutput() {
		return ui.PrintJSON(os.Stdout, session)
	}

	results := session.ScanResults
	if cfg.MinRisk != "" {
		threshold, err := models.ParseRiskLevel(cfg.MinRisk)
		if err != nil {
			return err
		}
		results = ui.FilterByMinRisk(results, threshold)
	}

	ui.PrintSessionSummary(session)
	ui.PrintResults(results)
	ui.PrintActions(results)
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)
}
