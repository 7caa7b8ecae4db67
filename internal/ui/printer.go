package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/K0NGR3SS/minewatch/internal/models"
)

func riskStyle(level models.RiskLevel) string {
	switch level {
	case models.RiskHigh:
		return pterm.FgRed.Sprint("HIGH")
	case models.RiskMedium:
		return pterm.FgYellow.Sprint("MEDIUM")
	default:
		return pterm.FgBlue.Sprint("LOW")
	}
}

func formatTime(millis int64) string {
	if millis == 0 {
		return "-"
	}
	return time.UnixMilli(millis).Format("2006-01-02 15:04:05")
}

func formatPercent(p float64) string {
	switch {
	case p > 0:
		return pterm.FgRed.Sprintf("+%.1f%%", p)
	case p < 0:
		return pterm.FgGreen.Sprintf("%.1f%%", p)
	default:
		return "0.0%"
	}
}

// FilterByMinRisk keeps the results at or above threshold.
func FilterByMinRisk(results []models.ScanResult, threshold models.RiskLevel) []models.ScanResult {
	var filtered []models.ScanResult
	for _, r := range results {
		if r.RiskLevel >= threshold {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

func PrintResults(results []models.ScanResult) {
	if len(results) == 0 {
		pterm.Success.Println("No suspicious apps found.")
		return
	}

	data := [][]string{
		{"Risk", "Score", "Package", "App", "CPU", "Memory", "Conns", "Signs"},
	}

	for _, r := range results {
		signs := "-"
		if len(r.SuspiciousActivities) > 0 {
			signs = strings.Join(r.SuspiciousActivities, "; ")
		}
		data = append(data, []string{
			riskStyle(r.RiskLevel),
			strconv.Itoa(r.RiskScore),
			pterm.FgCyan.Sprint(r.PackageName),
			r.AppName,
			fmt.Sprintf("%.1f%%", r.CPUUsagePercent),
			fmt.Sprintf("%d KB", r.MemoryUsageKB),
			strconv.Itoa(r.NetworkConnections),
			signs,
		})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func PrintActions(results []models.ScanResult) {
	for _, r := range results {
		if len(r.RecommendedActions) == 0 {
			continue
		}
		items := make([]pterm.BulletListItem, 0, len(r.RecommendedActions))
		for _, a := range r.RecommendedActions {
			items = append(items, pterm.BulletListItem{Level: 1, Text: fmt.Sprintf("[%s] %s", a.Type, a.Description)})
		}
		pterm.Info.Printf("%s (%s)\n", r.AppName, r.RiskLevel.Description())
		_ = pterm.DefaultBulletList.WithItems(items).Render()
	}
}

func PrintSessionSummary(session models.ScanSession) {
	pterm.DefaultSection.Printf("Session %s", session.ID)
	_ = pterm.DefaultTable.WithData([][]string{
		{"Time", formatTime(session.Timestamp)},
		{"Apps", strconv.Itoa(session.TotalApps)},
		{"High", pterm.FgRed.Sprint(session.HighRiskApps)},
		{"Medium", pterm.FgYellow.Sprint(session.MediumRiskApps)},
		{"Low", strconv.Itoa(session.LowRiskApps)},
		{"Duration", fmt.Sprintf("%d ms", session.DurationMillis)},
	}).Render()
}

func PrintSessions(sessions []models.ScanSession) {
	if len(sessions) == 0 {
		pterm.Info.Println("No scan sessions recorded yet.")
		return
	}

	data := [][]string{{"ID", "Time", "Apps", "High", "Medium", "Low", "Duration"}}
	for _, s := range sessions {
		data = append(data, []string{
			s.ID,
			formatTime(s.Timestamp),
			strconv.Itoa(s.TotalApps),
			pterm.FgRed.Sprint(s.HighRiskApps),
			pterm.FgYellow.Sprint(s.MediumRiskApps),
			strconv.Itoa(s.LowRiskApps),
			fmt.Sprintf("%d ms", s.DurationMillis),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func PrintHeatmap(items []models.RiskHeatmapItem) {
	if len(items) == 0 {
		pterm.Info.Println("No scan history to build a heatmap from.")
		return
	}

	data := [][]string{{"Risk", "Package", "App", "Scans", "Last Scan"}}
	for _, it := range items {
		data = append(data, []string{
			riskStyle(models.RiskLevel(it.RiskScore)),
			pterm.FgCyan.Sprint(it.PackageName),
			it.AppName,
			strconv.Itoa(it.ScanCount),
			formatTime(it.LastScanTime),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func PrintStats(stats models.DashboardStats) {
	pterm.DefaultSection.Println("Dashboard")
	_ = pterm.DefaultTable.WithData([][]string{
		{"Total scans", strconv.Itoa(stats.TotalScans)},
		{"Distinct apps", strconv.Itoa(stats.TotalAppsScanned)},
		{"Last scan", formatTime(stats.LastScanTime)},
		{"High risk trend", formatPercent(stats.HighRiskTrendPercent)},
		{"Medium risk trend", formatPercent(stats.MediumRiskTrendPercent)},
		{"Average duration", fmt.Sprintf("%d ms", stats.AverageScanDurationMillis)},
	}).Render()
}

func PrintComparison(cmp models.ScanComparison) {
	pterm.DefaultSection.Printf("%s → %s", cmp.Session1.ID, cmp.Session2.ID)
	pterm.Info.Printf("Weighted risk change: %s\n", formatPercent(cmp.RiskChangePercent))

	if len(cmp.NewHighRiskApps) > 0 {
		pterm.Warning.Printf("%d new high risk apps:\n", len(cmp.NewHighRiskApps))
		PrintResults(cmp.NewHighRiskApps)
	}
	if len(cmp.ResolvedHighRiskApps) > 0 {
		pterm.Success.Printf("%d high risk apps resolved:\n", len(cmp.ResolvedHighRiskApps))
		PrintResults(cmp.ResolvedHighRiskApps)
	}
	if len(cmp.NewHighRiskApps) == 0 && len(cmp.ResolvedHighRiskApps) == 0 {
		pterm.Info.Println("High risk apps unchanged.")
	}
}

func PrintCPUHistory(samples []models.CPUUsageSample) {
	if len(samples) == 0 {
		pterm.Info.Println("No CPU samples recorded for this package.")
		return
	}

	data := [][]string{{"Time", "CPU", "Memory"}}
	bars := make(pterm.Bars, 0, len(samples))
	for _, s := range samples {
		data = append(data, []string{
			formatTime(s.Timestamp),
			fmt.Sprintf("%.1f%%", s.CPUUsagePercent),
			fmt.Sprintf("%d KB", s.MemoryUsageKB),
		})
		bars = append(bars, pterm.Bar{
			Label: time.UnixMilli(s.Timestamp).Format("15:04:05"),
			Value: int(s.CPUUsagePercent + 0.5),
		})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	_ = pterm.DefaultBarChart.WithBars(bars).WithHorizontal().WithShowValue().Render()
}

// PrintJSON writes v as indented JSON, for output_format: json.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func StartSpinner(text string) *pterm.SpinnerPrinter {
	spinner, _ := pterm.DefaultSpinner.Start(text)
	return spinner
}
