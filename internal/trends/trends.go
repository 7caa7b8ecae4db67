// Package trends derives dashboard statistics, the risk heatmap and session
// comparisons from the retained session history. Sessions are always passed
// newest first, as the analytics store returns them.
package trends

import (
	"sort"

	"github.com/K0NGR3SS/minewatch/internal/models"
)

// trendWindow is the number of sessions in each of the recent and older windows.
const trendWindow = 5

func RiskHeatmap(sessions []models.ScanSession) []models.RiskHeatmapItem {
	type group struct {
		item  models.RiskHeatmapItem
		total int
	}

	var order []string
	groups := make(map[string]*group)

	for _, session := range sessions {
		for _, result := range session.ScanResults {
			g, ok := groups[result.PackageName]
			if !ok {
				g = &group{item: models.RiskHeatmapItem{
					PackageName: result.PackageName,
					AppName:     result.AppName,
				}}
				groups[result.PackageName] = g
				order = append(order, result.PackageName)
			}
			g.total += result.RiskLevel.Weight()
			g.item.ScanCount++
			if session.Timestamp > g.item.LastScanTime {
				g.item.LastScanTime = session.Timestamp
			}
		}
	}

	items := make([]models.RiskHeatmapItem, 0, len(order))
	for _, pkg := range order {
		g := groups[pkg]
		g.item.RiskScore = g.total / g.item.ScanCount
		items = append(items, g.item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].RiskScore > items[j].RiskScore
	})
	return items
}

func DashboardStats(sessions []models.ScanSession) models.DashboardStats {
	stats := models.DashboardStats{
		TotalScans:             len(sessions),
		HighRiskTrendPercent:   Trend(sessions, models.RiskHigh),
		MediumRiskTrendPercent: Trend(sessions, models.RiskMedium),
	}
	if len(sessions) == 0 {
		return stats
	}

	packages := make(map[string]struct{})
	var totalDuration int64
	for _, session := range sessions {
		totalDuration += session.DurationMillis
		for _, result := range session.ScanResults {
			packages[result.PackageName] = struct{}{}
		}
	}

	stats.TotalAppsScanned = len(packages)
	stats.LastScanTime = sessions[0].Timestamp
	stats.AverageScanDurationMillis = totalDuration / int64(len(sessions))
	return stats
}

// Trend compares the level's count in the newest sessions against the oldest
// ones. With ten or fewer sessions the two windows overlap.
func Trend(sessions []models.ScanSession, level models.RiskLevel) float64 {
	if len(sessions) < 2 {
		return 0
	}

	recent := sessions[:min(trendWindow, len(sessions))]
	older := sessions[max(0, len(sessions)-trendWindow):]

	recentSum := sumLevel(recent, level)
	olderSum := sumLevel(older, level)
	if olderSum <= 0 {
		return 0
	}
	return float64(recentSum-olderSum) / float64(olderSum) * 100
}

func sumLevel(sessions []models.ScanSession, level models.RiskLevel) int {
	total := 0
	for _, s := range sessions {
		total += s.CountFor(level)
	}
	return total
}

// Compare diffs the HIGH-risk packages of two sessions and the change of their
// weighted risk totals.
func Compare(session1, session2 models.ScanSession) models.ScanComparison {
	cmp := models.ScanComparison{
		Session1:             session1,
		Session2:             session2,
		NewHighRiskApps:      highRiskNotIn(session2, session1),
		ResolvedHighRiskApps: highRiskNotIn(session1, session2),
	}

	total1 := session1.WeightedRisk()
	total2 := session2.WeightedRisk()
	if total1 > 0 {
		cmp.RiskChangePercent = float64(total2-total1) / float64(total1) * 100
	}
	return cmp
}

// highRiskNotIn returns the HIGH results of a whose package is not HIGH in b.
func highRiskNotIn(a, b models.ScanSession) []models.ScanResult {
	highInB := make(map[string]bool)
	for _, r := range b.ScanResults {
		if r.RiskLevel == models.RiskHigh {
			highInB[r.PackageName] = true
		}
	}

	out := []models.ScanResult{}
	for _, r := range a.ScanResults {
		if r.RiskLevel == models.RiskHigh && !highInB[r.PackageName] {
			out = append(out, r)
		}
	}
	return out
}

// CompareByID looks both sessions up in history; ok is false when either is missing.
func CompareByID(sessions []models.ScanSession, id1, id2 string) (models.ScanComparison, bool) {
	s1, ok1 := find(sessions, id1)
	s2, ok2 := find(sessions, id2)
	if !ok1 || !ok2 {
		return models.ScanComparison{}, false
	}
	return Compare(s1, s2), true
}

func find(sessions []models.ScanSession, id string) (models.ScanSession, bool) {
	for _, s := range sessions {
		if s.ID == id {
			return s, true
		}
	}
	return models.ScanSession{}, false
}

// Distribution returns the per-session risk counts, oldest first.
func Distribution(sessions []models.ScanSession) []models.RiskDistribution {
	out := make([]models.RiskDistribution, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		s := sessions[i]
		out = append(out, models.RiskDistribution{
			SessionID:  s.ID,
			Timestamp:  s.Timestamp,
			HighRisk:   s.HighRiskApps,
			MediumRisk: s.MediumRiskApps,
			LowRisk:    s.LowRiskApps,
		})
	}
	return out
}
