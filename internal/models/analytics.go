package models

// RiskHeatmapItem is the cross-session average risk of one package.
type RiskHeatmapItem struct {
	PackageName  string `json:"package_name"`
	AppName      string `json:"app_name"`
	RiskScore    int    `json:"risk_score"`
	ScanCount    int    `json:"scan_count"`
	LastScanTime int64  `json:"last_scan_time"`
}

type DashboardStats struct {
	TotalScans                int     `json:"total_scans"`
	TotalAppsScanned          int     `json:"total_apps_scanned"`
	LastScanTime              int64   `json:"last_scan_time"`
	HighRiskTrendPercent      float64 `json:"high_risk_trend_percent"`
	MediumRiskTrendPercent    float64 `json:"medium_risk_trend_percent"`
	AverageScanDurationMillis int64   `json:"average_scan_duration_millis"`
}

type ScanComparison struct {
	Session1             ScanSession  `json:"session1"`
	Session2             ScanSession  `json:"session2"`
	NewHighRiskApps      []ScanResult `json:"new_high_risk_apps"`
	ResolvedHighRiskApps []ScanResult `json:"resolved_high_risk_apps"`
	RiskChangePercent    float64      `json:"risk_change_percent"`
}

// RiskDistribution is a point of the risk-over-time chart.
type RiskDistribution struct {
	SessionID  string `json:"session_id"`
	Timestamp  int64  `json:"timestamp"`
	HighRisk   int    `json:"high_risk"`
	MediumRisk int    `json:"medium_risk"`
	LowRisk    int    `json:"low_risk"`
}
