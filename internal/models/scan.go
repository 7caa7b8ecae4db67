package models

// ScanResult is the verdict for one package in one scan. Timestamps across the
// models are unix milliseconds.
type ScanResult struct {
	PackageName          string           `json:"package_name"`
	AppName              string           `json:"app_name"`
	RiskLevel            RiskLevel        `json:"risk_level"`
	RiskScore            int              `json:"risk_score"`
	SuspiciousActivities []string         `json:"suspicious_activities"`
	CPUUsagePercent      float64          `json:"cpu_usage_percent"`
	MemoryUsageKB        int64            `json:"memory_usage_kb"`
	NetworkConnections   int              `json:"network_connections"`
	DangerousPermissions []string         `json:"dangerous_permissions"`
	RecommendedActions   []SecurityAction `json:"recommended_actions"`
	ScannedAt            int64            `json:"scanned_at"`
}

// ScanSession is one completed batch scan.
type ScanSession struct {
	ID             string       `json:"id"`
	Timestamp      int64        `json:"timestamp"`
	TotalApps      int          `json:"total_apps"`
	HighRiskApps   int          `json:"high_risk_apps"`
	MediumRiskApps int          `json:"medium_risk_apps"`
	LowRiskApps    int          `json:"low_risk_apps"`
	ScanResults    []ScanResult `json:"scan_results"`
	DurationMillis int64        `json:"duration_millis"`
}

// CountFor returns the session's tally for the given level.
func (s ScanSession) CountFor(level RiskLevel) int {
	switch level {
	case RiskHigh:
		return s.HighRiskApps
	case RiskMedium:
		return s.MediumRiskApps
	case RiskLow:
		return s.LowRiskApps
	}
	return 0
}

// WeightedRisk sums 3 per HIGH, 2 per MEDIUM and 1 per LOW package.
func (s ScanSession) WeightedRisk() int {
	return s.HighRiskApps*RiskHigh.Weight() +
		s.MediumRiskApps*RiskMedium.Weight() +
		s.LowRiskApps*RiskLow.Weight()
}

type CPUUsageSample struct {
	PackageName     string  `json:"package_name"`
	AppName         string  `json:"app_name"`
	Timestamp       int64   `json:"timestamp"`
	CPUUsagePercent float64 `json:"cpu_usage_percent"`
	MemoryUsageKB   int64   `json:"memory_usage_kb"`
}

type NetworkActivitySample struct {
	PackageName   string `json:"package_name"`
	Timestamp     int64  `json:"timestamp"`
	Connections   int    `json:"connections"`
	BytesSent     int64  `json:"bytes_sent"`
	BytesReceived int64  `json:"bytes_received"`
}
