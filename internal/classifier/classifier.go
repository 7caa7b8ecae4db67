// Package classifier turns per-package telemetry facts into a risk verdict.
// It is a point-scoring heuristic: every suspicious sign is worth two points,
// and CPU and memory usage add up to three points each.
package classifier

import (
	"github.com/K0NGR3SS/minewatch/internal/models"
)

const (
	SignHighBackground    = "High background activity"
	SignManyPermissions   = "Many dangerous permissions"
	SignCryptoCode        = "Cryptographic code detected"
	SignSuspiciousNetwork = "Suspicious network activity"
	SignPossibleMining    = "Possible mining behavior"
)

const (
	manyPermissionsCutoff   = 5
	pointsPerSuspiciousSign = 2

	highRiskScore   = 5
	mediumRiskScore = 3
)

// DangerousPermissions is the fixed set of runtime permissions counted
// towards the "many dangerous permissions" sign.
var DangerousPermissions = map[string]bool{
	"android.permission.ACCESS_COARSE_LOCATION":     true,
	"android.permission.ACCESS_FINE_LOCATION":       true,
	"android.permission.CAMERA":                     true,
	"android.permission.RECORD_AUDIO":               true,
	"android.permission.READ_CONTACTS":              true,
	"android.permission.WRITE_CONTACTS":             true,
	"android.permission.READ_EXTERNAL_STORAGE":      true,
	"android.permission.WRITE_EXTERNAL_STORAGE":     true,
	"android.permission.ACCESS_BACKGROUND_LOCATION": true,
	"android.permission.BODY_SENSORS":               true,
}

// band is an exclusive lower bound and the points awarded above it.
type band struct {
	above  float64
	points int
}

// Bands are ordered highest first; only the first matching band applies.
var (
	cpuBands = []band{
		{above: 20, points: 3},
		{above: 10, points: 2},
		{above: 5, points: 1},
	}
	memoryBands = []band{
		{above: 200000, points: 3},
		{above: 100000, points: 2},
		{above: 50000, points: 1},
	}
)

type Input struct {
	PackageName          string
	Permissions          []string
	CPUUsagePercent      float64
	MemoryUsageKB        int64
	CryptoSignal         bool
	NetworkPatternSignal bool
	BackgroundSignal     bool
	MiningSignal         bool
}

type Verdict struct {
	SuspiciousActivities []string
	DangerousPermissions []string
	Score                int
	Level                models.RiskLevel
}

// Classify derives the suspicious signs, score and level for in.
func Classify(in Input) Verdict {
	dangerous := FilterDangerous(in.Permissions)

	signs := make([]string, 0, 5)
	if in.BackgroundSignal {
		signs = append(signs, SignHighBackground)
	}
	if len(dangerous) > manyPermissionsCutoff {
		signs = append(signs, SignManyPermissions)
	}
	if in.CryptoSignal {
		signs = append(signs, SignCryptoCode)
	}
	if in.NetworkPatternSignal {
		signs = append(signs, SignSuspiciousNetwork)
	}
	if in.MiningSignal {
		signs = append(signs, SignPossibleMining)
	}

	score := len(signs)*pointsPerSuspiciousSign + CPUPoints(in.CPUUsagePercent) + MemoryPoints(in.MemoryUsageKB)

	return Verdict{
		SuspiciousActivities: signs,
		DangerousPermissions: dangerous,
		Score:                score,
		Level:                LevelForScore(score),
	}
}

// FilterDangerous keeps the permissions in the dangerous set, in input order
// and without duplicates.
func FilterDangerous(permissions []string) []string {
	out := make([]string, 0, len(permissions))
	seen := make(map[string]bool, len(permissions))
	for _, p := range permissions {
		if !DangerousPermissions[p] || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}

func CPUPoints(cpuPercent float64) int {
	return bandPoints(cpuBands, cpuPercent)
}

func MemoryPoints(memoryKB int64) int {
	return bandPoints(memoryBands, float64(memoryKB))
}

func bandPoints(bands []band, v float64) int {
	for _, b := range bands {
		if v > b.above {
			return b.points
		}
	}
	return 0
}

func LevelForScore(score int) models.RiskLevel {
	switch {
	case score >= highRiskScore:
		return models.RiskHigh
	case score >= mediumRiskScore:
		return models.RiskMedium
	default:
		return models.RiskLow
	}
}
