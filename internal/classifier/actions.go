package classifier

import "github.com/K0NGR3SS/minewatch/internal/models"

// backgroundCPUThreshold is the CPU percentage above which a MEDIUM package
// is also advised to restrict background usage.
const backgroundCPUThreshold = 10

var actionTable = map[models.RiskLevel][]models.SecurityAction{
	models.RiskHigh: {
		{Type: models.ActionRevokePermission, Description: "Revoke dangerous permissions"},
		{Type: models.ActionDisableBackground, Description: "Disable background activity"},
		{Type: models.ActionUninstall, Description: "Uninstall suspicious app"},
	},
	models.RiskMedium: {
		{Type: models.ActionRevokePermission, Description: "Review and revoke unnecessary permissions"},
	},
	models.RiskLow: {},
}

var restrictBackground = models.SecurityAction{
	Type:        models.ActionDisableBackground,
	Description: "Restrict background usage",
}

// RecommendedActions returns a fresh action list for the given level.
func RecommendedActions(level models.RiskLevel, cpuPercent float64) []models.SecurityAction {
	base := actionTable[level]
	actions := make([]models.SecurityAction, len(base), len(base)+1)
	copy(actions, base)

	if level == models.RiskMedium && cpuPercent > backgroundCPUThreshold {
		actions = append(actions, restrictBackground)
	}
	return actions
}
