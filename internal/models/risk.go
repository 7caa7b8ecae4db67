package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RiskLevel is the ordinal verdict assigned to a scanned package.
type RiskLevel int

const (
	RiskLow RiskLevel = iota + 1
	RiskMedium
	RiskHigh
)

// Levels lists every risk level from lowest to highest.
var Levels = []RiskLevel{RiskLow, RiskMedium, RiskHigh}

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
}

func (l RiskLevel) Description() string {
	switch l {
	case RiskMedium:
		return "Medium risk"
	case RiskHigh:
		return "High risk - possible mining"
	default:
		return "Low risk"
	}
}

// Weight is the heatmap and comparison weight of the level (LOW=1, MEDIUM=2, HIGH=3).
func (l RiskLevel) Weight() int {
	return int(l)
}

// ParseRiskLevel accepts the level name in any case.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LOW":
		return RiskLow, nil
	case "MEDIUM":
		return RiskMedium, nil
	case "HIGH":
		return RiskHigh, nil
	}
	return 0, fmt.Errorf("unknown risk level %q", s)
}

func (l RiskLevel) MarshalJSON() ([]byte, error) {
	if l < RiskLow || l > RiskHigh {
		return nil, fmt.Errorf("cannot marshal %s", l)
	}
	return json.Marshal(l.String())
}

func (l *RiskLevel) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseRiskLevel(s)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ActionType names a remediation the user can take for a risky package.
type ActionType string

const (
	ActionRevokePermission  ActionType = "REVOKE_PERMISSION"
	ActionDisableBackground ActionType = "DISABLE_BACKGROUND"
	ActionForceStop         ActionType = "FORCE_STOP"
	ActionUninstall         ActionType = "UNINSTALL"
)

type SecurityAction struct {
	Type        ActionType `json:"type"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
}
