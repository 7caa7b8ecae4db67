package telemetry

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Inventory serves facts recorded ahead of time in a YAML file, for example
// exported from a device management tool.
type Inventory struct {
	entries []InventoryEntry
	index   map[string]int
}

type InventoryEntry struct {
	PackageName        string         `yaml:"package"`
	AppName            string         `yaml:"app_name"`
	Permissions        []string       `yaml:"permissions"`
	CPUUsagePercent    float64        `yaml:"cpu_percent"`
	MemoryUsageKB      int64          `yaml:"memory_kb"`
	NetworkConnections int            `yaml:"network_connections"`
	BytesSent          int64          `yaml:"bytes_sent"`
	BytesReceived      int64          `yaml:"bytes_received"`
	Signals            InventorySigns `yaml:"signals"`
	// Unavailable marks a package whose telemetry could not be collected.
	Unavailable bool `yaml:"unavailable"`
}

// InventorySigns left unset are derived from the package and app names.
type InventorySigns struct {
	Crypto         *bool `yaml:"crypto"`
	NetworkPattern *bool `yaml:"network_pattern"`
	Background     *bool `yaml:"background"`
	Mining         *bool `yaml:"mining"`
}

type inventoryFile struct {
	Packages []InventoryEntry `yaml:"packages"`
}

func LoadInventory(path string) (*Inventory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read inventory file: %w", err)
	}
	return ParseInventory(data)
}

func ParseInventory(data []byte) (*Inventory, error) {
	var f inventoryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse inventory file: %w", err)
	}

	inv := &Inventory{index: make(map[string]int, len(f.Packages))}
	for _, e := range f.Packages {
		if e.PackageName == "" {
			return nil, fmt.Errorf("inventory entry %d has no package name", len(inv.entries))
		}
		if _, dup := inv.index[e.PackageName]; dup {
			return nil, fmt.Errorf("duplicate inventory entry for %s", e.PackageName)
		}
		inv.index[e.PackageName] = len(inv.entries)
		inv.entries = append(inv.entries, e)
	}
	return inv, nil
}

// Packages lists the inventoried package names in file order.
func (inv *Inventory) Packages() []string {
	names := make([]string, len(inv.entries))
	for i, e := range inv.entries {
		names[i] = e.PackageName
	}
	return names
}

func (inv *Inventory) Facts(ctx context.Context, packageName string) (Facts, error) {
	if err := ctx.Err(); err != nil {
		return Facts{}, unavailable(packageName, "%v", err)
	}

	i, ok := inv.index[packageName]
	if !ok {
		return Facts{}, unavailable(packageName, "not in inventory")
	}
	e := inv.entries[i]
	if e.Unavailable {
		return Facts{}, unavailable(packageName, "marked unavailable")
	}

	appName := e.AppName
	if appName == "" {
		appName = e.PackageName
	}
	crypto := HasCryptoKeyword(e.PackageName, e.AppName)
	mining := HasMiningCharacteristics(e.PackageName, e.AppName)

	return Facts{
		AppName:              appName,
		Permissions:          append([]string(nil), e.Permissions...),
		CPUUsagePercent:      e.CPUUsagePercent,
		MemoryUsageKB:        e.MemoryUsageKB,
		NetworkConnections:   e.NetworkConnections,
		BytesSent:            e.BytesSent,
		BytesReceived:        e.BytesReceived,
		CryptoSignal:         boolOr(e.Signals.Crypto, crypto),
		NetworkPatternSignal: boolOr(e.Signals.NetworkPattern, crypto || mining),
		BackgroundSignal:     boolOr(e.Signals.Background, crypto || mining),
		MiningSignal:         boolOr(e.Signals.Mining, mining),
	}, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
