package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/K0NGR3SS/minewatch/internal/config"
	"github.com/K0NGR3SS/minewatch/internal/models"
	"github.com/K0NGR3SS/minewatch/pkg/logger"
)

func TestNewProviderInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "apps.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
packages:
  - package: com.example.notes
    app_name: Notes
    cpu_percent: 1.5
  - package: com.example.clock
`), 0o644))

	provider, packages, err := newProvider(context.Background(), config.TelemetryConfig{
		Provider:      "inventory",
		InventoryFile: path,
	}, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, []string{"com.example.notes", "com.example.clock"}, packages)

	facts, err := provider.Facts(context.Background(), "com.example.notes")
	require.NoError(t, err)
	assert.Equal(t, "Notes", facts.AppName)
}

func TestNewProviderSimulatedAndUnknown(t *testing.T) {
	provider, packages, err := newProvider(context.Background(), config.TelemetryConfig{Provider: "simulated", Seed: 7}, logger.Nop())
	require.NoError(t, err)
	assert.Empty(t, packages)
	assert.NotNil(t, provider)

	_, _, err = newProvider(context.Background(), config.TelemetryConfig{Provider: "adb"}, logger.Nop())
	assert.Error(t, err)
}

func TestNewAppScansIntoFileStore(t *testing.T) {
	appLog = logger.Nop()
	c := config.Default()
	c.Store.File.Dir = t.TempDir()

	a, err := newApp(context.Background(), c, appLog)
	require.NoError(t, err)
	defer a.Close()

	session, err := a.engine.ScanAll(context.Background(), []string{"com.crypto.miner", "com.example.notes"})
	require.NoError(t, err)
	assert.Equal(t, models.RiskHigh, session.ScanResults[0].RiskLevel)

	reopened, err := newApp(context.Background(), c, appLog)
	require.NoError(t, err)
	defer reopened.Close()

	sessions, err := reopened.engine.Sessions(context.Background())
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, session.ID, sessions[0].ID)
}
