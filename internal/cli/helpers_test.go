package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arcflow-dev/orc/internal/config"
	"github.com/arcflow-dev/orc/internal/notify"
)

func TestStateDBPath(t *testing.T) {
	root := t.TempDir()
	path, err := stateDBPath(root)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(root, ".orc", "state.db"), path)
}

func TestBuildNotifierDisabledReturnsNull(t *testing.T) {
	cfg := &config.Config{Notifications: config.NotificationConfig{Enabled: false}}
	_, ok := buildNotifier(cfg).(notify.Null)
	require.True(t, ok)
}

func TestBuildNotifierConsoleDefault(t *testing.T) {
	cfg := &config.Config{Notifications: config.NotificationConfig{Enabled: true, Provider: "console"}}
	n := buildNotifier(cfg)
	require.NotNil(t, n)
	_, isNull := n.(notify.Null)
	require.False(t, isNull)
}

func TestBuildNotifierNtfyMissingConfigFallsBackToConsole(t *testing.T) {
	cfg := &config.Config{Notifications: config.NotificationConfig{Enabled: true, Provider: "ntfy"}}
	n := buildNotifier(cfg)
	_, isComposite := n.(*notify.Composite)
	require.False(t, isComposite, "missing ntfy server/topic should fall back to console, not composite")
}

func TestBuildNotifierNtfyWithConfigUsesComposite(t *testing.T) {
	cfg := &config.Config{Notifications: config.NotificationConfig{
		Enabled: true, Provider: "ntfy", NtfyServer: "https://ntfy.sh", NtfyTopic: "orc-alerts",
	}}
	n := buildNotifier(cfg)
	_, isComposite := n.(*notify.Composite)
	require.True(t, isComposite)
}
