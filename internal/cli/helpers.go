package cli

import (
	"os"
	"path/filepath"

	"github.com/arcflow-dev/orc/internal/config"
	"github.com/arcflow-dev/orc/internal/notify"
	"github.com/arcflow-dev/orc/internal/statestore"
)

// stateDBPath returns the path to the state database under projectRoot's
// .orc directory, creating the directory if necessary.
func stateDBPath(projectRoot string) (string, error) {
	dir, err := config.OrchestratorDir(projectRoot)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "state.db"), nil
}

// openStore loads config and opens the state store for the current
// working directory.
func openStore() (*config.Config, *statestore.Store, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, nil, "", err
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return nil, nil, "", err
	}

	dbPath, err := stateDBPath(cwd)
	if err != nil {
		return nil, nil, "", err
	}

	store, err := statestore.Open(dbPath)
	if err != nil {
		return nil, nil, "", err
	}
	return cfg, store, cwd, nil
}

// buildNotifier assembles the configured Notifier, composed with a
// console notifier so terminal output is never lost even when an
// external channel is also configured.
func buildNotifier(cfg *config.Config) notify.Notifier {
	if !cfg.Notifications.Enabled {
		return notify.Null{}
	}

	console := notify.NewConsole()
	switch cfg.Notifications.Provider {
	case "ntfy":
		if cfg.Notifications.NtfyServer == "" || cfg.Notifications.NtfyTopic == "" {
			return console
		}
		return notify.NewComposite(logNotifierError, console,
			notify.NewNtfy(cfg.Notifications.NtfyServer, cfg.Notifications.NtfyTopic))
	case "slack":
		if cfg.Notifications.SlackWebhookURL == "" {
			return console
		}
		return notify.NewComposite(logNotifierError, console,
			notify.NewSlack(cfg.Notifications.SlackWebhookURL))
	default:
		return console
	}
}

func logNotifierError(n notify.Notifier, err error) {
	exitErrorNonFatal("notifier delivery failed: " + err.Error())
}

func exitErrorNonFatal(msg string) {
	_, _ = os.Stderr.WriteString("warning: " + msg + "\n")
}
