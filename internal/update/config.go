package update

import (
	"os"
	"strconv"
	"strings"
)

type RuntimeConfig struct {
	DBPath                string
	DesktopNotifications  bool
	FocusMinutes          int
	NotifyIntervalSeconds int
	NotifyBuffer          int
	Workspace             string
	UIStatePath           string
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:                "taskflow.db",
		DesktopNotifications:  false,
		FocusMinutes:          25,
		NotifyIntervalSeconds: 60,
		NotifyBuffer:          64,
	}
}

func RuntimeConfigFromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v := strings.TrimSpace(os.Getenv("TASKFLOW_DB_PATH")); v != "" {
		cfg.DBPath = v
	}
	if v, ok := getEnvBool("TASKFLOW_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvInt("TASKFLOW_FOCUS_MINUTES"); ok && v > 0 {
		cfg.FocusMinutes = v
	}
	if v, ok := getEnvInt("TASKFLOW_NOTIFY_INTERVAL_SECONDS"); ok && v > 0 {
		cfg.NotifyIntervalSeconds = v
	}
	if v, ok := getEnvInt("TASKFLOW_NOTIFY_BUFFER"); ok && v > 0 {
		cfg.NotifyBuffer = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKFLOW_WORKSPACE")); v != "" {
		cfg.Workspace = v
	}
	if v := strings.TrimSpace(os.Getenv("TASKFLOW_UI_STATE_PATH")); v != "" {
		cfg.UIStatePath = v
	}
	return cfg
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
