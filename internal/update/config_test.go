package update

import "testing"

func TestRuntimeConfigFromEnv(t *testing.T) {
	t.Setenv("TASKFLOW_DB_PATH", "/tmp/flow.db")
	t.Setenv("TASKFLOW_DESKTOP_NOTIFICATIONS", "true")
	t.Setenv("TASKFLOW_FOCUS_MINUTES", "50")
	t.Setenv("TASKFLOW_NOTIFY_INTERVAL_SECONDS", "30")
	t.Setenv("TASKFLOW_WORKSPACE", "work")

	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg.DBPath != "/tmp/flow.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if !cfg.DesktopNotifications {
		t.Fatalf("desktop notifications should be on")
	}
	if cfg.FocusMinutes != 50 || cfg.NotifyIntervalSeconds != 30 {
		t.Fatalf("unexpected numbers: %+v", cfg)
	}
	if cfg.Workspace != "work" {
		t.Fatalf("workspace = %q", cfg.Workspace)
	}
}

func TestRuntimeConfigIgnoresBadValues(t *testing.T) {
	t.Setenv("TASKFLOW_FOCUS_MINUTES", "soon")
	t.Setenv("TASKFLOW_DESKTOP_NOTIFICATIONS", "maybe")

	cfg := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if cfg.FocusMinutes != 25 {
		t.Fatalf("bad int should keep default, got %d", cfg.FocusMinutes)
	}
	if cfg.DesktopNotifications {
		t.Fatalf("bad bool should keep default")
	}
}
