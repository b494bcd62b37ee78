package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskflowhq/taskflow/internal/forest"
	"github.com/taskflowhq/taskflow/internal/notify"
	"github.com/taskflowhq/taskflow/internal/recurrence"
	"github.com/taskflowhq/taskflow/internal/storage"
	"github.com/taskflowhq/taskflow/internal/timelog"
	"github.com/taskflowhq/taskflow/internal/update"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "taskflow failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := update.RuntimeConfigFromEnv(update.DefaultRuntimeConfig())

	repo, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	monitor := notify.NewMonitor(time.Duration(cfg.NotifyIntervalSeconds)*time.Second, cfg.NotifyBuffer)
	services := update.Services{
		Repo:       repo,
		Recurrence: recurrence.NewService(repo),
		Forest:     forest.NewEngine(repo),
		Timelog:    timelog.NewService(repo),
		Monitor:    monitor,
	}

	tasks, err := repo.ListTasks(context.Background(), storage.TaskListFilter{})
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	monitor.StartMonitoring(tasks)
	defer monitor.StopMonitoring()

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}

	program := tea.NewProgram(update.NewModelWithConfig(services, notifier, cfg))
	if _, err := program.Run(); err != nil {
		return err
	}
	return nil
}
