// Package internal provides the App struct that wires all components of the
// todo system together and initializes the CLI layer.
package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/todo/internal/cli"
	"github.com/valter-silva-au/todo/internal/core"
	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/internal/storage"
	"github.com/valter-silva-au/todo/pkg/models"
	"go.uber.org/zap"
)

// EventLogFileName is the JSONL event log kept in the base directory.
const EventLogFileName = "events.jsonl"

// App holds all service dependencies for the todo system.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig
	SortSpec  models.SortSpec

	Logger *zap.Logger

	// Storage layer
	KV   storage.KeyValueStore
	Repo storage.TaskRepository

	// Core services
	TaskStore core.TaskStore

	// Observability
	EventLog      observability.EventLog
	AlertEngine   observability.AlertEngine
	MetricsCalc   observability.MetricsCalculator
	AlertNotifier observability.AlertNotifier
	Console       *observability.ConsoleNotifier
	Notices       *observability.RecordingNotifier

	closeLogger func() error
}

// NewApp creates and wires all components of the todo system. basePath is
// the directory holding .todoconfig, the stored task list and the logs.
//
// The task store is returned unloaded; commands load it on first use so the
// board can do so off its UI loop.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg
	app.SortSpec = core.SortSpecFromConfig(cfg.Sort)

	// --- Logging ---
	app.Logger, app.closeLogger, err = observability.NewLogger(cfg.Log, basePath)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	// --- Storage layer ---
	app.KV, err = storage.Open(context.Background(), basePath, cfg.Storage, app.Logger)
	if err != nil {
		_ = app.closeLogger()
		return nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	app.Repo = storage.NewTaskRepository(app.KV, app.Logger)

	// --- Observability ---
	var events core.EventLogger
	app.EventLog, err = observability.NewJSONLEventLog(filepath.Join(basePath, EventLogFileName))
	if err != nil {
		// Non-fatal: run without events, metrics and alerts.
		app.Logger.Warn("event log unavailable", zap.Error(err))
		app.EventLog = nil
	}
	if app.EventLog != nil {
		events = observability.NewEventRecorder(app.EventLog, time.Now)
	}

	app.Console = observability.NewConsoleNotifier(os.Stderr)
	app.Notices = &observability.RecordingNotifier{}
	notifier := observability.MultiNotifier{app.Console, app.Notices}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		slack := observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL, app.Logger)
		notifier = append(notifier, slack)
		app.AlertNotifier = slack
	}

	// --- Core services ---
	app.TaskStore = core.NewTaskStore(app.Repo, core.SystemClock(), core.NewTaskIDGenerator(), notifier, events, app.Logger)

	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
		app.AlertEngine = observability.NewAlertEngine(app.TaskStore, app.EventLog,
			observability.ThresholdsFromConfig(cfg.Alerts), time.Now)
	}

	// --- Wire CLI ---
	cli.TaskStore = app.TaskStore
	cli.SortSpec = app.SortSpec
	cli.Config = app.Config
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc
	cli.AlertNotifier = app.AlertNotifier
	cli.Console = app.Console
	cli.Notices = app.Notices

	app.Logger.Debug("app initialized",
		zap.String("base_path", basePath),
		zap.String("backend", cfg.Storage.Backend))

	return app, nil
}

// Close releases the event log, the storage backend and the log file. It is
// safe to call on an App whose EventLog is nil.
func (a *App) Close() error {
	var errs []error
	if a.EventLog != nil {
		errs = append(errs, a.EventLog.Close())
	}
	if a.KV != nil {
		errs = append(errs, a.KV.Close())
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	if a.closeLogger != nil {
		errs = append(errs, a.closeLogger())
	}
	return errors.Join(errs...)
}

// ResolveBasePath determines the base path for the todo data directory. It
// checks TODO_HOME, then walks up from the current directory looking for
// .todoconfig, and finally falls back to ~/.todo.
func ResolveBasePath() string {
	if home := os.Getenv("TODO_HOME"); home != "" {
		return home
	}

	if dir, err := os.Getwd(); err == nil {
		for {
			if _, err := os.Stat(filepath.Join(dir, core.ConfigFileName)); err == nil {
				return dir
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		cwd, _ := os.Getwd()
		return cwd
	}
	base := filepath.Join(home, ".todo")
	_ = os.MkdirAll(base, 0o750)
	return base
}
