// Package internal provides the App struct that wires all components of
// taskboard together and initializes the CLI layer.
package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/valter-silva-au/taskboard/internal/cli"
	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// App holds all service dependencies for taskboard.
type App struct {
	BasePath string

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.BoardConfig
	Logger    *log.Logger

	// Board state, shared by every surface of one process.
	IDGen core.TaskIDGenerator
	Board core.Board

	// Observability
	EventLog    observability.EventLog
	AlertEngine observability.AlertEngine
	MetricsCalc observability.MetricsCalculator

	closers []io.Closer
}

// NewApp creates and wires all components of taskboard. basePath is the
// directory holding .boardconfig and the event log.
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadBoardConfig()
	if err != nil {
		return nil, err
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Logging ---
	app.Logger, err = app.newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}

	// --- Board ---
	app.IDGen = core.NewTaskIDGenerator(cfg.TaskIDPrefix)
	app.Board = core.NewBoard(app.IDGen, core.BoardOptions{DefaultPriority: cfg.DefaultPriority})
	app.Board.Subscribe(core.NewChangeLogger(app.Logger))

	// --- Observability ---
	if cfg.Events.Enabled {
		eventLogPath := resolvePath(basePath, cfg.Events.Path)
		app.EventLog, err = observability.OpenEventLog(eventLogPath)
		if err != nil {
			// Non-fatal: the board works without an event log.
			app.Logger.WithError(err).WithField("path", eventLogPath).Warn("event log disabled")
			app.EventLog = nil
		}
	}
	if app.EventLog != nil {
		app.closers = append(app.closers, app.EventLog)
		app.Board.Subscribe(observability.NewBoardRecorder(app.EventLog, app.Logger))
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}
	app.AlertEngine = observability.NewAlertEngine(app.Board, observability.AlertThresholds{
		DueSoonDays: cfg.Alerts.DueSoonDays,
		WIPLimit:    cfg.Alerts.WIPLimit,
	}, nil)

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Config = cfg
	cli.Logger = app.Logger
	cli.Board = app.Board
	cli.EventLog = app.EventLog
	cli.AlertEngine = app.AlertEngine
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// newLogger builds the diagnostic logger. An empty file logs to stderr.
func (a *App) newLogger(cfg models.LogConfig) (*log.Logger, error) {
	logger := log.New()
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)

	if cfg.File != "" {
		path := resolvePath(a.BasePath, cfg.File)
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644) //nolint:gosec // G304: path from config
		if err != nil {
			return nil, fmt.Errorf("opening log file %s: %w", path, err)
		}
		logger.SetOutput(f)
		a.closers = append(a.closers, f)
	}
	return logger, nil
}

// Close releases resources held by the App, such as the event log and log
// file handles.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}

// ResolveBasePath determines the taskboard base directory. It checks the
// TASKBOARD_HOME env var, then walks up from the current directory looking
// for .boardconfig, and finally falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("TASKBOARD_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	cwd := dir
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
	return cwd
}

func resolvePath(basePath, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(basePath, p)
}
