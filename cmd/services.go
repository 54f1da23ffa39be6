package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/xvierd/focus-cli/internal/adapters/git"
	"github.com/xvierd/focus-cli/internal/adapters/logging"
	"github.com/xvierd/focus-cli/internal/adapters/notification"
	"github.com/xvierd/focus-cli/internal/adapters/storage"
	"github.com/xvierd/focus-cli/internal/config"
	"github.com/xvierd/focus-cli/internal/services"
)

// appDeps groups all service-layer dependencies initialized at startup.
type appDeps struct {
	configPath string
	config     *config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	store      *storage.Store
	notifier   *notification.Notifier
	git        *git.Detector
	focus      *services.FocusService
}

// app holds all initialized service dependencies.
// Populated by initializeServices() and accessible to all commands.
var app appDeps

// loadConfig resolves the config file from --config or the default location.
// A broken config file falls back to the defaults so `focus config set` can
// still repair it.
func loadConfig() error {
	app.configPath = configPath
	if app.configPath == "" {
		p, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		app.configPath = p
	}

	cfg, err := config.LoadFrom(app.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		cfg = config.DefaultConfig()
	}
	app.config = cfg
	return nil
}

// initializeServices sets up all the required services and adapters.
func initializeServices(ctx context.Context) error {
	if err := loadConfig(); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	cfg := app.config

	var err error
	app.logger, app.logCloser, err = logging.New(cfg.Storage.DataDir, logging.ParseLevel(cfg.Log.Level))
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}

	app.notifier = notification.New(&cfg.Notifications, app.logger)

	path := dbPath
	if path == "" {
		path = config.GetDBPath(cfg)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	app.store, err = storage.New(path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	app.git = git.NewDetector()

	workingDir, _ := os.Getwd()
	app.focus = services.NewFocusService(app.store, app.notifier, services.Settings{
		UserID:           cfg.User.ID,
		UserName:         cfg.User.Name,
		DefaultDuration:  time.Duration(cfg.Timer.DefaultDuration),
		BreakDuration:    time.Duration(cfg.Timer.BreakDuration),
		AutoLoop:         cfg.Timer.AutoLoop,
		Cycle:            cfg.Timer.Cycle(),
		CycleResumeDelay: time.Duration(cfg.Timer.CycleResumeDelay),
		WorkingDir:       workingDir,
	},
		services.WithLogger(app.logger),
		services.WithGitDetector(app.git),
	)

	app.logger.Debug("engine starting", "db", path, "user", cfg.User.ID)
	if err := app.focus.Load(ctx); err != nil {
		return fmt.Errorf("failed to load task lists: %w", err)
	}
	return nil
}

// cleanupServices closes all resources.
func cleanupServices() error {
	var firstErr error
	if app.store != nil {
		firstErr = app.store.Close()
		app.store = nil
	}
	if app.logCloser != nil {
		if err := app.logCloser.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		app.logCloser = nil
	}
	app.focus = nil
	return firstErr
}

// setupSignalHandler returns a context that is cancelled on SIGINT or SIGTERM.
func setupSignalHandler(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
