package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/atinylittleshell/texpand/internal/config"
	"github.com/atinylittleshell/texpand/internal/core"
	"github.com/atinylittleshell/texpand/internal/shortcuts"
	"github.com/atinylittleshell/texpand/internal/styles"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var BUILD_VERSION = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ERROR(err.Error()))
		os.Exit(1)
	}
}

// environment is what every command needs: configuration, a logger and the
// shortcut store.
type environment struct {
	config *config.Config
	logger *zap.Logger
	store  *shortcuts.Store
}

func setupEnvironment(opts *rootOptions) (*environment, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = core.ConfigFile()
	}

	result, err := config.NewLoader(nil).LoadFromFile(configPath)
	if err != nil {
		return nil, err
	}
	cfg := result.Config

	logger, err := initializeLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger = logger.With(zap.String("session", uuid.NewString()))
	logger.Info("-------- new texpand session --------",
		zap.Any("args", os.Args),
		zap.String("version", BUILD_VERSION),
	)
	for _, configErr := range result.Errors {
		logger.Warn("config problem", zap.String("path", configPath), zap.Error(configErr))
	}

	dbPath := cfg.DatabasePath
	if dbPath == "" {
		dbPath = core.DatabaseFile()
	}
	store, err := shortcuts.NewStore(dbPath, logger.Named("store"))
	if err != nil {
		logger.Sync()
		return nil, err
	}

	return &environment{
		config: cfg,
		logger: logger,
		store:  store,
	}, nil
}

// close closes the store unless a session already did.
func (e *environment) close() error {
	err := e.store.Close()
	e.logger.Sync()
	return err
}

func initializeLogger(cfg *config.Config) (*zap.Logger, error) {
	logLevel, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		logLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if BUILD_VERSION == "dev" {
		logLevel = zap.NewAtomicLevelAt(zap.DebugLevel)
	}

	loggerConfig := zap.NewProductionConfig()
	loggerConfig.Level = logLevel
	loggerConfig.OutputPaths = []string{
		core.LogFile(),
	}

	// Logs only go to file so they never interfere with the Bubble Tea UI.
	// Use `tail -f ~/.texpand/texpand.log` to follow them.
	return loggerConfig.Build()
}
