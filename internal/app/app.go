// Package app wires deepledit together: one state container, one
// synchronizer and one translation client per process, shared by every
// command.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"codeberg.org/snonux/deepledit/internal"
	"codeberg.org/snonux/deepledit/internal/commands"
	"codeberg.org/snonux/deepledit/internal/config"
	"codeberg.org/snonux/deepledit/internal/httpapi"
	"codeberg.org/snonux/deepledit/internal/logging"
	"codeberg.org/snonux/deepledit/internal/pipeline"
	"codeberg.org/snonux/deepledit/internal/prompt"
	"codeberg.org/snonux/deepledit/internal/provider"
	"codeberg.org/snonux/deepledit/internal/provider/deepl"
	"codeberg.org/snonux/deepledit/internal/provider/gemini"
	"codeberg.org/snonux/deepledit/internal/provider/openai"
	"codeberg.org/snonux/deepledit/internal/settings"
	"codeberg.org/snonux/deepledit/internal/state"
	"codeberg.org/snonux/deepledit/internal/statesync"
	"codeberg.org/snonux/deepledit/internal/translation"
	"codeberg.org/snonux/deepledit/internal/workspace"
)

// Options select the runtime collaborators
type Options struct {
	Config *config.Config

	// Provider overrides Config.Provider when set
	Provider string

	// SettingsFile overrides the settings path of Config
	SettingsFile string

	Prompter  prompt.Prompter
	Notifier  pipeline.Notifier
	Clipboard pipeline.Clipboard

	// Logger replaces the file logger built from Config
	Logger *zerolog.Logger
}

// App holds the process-wide state
type App struct {
	Config    *config.Config
	Log       zerolog.Logger
	RunID     string
	Container *state.Container
	Settings  *settings.Config
	Secrets   *settings.Secrets
	Workspace *workspace.Store
	Sync      *statesync.Synchronizer
	Registry  *provider.Registry
	Client    *translation.Client
	Commands  *commands.Commands

	factory   provider.Factory
	logCloser io.Closer
}

// Open builds and initializes the application
func Open(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		var err error
		if cfg, err = config.Load(); err != nil {
			return nil, err
		}
	}

	var logger zerolog.Logger
	var logCloser io.Closer = nopCloser{}
	if opts.Logger != nil {
		logger = *opts.Logger
	} else {
		var err error
		if logger, logCloser, err = logging.New(cfg.Environment, cfg.LogLevel, cfg.LogPath()); err != nil {
			return nil, err
		}
	}
	runID := uuid.NewString()
	logger = logger.With().Str("run_id", runID).Logger()

	registry, err := newRegistry(cfg)
	if err != nil {
		logCloser.Close()
		return nil, err
	}
	providerName := opts.Provider
	if providerName == "" {
		providerName = cfg.Provider
	}
	factory, err := registry.Factory(providerName)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	settingsPath := opts.SettingsFile
	if settingsPath == "" {
		settingsPath = cfg.SettingsPath()
	}
	store, err := workspace.Open(cfg.WorkspaceDBPath(), cfg.Workspace)
	if err != nil {
		logCloser.Close()
		return nil, err
	}

	prompter := opts.Prompter
	if prompter == nil {
		prompter = prompt.Declining{}
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = commands.NewConsole(io.Discard, true)
	}

	a := &App{
		Config:    cfg,
		Log:       logger,
		RunID:     runID,
		Container: state.New(state.Default()),
		Settings:  settings.NewConfig(settingsPath, logger),
		Secrets:   settings.NewSecrets(cfg.SecretsPath(), logger),
		Workspace: store,
		Registry:  registry,
		factory:   factory,
		logCloser: logCloser,
	}
	a.Client = translation.NewClient(a.Container, factory, prompter, logger)
	a.Sync = statesync.New(a.Container, statesync.Stores{
		Settings:       a.Settings,
		Secrets:        a.Secrets,
		Workspace:      a.Workspace,
		SettingsEvents: a.Settings,
		SecretEvents:   a.Secrets,
		Catalog:        a.Client,
	}, logger)
	a.Commands = commands.New(commands.Deps{
		Container:  a.Container,
		Translator: a.Client,
		Pipeline:   pipeline.New(a.Client, notifier, logger),
		Prompter:   prompter,
		Defaults:   a.Settings,
		Clipboard:  opts.Clipboard,
		Logger:     logger,
	})

	if err := a.Sync.Initialize(ctx); err != nil {
		// The loaded state is usable without change notifications
		logger.Warn().Err(err).Msg("cannot watch persisted settings")
	}

	logger.Debug().
		Str("version", internal.Version).
		Str("provider", providerName).
		Str("workspace", cfg.Workspace).
		Str("settings", settingsPath).
		Msg("application initialized")
	return a, nil
}

func newRegistry(cfg *config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry(cfg.Provider)
	factories := map[string]provider.Factory{
		deepl.Name: deepl.Factory(deepl.Config{
			ServerURL: cfg.DeepLServerURL,
			Timeout:   cfg.HTTPTimeout,
			UserAgent: "deepledit/" + internal.Version,
		}),
		openai.Name: openai.Factory(openai.Config{Model: cfg.OpenAIModel, BaseURL: cfg.OpenAIBaseURL}),
		gemini.Name: gemini.Factory(gemini.Config{Model: cfg.GeminiModel}),
	}
	for name, factory := range factories {
		if err := registry.Register(name, factory); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Server returns the HTTP API. It uses its own translation client that
// never prompts.
func (a *App) Server() *httpapi.Server {
	client := translation.NewClient(a.Container, a.factory, prompt.Declining{}, a.Log)
	return httpapi.NewServer(a.Container, client, a.Log, httpapi.Options{
		Addr:         a.Config.ServeAddr,
		WriteTimeout: a.Config.HTTPTimeout + 30*time.Second,
	})
}

// Close stops the listeners and releases the stores
func (a *App) Close() error {
	var errs []error
	if err := a.Sync.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.Workspace.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.logCloser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log: %w", err))
	}
	return errors.Join(errs...)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
