package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/five82/folio/internal/bookshelf"
	"github.com/five82/folio/internal/config"
	"github.com/five82/folio/internal/logging"
	"github.com/five82/folio/internal/prefs"
	"github.com/five82/folio/internal/session"
	"github.com/five82/folio/internal/ui"
)

// Options configure the folio application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/folio/prefs.toml
	LogLevel   string // overrides the configured level when set
}

// Env holds the wired components shared by the TUI and the CLI subcommands.
type Env struct {
	Config    config.Config
	Prefs     prefs.Prefs
	PrefsPath string
	Logger    *zap.Logger
	Session   *session.Store
	Client    *bookshelf.Client
}

// Open loads configuration and builds the logger, session store and API
// client. The session is not restored; callers decide when that happens.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}

	logger, err := logging.New(cfg.LogFile, level)
	if err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}

	store := session.NewStore(cfg.SessionFile, logger)
	client, err := bookshelf.NewClient(cfg.APIURL,
		bookshelf.WithTokenSource(store),
		bookshelf.WithUnauthorizedHandler(func() {
			if err := store.Logout(); err != nil {
				logger.Warn("clear session after 401 failed", zap.Error(err))
			}
		}),
		bookshelf.WithLogger(logger),
		bookshelf.WithTimeout(cfg.RequestTimeout),
	)
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init api client: %w", err)
	}

	return &Env{
		Config:    cfg,
		Prefs:     prefs.Load(opts.PrefsPath),
		PrefsPath: opts.PrefsPath,
		Logger:    logger,
		Session:   store,
		Client:    client,
	}, nil
}

// Close flushes the logger.
func (e *Env) Close() {
	_ = e.Logger.Sync()
}

// Run boots the folio TUI until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	env.Logger.Info("folio starting",
		zap.String("api_url", env.Client.BaseURL()),
		zap.String("session_file", env.Session.Path()),
	)

	err = ui.Run(ui.Options{
		Context:   ctx,
		Client:    env.Client,
		Session:   env.Session,
		Logger:    env.Logger,
		ThemeName: env.Prefs.Theme,
		PrefsPath: env.PrefsPath,
		LastEmail: env.Prefs.LastEmail,
	})
	if err != nil {
		env.Logger.Error("ui exited with error", zap.Error(err))
		return fmt.Errorf("run ui: %w", err)
	}
	env.Logger.Info("folio stopped")
	return nil
}
