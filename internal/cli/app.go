package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"testdrive-wizard/internal/branding"
	"testdrive-wizard/internal/config"
	"testdrive-wizard/internal/datastore"
	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/draftclient"
	"testdrive-wizard/internal/entities"
	"testdrive-wizard/internal/scenario"
	"testdrive-wizard/internal/session"
	"testdrive-wizard/internal/snapshot"
	"testdrive-wizard/internal/wizard"
)

// App is everything one CLI invocation works with. Building it restores the
// wizard from the session snapshot before any command runs.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Session   session.Session
	Sessions  *session.Manager
	Theme     branding.Theme
	Themes    *branding.Selector
	Container *wizard.Container

	Client      *draftclient.Client
	Coordinator *draft.Coordinator
	Sync        *draft.Synchronizer

	stores *datastore.Stores
}

// NewApp wires configuration, session, stores, snapshot, container and the
// draft gateway together.
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	logger := slog.Default()
	dsConfig, err := cfg.GetDataStoreConfig()
	if err != nil {
		return nil, err
	}
	if dsConfig.Type == datastore.FileStore || dsConfig.Type == datastore.SQLiteStore {
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	sessions := session.NewManager(cfg.DataDir, cfg.SessionID)
	sess, err := sessions.Current()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	stores, err := datastore.Open(ctx, dsConfig, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to open data store: %w", err)
	}

	themes := branding.NewSelector(stores.Global)
	theme, err := themes.Current(ctx)
	if err != nil {
		logger.Warn("theme unavailable, using default", "error", err)
	}

	snap := snapshot.New(stores.Session, snapshot.WithLogger(logger))
	container := wizard.NewContainer(snap, logger)

	app := &App{
		Config:    cfg,
		Logger:    logger,
		Session:   sess,
		Sessions:  sessions,
		Theme:     theme,
		Themes:    themes,
		Container: container,
		stores:    stores,
	}
	app.connect(theme.Brand())
	return app, nil
}

func (a *App) connect(brand entities.Brand) {
	a.Client = draftclient.NewClient(a.Config.APIURL, brand, draftclient.WithTimeout(a.Config.RequestTimeout))
	a.Coordinator = draft.NewCoordinator(a.Container, a.Client, brand, a.Logger)
	a.Sync = draft.NewSynchronizer(a.Container, a.Client, brand, a.Logger)
}

// Brand is the dealership brand drafts are created for.
func (a *App) Brand() entities.Brand {
	return a.Theme.Brand()
}

// SetTheme stores a new theme and rebinds the gateway to its brand.
func (a *App) SetTheme(ctx context.Context, theme branding.Theme) error {
	if err := a.Themes.Apply(ctx, theme); err != nil {
		return err
	}
	a.Theme = theme
	a.connect(theme.Brand())
	return nil
}

// Dial builds a gateway client for brand, for scripted runs.
func (a *App) Dial(brand entities.Brand) scenario.Backend {
	return draftclient.NewClient(a.Config.APIURL, brand, draftclient.WithTimeout(a.Config.RequestTimeout))
}

// Close releases the stores.
func (a *App) Close() error {
	if a.stores == nil {
		return nil
	}
	err := a.stores.Close()
	a.stores = nil
	if err != nil {
		return fmt.Errorf("failed to close data store: %w", err)
	}
	return nil
}
