package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/leaddeck/internal/config"
	"github.com/five82/leaddeck/internal/crm"
	"github.com/five82/leaddeck/internal/logging"
	"github.com/five82/leaddeck/internal/prefs"
	"github.com/five82/leaddeck/internal/query"
	"github.com/five82/leaddeck/internal/ui"
)

// staleAfter bounds how long cached lead details are reused before the next
// view refetches them.
const staleAfter = 5 * time.Minute

// Options configure the leaddeck application.
type Options struct {
	ConfigPath string
	PrefsPath  string        // empty uses prefs_file from config
	PollEvery  time.Duration // zero uses poll from config
	Debug      bool
	Where      string // initial lead filter
}

// Env is the set of collaborators every command works with.
type Env struct {
	Config  config.Config
	Logger  *zap.Logger
	API     *crm.Client
	Queries *query.Client
}

// Open loads and validates the config and builds the logger, the CRM client
// and the query client.
func Open(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.LogFile, opts.Debug)
	if err != nil {
		return nil, err
	}

	api, err := crm.NewClient(crm.Options{
		BaseURL: cfg.APIURL,
		Token:   cfg.Token,
		Timeout: cfg.Timeout,
		Logger:  logger.Named("crm"),
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("init crm client: %w", err)
	}

	queries := query.New(query.Options{
		Logger:     logger.Named("query"),
		StaleAfter: staleAfter,
	})

	return &Env{Config: cfg, Logger: logger, API: api, Queries: queries}, nil
}

// Filter is the lead list selection from config.
func (e *Env) Filter() crm.Filter {
	return crm.Filter{
		CanAllocate: e.Config.CanAllocate,
		UserID:      e.Config.UserID,
		Company:     e.Config.Company,
	}
}

// Close stops running fetches and flushes the log.
func (e *Env) Close() {
	e.Queries.Close()
	_ = e.Logger.Sync()
}

// OpenTheme returns the persisted theme preference. path overrides the
// configured prefs file; neither a token nor a reachable API is required.
func OpenTheme(configPath, path string, logger *zap.Logger) (*prefs.ThemeStore, error) {
	if path == "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		path = cfg.PrefsFile
	}
	storage, err := prefs.NewFileStorage(path)
	if err != nil {
		return nil, fmt.Errorf("open prefs: %w", err)
	}
	return prefs.NewThemeStore(storage, nil, logger), nil
}

// Run boots the leaddeck TUI until the user quits or the context is
// cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Open(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = env.Config.PrefsFile
	}
	theme, err := OpenTheme(opts.ConfigPath, prefsPath, env.Logger.Named("prefs"))
	if err != nil {
		return err
	}

	interval := env.Config.PollInterval
	if opts.PollEvery > 0 {
		interval = opts.PollEvery
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Start background poller
	StartPoller(ctx, env.Queries, interval, env.Logger.Named("poller"))

	env.Logger.Info("leaddeck started",
		zap.String("api_url", env.Config.APIURL),
		zap.Duration("poll", interval))

	return ui.Run(ui.Options{
		Context: ctx,
		Queries: env.Queries,
		API:     env.API,
		Filter:  env.Filter(),
		Theme:   theme,
		LogPath: env.Config.LogFile,
		Where:   opts.Where,
		Logger:  env.Logger.Named("ui"),
	})
}
