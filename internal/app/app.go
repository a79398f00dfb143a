package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/five82/tote/internal/api"
	"github.com/five82/tote/internal/cart"
	"github.com/five82/tote/internal/checkout"
	"github.com/five82/tote/internal/config"
	"github.com/five82/tote/internal/events"
	"github.com/five82/tote/internal/prefs"
	"github.com/five82/tote/internal/session"
	"github.com/five82/tote/internal/storage"
	"github.com/five82/tote/internal/ui"
	"github.com/five82/tote/internal/wishlist"
)

// Options configure the tote application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/tote/prefs.toml
	APIBase    string // overrides the config file when set
}

// App holds every long-lived component. Fields are exported for the UI and
// for tests; only the stores write their own state.
type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Storage  storage.Storage
	Bus      *events.Bus
	Guard    *api.AuthGuard
	Client   *api.Client
	Session  *session.Store
	Cart     *cart.Store
	Wishlist *wishlist.Store
	Checkout *checkout.Service

	watcher storage.Watcher
	closers []io.Closer

	mu      sync.Mutex
	stopped []<-chan struct{}
}

// New wires the components described by cfg. Nothing runs until Start.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &App{Config: cfg, Logger: logger, Bus: events.NewBus()}

	if err := a.openStorage(ctx); err != nil {
		return nil, err
	}

	a.Guard = api.NewAuthGuard(a.Storage, a.Bus, nil, logger.With(slog.String("component", "guard")))
	a.Session = session.New(a.Storage,
		session.WithDecoder(session.NewJWTDecoder()),
		session.WithPublisher(a.Bus),
		session.WithLogger(logger.With(slog.String("component", "session"))),
	)

	client, err := api.NewClient(cfg.APIBase,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithTokenSource(a.Session),
		api.WithLogger(logger.With(slog.String("component", "api"))),
		api.WithUnauthorizedHandler(a.Guard.HandleUnauthorized),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init api client: %w", err)
	}
	a.Client = client

	a.Cart = cart.New(client, a.Session,
		cart.WithOrdering(cfg.Sync.Ordering),
		cart.WithSignals(a.Bus),
		cart.WithLogger(logger.With(slog.String("component", "cart"))),
	)
	a.Wishlist = wishlist.New(client, a.Session,
		wishlist.WithOrdering(cfg.Sync.Ordering),
		wishlist.WithSignals(a.Bus),
		wishlist.WithLogger(logger.With(slog.String("component", "wishlist"))),
	)

	a.Checkout, err = checkout.New(client, a.Cart, cfg.ReturnBase, logger.With(slog.String("component", "checkout")))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init checkout: %w", err)
	}
	return a, nil
}

func (a *App) openStorage(ctx context.Context) error {
	sc := a.Config.Storage
	switch sc.Backend {
	case config.BackendMemory:
		a.Storage = storage.NewMemoryStorage()
	case config.BackendRedis:
		rs, err := storage.NewRedisStorage(ctx, storage.RedisOptions{
			Addr:     sc.RedisAddr,
			Password: sc.RedisPassword,
			DB:       sc.RedisDB,
			Prefix:   sc.RedisPrefix,
		})
		if err != nil {
			return fmt.Errorf("open redis storage: %w", err)
		}
		a.Storage = rs
		a.watcher = rs
		a.closers = append(a.closers, rs)
	case config.BackendFile, "":
		fs, err := storage.NewFileStorage(sc.Path)
		if err != nil {
			return fmt.Errorf("open session file: %w", err)
		}
		a.Storage = fs
		a.watcher = intervalWatcher{file: fs, interval: sc.WatchInterval}
	default:
		return fmt.Errorf("unknown storage backend %q", sc.Backend)
	}
	return nil
}

// Start resolves the session, attaches the stores and launches background
// work. It returns once the session is resolved.
func (a *App) Start(ctx context.Context) error {
	if err := a.Session.Start(ctx, a.Bus); err != nil {
		return fmt.Errorf("resolve session: %w", err)
	}
	a.Cart.Start(ctx)
	a.Wishlist.Start(ctx)

	if a.watcher != nil {
		done := StartWatcher(ctx, a.watcher, a.Bus, a.Logger.With(slog.String("component", "watcher")))
		a.mu.Lock()
		a.stopped = append(a.stopped, done)
		a.mu.Unlock()
	}

	if a.Config.Sync.VerifyOnStart && a.Session.Snapshot().Authenticated() {
		done := make(chan struct{})
		go func() {
			defer close(done)
			verifySession(ctx, a.Client, a.Logger)
		}()
		a.mu.Lock()
		a.stopped = append(a.stopped, done)
		a.mu.Unlock()
	}
	return nil
}

// Wait blocks until background goroutines started by Start have returned.
// They return once the Start context is cancelled.
func (a *App) Wait() {
	a.mu.Lock()
	stopped := a.stopped
	a.mu.Unlock()
	for _, done := range stopped {
		<-done
	}
}

// Close detaches the stores and releases storage connections.
func (a *App) Close() error {
	if a.Cart != nil {
		a.Cart.Close()
	}
	if a.Wishlist != nil {
		a.Wishlist.Close()
	}
	if a.Session != nil {
		a.Session.Close()
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Run boots the tote TUI until the context is cancelled or the user quits.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.APIBase != "" {
		cfg.APIBase = opts.APIBase
	}

	userPrefs, _ := prefs.Load(opts.PrefsPath)

	logger, logFile, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logFile.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a, err := New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if err := a.Start(ctx); err != nil {
		return err
	}
	logger.Info("tote started",
		slog.String("api", cfg.APIBase),
		slog.String("storage", cfg.Storage.Backend),
		slog.String("ordering", cfg.Sync.Ordering.String()),
	)

	uiErr := ui.Run(ui.Options{
		Context:   ctx,
		Client:    a.Client,
		Session:   a.Session,
		Cart:      a.Cart,
		Wishlist:  a.Wishlist,
		Checkout:  a.Checkout,
		Guard:     a.Guard,
		Signals:   a.Bus,
		Logger:    logger.With(slog.String("component", "ui")),
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
		LogFile:   cfg.LogFile,
	})
	cancel()
	a.Wait()
	return uiErr
}

// openLogger writes structured logs to the configured file; the terminal
// belongs to the UI.
func openLogger(cfg config.Config) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return nil, nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: cfg.LogLevel})
	return slog.New(handler), file, nil
}
