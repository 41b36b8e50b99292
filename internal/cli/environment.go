package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/lookahead"
	"github.com/aretw0/lookahead/internal/logging"
	"github.com/aretw0/lookahead/pkg/adapters/file"
	httpAdapter "github.com/aretw0/lookahead/pkg/adapters/http"
	"github.com/aretw0/lookahead/pkg/adapters/memory"
	"github.com/aretw0/lookahead/pkg/adapters/redis"
	"github.com/aretw0/lookahead/pkg/config"
	"github.com/aretw0/lookahead/pkg/domain"
	"github.com/aretw0/lookahead/pkg/observability"
	"github.com/aretw0/lookahead/pkg/ports"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
)

// Options are the flags shared by every command.
type Options struct {
	NetworkPath string
	ConfigPath  string
	Debug       bool
	// JSONLogs switches the logger to JSON, for servers.
	JSONLogs bool
	// EnvFile is loaded into the process environment before the config. Missing files are ignored.
	EnvFile string
}

// Environment is what a command works with: settings, the loaded network and an engine over it.
type Environment struct {
	Options  Options
	Settings config.Settings
	Logger   *slog.Logger
	Network  *memory.Network
	Meta     file.Meta // as first loaded
	Engine   *lookahead.Engine
	Registry *prometheus.Registry
	Streams  *httpAdapter.StreamManager

	closers []io.Closer
}

// NewEnvironment loads settings and the network file and builds the engine.
func NewEnvironment(opts Options) (*Environment, error) {
	if opts.EnvFile == "" {
		opts.EnvFile = ".env"
	}
	_ = godotenv.Load(opts.EnvFile)

	settings, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	if opts.NetworkPath == "" {
		return nil, errors.New("a network file is required (--network)")
	}

	logger := createLogger(opts, settings.LogLevel)
	network, meta, err := file.Load(opts.NetworkPath)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		Options:  opts,
		Settings: settings,
		Logger:   logger,
		Network:  network,
		Meta:     meta,
		Registry: prometheus.NewRegistry(),
		Streams:  httpAdapter.NewStreamManager(logger),
	}

	metrics := observability.NewMetrics(env.Registry)
	hooks := []domain.LifecycleHooks{metrics.Hooks(), env.Streams.Hooks()}
	if opts.Debug {
		hooks = append(hooks, observability.LogHooks(logger))
	}

	env.Engine, err = lookahead.New(network,
		lookahead.WithAnnotationStore(env.createStore()),
		lookahead.WithLogger(logger),
		lookahead.WithLifecycleHooks(observability.Combine(hooks...)),
		lookahead.WithResolution(settings.Index.Resolution),
		lookahead.WithLabelScale(settings.Index.LabelScale),
		lookahead.WithMaxIterations(settings.Index.MaxIterations),
		lookahead.WithName(meta.Name),
	)
	if err != nil {
		_ = env.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	logger.Debug("environment ready",
		"network", meta.Name,
		"segments", len(network.Segments()),
		"junctions", len(network.Junctions()),
	)
	return env, nil
}

// createStore picks the annotation store: Redis when configured, then an on-disk cache, then memory.
// Persistent stores are namespaced by the network digest so an edited file never reads stale entries.
func (e *Environment) createStore() ports.AnnotationStore {
	switch {
	case e.Settings.Redis.Enabled():
		prefix := e.Settings.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		store := redis.New(e.Settings.Redis.Addr, e.Settings.Redis.Password, e.Settings.Redis.DB,
			redis.WithPrefix(prefix+e.Meta.Digest+":"),
			redis.WithTTL(e.Settings.Redis.TTL),
		)
		e.closers = append(e.closers, store)
		e.Logger.Debug("using redis annotation store", "addr", e.Settings.Redis.Addr)
		return store
	case e.Settings.Index.CacheDir != "":
		dir := filepath.Join(e.Settings.Index.CacheDir, e.Meta.Digest)
		e.Logger.Debug("using file annotation store", "dir", dir)
		return file.NewStore(dir)
	default:
		return memory.NewStore()
	}
}

// Query builds an Upcoming query bounded by the configured track info limits.
func (e *Environment) Query(segment string, offset float64, backward bool) lookahead.Query {
	return lookahead.Query{
		Segment:  domain.SegmentID(segment),
		Offset:   offset,
		Backward: backward,
		MaxCount: e.Settings.TrackInfo.MaxEventCount,
		MaxSpan:  e.Settings.TrackInfo.MaxEventSpan,
	}
}

// Reload reads the network file again, swaps it into the live network and drops every cache.
// The previous network stays in place when the file is invalid.
func (e *Environment) Reload(ctx context.Context) (file.Meta, error) {
	network, meta, err := file.Load(e.Options.NetworkPath)
	if err != nil {
		return file.Meta{}, err
	}
	e.Network.Replace(network)
	return meta, e.Engine.InvalidateAll(ctx)
}

// WatchNetwork reloads the network every time its file changes, until ctx is done.
// onReload runs after each successful reload and may be nil.
func (e *Environment) WatchNetwork(ctx context.Context, onReload func(context.Context)) error {
	watcher := file.NewWatcher(e.Options.NetworkPath)
	watcher.Logger = e.Logger
	changes, err := watcher.Watch(ctx)
	if err != nil {
		return err
	}

	go func() {
		for range changes {
			meta, err := e.Reload(ctx)
			if err != nil {
				e.Logger.Error("reload failed, keeping the previous network", "error", err)
				continue
			}
			e.Logger.Info("network reloaded", "network", meta.Name, "digest", meta.Digest)
			if onReload != nil {
				onReload(ctx)
			}
		}
	}()
	return nil
}

// Close releases the annotation store connections.
func (e *Environment) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// createLogger configures the application logger on Stderr.
// Debug forces the debug level; otherwise the configured level applies.
func createLogger(opts Options, level string) *slog.Logger {
	lvl := logging.ParseLevel(level)
	if opts.Debug {
		lvl = slog.LevelDebug
	}
	if opts.JSONLogs {
		return logging.NewJSON(os.Stderr, lvl)
	}
	return logging.New(lvl)
}
