package main

import (
	"context"
	"fmt"
	stdslog "log/slog"
	"os"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	qc "github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/api"
	"github.com/unkn0wn-root/querycache/genstore"
	asynchooks "github.com/unkn0wn-root/querycache/hooks/async"
	"github.com/unkn0wn-root/querycache/internal/config"
	qclogrus "github.com/unkn0wn-root/querycache/log/logrus"
	qcslog "github.com/unkn0wn-root/querycache/log/slog"
	qczap "github.com/unkn0wn-root/querycache/log/zap"
	qczerolog "github.com/unkn0wn-root/querycache/log/zerolog"
	pr "github.com/unkn0wn-root/querycache/provider"
	bcprov "github.com/unkn0wn-root/querycache/provider/bigcache"
	rdprov "github.com/unkn0wn-root/querycache/provider/redis"
	riprov "github.com/unkn0wn-root/querycache/provider/ristretto"
	"github.com/unkn0wn-root/querycache/queries"
	"github.com/unkn0wn-root/querycache/sloghooks"
)

const genTTL = 24 * time.Hour

// app holds everything a subcommand needs. closer runs in reverse order, so
// the cache (which closes its provider) goes first and the logger last.
type app struct {
	q      *queries.Queries
	cache  *qc.Client
	log    qc.Logger
	closer []func(context.Context) error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{}
	ok := false
	defer func() {
		if !ok {
			a.close(context.Background())
		}
	}()

	log, flush, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	a.log = log
	a.closer = append(a.closer, func(context.Context) error { return flush() })

	var rdb *goredis.Client
	if cfg.UsesRedis() {
		opt, err := goredis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = goredis.NewClient(opt)
		a.closer = append(a.closer, func(context.Context) error { return rdb.Close() })
	}

	p, err := newProvider(ctx, cfg, rdb)
	if err != nil {
		return nil, err
	}

	var gens genstore.GenStore
	if cfg.GenStore == "redis" {
		gens = genstore.NewRedis(genstore.RedisConfig{Client: rdb, Namespace: cfg.Namespace, TTL: genTTL})
		a.closer = append(a.closer, gens.Close)
	}

	var hooks qc.Hooks = sloghooks.New(
		stdslog.New(stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{Level: stdslog.LevelWarn})),
		sloghooks.Options{FetchFailedEvery: 1, SelfHealEvery: 10},
	)
	if cfg.HookWorkers > 0 {
		ah := asynchooks.New(hooks, cfg.HookWorkers, cfg.HookQueue)
		a.closer = append(a.closer, func(context.Context) error {
			ah.Close()
			if n := ah.Dropped(); n > 0 {
				log.Warn("hook events dropped", qc.Fields{"count": n})
			}
			return nil
		})
		hooks = ah
	}

	var defaults qc.QueryOptions
	if cfg.StaleTime > 0 {
		defaults.StaleTime = qc.Duration(cfg.StaleTime)
	}

	cache, err := qc.New(qc.Options{
		Namespace: cfg.Namespace,
		Provider:  p,
		Logger:    log,
		Hooks:     hooks,
		GenStore:  gens,
		Defaults:  defaults,
		CacheTime: cfg.CacheTime,
	})
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}
	a.cache = cache
	a.closer = append(a.closer, cache.Close)

	rq, err := api.New(api.Config{BaseURL: cfg.APIBaseURL, Timeout: cfg.RequestTimeout, Logger: log})
	if err != nil {
		return nil, err
	}
	a.q = queries.New(cache, rq)
	ok = true
	return a, nil
}

func (a *app) close(ctx context.Context) {
	for i := len(a.closer) - 1; i >= 0; i-- {
		if err := a.closer[i](ctx); err != nil && a.log != nil {
			a.log.Warn("shutdown", qc.Fields{"err": err})
		}
	}
	a.closer = nil
}

func newProvider(ctx context.Context, cfg *config.Config, rdb *goredis.Client) (pr.Provider, error) {
	switch cfg.Provider {
	case "bigcache":
		return bcprov.New(ctx, bcprov.Config{
			LifeWindow:         cfg.CacheTime,
			HardMaxCacheSizeMB: int(cfg.MaxCost >> 20),
		})
	case "redis":
		return rdprov.New(rdprov.Config{Client: rdb})
	default:
		rc := riprov.DefaultConfig()
		rc.MaxCost = cfg.MaxCost
		return riprov.New(rc)
	}
}

// newLogger returns the configured backend and its flush func.
func newLogger(cfg *config.Config) (qc.Logger, func() error, error) {
	nop := func() error { return nil }
	switch cfg.LogBackend {
	case "zerolog":
		lvl, err := zerolog.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		zl := zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Str("app", "querycache").Logger()
		return qczerolog.Logger{L: zl}, nop, nil
	case "logrus":
		lvl, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		l := logrus.New()
		l.SetOutput(os.Stderr)
		l.SetLevel(lvl)
		l.SetFormatter(&logrus.JSONFormatter{})
		return qclogrus.Logger{E: logrus.NewEntry(l).WithField("app", "querycache")}, nop, nil
	case "slog":
		var lvl stdslog.Level
		if err := lvl.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, nil, err
		}
		h := stdslog.NewJSONHandler(os.Stderr, &stdslog.HandlerOptions{Level: lvl})
		return qcslog.Logger{L: stdslog.New(h).With("app", "querycache")}, nop, nil
	default:
		lvl, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, err
		}
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(lvl)
		zc.OutputPaths = []string{"stderr"}
		zl, err := zc.Build()
		if err != nil {
			return nil, nil, err
		}
		zl = zl.With(zap.String("app", "querycache"))
		// Sync on stderr fails with EINVAL on some platforms; nothing to recover.
		return qczap.Logger{L: zl}, func() error { _ = zl.Sync(); return nil }, nil
	}
}
