package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aretw0/vitae"
	"github.com/aretw0/vitae/internal/config"
	"github.com/aretw0/vitae/pkg/adapters/file"
	"github.com/aretw0/vitae/pkg/adapters/memory"
	"github.com/aretw0/vitae/pkg/adapters/process"
	redisAdapter "github.com/aretw0/vitae/pkg/adapters/redis"
	"github.com/aretw0/vitae/pkg/domain"
	"github.com/aretw0/vitae/pkg/observability"
	"github.com/aretw0/vitae/pkg/persistence/middleware"
	"github.com/aretw0/vitae/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// newEngine builds the engine the config describes. The returned cleanup
// closes whatever connections the store opened.
func newEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*vitae.Engine, func(), error) {
	opts := []vitae.Option{vitae.WithLogger(logger)}
	cleanup := func() {}

	if reg != nil {
		opts = append(opts, vitae.WithMetrics(observability.NewMetrics(reg)))
	}

	var store ports.SessionStore
	switch cfg.Store.Driver {
	case config.DriverFile:
		store = file.New(cfg.Store.Path)
	case config.DriverRedis:
		rs := redisAdapter.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB,
			redisAdapter.WithTTL(cfg.Store.TTL),
			redisAdapter.WithPrefix(cfg.Redis.Prefix),
		)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rs.Ping(pingCtx); err != nil {
			_ = rs.Close()
			return nil, nil, fmt.Errorf("redis unreachable at %s: %w", cfg.Redis.Addr, err)
		}
		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redisAdapter.DefaultPrefix
		}
		store = rs
		opts = append(opts, vitae.WithLocker(redisAdapter.NewLocker(rs.Client(), prefix)))
		cleanup = func() { _ = rs.Close() }
	default:
		store = memory.NewStore()
	}

	store, err := secureStore(cfg, store)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	opts = append(opts, vitae.WithStore(store))

	eng, err := vitae.New(cfg.Content.Dir, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	logger.Debug("Engine ready", "content", cfg.Content.Dir, "store", cfg.Store.Driver)
	return eng, cleanup, nil
}

// secureStore wraps store with the at-rest middlewares the config enables.
// Redaction runs before encryption so masked text is what gets sealed.
func secureStore(cfg *config.Config, store ports.SessionStore) (ports.SessionStore, error) {
	var mws []middleware.Middleware
	if len(cfg.Security.Redact) > 0 {
		redact, err := middleware.NewRedactMiddleware(cfg.Security.Redact)
		if err != nil {
			return nil, err
		}
		mws = append(mws, redact)
	}
	key, fallback, err := cfg.EncryptionKeys()
	if err != nil {
		return nil, err
	}
	if key != nil {
		encrypt, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key, FallbackKeys: fallback})
		if err != nil {
			return nil, err
		}
		mws = append(mws, encrypt)
	}
	return middleware.Chain(store, mws...), nil
}

// newRewriters registers the external rewrite commands listed in the config.
func newRewriters(cfg *config.Config) (*process.Runner, error) {
	rewriters, err := process.LoadRewriters(cfg.Rewriters)
	if err != nil {
		return nil, err
	}
	return process.NewRunner(
		process.WithRegistry(rewriters),
		process.WithBaseDir(filepath.Dir(cfg.Rewriters)),
	), nil
}

// readDocument loads a standalone CV file. YAML is a superset of JSON, so
// both formats go through the same decoder.
func readDocument(path string) (*domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc, err := domain.DecodeDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return doc, nil
}
