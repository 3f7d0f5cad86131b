package main

import (
	"context"
	"fmt"
	"time"

	"credit-risk-console/internal/applications"
	"credit-risk-console/internal/assessment"
	"credit-risk-console/internal/common/config"
	"credit-risk-console/internal/common/database"
	commonhttp "credit-risk-console/internal/common/http"
	"credit-risk-console/internal/common/logger"
	"credit-risk-console/internal/common/observability"
	"credit-risk-console/internal/notify"
	"credit-risk-console/internal/scoring"
)

const (
	connectAttempts     = 5
	connectInitialDelay = time.Second
)

// deps is everything a command needs, built once from config.
type deps struct {
	cfg     *config.Config
	log     logger.Logger
	client  *scoring.Client
	store   *applications.Store
	service *assessment.Service
	obs     *observability.Observability

	closers []func() error
}

type depsOptions struct {
	// observability registers a process-wide exporter; only serve wants it
	observability bool
}

func buildDeps(ctx context.Context, cfg *config.Config, log logger.Logger, opts depsOptions) (*deps, error) {
	d := &deps{cfg: cfg, log: log}

	storage, err := d.openStorage(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}

	if opts.observability {
		d.obs = observability.New(cfg.App.Name, observability.WithSpanLogger(log))
		d.closers = append(d.closers, func() error {
			d.obs.Shutdown()
			return nil
		})
	}

	httpClient := commonhttp.NewClient(config.GetDuration(cfg.Scoring.Timeout))
	d.client = scoring.NewClient(cfg.Scoring.BaseURL, httpClient, log)
	d.store = applications.NewStore(storage, applications.Seed(), log)

	notifier, err := d.openNotifier(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}

	svcConfig := assessment.LoadConfig()
	if cfg.Scoring.Timeout > 0 {
		svcConfig.Timeout = config.GetDuration(cfg.Scoring.Timeout)
	}
	d.service = assessment.NewService(svcConfig, d.client, d.store, notifier, d.obs, log)

	log.Info("dependencies ready", map[string]interface{}{
		"storage":        cfg.Storage.Backend,
		"scoringURL":     d.client.BaseURL(),
		"scoringTimeout": httpClient.Timeout().String(),
	})
	return d, nil
}

func (d *deps) openStorage(ctx context.Context) (applications.Storage, error) {
	key := d.cfg.Storage.Key
	if key == "" {
		key = applications.DefaultKey
	}

	switch d.cfg.Storage.Backend {
	case config.BackendMemory:
		return applications.NewMemoryStorage(), nil

	case "", config.BackendSQLite:
		lite, err := database.NewSQLite(d.cfg.Database.SQLite)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, lite.Close)
		if err := lite.Ping(ctx); err != nil {
			return nil, err
		}

		storage := applications.NewSQLiteStorage(lite.DB, key)
		if err := storage.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare sqlite schema: %w", err)
		}
		d.log.Info("opened local database", map[string]interface{}{"target": lite.Target()})
		return storage, nil

	case config.BackendRedis:
		var rc *database.RedisClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			rc, err = database.NewRedis(d.cfg.Database.Redis)
			if err != nil {
				return err
			}
			if err := rc.Ping(ctx); err != nil {
				_ = rc.Close()
				return err
			}
			return nil
		}, connectAttempts, connectInitialDelay, d.log, "Redis connection")
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, rc.Close)
		d.log.Info("connected to redis", map[string]interface{}{"target": rc.Target()})
		return applications.NewRedisStorage(rc.Client, key), nil

	case config.BackendPostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(ctx, func() error {
			var err error
			pg, err = database.NewPostgres(d.cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			return nil
		}, connectAttempts, connectInitialDelay, d.log, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, pg.Close)

		storage := applications.NewPostgresStorage(pg.DB, key)
		if err := storage.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to prepare postgres schema: %w", err)
		}
		d.log.Info("connected to postgres", map[string]interface{}{"target": pg.Target()})
		return storage, nil
	}

	return nil, fmt.Errorf("unknown storage backend %q", d.cfg.Storage.Backend)
}

func (d *deps) openNotifier(ctx context.Context) (notify.Notifier, error) {
	sns := d.cfg.Notifications.SNS
	if !sns.Enabled {
		return notify.Noop{}, nil
	}
	n, err := notify.NewSNSNotifier(ctx, sns.Region, sns.TopicARN, d.log)
	if err != nil {
		return nil, fmt.Errorf("failed to create SNS notifier: %w", err)
	}
	return n, nil
}

// Close releases connections in reverse order of opening.
func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			d.log.WithError(err).Warn("close failed", nil)
		}
	}
	d.closers = nil
}
