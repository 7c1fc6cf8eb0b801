package data

import (
	"context"
	"database/sql"
	"time"

	"hazard/internal/biz"
	"hazard/internal/conf"
	"hazard/internal/pkg/analyzer"
	"hazard/internal/pkg/fetcher"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/wire"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(
	NewData,
	NewRedisCache,
	NewAnalysisRepo,
	NewResultCache,
	NewLabelSet,
	NewVisionClient,
	NewVisionLimiter,
	NewClassifier,
	NewCaptionBackend,
	NewCaptioner,
	NewFetcher,
	NewExtractor,
	NewImageAnalyzer,
	NewVideoAnalyzer,
	NewMetrics,
	NewDependencyChecks,
	wire.Bind(new(biz.MediaFetcher), new(*fetcher.Fetcher)),
	wire.Bind(new(biz.ImageAnalyzer), new(*analyzer.ImageAnalyzer)),
	wire.Bind(new(biz.VideoAnalyzer), new(*analyzer.VideoAnalyzer)),
)

// Data struct for db client
type Data struct {
	Pool *pgxpool.Pool // nil when history is disabled
	DB   *sql.DB       // database/sql view of Pool for migrations
}

// NewData new a data instance. An empty database source disables history.
func NewData(conf *conf.Data, logger log.Logger) (*Data, func(), error) {
	log := log.NewHelper(log.With(logger, "module", "data"))
	if conf.GetDatabase().GetSource() == "" {
		log.Warn("database source not configured, analysis history disabled")
		return &Data{}, func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	// config pool
	pgxConfig, err := newPgxPoolConfig(conf)
	if err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pgxConfig)
	if err != nil {
		return nil, nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}

	db := stdlib.OpenDBFromPool(pool)

	// auto migrate
	if err := RunMigrate(conf, db); err != nil {
		db.Close()
		pool.Close()
		return nil, nil, err
	}

	cleanup := func() {
		log.Info("closing db connections")
		db.Close()
		pool.Close()
	}

	return &Data{
		Pool: pool,
		DB:   db,
	}, cleanup, nil
}

// newPgxPoolConfig creates a pgxpool.Config from conf.Data
func newPgxPoolConfig(conf *conf.Data) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(conf.Database.Source)
	if err != nil {
		return nil, err
	}
	pool := conf.Database.Pool
	if pool == nil {
		return cfg, nil
	}
	if pool.MaxOpenConns > 0 {
		cfg.MaxConns = pool.MaxOpenConns
	}
	if pool.MinIdleConns > 0 {
		cfg.MinConns = pool.MinIdleConns
	}
	if pool.MaxConnLifetime > 0 {
		cfg.MaxConnLifetime = time.Duration(pool.MaxConnLifetime) * time.Minute
	}
	if pool.MaxConnIdleTime > 0 {
		cfg.MaxConnIdleTime = time.Duration(pool.MaxConnIdleTime) * time.Minute
	}

	return cfg, nil
}
