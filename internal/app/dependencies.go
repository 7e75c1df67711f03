// Package app wires the shared infrastructure both binaries depend on.
package app

import (
	"context"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/waconnect/backend/internal/config"
	"github.com/waconnect/backend/internal/obs"
)

// Dependencies bundles the infrastructure clients shared across modules.
type Dependencies struct {
	Config    *config.Config
	DB        *pgxpool.Pool
	Redis     *redis.Client
	Tasks     *asynq.Client
	Validator *validator.Validate
	Log       zerolog.Logger
}

// New connects to Postgres and Redis and prepares the shared clients. Callers
// own the returned Dependencies and must Close them on shutdown.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Dependencies, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "waconnect"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		log.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		log.Error().Err(err).Msg("instrument redis metrics")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		pool.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Dependencies{
		Config:    cfg,
		DB:        pool,
		Redis:     redisClient,
		Tasks:     asynq.NewClient(AsynqRedisOpt(cfg)),
		Validator: validator.New(),
		Log:       log,
	}, nil
}

// Close releases every client New opened.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Tasks != nil {
		if err := d.Tasks.Close(); err != nil {
			d.Log.Error().Err(err).Msg("close task client")
		}
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Log.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// AsynqRedisOpt translates the configured Redis URL for asynq, which keeps its
// own connection pool separate from the go-redis client.
func AsynqRedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return asynq.RedisClientOpt{Addr: cfg.RedisURL}
	}
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewLimiterStore wires a rate limiter store backed by Redis.
func NewLimiterStore(rdb *redis.Client) (limiter.Store, error) {
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:          "limiter",
		CleanUpInterval: time.Minute,
	})
}

// NewGlobalLimiter builds the API-wide limiter from a formatted rate such as
// "300-M". An unparseable rate disables the limiter rather than failing boot.
func NewGlobalLimiter(rdb *redis.Client, formatted string, log zerolog.Logger) *limiter.Limiter {
	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		log.Warn().Err(err).Str("rate", formatted).Msg("invalid global rate limit, disabled")
		return nil
	}
	store, err := NewLimiterStore(rdb)
	if err != nil {
		log.Warn().Err(err).Msg("limiter store unavailable, global rate limit disabled")
		return nil
	}
	return limiter.New(store, rate)
}
