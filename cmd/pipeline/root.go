package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/config"
	"vacancy-pipeline/internal/logger"
	"vacancy-pipeline/internal/repository/postgresql"
	"vacancy-pipeline/internal/service"
)

const app = "pipeline"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:          app,
		Short:        "pipeline turns scraped job postings into searchable vacancies",
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is pipeline.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("log.debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("log.json", rootCmd.PersistentFlags().Lookup("json"))
}

// env is what every subcommand starts from: validated config, a logger and
// the two stores.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	rdb    *redis.Client
}

func setup(ctx context.Context, withRedis bool) (*env, error) {
	cfg, err := config.Load(viper.GetViper(), cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("creating a logger: %w", err)
	}

	pool, err := postgresql.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres %s: %w", logger.RedactDSN(cfg.Postgres.DSN), err)
	}

	e := &env{cfg: cfg, logger: log, pool: pool}
	if !withRedis {
		return e, nil
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		e.close()
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	e.rdb = redis.NewClient(opts)
	if err := e.rdb.Ping(ctx).Err(); err != nil {
		e.close()
		return nil, fmt.Errorf("redis %s: %w", logger.RedactDSN(cfg.Redis.URL), err)
	}
	return e, nil
}

func (e *env) close() {
	if e.rdb != nil {
		_ = e.rdb.Close()
	}
	e.pool.Close()
	_ = e.logger.Sync()
}

func (e *env) queue() *service.RedisQueue {
	return service.NewRedisQueue(e.rdb, e.cfg.Redis.KeyPrefix)
}

func (e *env) jobService() *service.JobService {
	return service.NewJobService(postgresql.NewJobRepository(e.pool), e.queue())
}

// apiKey prefers the inline key over the key file.
func (e *env) apiKey() (string, error) {
	if key := strings.TrimSpace(e.cfg.Model.APIKey); key != "" {
		return key, nil
	}
	path := strings.TrimSpace(e.cfg.Model.APIKeyFile)
	if path == "" {
		return "", errors.New("model api key is not configured (model.api-key or model.api-key-file)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read model api key: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}
