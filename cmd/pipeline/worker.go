package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vacancy-pipeline/internal/ai/gemini"
	"vacancy-pipeline/internal/extractor"
	"vacancy-pipeline/internal/model"
	"vacancy-pipeline/internal/pipeline"
	"vacancy-pipeline/internal/repository/postgresql"
	"vacancy-pipeline/internal/scheduler"
	"vacancy-pipeline/internal/trainer"
	"vacancy-pipeline/internal/worker"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run pipeline jobs from the queue, the stale-claim reaper and the scheduler",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWorker(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func runWorker(ctx context.Context) error {
	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()
	cfg := e.cfg

	key, err := e.apiKey()
	if err != nil {
		return err
	}
	generator, err := gemini.NewGenerator(ctx, key, cfg.Model.Temperature)
	if err != nil {
		return err
	}
	skills, err := extractor.LoadSkillNormalizer(cfg.Skills.AliasesFile)
	if err != nil {
		return err
	}

	limit := rate.Inf
	if cfg.Pipeline.RatePerSecond > 0 {
		limit = rate.Limit(cfg.Pipeline.RatePerSecond)
	}

	artifacts := model.NewFileStore(cfg.Model.Dir)
	ex := extractor.New(generator, artifacts, e.logger.Named("extractor"), extractor.Options{
		Models:     cfg.Model.Models,
		MaxRetries: cfg.Model.MaxRetries,
		Limiter:    rate.NewLimiter(limit, cfg.Pipeline.Burst),
		Cache:      extractor.NewRedisCache(e.rdb, cfg.Redis.KeyPrefix, cfg.Model.CacheTTL),
		Skills:     skills,
	})

	vacancies := postgresql.NewVacancyRepository(e.pool)
	batch := pipeline.NewBatchProcessor(
		postgresql.NewRawRecordRepository(e.pool),
		vacancies,
		ex,
		pipeline.NewRedisEvents(e.rdb, cfg.Redis.KeyPrefix),
		pipeline.Options{
			BatchSize:      cfg.Pipeline.BatchSize,
			Concurrency:    cfg.Pipeline.Concurrency,
			ExtractTimeout: cfg.Pipeline.ExtractTimeout,
		},
		e.logger.Named("pipeline"),
	)
	tr := trainer.New(vacancies, artifacts, cfg.Model.MaxDemos, e.logger.Named("trainer"))

	processor := worker.NewProcessor(postgresql.NewJobRepository(e.pool), batch, tr, cfg.Pipeline.StaleAfter, e.logger.Named("worker"))
	pool := worker.NewPool(e.queue(), processor, worker.PoolOptions{
		Workers:    cfg.Pipeline.Workers,
		StaleAfter: cfg.Pipeline.StaleAfter,
	}, e.logger.Named("worker"))

	sched := scheduler.New(e.jobService(), scheduler.Specs{
		Process: cfg.Schedule.Process,
		Train:   cfg.Schedule.Train,
	}, e.logger.Named("scheduler"))
	if _, err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()

	e.logger.Info("worker started",
		zap.Int("workers", cfg.Pipeline.Workers),
		zap.Strings("models", cfg.Model.Models),
		zap.String("model_dir", cfg.Model.Dir),
	)
	pool.Run(ctx)
	return nil
}
