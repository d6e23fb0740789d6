package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	_ "vacancy-pipeline/docs"
	"vacancy-pipeline/internal/extractor"
	"vacancy-pipeline/internal/matching"
	"vacancy-pipeline/internal/pipeline"
	"vacancy-pipeline/internal/repository/postgresql"
	"vacancy-pipeline/internal/service"
	httptransport "vacancy-pipeline/internal/transport/http"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	e, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer e.close()
	cfg := e.cfg

	skills, err := extractor.LoadSkillNormalizer(cfg.Skills.AliasesFile)
	if err != nil {
		return err
	}

	records := postgresql.NewRawRecordRepository(e.pool)
	vacancies := postgresql.NewVacancyRepository(e.pool)
	ratings := postgresql.NewRatingRepository(e.pool)
	profiles := postgresql.NewProfileRepository(e.pool)

	matcher := matching.NewCachedMatcher(
		matching.NewProfileMatcher(profiles, vacancies, ratings, cfg.Matching.CandidateLimit, func(err error) bool {
			return errors.Is(err, postgresql.ErrNotFound)
		}),
		e.rdb, cfg.Redis.KeyPrefix, cfg.Matching.CacheTTL, e.logger.Named("matching"),
	)

	// New vacancies change every match list.
	events := pipeline.NewRedisEvents(e.rdb, cfg.Redis.KeyPrefix)
	go func() {
		err := events.Subscribe(ctx, func(ev pipeline.Event) {
			if err := matcher.Invalidate(ctx); err != nil {
				e.logger.Warn("invalidate match cache failed", zap.String("vacancy_id", ev.VacancyID.String()), zap.Error(err))
			}
		})
		if err != nil {
			e.logger.Error("event subscription stopped", zap.Error(err))
		}
	}()

	h := httptransport.NewHandler(
		e.jobService(),
		service.NewIngestService(records, vacancies),
		service.NewScrapingTaskService(postgresql.NewScrapingTaskRepository(e.pool)),
		service.NewVacancyService(vacancies, ratings, profiles, matcher, skills, e.logger.Named("vacancies")),
		e.logger.Named("http"),
	)

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      httptransport.Routes(h, httptransport.Keys{API: cfg.HTTP.APIKeys, Admin: cfg.HTTP.AdminKeys}, e.logger.Named("http")),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("http server started", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	e.logger.Info("http server stopped")
	return nil
}
