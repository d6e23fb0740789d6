// Package extractor turns raw scraped HTML into a validated vacancy candidate
// using the current model artifact and an LLM backend.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"vacancy-pipeline/internal/ai"
	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/model"
)

const retryStep = 2 * time.Second

// sleep waits between retries; tests replace it.
var sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ArtifactSource yields the artifact extraction runs against.
type ArtifactSource interface {
	Latest() (*model.Artifact, error)
}

type Options struct {
	// Models is the escalation ladder, smallest context first.
	Models     []string
	MaxRetries int
	Limiter    *rate.Limiter
	Cache      Cache
	Skills     *SkillNormalizer
}

type Extractor struct {
	generator  ai.Generator
	artifacts  ArtifactSource
	models     []string
	maxRetries int
	limiter    *rate.Limiter
	cache      Cache
	skills     *SkillNormalizer
	logger     *zap.Logger
}

func New(generator ai.Generator, artifacts ArtifactSource, logger *zap.Logger, opts Options) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	if opts.Skills == nil {
		opts.Skills = NewSkillNormalizer(nil)
	}
	return &Extractor{
		generator:  generator,
		artifacts:  artifacts,
		models:     opts.Models,
		maxRetries: opts.MaxRetries,
		limiter:    opts.Limiter,
		cache:      opts.Cache,
		skills:     opts.Skills,
		logger:     logger,
	}
}

// Extract produces a candidate for html. Every failure is an *Error. With the
// same artifact and input the result is stable: it is either served from the
// cache or produced by a zero temperature call.
func (e *Extractor) Extract(ctx context.Context, html string) (entity.VacancyCandidate, error) {
	artifact, err := e.artifacts.Latest()
	if err != nil {
		if errors.Is(err, model.ErrNoArtifact) {
			artifact = &model.Artifact{Version: "untrained"}
		} else {
			return entity.VacancyCandidate{}, newError(KindModelUnavailable, "load artifact: %w", err)
		}
	}

	doc, err := ParseHTML(html)
	if err != nil {
		return entity.VacancyCandidate{}, err
	}

	key := CacheKey(artifact.Version, html)
	if e.cache != nil {
		cached, err := e.cache.Get(ctx, key)
		if err != nil {
			e.logger.Warn("extraction cache read failed", zap.Error(err))
		} else if cached != nil {
			return *cached, nil
		}
	}

	raw, err := e.generate(ctx, BuildPrompt(artifact, doc))
	if err != nil {
		return entity.VacancyCandidate{}, err
	}

	cand, err := ParseOutput(raw)
	if err != nil {
		return entity.VacancyCandidate{}, err
	}
	cand.Skills = e.skills.Normalize(cand.Skills)
	if len(cand.Skills) > 0 {
		cand.NoSkills = false
	}
	cand.SearchText = searchText(cand)
	cand.ModelVersion = artifact.Version

	if err := Validate(cand); err != nil {
		return entity.VacancyCandidate{}, err
	}

	if e.cache != nil {
		if err := e.cache.Set(ctx, key, cand); err != nil {
			e.logger.Warn("extraction cache write failed", zap.Error(err))
		}
	}
	return cand, nil
}

// generate walks the model ladder. A context-length failure moves to the next
// model, transient failures are retried on the same one.
func (e *Extractor) generate(ctx context.Context, prompt string) (string, error) {
	if len(e.models) == 0 {
		return "", newError(KindModelUnavailable, "no models configured")
	}

	var lastErr error
	for i, m := range e.models {
		out, err := e.generateWithRetry(ctx, m, prompt)
		if err == nil {
			return out, nil
		}
		var xerr *Error
		if errors.As(err, &xerr) {
			return "", xerr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &Error{Kind: KindTimeout, Err: ctxErr}
		}
		lastErr = err
		if errors.Is(err, ai.ErrContextLength) && i < len(e.models)-1 {
			e.logger.Info("prompt too long for model, escalating",
				zap.String("model", m),
				zap.String("next_model", e.models[i+1]),
			)
			continue
		}
		break
	}
	return "", &Error{Kind: KindModelUnavailable, Err: lastErr}
}

func (e *Extractor) generateWithRetry(ctx context.Context, m, prompt string) (string, error) {
	var err error
	for attempt := 1; attempt <= e.maxRetries; attempt++ {
		if e.limiter != nil {
			// Wait fails early when the deadline would pass before a token is free.
			if werr := e.limiter.Wait(ctx); werr != nil {
				return "", &Error{Kind: KindTimeout, Err: fmt.Errorf("rate limit wait: %w", werr)}
			}
		}

		var out string
		out, err = e.generator.Generate(ctx, m, prompt)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, ai.ErrTransient) || attempt == e.maxRetries {
			return "", err
		}

		e.logger.Warn("model call failed, retrying",
			zap.String("model", m),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if serr := sleep(ctx, time.Duration(attempt)*retryStep); serr != nil {
			return "", serr
		}
	}
	return "", err
}

func searchText(c entity.VacancyCandidate) string {
	parts := []string{c.Title, c.Company, strings.Join(c.Skills, " "), c.Description}
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, "\n")
}
