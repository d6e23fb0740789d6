// Package trainer builds a new extraction model artifact from approved
// vacancies.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/extractor"
	"vacancy-pipeline/internal/model"
)

// ErrTrainingFailed wraps every reason a run produced no artifact. The
// latest artifact is untouched whenever it is returned.
var ErrTrainingFailed = errors.New("training failed")

const (
	exampleLimit  = 500
	demoTextRunes = 4000
	glossarySize  = 150
)

type ExampleSource interface {
	ApprovedExamples(ctx context.Context, limit int) ([]entity.ApprovedExample, error)
}

type ArtifactStore interface {
	Save(a *model.Artifact) (model.SaveResult, error)
}

type Trainer struct {
	examples ExampleSource
	store    ArtifactStore
	maxDemos int
	now      func() time.Time
	logger   *zap.Logger
}

func New(examples ExampleSource, store ArtifactStore, maxDemos int, logger *zap.Logger) *Trainer {
	if maxDemos <= 0 {
		maxDemos = 8
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		examples: examples,
		store:    store,
		maxDemos: maxDemos,
		now:      time.Now,
		logger:   logger,
	}
}

type prepared struct {
	demo   model.Demo
	skills []string
}

// Train selects demonstrations from the approved examples and persists the
// resulting artifact.
func (t *Trainer) Train(ctx context.Context) (entity.TrainOutput, error) {
	start := t.now()

	examples, err := t.examples.ApprovedExamples(ctx, exampleLimit)
	if err != nil {
		return entity.TrainOutput{}, fmt.Errorf("%w: load approved examples: %w", ErrTrainingFailed, err)
	}
	if len(examples) == 0 {
		return entity.TrainOutput{}, fmt.Errorf("%w: no approved vacancies", ErrTrainingFailed)
	}

	usable := make([]prepared, 0, len(examples))
	for _, ex := range examples {
		doc, err := extractor.ParseHTML(ex.HTML)
		if err != nil {
			t.logger.Debug("skipping unusable example",
				zap.String("vacancy_id", ex.VacancyID.String()),
				zap.Error(err),
			)
			continue
		}
		input := doc.Text
		if doc.Title != "" {
			input = "Page title: " + doc.Title + "\n" + input
		}
		usable = append(usable, prepared{
			demo:   model.Demo{Input: truncate(input, demoTextRunes), Output: ex.Expected},
			skills: ex.Expected.Skills,
		})
	}
	if len(usable) == 0 {
		return entity.TrainOutput{}, fmt.Errorf("%w: none of %d approved vacancies has readable source html", ErrTrainingFailed, len(examples))
	}

	demos := selectDemos(usable, t.maxDemos)
	artifact := &model.Artifact{
		Version:      model.VersionFor(start),
		CreatedAt:    start.UTC(),
		Instructions: instructions(usable),
		Demos:        demos,
		ExampleCount: len(usable),
	}

	res, err := t.store.Save(artifact)
	if err != nil {
		return entity.TrainOutput{}, fmt.Errorf("%w: save artifact: %w", ErrTrainingFailed, err)
	}

	t.logger.Info("model artifact trained",
		zap.String("version", artifact.Version),
		zap.Int("examples", len(usable)),
		zap.Int("demos", len(demos)),
		zap.Int64("duration_ms", t.now().Sub(start).Milliseconds()),
	)

	return entity.TrainOutput{
		Version:      artifact.Version,
		VersionPath:  res.VersionPath,
		LatestPath:   res.LatestPath,
		ExampleCount: len(usable),
	}, nil
}

// selectDemos greedily picks the example that adds the most skills not yet
// covered, falling back to input order on ties.
func selectDemos(pool []prepared, limit int) []model.Demo {
	covered := make(map[string]struct{})
	used := make([]bool, len(pool))
	out := make([]model.Demo, 0, min(limit, len(pool)))

	for len(out) < limit && len(out) < len(pool) {
		best, bestGain := -1, -1
		for i, p := range pool {
			if used[i] {
				continue
			}
			gain := 0
			for _, s := range p.skills {
				if _, ok := covered[s]; !ok {
					gain++
				}
			}
			if gain > bestGain {
				best, bestGain = i, gain
			}
		}
		used[best] = true
		for _, s := range pool[best].skills {
			covered[s] = struct{}{}
		}
		out = append(out, pool[best].demo)
	}
	return out
}

// instructions extends the default prompt with the canonical skill
// vocabulary of the approved set, most frequent first.
func instructions(pool []prepared) string {
	freq := make(map[string]int)
	for _, p := range pool {
		for _, s := range p.skills {
			freq[s]++
		}
	}
	if len(freq) == 0 {
		return extractor.DefaultInstructions
	}

	names := make([]string, 0, len(freq))
	for s := range freq {
		names = append(names, s)
	}
	sort.Slice(names, func(i, j int) bool {
		if freq[names[i]] != freq[names[j]] {
			return freq[names[i]] > freq[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > glossarySize {
		names = names[:glossarySize]
	}

	return extractor.DefaultInstructions +
		"\nPrefer these skill names when the posting mentions them: " + strings.Join(names, ", ") + "."
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit])
}
