// Package matching ranks vacancies for a user. Callers depend only on
// Matcher: a user id in, an ordered list of vacancy ids out.
package matching

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/search"
)

// ErrNoProfile means the user has no primary resume to match against.
var ErrNoProfile = errors.New("no candidate profile")

type Matcher interface {
	Match(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

type ProfileSource interface {
	GetPrimary(ctx context.Context, userID uuid.UUID) (*entity.CandidateProfile, error)
}

type CandidateSource interface {
	MatchCandidates(ctx context.Context, limit int) ([]entity.MatchCandidate, error)
}

type RatingSource interface {
	ByUser(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]int, error)
}

const (
	skillWeight = 0.6
	titleWeight = 0.4
	likedBonus  = 0.5
)

// ProfileMatcher scores vacancies by skill overlap with the user's primary
// resume and by title similarity. Vacancies the user disliked or that pay
// below the resume's minimum are dropped; liked ones get a bonus. The result
// is deterministic for a fixed snapshot.
type ProfileMatcher struct {
	profiles   ProfileSource
	candidates CandidateSource
	ratings    RatingSource
	limit      int
	// isNotFound reports whether a profile lookup error means "no profile".
	isNotFound func(error) bool
}

func NewProfileMatcher(profiles ProfileSource, candidates CandidateSource, ratings RatingSource, limit int, isNotFound func(error) bool) *ProfileMatcher {
	if limit <= 0 {
		limit = 5000
	}
	if isNotFound == nil {
		isNotFound = func(error) bool { return false }
	}
	return &ProfileMatcher{
		profiles:   profiles,
		candidates: candidates,
		ratings:    ratings,
		limit:      limit,
		isNotFound: isNotFound,
	}
}

type scored struct {
	id    uuid.UUID
	score float64
}

func (m *ProfileMatcher) Match(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	profile, err := m.profiles.GetPrimary(ctx, userID)
	if err != nil {
		if m.isNotFound(err) {
			return nil, ErrNoProfile
		}
		return nil, fmt.Errorf("load profile: %w", err)
	}

	candidates, err := m.candidates.MatchCandidates(ctx, m.limit)
	if err != nil {
		return nil, fmt.Errorf("load match candidates: %w", err)
	}

	ratings := map[uuid.UUID]int{}
	if m.ratings != nil {
		if ratings, err = m.ratings.ByUser(ctx, userID); err != nil {
			return nil, fmt.Errorf("load ratings: %w", err)
		}
	}

	return Rank(*profile, candidates, ratings), nil
}

// Rank orders candidates for profile. Ties are broken by id.
func Rank(profile entity.CandidateProfile, candidates []entity.MatchCandidate, ratings map[uuid.UUID]int) []uuid.UUID {
	wanted := make(map[string]struct{}, len(profile.Skills))
	for _, s := range profile.Skills {
		wanted[s] = struct{}{}
	}

	out := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		rating := ratings[c.ID]
		if rating < 0 {
			continue
		}
		if profile.MinSalary != nil && c.MaxSalary != nil && *c.MaxSalary < *profile.MinSalary {
			continue
		}

		score := 0.0
		if len(wanted) > 0 {
			shared := 0
			for _, s := range c.Skills {
				if _, ok := wanted[s]; ok {
					shared++
				}
			}
			score += skillWeight * float64(shared) / float64(len(wanted))
		}
		if profile.Title != "" {
			score += titleWeight * search.Similarity(profile.Title, c.Title)
		}
		if score <= 0 {
			continue
		}
		if rating > 0 {
			score += likedBonus
		}
		out = append(out, scored{id: c.ID, score: score})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return bytes.Compare(out[i].id[:], out[j].id[:]) < 0
	})

	ids := make([]uuid.UUID, len(out))
	for i, s := range out {
		ids[i] = s.id
	}
	return ids
}
