package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/matching"
	"vacancy-pipeline/internal/search"
)

type VacancyStore interface {
	ListIDs(ctx context.Context, f search.Filter, limit, offset int) ([]uuid.UUID, error)
	SubstringMatches(ctx context.Context, f search.Filter) ([]uuid.UUID, error)
	SimilarMatches(ctx context.Context, f search.Filter) ([]search.Scored, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID, viewer uuid.UUID) ([]entity.Vacancy, error)
	GetBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*entity.Vacancy, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) error
}

type RatingStore interface {
	Upsert(ctx context.Context, userID, vacancyID uuid.UUID, rating int) (*entity.VacancyRating, error)
}

type ProfileStore interface {
	SavePrimary(ctx context.Context, p entity.CandidateProfile) error
}

type SkillNormalizer interface {
	Normalize(skills []string) []string
}

// matchForgetter is implemented by matchers that cache per user.
type matchForgetter interface {
	Forget(ctx context.Context, userID uuid.UUID) error
}

// ErrVacancyNotFound is returned when a rated vacancy does not exist.
var ErrVacancyNotFound = errors.New("vacancy not found")

type VacancyService struct {
	store    VacancyStore
	ratings  RatingStore
	profiles ProfileStore
	matcher  matching.Matcher
	skills   SkillNormalizer
	logger   *zap.Logger
}

func NewVacancyService(store VacancyStore, ratings RatingStore, profiles ProfileStore, matcher matching.Matcher, skills SkillNormalizer, logger *zap.Logger) *VacancyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VacancyService{
		store:    store,
		ratings:  ratings,
		profiles: profiles,
		matcher:  matcher,
		skills:   skills,
		logger:   logger,
	}
}

// List runs the hybrid search. Without a query the newest vacancies come
// first; with one, the fuzzy set leads in rank order and substring-only hits
// follow. resume_based keeps only the viewer's matches, in match order.
// viewer may be uuid.Nil for anonymous callers.
func (s *VacancyService) List(ctx context.Context, viewer uuid.UUID, f search.Filter) ([]entity.Vacancy, error) {
	f.Normalize()
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if f.ResumeBased && viewer == uuid.Nil {
		return nil, search.FieldError("resume_based", "requires a signed-in user")
	}

	var (
		ids []uuid.UUID
		err error
	)
	switch {
	case f.Search != "":
		ids, err = s.searchIDs(ctx, f)
	case f.ResumeBased:
		ids, err = s.store.ListIDs(ctx, f, 0, 0)
	default:
		ids, err = s.store.ListIDs(ctx, f, f.Limit, f.Offset)
	}
	if err != nil {
		return nil, err
	}

	if f.ResumeBased {
		order, err := s.matcher.Match(ctx, viewer)
		if errors.Is(err, matching.ErrNoProfile) {
			return nil, search.FieldError("resume_based", "no primary resume to match against")
		}
		if err != nil {
			return nil, fmt.Errorf("match vacancies: %w", err)
		}
		ids = search.Reproject(ids, order)
	}

	if f.Search != "" || f.ResumeBased {
		ids = search.Page(ids, f.Limit, f.Offset)
	}
	return s.store.GetByIDs(ctx, ids, viewer)
}

func (s *VacancyService) searchIDs(ctx context.Context, f search.Filter) ([]uuid.UUID, error) {
	exact, err := s.store.SubstringMatches(ctx, f)
	if err != nil {
		return nil, err
	}
	fuzzy, err := s.store.SimilarMatches(ctx, f)
	if err != nil {
		return nil, err
	}
	return search.Merge(exact, fuzzy), nil
}

func (s *VacancyService) GetBySlug(ctx context.Context, slug string, viewer uuid.UUID) (*entity.Vacancy, error) {
	return s.store.GetBySlug(ctx, slug, viewer)
}

// Rate stores the user's rating of a vacancy, replacing an earlier one.
func (s *VacancyService) Rate(ctx context.Context, userID, vacancyID uuid.UUID, rating int) (*entity.VacancyRating, error) {
	if rating < entity.MinRating || rating > entity.MaxRating {
		return nil, search.FieldError("rating", fmt.Sprintf("must be between %d and %d", entity.MinRating, entity.MaxRating))
	}
	ok, err := s.store.Exists(ctx, vacancyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrVacancyNotFound
	}

	out, err := s.ratings.Upsert(ctx, userID, vacancyID, rating)
	if err != nil {
		return nil, err
	}
	s.forgetMatches(ctx, userID)
	return out, nil
}

// SaveProfile replaces the user's primary resume used for matching.
func (s *VacancyService) SaveProfile(ctx context.Context, p entity.CandidateProfile) error {
	if p.Title == "" && len(p.Skills) == 0 {
		return search.FieldError("title", "a title or at least one skill is required")
	}
	if p.MinSalary != nil && *p.MinSalary < 0 {
		return search.FieldError("min_salary", "must not be negative")
	}
	if p.MinSalary != nil && *p.MinSalary > math.MaxInt32 {
		return search.FieldError("min_salary", fmt.Sprintf("must not exceed %d", math.MaxInt32))
	}
	if s.skills != nil {
		p.Skills = s.skills.Normalize(p.Skills)
	}
	if err := s.profiles.SavePrimary(ctx, p); err != nil {
		return err
	}
	s.forgetMatches(ctx, p.UserID)
	return nil
}

func (s *VacancyService) Approve(ctx context.Context, id uuid.UUID, approved bool) error {
	return s.store.SetApproved(ctx, id, approved)
}

func (s *VacancyService) forgetMatches(ctx context.Context, userID uuid.UUID) {
	f, ok := s.matcher.(matchForgetter)
	if !ok {
		return
	}
	if err := f.Forget(ctx, userID); err != nil {
		s.logger.Warn("drop cached matches failed", zap.String("user_id", userID.String()), zap.Error(err))
	}
}
