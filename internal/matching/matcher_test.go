package matching

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"vacancy-pipeline/internal/entity"
)

var errMissing = errors.New("missing")

type fakeProfiles struct {
	profile *entity.CandidateProfile
}

func (f fakeProfiles) GetPrimary(context.Context, uuid.UUID) (*entity.CandidateProfile, error) {
	if f.profile == nil {
		return nil, errMissing
	}
	return f.profile, nil
}

type fakeCandidates []entity.MatchCandidate

func (f fakeCandidates) MatchCandidates(context.Context, int) ([]entity.MatchCandidate, error) {
	return f, nil
}

type fakeRatings map[uuid.UUID]int

func (f fakeRatings) ByUser(context.Context, uuid.UUID) (map[uuid.UUID]int, error) { return f, nil }

func intPtr(v int) *int { return &v }

func TestRank_OrdersBySkillsAndTitle(t *testing.T) {
	goDev := entity.MatchCandidate{ID: uuid.New(), Title: "Go Developer", Skills: []string{"go", "postgresql"}}
	goPart := entity.MatchCandidate{ID: uuid.New(), Title: "Backend Developer", Skills: []string{"go"}}
	unrelated := entity.MatchCandidate{ID: uuid.New(), Title: "Chef", Skills: []string{"cooking"}}

	profile := entity.CandidateProfile{Title: "Go Developer", Skills: []string{"go", "postgresql"}}
	got := Rank(profile, []entity.MatchCandidate{unrelated, goPart, goDev}, nil)

	want := []uuid.UUID{goDev.ID, goPart.ID}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rank = %v, want %v", got, want)
	}
}

func TestRank_RatingsAndSalary(t *testing.T) {
	liked := entity.MatchCandidate{ID: uuid.New(), Title: "Support", Skills: []string{"go"}}
	best := entity.MatchCandidate{ID: uuid.New(), Title: "Go Developer", Skills: []string{"go"}}
	disliked := entity.MatchCandidate{ID: uuid.New(), Title: "Go Developer", Skills: []string{"go"}}
	underpaid := entity.MatchCandidate{ID: uuid.New(), Title: "Go Developer", Skills: []string{"go"}, MaxSalary: intPtr(100)}

	profile := entity.CandidateProfile{Title: "Go Developer", Skills: []string{"go"}, MinSalary: intPtr(1000)}
	ratings := map[uuid.UUID]int{liked.ID: 1, disliked.ID: -1}

	got := Rank(profile, []entity.MatchCandidate{best, disliked, underpaid, liked}, ratings)
	want := []uuid.UUID{liked.ID, best.ID}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Rank = %v, want %v", got, want)
	}
}

func TestRank_Deterministic(t *testing.T) {
	a := entity.MatchCandidate{ID: uuid.MustParse("00000000-0000-4000-8000-000000000002"), Title: "Dev", Skills: []string{"go"}}
	b := entity.MatchCandidate{ID: uuid.MustParse("00000000-0000-4000-8000-000000000001"), Title: "Dev", Skills: []string{"go"}}
	profile := entity.CandidateProfile{Skills: []string{"go"}}

	first := Rank(profile, []entity.MatchCandidate{a, b}, nil)
	second := Rank(profile, []entity.MatchCandidate{b, a}, nil)
	if !reflect.DeepEqual(first, second) || first[0] != b.ID {
		t.Fatalf("ties must break by id: %v vs %v", first, second)
	}
}

func TestProfileMatcher_NoProfile(t *testing.T) {
	m := NewProfileMatcher(fakeProfiles{}, fakeCandidates{}, nil, 10, func(err error) bool {
		return errors.Is(err, errMissing)
	})
	if _, err := m.Match(context.Background(), uuid.New()); !errors.Is(err, ErrNoProfile) {
		t.Fatalf("expected ErrNoProfile, got %v", err)
	}
}

func TestProfileMatcher_Match(t *testing.T) {
	v := entity.MatchCandidate{ID: uuid.New(), Title: "Go Developer", Skills: []string{"go"}}
	m := NewProfileMatcher(
		fakeProfiles{profile: &entity.CandidateProfile{Title: "Go Developer", Skills: []string{"go"}}},
		fakeCandidates{v},
		fakeRatings{},
		10,
		nil,
	)
	got, err := m.Match(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("Match: %v", err)
	}
	if len(got) != 1 || got[0] != v.ID {
		t.Fatalf("Match = %v", got)
	}
}
