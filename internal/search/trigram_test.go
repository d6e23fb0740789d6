package search_test

import (
	"math"
	"testing"

	"vacancy-pipeline/internal/search"
)

func TestTrigrams_PaddedWords(t *testing.T) {
	got := search.Trigrams("Go!")
	want := []string{"  g", " go", "go "}
	if len(got) != len(want) {
		t.Fatalf("expected %d trigrams, got %d: %#v", len(want), len(got), got)
	}
	for _, tg := range want {
		if _, ok := got[tg]; !ok {
			t.Errorf("missing trigram %q", tg)
		}
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	if got := search.Similarity("Senior Engineer", "senior engineer"); got != 1 {
		t.Fatalf("identical titles (case-insensitive) must score 1, got %v", got)
	}
	if got := search.Similarity("abc", "xyz"); got != 0 {
		t.Fatalf("disjoint titles must score 0, got %v", got)
	}
	if got := search.Similarity("", "anything"); got != 0 {
		t.Fatalf("empty title must score 0, got %v", got)
	}
}

func TestSimilarity_Misspelling(t *testing.T) {
	// 14 shared trigrams out of a 17 trigram union.
	got := search.Similarity("Senior Engineer", "senior enginer")
	if math.Abs(got-14.0/17.0) > 1e-9 {
		t.Fatalf("expected %v, got %v", 14.0/17.0, got)
	}
	if got <= search.SimilarityThreshold {
		t.Fatalf("misspelled query should clear the threshold, got %v", got)
	}
}

func TestSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"Backend Developer", "backend dev"},
		{"Data Scientist", "scientist data"},
		{"QA", "Quality Assurance"},
	}
	for _, p := range pairs {
		if a, b := search.Similarity(p[0], p[1]), search.Similarity(p[1], p[0]); a != b {
			t.Errorf("Similarity(%q,%q)=%v but reversed=%v", p[0], p[1], a, b)
		}
	}
}
