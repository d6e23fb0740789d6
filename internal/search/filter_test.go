package search_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"vacancy-pipeline/internal/search"
)

func intPtr(v int) *int { return &v }

func TestFilter_NormalizeDefaults(t *testing.T) {
	f := search.Filter{Search: "  go  ", Skills: []string{" Go ", "", "  "}}
	f.Normalize()

	if f.Search != "go" {
		t.Fatalf("expected trimmed search, got %q", f.Search)
	}
	if len(f.Skills) != 1 || f.Skills[0] != "Go" {
		t.Fatalf("expected one trimmed skill, got %#v", f.Skills)
	}
	if f.Limit != search.DefaultLimit {
		t.Fatalf("expected default limit, got %d", f.Limit)
	}
	if err := f.Validate(); err != nil {
		t.Fatalf("expected valid filter, got %v", err)
	}
}

func TestFilter_ValidateFieldErrors(t *testing.T) {
	after := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	before := after.Add(-24 * time.Hour)

	f := search.Filter{
		MinSalary:       intPtr(5000),
		MaxSalary:       intPtr(1000),
		PublishedAfter:  &after,
		PublishedBefore: &before,
		Limit:           search.MaxLimit + 1,
		Offset:          -1,
	}

	err := f.Validate()
	var ve *search.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T %v", err, err)
	}
	for _, field := range []string{"min_salary", "published_after", "limit", "offset"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("expected error on %q, got %#v", field, ve.Fields)
		}
	}
}

func TestFilter_NegativeSalary(t *testing.T) {
	f := search.Filter{MaxSalary: intPtr(-1), Limit: 10}
	err := f.Validate()
	var ve *search.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, ok := ve.Fields["max_salary"]; !ok {
		t.Fatalf("expected max_salary error, got %#v", ve.Fields)
	}
}

func TestFilter_SalaryAboveStorageRange(t *testing.T) {
	f := search.Filter{MinSalary: intPtr(math.MaxInt32 + 1), MaxSalary: intPtr(5_000_000_000), Limit: 10}
	err := f.Validate()
	var ve *search.ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"min_salary", "max_salary"} {
		if _, ok := ve.Fields[field]; !ok {
			t.Errorf("expected error on %q, got %#v", field, ve.Fields)
		}
	}

	f = search.Filter{MinSalary: intPtr(math.MaxInt32), Limit: 10}
	if err := f.Validate(); err != nil {
		t.Fatalf("the largest stored salary must be accepted, got %v", err)
	}
}
