package search

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Filter is the set of optional predicates a vacancy listing can be narrowed
// by. Stores translate it into their own query language; zero values mean
// "no predicate".
type Filter struct {
	Search          string
	MinSalary       *int
	MaxSalary       *int
	Company         string
	PublishedAfter  *time.Time
	PublishedBefore *time.Time
	Skills          []string
	ResumeBased     bool
	Limit           int
	Offset          int
}

// ValidationError lists every rejected field with a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid filter: " + strings.Join(parts, "; ")
}

// FieldError builds a ValidationError for a single field.
func FieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string]string{}
	}
	e.Fields[field] = msg
}

// Normalize trims text predicates, drops empty skills and applies the
// default page size.
func (f *Filter) Normalize() {
	f.Search = strings.TrimSpace(f.Search)
	f.Company = strings.TrimSpace(f.Company)

	skills := f.Skills[:0]
	for _, s := range f.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	f.Skills = skills

	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
}

// Salaries are stored as 32-bit integers.
func checkSalary(ve *ValidationError, field string, v *int) {
	switch {
	case v == nil:
	case *v < 0:
		ve.add(field, "must not be negative")
	case *v > math.MaxInt32:
		ve.add(field, fmt.Sprintf("must not exceed %d", math.MaxInt32))
	}
}

// Validate rejects contradictory or out-of-range predicates. The returned
// error is a *ValidationError.
func (f *Filter) Validate() error {
	var ve ValidationError

	checkSalary(&ve, "min_salary", f.MinSalary)
	checkSalary(&ve, "max_salary", f.MaxSalary)
	if f.MinSalary != nil && f.MaxSalary != nil && *f.MinSalary > *f.MaxSalary {
		ve.add("min_salary", "must not exceed max_salary")
	}
	if f.PublishedAfter != nil && f.PublishedBefore != nil && f.PublishedAfter.After(*f.PublishedBefore) {
		ve.add("published_after", "must not be after published_before")
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		ve.add("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	if f.Offset < 0 {
		ve.add("offset", "must not be negative")
	}

	if len(ve.Fields) > 0 {
		return &ve
	}
	return nil
}
