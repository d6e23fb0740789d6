package extractor

import (
	"math"
	"unicode/utf8"

	"vacancy-pipeline/internal/entity"
)

const maxTitleRunes = 255

// Validate checks the structural invariants of a normalized candidate.
func Validate(c entity.VacancyCandidate) error {
	switch {
	case c.Title == "":
		return newError(KindValidationFailed, "title is empty")
	case utf8.RuneCountInString(c.Title) > maxTitleRunes:
		return newError(KindValidationFailed, "title longer than %d characters", maxTitleRunes)
	case c.MinSalary != nil && *c.MinSalary < 0:
		return newError(KindValidationFailed, "min_salary is negative")
	case c.MaxSalary != nil && *c.MaxSalary < 0:
		return newError(KindValidationFailed, "max_salary is negative")
	case c.MinSalary != nil && *c.MinSalary > math.MaxInt32:
		return newError(KindValidationFailed, "min_salary %d out of range", *c.MinSalary)
	case c.MaxSalary != nil && *c.MaxSalary > math.MaxInt32:
		return newError(KindValidationFailed, "max_salary %d out of range", *c.MaxSalary)
	case c.MinSalary != nil && c.MaxSalary != nil && *c.MinSalary > *c.MaxSalary:
		return newError(KindValidationFailed, "min_salary %d exceeds max_salary %d", *c.MinSalary, *c.MaxSalary)
	case len(c.Skills) == 0 && !c.NoSkills:
		return newError(KindValidationFailed, "no skills extracted")
	}
	return nil
}
