package postgresql

import (
	"strconv"
	"strings"

	"vacancy-pipeline/internal/search"
)

const vacancyFrom = `FROM vacancies v LEFT JOIN companies c ON c.id = v.company_id`

// vacancyQuery translates a search.Filter into SQL predicates with
// positional arguments.
type vacancyQuery struct {
	where []string
	args  []any
}

func newVacancyQuery(f search.Filter) *vacancyQuery {
	q := &vacancyQuery{}

	if f.MinSalary != nil {
		q.add("v.min_salary >= " + q.arg(*f.MinSalary))
	}
	if f.MaxSalary != nil {
		q.add("v.max_salary <= " + q.arg(*f.MaxSalary))
	}
	if f.Company != "" {
		q.add("c.name ILIKE '%' || " + q.arg(escapeLike(f.Company)) + " || '%'")
	}
	if f.PublishedAfter != nil {
		q.add("v.published_at >= " + q.arg(*f.PublishedAfter))
	}
	if f.PublishedBefore != nil {
		q.add("v.published_at <= " + q.arg(*f.PublishedBefore))
	}
	for _, skill := range f.Skills {
		q.add(`EXISTS (SELECT 1 FROM vacancy_skills vs JOIN skills s ON s.id = vs.skill_id
  WHERE vs.vacancy_id = v.id AND lower(s.name) = lower(` + q.arg(skill) + `))`)
	}
	return q
}

func (q *vacancyQuery) arg(v any) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func (q *vacancyQuery) add(cond string) {
	q.where = append(q.where, cond)
}

func (q *vacancyQuery) whereSQL() string {
	if len(q.where) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(q.where, "\n  AND ")
}

// listSQL selects matching ids newest first. limit <= 0 means no limit.
func (q *vacancyQuery) listSQL(limit, offset int) string {
	var b strings.Builder
	b.WriteString("SELECT v.id " + vacancyFrom + "\n")
	if w := q.whereSQL(); w != "" {
		b.WriteString(w + "\n")
	}
	b.WriteString("ORDER BY v.published_at DESC, v.id")
	if limit > 0 {
		b.WriteString(" LIMIT " + q.arg(limit))
		if offset > 0 {
			b.WriteString(" OFFSET " + q.arg(offset))
		}
	}
	return b.String()
}

// substringSQL selects vacancies whose title contains text, ignoring case.
func (q *vacancyQuery) substringSQL(text string) string {
	q.add("v.title ILIKE '%' || " + q.arg(escapeLike(text)) + " || '%'")
	return "SELECT v.id " + vacancyFrom + "\n" + q.whereSQL() + "\nORDER BY v.published_at DESC, v.id"
}

// similarSQL selects vacancies whose title is trigram-similar to text above
// the threshold, with similarity and full-text rank.
func (q *vacancyQuery) similarSQL(text string, threshold float64) string {
	t := q.arg(text)
	q.add("similarity(v.title, " + t + ") > " + q.arg(threshold))
	return "SELECT v.id, similarity(v.title, " + t + ")::float8 AS sim, " +
		"ts_rank(v.search_vector, plainto_tsquery('simple', " + t + "))::float8 AS rank " +
		vacancyFrom + "\n" + q.whereSQL() + "\nORDER BY sim DESC, rank DESC, v.id"
}
