package extractor

import (
	"encoding/json"
	"fmt"
	"strings"

	"vacancy-pipeline/internal/entity"
	"vacancy-pipeline/internal/model"
)

// DefaultInstructions is used when an artifact carries none.
const DefaultInstructions = `You convert a scraped job posting into a single JSON object with the keys:
title (string), description (string, plain text), min_salary (integer or null),
max_salary (integer or null), company (string or empty), published_at
(YYYY-MM-DD or null), skills (array of short technology or skill names),
no_skills (true only when the posting names no skills at all).
Use only facts from the posting. If the page is not a job posting, return an
empty title.`

// BuildPrompt renders the instructions, the artifact demos and the posting.
func BuildPrompt(a *model.Artifact, doc Document) string {
	instructions := DefaultInstructions
	var demos []model.Demo
	if a != nil {
		if strings.TrimSpace(a.Instructions) != "" {
			instructions = a.Instructions
		}
		demos = a.Demos
	}

	var b strings.Builder
	b.WriteString(strings.TrimSpace(instructions))
	b.WriteString("\n\n")

	for i, demo := range demos {
		fmt.Fprintf(&b, "--- Example %d ---\nPosting:\n%s\n\nVacancy JSON:\n%s\n\n",
			i+1, strings.TrimSpace(demo.Input), demoJSON(demo.Output))
	}

	b.WriteString("--- Posting ---\n")
	if doc.Title != "" {
		fmt.Fprintf(&b, "Page title: %s\n", doc.Title)
	}
	b.WriteString(doc.Text)
	b.WriteString("\n\nVacancy JSON:\n")
	return b.String()
}

func demoJSON(c entity.VacancyCandidate) string {
	out := modelOutput{
		Title:       c.Title,
		Description: c.Description,
		Company:     c.Company,
		Skills:      c.Skills,
		NoSkills:    c.NoSkills,
	}
	if c.MinSalary != nil {
		out.MinSalary = *c.MinSalary
	}
	if c.MaxSalary != nil {
		out.MaxSalary = *c.MaxSalary
	}
	if c.PublishedAt != nil {
		out.PublishedAt = c.PublishedAt.Format("2006-01-02")
	}
	if out.Skills == nil {
		out.Skills = []string{}
	}
	data, err := json.Marshal(out)
	if err != nil {
		return "{}"
	}
	return string(data)
}
