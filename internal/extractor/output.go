package extractor

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"vacancy-pipeline/internal/entity"
)

// modelOutput is the JSON object the model is asked to produce.
type modelOutput struct {
	Title       string   `mapstructure:"title" json:"title"`
	Description string   `mapstructure:"description" json:"description"`
	MinSalary   any      `mapstructure:"min_salary" json:"min_salary"`
	MaxSalary   any      `mapstructure:"max_salary" json:"max_salary"`
	Company     string   `mapstructure:"company" json:"company"`
	PublishedAt string   `mapstructure:"published_at" json:"published_at"`
	Skills      []string `mapstructure:"skills" json:"skills"`
	NoSkills    bool     `mapstructure:"no_skills" json:"no_skills"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"02.01.2006",
}

// ParseOutput decodes the model's answer into a candidate. Values are decoded
// leniently: numbers may arrive as strings and single skills as scalars.
func ParseOutput(raw string) (entity.VacancyCandidate, error) {
	payload := extractJSON(raw)

	var generic map[string]any
	if err := json.Unmarshal([]byte(payload), &generic); err != nil {
		return entity.VacancyCandidate{}, newError(KindValidationFailed, "model output is not a JSON object: %w", err)
	}

	var out modelOutput
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return entity.VacancyCandidate{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(generic); err != nil {
		return entity.VacancyCandidate{}, newError(KindValidationFailed, "decode model output: %w", err)
	}

	minSalary, err := coerceSalary(out.MinSalary)
	if err != nil {
		return entity.VacancyCandidate{}, newError(KindValidationFailed, "min_salary: %w", err)
	}
	maxSalary, err := coerceSalary(out.MaxSalary)
	if err != nil {
		return entity.VacancyCandidate{}, newError(KindValidationFailed, "max_salary: %w", err)
	}

	cand := entity.VacancyCandidate{
		Title:       strings.Join(strings.Fields(out.Title), " "),
		Description: strings.TrimSpace(out.Description),
		MinSalary:   minSalary,
		MaxSalary:   maxSalary,
		Company:     strings.Join(strings.Fields(out.Company), " "),
		Skills:      out.Skills,
		NoSkills:    out.NoSkills,
	}
	if published := strings.TrimSpace(out.PublishedAt); published != "" {
		if ts, ok := parseDate(published); ok {
			cand.PublishedAt = &ts
		}
	}
	return cand, nil
}

// extractJSON trims code fences and surrounding prose.
func extractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

func coerceSalary(v any) (*int, error) {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = val
	case int:
		f = float64(val)
	case int64:
		f = float64(val)
	case string:
		cleaned := strings.Map(func(r rune) rune {
			if (r >= '0' && r <= '9') || r == '.' || r == '-' {
				return r
			}
			return -1
		}, val)
		if cleaned == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(cleaned, 64)
		if err != nil {
			return nil, fmt.Errorf("not a number: %q", val)
		}
		f = parsed
	default:
		return nil, fmt.Errorf("unsupported type %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, fmt.Errorf("not a finite number")
	}
	n := int(math.Round(f))
	return &n, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}
