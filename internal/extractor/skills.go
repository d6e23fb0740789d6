package extractor

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// SkillNormalizer maps free-form skill mentions onto canonical names.
type SkillNormalizer struct {
	aliases map[string]string
}

type aliasFile struct {
	Aliases map[string][]string `yaml:"aliases"`
}

// NewSkillNormalizer builds a normalizer from canonical name -> aliases.
func NewSkillNormalizer(aliases map[string][]string) *SkillNormalizer {
	n := &SkillNormalizer{aliases: make(map[string]string)}
	for canonical, list := range aliases {
		name := normalizeSkill(canonical)
		if name == "" {
			continue
		}
		n.aliases[name] = name
		for _, alias := range list {
			if key := normalizeSkill(alias); key != "" {
				n.aliases[key] = name
			}
		}
	}
	return n
}

// LoadSkillNormalizer reads an aliases YAML file. An empty path yields a
// normalizer that only cleans up case and whitespace.
func LoadSkillNormalizer(path string) (*SkillNormalizer, error) {
	if strings.TrimSpace(path) == "" {
		return NewSkillNormalizer(nil), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read skill aliases: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse skill aliases %s: %w", path, err)
	}
	return NewSkillNormalizer(f.Aliases), nil
}

// Normalize returns the canonical, deduplicated and sorted skill list.
func (n *SkillNormalizer) Normalize(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, raw := range skills {
		name := normalizeSkill(raw)
		if name == "" {
			continue
		}
		if n != nil {
			if canonical, ok := n.aliases[name]; ok {
				name = canonical
			}
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func normalizeSkill(s string) string {
	s = strings.Trim(strings.TrimSpace(s), ".,;:")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
