package catalog

import (
	"sort"
	"strings"

	"github.com/saqr-syn/portfolio-backend/models"
)

// Criteria narrows a loaded set of projects. Zero values disable a predicate.
type Criteria struct {
	Tag  string
	Text string
}

// Filter keeps items that carry Tag exactly and whose name, short summary or any tag
// contains Text case-insensitively. Input order is preserved.
func Filter(items []*models.Project, crit Criteria) []*models.Project {
	text := strings.ToLower(strings.TrimSpace(crit.Text))

	out := make([]*models.Project, 0, len(items))
	for _, p := range items {
		if crit.Tag != "" && !hasTag(p, crit.Tag) {
			continue
		}
		if text != "" && !matchesText(p, text) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func hasTag(p *models.Project, tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

func matchesText(p *models.Project, lowered string) bool {
	if strings.Contains(strings.ToLower(p.Name), lowered) || strings.Contains(strings.ToLower(p.Short), lowered) {
		return true
	}
	for _, t := range p.Tags {
		if strings.Contains(strings.ToLower(t), lowered) {
			return true
		}
	}
	return false
}

// Tags returns the distinct tags of items in lexicographic order.
func Tags(items []*models.Project) []string {
	seen := make(map[string]struct{})
	for _, p := range items {
		for _, t := range p.Tags {
			seen[t] = struct{}{}
		}
	}

	tags := make([]string, 0, len(seen))
	for t := range seen {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}
