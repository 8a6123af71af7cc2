// internal/domain/models/section.go
package models

import (
	"fmt"
	"strings"
)

// DefaultSiteName is used when no site name is configured.
const DefaultSiteName = "Indicadores Internos"

// Section is one dashboard tab backed by one spreadsheet tab.
type Section struct {
	Slug  string `json:"slug"`
	Title string `json:"title"`
	Tab   string `json:"tab"`
}

// DefaultSections are the four tabs of the indicators workbook.
var DefaultSections = []Section{
	{Slug: "alcance", Title: "Alcance", Tab: "Alcance"},
	{Slug: "uso", Title: "Uso y Participación", Tab: "Uso y Participación"},
	{Slug: "retroalimentacion", Title: "Retroalimentación", Tab: "Retroalimentación"},
	{Slug: "valor-publico", Title: "Valor Público / Ahorro", Tab: "Valor Público"},
}

// ParseSections parses a section list of the form
// "slug=Tab Name|Title;slug2=Tab" where the title is optional.
// An empty value yields DefaultSections.
func ParseSections(raw string) ([]Section, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]Section(nil), DefaultSections...), nil
	}

	var out []Section
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		slug, rest, ok := strings.Cut(part, "=")
		slug = strings.TrimSpace(slug)
		if !ok || slug == "" {
			return nil, fmt.Errorf("section %q: expected slug=Tab", part)
		}
		tab, title, _ := strings.Cut(rest, "|")
		tab = strings.TrimSpace(tab)
		title = strings.TrimSpace(title)
		if tab == "" {
			return nil, fmt.Errorf("section %q: empty tab name", slug)
		}
		if title == "" {
			title = tab
		}
		if seen[slug] {
			return nil, fmt.Errorf("section %q: duplicate slug", slug)
		}
		seen[slug] = true
		out = append(out, Section{Slug: slug, Title: title, Tab: tab})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sections configured")
	}
	return out, nil
}

// FindSection returns the section with the given slug.
func FindSection(sections []Section, slug string) (Section, bool) {
	for _, s := range sections {
		if s.Slug == slug {
			return s, true
		}
	}
	return Section{}, false
}
