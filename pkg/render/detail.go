package render

import (
	"strconv"
	"strings"

	"github.com/ritzau/litgraph/pkg/model"
)

// Panel headings
const (
	HeadingAuthor      = "Автор"
	HeadingYear        = "Година"
	HeadingPeriod      = "Период"
	HeadingThemes      = "Теми"
	HeadingDescription = "Описание"
	HeadingResources   = "Ресурси"

	HeadingHistorical = "Исторически контекст"
	HeadingLiterary   = "Литературен контекст"
	HeadingThematic   = "Тематичен контекст"
)

// Section is one headed paragraph of the detail panel
type Section struct {
	Heading string `json:"heading"`
	Text    string `json:"text"`
}

// Detail is the content shown for the selected node. Empty fields are left
// out of Sections instead of failing the panel.
type Detail struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	Author         string           `json:"author,omitempty"`
	Year           int              `json:"year,omitempty"`
	Period         string           `json:"period,omitempty"`
	Themes         []string         `json:"themes,omitempty"`
	Description    string           `json:"description,omitempty"`
	ContextHeading string           `json:"contextHeading,omitempty"`
	Context        string           `json:"context,omitempty"`
	Resources      []model.Resource `json:"resources,omitempty"`
	Sections       []Section        `json:"sections"`
}

// NewDetail builds the panel payload of n for the given preferences
func NewDetail(n *model.Node, prefs model.Preferences, theme model.ThemeConfig) Detail {
	d := Detail{
		ID:     n.ID,
		Title:  n.Title,
		Author: n.Author,
		Year:   n.Year,
		Period: n.Period,
		Themes: theme.LabelsFor(n.Themes),
	}
	if d.Title == "" {
		d.Title = n.ID
	}

	if prefs.Style == model.StyleMinimal {
		d.Description = n.Summaries.Minimal
	} else {
		d.Description = n.Summaries.Detailed
	}

	d.ContextHeading, d.Context = contextFor(n, prefs.Focus)

	for _, r := range n.Resources {
		if r.URL == "" {
			continue
		}
		if r.Title == "" {
			r.Title = r.URL
		}
		d.Resources = append(d.Resources, r)
	}

	d.Sections = d.sections()
	return d
}

func contextFor(n *model.Node, focus model.Focus) (string, string) {
	switch focus {
	case model.FocusHistorical:
		return HeadingHistorical, n.Contexts.Historical
	case model.FocusLiterary:
		return HeadingLiterary, n.Contexts.Literary
	default:
		return HeadingThematic, n.Contexts.Thematic
	}
}

func (d Detail) sections() []Section {
	var year string
	if d.Year != 0 {
		year = strconv.Itoa(d.Year)
	}

	candidates := []Section{
		{HeadingAuthor, d.Author},
		{HeadingYear, year},
		{HeadingPeriod, d.Period},
		{HeadingThemes, strings.Join(d.Themes, ", ")},
		{HeadingDescription, d.Description},
		{d.ContextHeading, d.Context},
	}

	sections := make([]Section, 0, len(candidates))
	for _, s := range candidates {
		if strings.TrimSpace(s.Text) != "" {
			sections = append(sections, s)
		}
	}
	return sections
}
