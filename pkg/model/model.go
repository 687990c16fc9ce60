package model

import (
	"math"
	"strings"
)

// Summaries holds the short and long description of a work
type Summaries struct {
	Minimal  string `json:"minimal"`
	Detailed string `json:"detailed"`
}

// Contexts holds the contextual notes shown for each focus
type Contexts struct {
	Historical string `json:"historical"`
	Literary   string `json:"literary"`
	Thematic   string `json:"thematic"`
}

// Resource is an external link attached to a work
type Resource struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Animation configures the pulse of a node in the animated style
type Animation struct {
	Duration int `json:"duration"` // milliseconds
}

// Node represents a literary work in the graph.
//
// X, Y, VX and VY are owned by the simulation and the constraint layer.
// FX and FY form the fixed-position override: when both are set the node is
// pinned and forces do not move it.
type Node struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	Year      int        `json:"year"`
	Period    string     `json:"period"`
	Themes    []string   `json:"themes"` // first entry is the primary theme
	Summaries Summaries  `json:"summaries"`
	Contexts  Contexts   `json:"contexts"`
	Resources []Resource `json:"resources,omitempty"`
	Animation *Animation `json:"animation,omitempty"`

	X  float64  `json:"x"`
	Y  float64  `json:"y"`
	VX float64  `json:"vx"`
	VY float64  `json:"vy"`
	FX *float64 `json:"fx,omitempty"`
	FY *float64 `json:"fy,omitempty"`
}

// PrimaryTheme returns the first theme of the node, or "" if it has none
func (n *Node) PrimaryTheme() string {
	if len(n.Themes) == 0 {
		return ""
	}
	return n.Themes[0]
}

// ShortTitle returns the first word of the title
func (n *Node) ShortTitle() string {
	fields := strings.Fields(n.Title)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// Fixed reports whether the node has a fixed-position override
func (n *Node) Fixed() bool {
	return n.FX != nil && n.FY != nil
}

// Fix pins the node at (x, y)
func (n *Node) Fix(x, y float64) {
	n.FX = &x
	n.FY = &y
}

// Release clears the fixed-position override
func (n *Node) Release() {
	n.FX = nil
	n.FY = nil
}

// HasPosition reports whether the node carries finite, non-origin coordinates.
// Nodes decoded from the data contract start at the origin and are placed by
// the simulation.
func (n *Node) HasPosition() bool {
	if math.IsNaN(n.X) || math.IsNaN(n.Y) || math.IsInf(n.X, 0) || math.IsInf(n.Y, 0) {
		return false
	}
	return n.X != 0 || n.Y != 0
}

// Link connects two works. Source and Target are node ids.
type Link struct {
	Source      string `json:"source"`
	Target      string `json:"target"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// GraphData is the upstream data contract: {nodes, links}
type GraphData struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// ThemeConfig maps theme ids to gradient colors and display labels
type ThemeConfig struct {
	Colors map[string][2]string `json:"colors"`
	Labels map[string]string    `json:"labels"`
}

// FallbackColors is used for themes without a configured gradient
var FallbackColors = [2]string{"#ffffff", "#9e9e9e"}

// Color returns the gradient stops of a theme, falling back to FallbackColors
func (t ThemeConfig) Color(theme string) [2]string {
	if c, ok := t.Colors[theme]; ok {
		return c
	}
	return FallbackColors
}

// Label returns the display label of a theme, falling back to the theme id
func (t ThemeConfig) Label(theme string) string {
	if l, ok := t.Labels[theme]; ok && l != "" {
		return l
	}
	return theme
}

// LabelsFor returns the display labels for a list of themes, in order
func (t ThemeConfig) LabelsFor(themes []string) []string {
	labels := make([]string, 0, len(themes))
	for _, theme := range themes {
		labels = append(labels, t.Label(theme))
	}
	return labels
}

// MissingThemes returns theme ids referenced by nodes but absent from the
// color configuration, in first-seen order
func (t ThemeConfig) MissingThemes(nodes []Node) []string {
	seen := make(map[string]bool)
	var missing []string
	for _, n := range nodes {
		for _, theme := range n.Themes {
			if seen[theme] {
				continue
			}
			seen[theme] = true
			if _, ok := t.Colors[theme]; !ok {
				missing = append(missing, theme)
			}
		}
	}
	return missing
}
