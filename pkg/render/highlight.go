package render

import (
	"github.com/ritzau/litgraph/pkg/model"
)

// Tier is the emphasis level of a node or link
type Tier int

const (
	TierDefault Tier = iota
	TierSelected
	TierConnected
	TierUnconnected
)

func (t Tier) String() string {
	switch t {
	case TierSelected:
		return "selected"
	case TierConnected:
		return "connected"
	case TierUnconnected:
		return "unconnected"
	default:
		return "default"
	}
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Filter ids shared by the SVG writer and the browser page
const (
	FilterGlow        = "glow"
	FilterGlowIntense = "glow-intense"
)

// Default and tiered visual attributes
const (
	DefaultLinkStroke  = "rgba(255, 255, 255, 0.5)"
	DefaultLinkWidth   = 3.0
	DefaultLinkOpacity = 0.5
	DefaultNodeOpacity = 1.0

	SelectedNodeOpacity    = 1.0
	ConnectedNodeOpacity   = 0.9
	UnconnectedNodeOpacity = 0.7

	ConnectedLinkWidth     = 4.0
	ConnectedLinkOpacity   = 1.0
	UnconnectedLinkOpacity = 0.25
)

// NodeStyle is the rendering state of one node
type NodeStyle struct {
	ID      string  `json:"id"`
	Tier    Tier    `json:"tier"`
	Filter  string  `json:"filter"`
	Opacity float64 `json:"opacity"`
}

// LinkStyle is the rendering state of one resolved link
type LinkStyle struct {
	Source  string  `json:"source"`
	Target  string  `json:"target"`
	Tier    Tier    `json:"tier"`
	Stroke  string  `json:"stroke"`
	Width   float64 `json:"width"`
	Opacity float64 `json:"opacity"`
}

// Highlight is the visual emphasis of every element for one selection state
type Highlight struct {
	Selected string      `json:"selected,omitempty"`
	Nodes    []NodeStyle `json:"nodes"`
	Links    []LinkStyle `json:"links"`
}

// DefaultNodeStyle is the style of a node when nothing is selected
func DefaultNodeStyle(id string) NodeStyle {
	return NodeStyle{ID: id, Tier: TierDefault, Filter: FilterGlow, Opacity: DefaultNodeOpacity}
}

// DefaultLinkStyle is the style of a link when nothing is selected
func DefaultLinkStyle(l model.ResolvedLink) LinkStyle {
	return LinkStyle{
		Source:  l.Source,
		Target:  l.Target,
		Tier:    TierDefault,
		Stroke:  DefaultLinkStroke,
		Width:   DefaultLinkWidth,
		Opacity: DefaultLinkOpacity,
	}
}

// DefaultHighlight returns every element in its default style
func DefaultHighlight(nodes []model.Node, links []model.ResolvedLink) Highlight {
	h := Highlight{
		Nodes: make([]NodeStyle, len(nodes)),
		Links: make([]LinkStyle, len(links)),
	}
	for i := range nodes {
		h.Nodes[i] = DefaultNodeStyle(nodes[i].ID)
	}
	for i, l := range links {
		h.Links[i] = DefaultLinkStyle(l)
	}
	return h
}

// SelectHighlight starts from the defaults and applies the selected,
// connected and unconnected tiers around the node at index selected.
// linked reports whether two node indices share a link.
func SelectHighlight(nodes []model.Node, links []model.ResolvedLink, selected int, linked func(i, j int) bool, theme model.ThemeConfig) Highlight {
	h := DefaultHighlight(nodes, links)
	if selected < 0 || selected >= len(nodes) {
		return h
	}
	h.Selected = nodes[selected].ID

	for i := range h.Nodes {
		style := &h.Nodes[i]
		switch {
		case i == selected:
			style.Tier = TierSelected
			style.Filter = FilterGlowIntense
			style.Opacity = SelectedNodeOpacity
		case linked(selected, i):
			style.Tier = TierConnected
			style.Opacity = ConnectedNodeOpacity
		default:
			style.Tier = TierUnconnected
			style.Opacity = UnconnectedNodeOpacity
		}
	}

	stroke := theme.Color(nodes[selected].PrimaryTheme())[0]
	for i, l := range links {
		style := &h.Links[i]
		if l.SourceIndex == selected || l.TargetIndex == selected {
			style.Tier = TierConnected
			style.Stroke = stroke
			style.Width = ConnectedLinkWidth
			style.Opacity = ConnectedLinkOpacity
		} else {
			style.Tier = TierUnconnected
			style.Opacity = UnconnectedLinkOpacity
		}
	}

	return h
}

// SelectedCount returns the number of nodes in the selected tier
func (h Highlight) SelectedCount() int {
	count := 0
	for _, n := range h.Nodes {
		if n.Tier == TierSelected {
			count++
		}
	}
	return count
}
