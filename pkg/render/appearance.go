// Package render maps layout and interaction state to what the browser or the
// SVG writer draws: frames, highlight styles, node appearance and the detail
// panel payload.
package render

import (
	"strconv"

	"github.com/ritzau/litgraph/pkg/model"
)

// DefaultPulseMs is the pulse period of an animated node without its own
// animation settings
const DefaultPulseMs = 2000

// IntenseGlowStdDev is the blur of the selected node's filter
const IntenseGlowStdDev = 12.0

// Appearance holds the style-dependent drawing parameters
type Appearance struct {
	NodeRadius float64 `json:"nodeRadius"`
	FontSize   float64 `json:"fontSize"`
	GlowStdDev float64 `json:"glowStdDev"`
	Animated   bool    `json:"animated"`
}

// AppearanceFor returns the drawing parameters of a style
func AppearanceFor(style model.Style) Appearance {
	switch style {
	case model.StyleMinimal:
		return Appearance{NodeRadius: 35, FontSize: 12, GlowStdDev: 4}
	case model.StyleAnimated:
		return Appearance{NodeRadius: 45, FontSize: 14, GlowStdDev: 6, Animated: true}
	default:
		return Appearance{NodeRadius: 45, FontSize: 14, GlowStdDev: 6}
	}
}

// PulseMs returns the pulse period of a node in milliseconds, or 0 when the
// appearance is not animated
func (a Appearance) PulseMs(n *model.Node) int {
	if !a.Animated {
		return 0
	}
	if n.Animation != nil && n.Animation.Duration > 0 {
		return n.Animation.Duration
	}
	return DefaultPulseMs
}

// NodeLabel returns the text drawn inside a node for an arrangement:
// the year, the primary theme label or the first word of the title
func NodeLabel(n *model.Node, arrangement model.Arrangement, theme model.ThemeConfig) string {
	switch arrangement {
	case model.ArrangementChronological:
		return strconv.Itoa(n.Year)
	case model.ArrangementThematic:
		return theme.Label(n.PrimaryTheme())
	default:
		return n.ShortTitle()
	}
}

// GradientID returns the id of the gradient a node with the given primary
// theme is filled with
func GradientID(theme string) string {
	if theme == "" {
		return "glow-fallback"
	}
	return "glow-" + theme
}
