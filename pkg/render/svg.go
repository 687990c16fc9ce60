package render

import (
	"fmt"
	"io"
	"math"
	"sort"

	svg "github.com/ajstarks/svgo"

	"github.com/ritzau/litgraph/pkg/model"
)

const (
	background    = "#000000"
	legendSpacing = 30
	legendRadius  = 8
)

// Scene is everything WriteSVG needs to draw one snapshot
type Scene struct {
	Width       int
	Height      int
	Nodes       []model.Node
	Links       []model.ResolvedLink
	Highlight   Highlight
	Transform   Transform
	Theme       model.ThemeConfig
	Arrangement model.Arrangement
	Appearance  Appearance
}

// errWriter remembers the first write error so drawing code can stay linear
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) Write(p []byte) (int, error) {
	if ew.err != nil {
		return 0, ew.err
	}
	n, err := ew.w.Write(p)
	ew.err = err
	return n, err
}

// WriteSVG draws the scene as a standalone SVG document
func WriteSVG(w io.Writer, scene Scene) error {
	ew := &errWriter{w: w}
	canvas := svg.New(ew)
	canvas.Start(scene.Width, scene.Height, fmt.Sprintf(`viewBox="0 0 %d %d"`, scene.Width, scene.Height))
	canvas.Rect(0, 0, scene.Width, scene.Height, "fill:"+background)

	canvas.Def()
	writeFilters(canvas, scene.Appearance)
	writeGradients(canvas, scene.Theme, scene.Nodes)
	canvas.DefEnd()

	transform := scene.Transform
	if transform.K == 0 {
		transform = Identity
	}
	canvas.Gtransform(transform.String())
	writeLinks(canvas, scene)
	writeNodes(canvas, scene)
	canvas.Gend()

	writeLegend(canvas, scene.Theme, scene.Height)
	canvas.End()

	if ew.err != nil {
		return fmt.Errorf("failed to write svg: %w", ew.err)
	}
	return nil
}

func writeFilters(canvas *svg.SVG, a Appearance) {
	region := `x="-100%" y="-100%" width="300%" height="300%"`

	canvas.Filter(FilterGlow, region)
	canvas.FeGaussianBlur(svg.Filterspec{In: "SourceGraphic", Result: "coloredBlur"}, a.GlowStdDev, a.GlowStdDev)
	canvas.FeMerge([]string{"coloredBlur", "SourceGraphic"})
	canvas.Fend()

	canvas.Filter(FilterGlowIntense, region)
	canvas.FeGaussianBlur(svg.Filterspec{In: "SourceGraphic", Result: "coloredBlur"}, IntenseGlowStdDev, IntenseGlowStdDev)
	canvas.FeColorMatrix(svg.Filterspec{In: "coloredBlur", Result: "intensifiedBlur"}, [20]float64{
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 0, 0,
		0, 0, 0, 2, 0,
	})
	canvas.FeMerge([]string{"intensifiedBlur", "SourceGraphic"})
	canvas.Fend()
}

func writeGradients(canvas *svg.SVG, theme model.ThemeConfig, nodes []model.Node) {
	gradient := func(id string, colors [2]string) {
		canvas.LinearGradient(id, 0, 0, 100, 100, []svg.Offcolor{
			{Offset: 0, Color: colors[0], Opacity: 1},
			{Offset: 100, Color: colors[1], Opacity: 1},
		})
	}

	for _, id := range sortedKeys(theme.Colors) {
		gradient(GradientID(id), theme.Colors[id])
	}
	for _, id := range theme.MissingThemes(nodes) {
		gradient(GradientID(id), model.FallbackColors)
	}
	gradient(GradientID(""), model.FallbackColors)
}

func writeLinks(canvas *svg.SVG, scene Scene) {
	for i, l := range scene.Links {
		style := DefaultLinkStyle(l)
		if i < len(scene.Highlight.Links) {
			style = scene.Highlight.Links[i]
		}
		s, t := scene.Nodes[l.SourceIndex], scene.Nodes[l.TargetIndex]
		canvas.Line(round(s.X), round(s.Y), round(t.X), round(t.Y),
			fmt.Sprintf("stroke:%s;stroke-width:%gpx;opacity:%g", style.Stroke, style.Width, style.Opacity))
	}
}

func writeNodes(canvas *svg.SVG, scene Scene) {
	a := scene.Appearance
	for i := range scene.Nodes {
		n := &scene.Nodes[i]
		style := DefaultNodeStyle(n.ID)
		if i < len(scene.Highlight.Nodes) {
			style = scene.Highlight.Nodes[i]
		}

		x, y := round(n.X), round(n.Y)
		circle := fmt.Sprintf("fill:url(#%s);filter:url(#%s);opacity:%g",
			GradientID(n.PrimaryTheme()), style.Filter, style.Opacity)
		if ms := a.PulseMs(n); ms > 0 {
			circle += fmt.Sprintf(";animation:pulse %dms infinite", ms)
		}
		canvas.Circle(x, y, round(a.NodeRadius), circle)
		canvas.Text(x, y, NodeLabel(n, scene.Arrangement, scene.Theme),
			fmt.Sprintf(`text-anchor:middle;dominant-baseline:central;fill:#fff;font-size:%gpx`, a.FontSize))
	}
}

func writeLegend(canvas *svg.SVG, theme model.ThemeConfig, height int) {
	ids := sortedKeys(theme.Labels)
	top := height - (len(ids)*legendSpacing + 10)

	canvas.Gtransform(fmt.Sprintf("translate(20,%d)", top))
	for i, id := range ids {
		y := i * legendSpacing
		canvas.Circle(0, y, legendRadius, fmt.Sprintf("fill:url(#%s);filter:url(#%s)", GradientID(id), FilterGlow))
		canvas.Text(20, y+5, theme.Label(id), "fill:#fff;font-size:14px")
	}
	canvas.Gend()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round(v float64) int {
	return int(math.Round(v))
}
