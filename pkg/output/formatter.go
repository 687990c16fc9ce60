package output

import (
	"fmt"
	"io"
	"slices"

	"github.com/fatih/color"

	"github.com/ritzau/litgraph/pkg/catalog"
	"github.com/ritzau/litgraph/pkg/model"
	"github.com/ritzau/litgraph/pkg/render"
	"github.com/ritzau/litgraph/pkg/simulation"
)

// Color definitions
var (
	bold   = color.New(color.Bold)
	red    = color.New(color.FgRed)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
)

// PrintCatalogReport prints the catalog contents and the problems Check found
func PrintCatalogReport(w io.Writer, paths catalog.Paths, c *catalog.Catalog, issues []error) {
	bold.Fprintln(w, "Literary Graph - Catalog")
	bold.Fprintln(w, "========================")
	fmt.Fprintf(w, "Data:   %s\n", paths.Data)
	fmt.Fprintf(w, "Themes: %s\n", paths.Theme)
	fmt.Fprintf(w, "Works: %d, authors: %d, periods: %d, connections: %d, themes: %d\n",
		len(c.Data.Works), len(c.Data.Authors), len(c.Data.Periods), len(c.Data.Connections), len(c.Theme.Colors))
	fmt.Fprintln(w)

	if len(issues) == 0 {
		green.Fprintln(w, "✓ No catalog issues")
		fmt.Fprintln(w)
		return
	}

	red.Fprintf(w, "CATALOG ISSUES (%d):\n", len(issues))
	for _, issue := range issues {
		yellow.Fprintf(w, "  %v\n", issue)
	}
	fmt.Fprintln(w)
}

// PrintLayoutReport prints where every node ended up after steps simulation
// steps, grouped by connected component, followed by any link cycles
func PrintLayoutReport(w io.Writer, sim *simulation.Simulation, theme model.ThemeConfig, steps int) {
	nodes := sim.Nodes()
	lg := sim.LinkGraph()

	bold.Fprintln(w, "Layout")
	bold.Fprintln(w, "======")
	fmt.Fprintf(w, "Nodes: %d, links: %d, forces: %v\n", len(nodes), len(sim.Links()), sim.ForceNames())

	if sim.Active() {
		yellow.Fprintf(w, "Still moving after %d steps (alpha %.4f)\n", steps, sim.Alpha())
	} else {
		green.Fprintf(w, "Settled after %d steps (alpha %.4f)\n", steps, sim.Alpha())
	}

	b := render.LayoutBounds(nodes, 0)
	fmt.Fprintf(w, "Extent: %.0f x %.0f at (%.0f, %.0f)\n", b.Width, b.Height, b.X, b.Y)
	fmt.Fprintln(w)

	for i, component := range lg.Components() {
		cyan.Fprintf(w, "Component %d (%d works)\n", i+1, len(component))
		ordered := slices.Clone(component)
		slices.SortStableFunc(ordered, func(a, b int) int {
			return nodes[a].Year - nodes[b].Year
		})
		for _, idx := range ordered {
			n := &nodes[idx]
			fmt.Fprintf(w, "  %-28s %4d  (%6.1f, %6.1f)  links: %d  %s\n",
				n.Title, n.Year, n.X, n.Y, lg.Degree(idx), theme.Label(n.PrimaryTheme()))
		}
	}

	if cycles := lg.Cycles(); len(cycles) > 0 {
		fmt.Fprintln(w)
		yellow.Fprintf(w, "Connection cycles (%d):\n", len(cycles))
		for _, cycle := range cycles {
			titles := make([]string, 0, len(cycle))
			for _, idx := range cycle {
				titles = append(titles, nodes[idx].Title)
			}
			fmt.Fprintf(w, "  %v\n", titles)
		}
	}

	if issues := sim.Issues(); len(issues) > 0 {
		fmt.Fprintln(w)
		red.Fprintf(w, "Dropped links (%d):\n", len(issues))
		for _, issue := range issues {
			yellow.Fprintf(w, "  %v\n", issue)
		}
	}
}
