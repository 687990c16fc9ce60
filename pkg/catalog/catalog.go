// Package catalog loads the literary data set and the theme configuration and
// joins them into the graph data contract served to sessions.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
)

// Default file names inside a data directory
const (
	DataFile  = "data.json"
	ThemeFile = "theme_config.json"
)

// ErrInvalidData is returned when a data file cannot be decoded
var ErrInvalidData = errors.New("invalid catalog data")

// ID accepts both JSON strings and numbers
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("id must be a string or a number: %s", b)
	}
	*id = ID(b)
	return nil
}

// Work is one literary work as stored in the data file
type Work struct {
	ID                ID               `json:"id"`
	Title             string           `json:"title"`
	Year              int              `json:"year"`
	AuthorID          ID               `json:"author_id"`
	PeriodID          ID               `json:"period_id"`
	Themes            []string         `json:"themes"`
	SummaryMinimal    string           `json:"summary_minimal"`
	SummaryDetailed   string           `json:"summary_detailed"`
	ContextHistorical string           `json:"context_historical"`
	ContextLiterary   string           `json:"context_literary"`
	ContextThematic   string           `json:"context_thematic"`
	AnimationData     *model.Animation `json:"animation_data,omitempty"`
	Resources         []model.Resource `json:"resources,omitempty"`
}

// Author of one or more works
type Author struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
}

// Period is a literary period
type Period struct {
	ID        ID     `json:"id"`
	Name      string `json:"name"`
	StartYear int    `json:"start_year,omitempty"`
	EndYear   int    `json:"end_year,omitempty"`
}

// Connection is a directed relation between two works
type Connection struct {
	FromWorkID  ID     `json:"from_work_id"`
	ToWorkID    ID     `json:"to_work_id"`
	ConnType    string `json:"conn_type"`
	Description string `json:"description"`
}

// DataModel is the content of the data file
type DataModel struct {
	Works       []Work       `json:"works"`
	Authors     []Author     `json:"authors"`
	Periods     []Period     `json:"periods"`
	Connections []Connection `json:"connections"`
}

// Catalog is one loaded snapshot of the data and theme files
type Catalog struct {
	Data     DataModel
	Theme    model.ThemeConfig
	Graph    model.GraphData
	LoadedAt time.Time
}

// Paths locates the catalog files
type Paths struct {
	Data  string
	Theme string
}

// PathsIn returns the default file paths inside dir
func PathsIn(dir string) Paths {
	return Paths{
		Data:  filepath.Join(dir, DataFile),
		Theme: filepath.Join(dir, ThemeFile),
	}
}

// Load reads both files concurrently and joins them
func Load(ctx context.Context, paths Paths) (*Catalog, error) {
	var data DataModel
	var theme model.ThemeConfig

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return readJSON(ctx, paths.Data, &data)
	})
	g.Go(func() error {
		return readJSON(ctx, paths.Theme, &theme)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &Catalog{
		Data:     data,
		Theme:    theme,
		Graph:    data.GraphData(),
		LoadedAt: time.Now(),
	}

	logging.Info("Catalog loaded",
		"works", len(data.Works),
		"authors", len(data.Authors),
		"periods", len(data.Periods),
		"connections", len(data.Connections),
		"themes", len(theme.Colors))

	return c, nil
}

func readJSON(ctx context.Context, path string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidData, path, err)
	}
	return nil
}

// GraphData joins works with their authors and periods into nodes and turns
// connections into links. Unknown authors or periods leave the name empty.
func (d DataModel) GraphData() model.GraphData {
	authors := make(map[ID]string, len(d.Authors))
	for _, a := range d.Authors {
		authors[a.ID] = a.Name
	}
	periods := make(map[ID]string, len(d.Periods))
	for _, p := range d.Periods {
		periods[p.ID] = p.Name
	}

	nodes := make([]model.Node, 0, len(d.Works))
	for _, w := range d.Works {
		nodes = append(nodes, model.Node{
			ID:     string(w.ID),
			Title:  w.Title,
			Author: authors[w.AuthorID],
			Year:   w.Year,
			Period: periods[w.PeriodID],
			Themes: w.Themes,
			Summaries: model.Summaries{
				Minimal:  w.SummaryMinimal,
				Detailed: w.SummaryDetailed,
			},
			Contexts: model.Contexts{
				Historical: w.ContextHistorical,
				Literary:   w.ContextLiterary,
				Thematic:   w.ContextThematic,
			},
			Resources: w.Resources,
			Animation: w.AnimationData,
		})
	}

	links := make([]model.Link, 0, len(d.Connections))
	for _, c := range d.Connections {
		links = append(links, model.Link{
			Source:      string(c.FromWorkID),
			Target:      string(c.ToWorkID),
			Type:        c.ConnType,
			Description: c.Description,
		})
	}

	return model.GraphData{Nodes: nodes, Links: links}
}
