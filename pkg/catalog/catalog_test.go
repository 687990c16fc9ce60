package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ritzau/litgraph/pkg/model"
)

const testData = `{
  "authors": [{"id": 1, "name": "Иван Вазов"}],
  "periods": [{"id": "p", "name": "Реализъм"}],
  "works": [
    {"id": 10, "title": "Под игото", "year": 1894, "author_id": 1, "period_id": "p",
     "themes": ["heroic"], "summary_minimal": "кратко", "summary_detailed": "подробно",
     "context_historical": "исторически", "context_literary": "литературен", "context_thematic": "тематичен",
     "animation_data": {"duration": 1500}, "resources": [{"url": "https://example.org", "title": "Текст"}]},
    {"id": "chichovtsi", "title": "Чичовци", "year": 1885, "author_id": 1, "period_id": "missing", "themes": ["comic"]}
  ],
  "connections": [
    {"from_work_id": 10, "to_work_id": "chichovtsi", "conn_type": "author", "description": "Вазов"},
    {"from_work_id": "ghost", "to_work_id": 10, "conn_type": "theme", "description": ""}
  ]
}`

const testTheme = `{"colors": {"heroic": ["#ff4d4d", "#ff9999"]}, "labels": {"heroic": "Героизъм"}}`

func writeCatalog(t *testing.T, data, theme string) Paths {
	t.Helper()
	dir := t.TempDir()
	paths := PathsIn(dir)
	if err := os.WriteFile(paths.Data, []byte(data), 0o644); err != nil {
		t.Fatalf("Failed to write data: %v", err)
	}
	if err := os.WriteFile(paths.Theme, []byte(theme), 0o644); err != nil {
		t.Fatalf("Failed to write theme: %v", err)
	}
	return paths
}

func TestLoad_Join(t *testing.T) {
	c, err := Load(context.Background(), writeCatalog(t, testData, testTheme))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(c.Graph.Nodes) != 2 || len(c.Graph.Links) != 2 {
		t.Fatalf("Expected 2 nodes and 2 links, got %d and %d", len(c.Graph.Nodes), len(c.Graph.Links))
	}

	n := c.Graph.Nodes[0]
	if n.ID != "10" || n.Author != "Иван Вазов" || n.Period != "Реализъм" {
		t.Errorf("Unexpected join result %+v", n)
	}
	if n.Summaries.Detailed != "подробно" || n.Contexts.Literary != "литературен" {
		t.Errorf("Unexpected summaries/contexts %+v %+v", n.Summaries, n.Contexts)
	}
	if n.Animation == nil || n.Animation.Duration != 1500 || len(n.Resources) != 1 {
		t.Errorf("Unexpected animation/resources %+v %+v", n.Animation, n.Resources)
	}
	if c.Graph.Nodes[1].Period != "" {
		t.Errorf("Expected empty period for an unknown period id, got %q", c.Graph.Nodes[1].Period)
	}

	l := c.Graph.Links[0]
	if l.Source != "10" || l.Target != "chichovtsi" || l.Type != "author" {
		t.Errorf("Unexpected link %+v", l)
	}
	if c.Theme.Label("heroic") != "Героизъм" {
		t.Errorf("Unexpected theme config %+v", c.Theme)
	}
}

func TestCheck(t *testing.T) {
	c, err := Load(context.Background(), writeCatalog(t, testData, testTheme))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	issues := c.Check()
	if len(issues) != 3 {
		t.Fatalf("Expected 3 issues (period, link, theme), got %d: %v", len(issues), issues)
	}

	var linkErr *model.LinkError
	found := false
	for _, issue := range issues {
		if errors.As(issue, &linkErr) {
			found = true
			if linkErr.Missing != "ghost" || linkErr.Index != 1 {
				t.Errorf("Unexpected link error %+v", linkErr)
			}
		}
	}
	if !found {
		t.Error("Expected a LinkError for the ghost connection")
	}
}

func TestLoad_Errors(t *testing.T) {
	paths := writeCatalog(t, `{"works": [`, testTheme)
	if _, err := Load(context.Background(), paths); !errors.Is(err, ErrInvalidData) {
		t.Errorf("Expected ErrInvalidData, got %v", err)
	}

	missing := Paths{Data: filepath.Join(t.TempDir(), "nope.json"), Theme: paths.Theme}
	if _, err := Load(context.Background(), missing); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected a not-exist error, got %v", err)
	}

	badID := writeCatalog(t, `{"works": [{"id": true}]}`, testTheme)
	if _, err := Load(context.Background(), badID); err == nil {
		t.Error("Expected boolean ids to be rejected")
	}
}

func TestStore_Reload(t *testing.T) {
	paths := writeCatalog(t, testData, testTheme)
	store, err := NewStore(context.Background(), paths)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}

	var reloaded *Catalog
	store.OnReload(func(c *Catalog) { reloaded = c })

	if err := os.WriteFile(paths.Data, []byte(`{"works": [{"id": "solo", "title": "Самотна"}]}`), 0o644); err != nil {
		t.Fatalf("Failed to rewrite data: %v", err)
	}
	if err := store.Reload(context.Background()); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if reloaded == nil || len(store.Current().Graph.Nodes) != 1 {
		t.Fatalf("Expected reloaded catalog with 1 node")
	}

	if err := os.WriteFile(paths.Data, []byte(`not json`), 0o644); err != nil {
		t.Fatalf("Failed to rewrite data: %v", err)
	}
	if err := store.Reload(context.Background()); err == nil {
		t.Error("Expected reload of invalid data to fail")
	}
	if store.Current() != reloaded {
		t.Error("A failed reload should keep the previous catalog")
	}
}

func TestLoad_BundledData(t *testing.T) {
	c, err := Load(context.Background(), PathsIn(filepath.Join("..", "..", "data")))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if issues := c.Check(); len(issues) != 0 {
		t.Errorf("Bundled data has issues: %v", issues)
	}
	if _, err := model.NewGraph(c.Graph); err != nil {
		t.Errorf("Bundled data does not form a graph: %v", err)
	}
}
