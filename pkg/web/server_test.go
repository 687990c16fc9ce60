package web

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/ritzau/litgraph/pkg/catalog"
	"github.com/ritzau/litgraph/pkg/model"
	"github.com/ritzau/litgraph/pkg/pubsub"
	"github.com/ritzau/litgraph/pkg/session"
	"github.com/ritzau/litgraph/pkg/watcher"
)

var testOptions = session.Options{
	Width:        800,
	Height:       600,
	TickInterval: time.Millisecond,
	FPS:          1000,
	AutoFitDelay: time.Hour,
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := catalog.NewStore(context.Background(), catalog.PathsIn(filepath.Join("..", "..", "data")))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	s := NewServer(store, testOptions)
	t.Cleanup(s.Close)
	return s
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGraphDataAndThemeConfig(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, "GET", "/api/graph-data", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var data model.GraphData
	if err := json.Unmarshal(rec.Body.Bytes(), &data); err != nil {
		t.Fatalf("Invalid graph data: %v", err)
	}
	if len(data.Nodes) == 0 || len(data.Links) == 0 {
		t.Errorf("Expected nodes and links, got %d and %d", len(data.Nodes), len(data.Links))
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected a request id header")
	}

	rec = do(t, s, "GET", "/api/theme-config", "")
	var theme model.ThemeConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &theme); err != nil {
		t.Fatalf("Invalid theme config: %v", err)
	}
	if len(theme.Colors) == 0 || len(theme.Labels) == 0 {
		t.Error("Expected colors and labels")
	}
}

func TestNoCatalog(t *testing.T) {
	s := NewServer(new(catalog.Store), testOptions)
	defer s.Close()

	for _, path := range []string{"/api/graph-data", "/api/theme-config"} {
		if rec := do(t, s, "GET", path, ""); rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s: expected 503, got %d", path, rec.Code)
		}
	}
	if rec := do(t, s, "POST", "/api/session", `{}`); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 without a catalog, got %d", rec.Code)
	}
	if s.Session() != nil {
		t.Error("No session may be built without a catalog")
	}
}

func TestSessionLifecycle(t *testing.T) {
	s := newTestServer(t)
	id := s.store.Current().Graph.Nodes[0].ID

	if rec := do(t, s, "POST", "/api/session/events", `{"type":"zoom_in"}`); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without a session, got %d", rec.Code)
	}
	if rec := do(t, s, "POST", "/api/session", `{"arrangement":"spiral"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid arrangement, got %d", rec.Code)
	}

	rec := do(t, s, "POST", "/api/session", `{"arrangement":"chronological","focus":"historical","style":"minimal","width":1000,"height":700}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var info SessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil {
		t.Fatalf("Invalid session info: %v", err)
	}
	if info.Preferences.Arrangement != model.ArrangementChronological || info.Width != 1000 {
		t.Errorf("Unexpected session info %+v", info)
	}
	first := s.Session()

	if rec := do(t, s, "GET", "/api/session/detail", ""); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204 without a selection, got %d", rec.Code)
	}
	if rec := do(t, s, "POST", "/api/session/events", `{"type":"select","id":"`+id+`"}`); rec.Code != http.StatusNoContent {
		t.Fatalf("Select failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = do(t, s, "GET", "/api/session/detail", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"id":"`+id+`"`) {
		t.Errorf("Expected the detail of %s, got %d %s", id, rec.Code, rec.Body.String())
	}

	if rec := do(t, s, "POST", "/api/session/events", `{"type":"select","id":"no-such-work"}`); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown node, got %d", rec.Code)
	}
	if rec := do(t, s, "POST", "/api/session/events", `{"type":"resize","width":-1}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid resize, got %d", rec.Code)
	}
	if rec := do(t, s, "POST", "/api/session/events", `{"type":"resize","width":400,"height":300}`); rec.Code != http.StatusNoContent {
		t.Errorf("Resize failed: %d", rec.Code)
	}
	rec = do(t, s, "GET", "/api/session", "")
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil || info.Width != 400 || info.Height != 300 {
		t.Errorf("Expected the resized viewport, got %+v %v", info, err)
	}
	if _, ok := info.Subscribers["frame"]; !ok {
		t.Errorf("Expected subscriber counts per topic, got %v", info.Subscribers)
	}

	rec = do(t, s, "GET", "/api/session/frame", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"nodes"`) {
		t.Errorf("Expected a frame, got %d", rec.Code)
	}

	rec = do(t, s, "GET", "/api/session/svg", "")
	if rec.Header().Get("Content-Type") != "image/svg+xml" || !strings.Contains(rec.Body.String(), "<svg") {
		t.Errorf("Expected an SVG snapshot, got %q", rec.Header().Get("Content-Type"))
	}

	// Starting again replaces the session and closes the old one
	if rec := do(t, s, "POST", "/api/session", `{}`); rec.Code != http.StatusCreated {
		t.Fatalf("Restart failed: %d", rec.Code)
	}
	select {
	case <-first.Done():
	default:
		t.Error("Expected the replaced session to be closed")
	}
	if first.Listeners() != 0 {
		t.Errorf("Replaced session still has %d listeners", first.Listeners())
	}

	if rec := do(t, s, "DELETE", "/api/session", ""); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if rec := do(t, s, "DELETE", "/api/session", ""); rec.Code != http.StatusNotFound {
		t.Errorf("Expected 404 on a second delete, got %d", rec.Code)
	}
}

func TestSubscribe(t *testing.T) {
	s := newTestServer(t)
	ts := httptest.NewServer(s)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/subscribe/weather")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for an unknown topic, got %d", resp.StatusCode)
	}

	if _, err := s.StartSession(model.Preferences{}, 0, 0); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, "GET", ts.URL+"/api/subscribe/session", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.Header.Get("Content-Type") != "text/event-stream" {
		t.Errorf("Unexpected content type %q", resp.Header.Get("Content-Type"))
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "data: ") {
			if !strings.Contains(line, `"type":"started"`) {
				t.Errorf("Expected the started status first, got %s", line)
			}
			return
		}
	}
	t.Fatalf("Stream ended without events: %v", scanner.Err())
}

// newReloadableServer serves a copy of the bundled catalog that the test may
// rewrite
func newReloadableServer(t *testing.T) (*Server, *catalog.Store, string) {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{catalog.DataFile, catalog.ThemeFile} {
		raw, err := os.ReadFile(filepath.Join("..", "..", "data", name))
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), raw, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	store, err := catalog.NewStore(context.Background(), catalog.PathsIn(dir))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	s := NewServer(store, testOptions)
	t.Cleanup(s.Close)
	return s, store, dir
}

func dataChanged() *watcher.ChangeAnalysis {
	return watcher.AnalyzeChanges(watcher.ChangeEvent{
		Type: watcher.ChangeTypeData, Paths: []string{catalog.DataFile},
	})
}

func TestReloadCatalog(t *testing.T) {
	s, store, dir := newReloadableServer(t)

	first, err := s.StartSession(model.Preferences{Arrangement: model.ArrangementThematic}, 640, 480)
	if err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	// Theme changes keep the session
	err = s.ReloadCatalog(context.Background(), watcher.AnalyzeChanges(watcher.ChangeEvent{
		Type: watcher.ChangeTypeTheme, Paths: []string{catalog.ThemeFile},
	}))
	if err != nil {
		t.Fatalf("ReloadCatalog failed: %v", err)
	}
	if s.Session() != first {
		t.Error("A theme change must not restart the session")
	}

	if err := s.ReloadCatalog(context.Background(), dataChanged()); err != nil {
		t.Fatalf("ReloadCatalog failed: %v", err)
	}
	second := s.Session()
	if second == nil || second == first {
		t.Fatal("Expected a data change to restart the session")
	}
	if second.Preferences().Arrangement != model.ArrangementThematic {
		t.Error("Expected the restarted session to keep its preferences")
	}

	// A broken file keeps the previous catalog and session
	if err := os.WriteFile(filepath.Join(dir, catalog.DataFile), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	err = s.ReloadCatalog(context.Background(), &watcher.ChangeAnalysis{NeedReload: true, NeedRestart: true})
	if err == nil {
		t.Error("Expected the reload of a broken file to fail")
	}
	if s.Session() != second || store.Current() == nil {
		t.Error("A failed reload must keep the catalog and the session")
	}
}

func TestReloadCatalog_KeepsSessionStartedDuringReload(t *testing.T) {
	s, store, _ := newReloadableServer(t)

	if _, err := s.StartSession(model.Preferences{Arrangement: model.ArrangementThematic}, 640, 480); err != nil {
		t.Fatalf("StartSession failed: %v", err)
	}

	// A client replaces the session while the catalog is being reloaded
	chosen := model.Preferences{Arrangement: model.ArrangementChronological, Focus: model.FocusHistorical, Style: model.StyleMinimal}
	var started *session.Session
	store.OnReload(func(*catalog.Catalog) {
		sess, err := s.StartSession(chosen, 500, 400)
		if err != nil {
			t.Errorf("StartSession during reload failed: %v", err)
		}
		started = sess
	})

	if err := s.ReloadCatalog(context.Background(), dataChanged()); err != nil {
		t.Fatalf("ReloadCatalog failed: %v", err)
	}

	if started == nil || s.Session() != started {
		t.Fatal("The session started during the reload was replaced")
	}
	if got := s.Session().Preferences(); got != chosen {
		t.Errorf("Expected preferences %+v, got %+v", chosen, got)
	}
	rec := do(t, s, "GET", "/api/session", "")
	var info SessionInfo
	if err := json.Unmarshal(rec.Body.Bytes(), &info); err != nil || info.Width != 500 || info.Height != 400 {
		t.Errorf("Expected the 500x400 viewport, got %+v %v", info, err)
	}
}

func TestReloadCatalog_PublishesStatus(t *testing.T) {
	s, _, dir := newReloadableServer(t)

	if err := s.ReloadCatalog(context.Background(), dataChanged()); err != nil {
		t.Fatalf("ReloadCatalog failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, catalog.DataFile), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.ReloadCatalog(context.Background(), dataChanged()); err == nil {
		t.Fatal("Expected the reload of a broken file to fail")
	}

	sub, err := s.publisher.Subscribe(context.Background(), pubsub.TopicSession)
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Close()

	var states []string
	for len(states) < 2 {
		select {
		case e := <-sub.Events():
			states = append(states, e.Type)
		case <-time.After(time.Second):
			t.Fatalf("Expected two status events, got %v", states)
		}
	}
	if states[0] != "reloaded" || states[1] != "reload_failed" {
		t.Errorf("Expected reloaded then reload_failed, got %v", states)
	}
}
