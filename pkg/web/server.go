// Package web serves the catalog, the layout session and its SSE topics.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/ritzau/litgraph/pkg/catalog"
	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
	"github.com/ritzau/litgraph/pkg/pubsub"
	"github.com/ritzau/litgraph/pkg/session"
	"github.com/ritzau/litgraph/pkg/watcher"
)

//go:embed static/*
var staticFiles embed.FS

// ErrNoSession is returned when an endpoint needs a running session
var ErrNoSession = errors.New("no active session")

// ErrNoCatalog is returned while no catalog has been loaded
var ErrNoCatalog = errors.New("catalog not loaded")

// SessionRequest is the body of POST /api/session
type SessionRequest struct {
	Arrangement string  `json:"arrangement"`
	Focus       string  `json:"focus"`
	Style       string  `json:"style"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
}

// SessionInfo describes the running session
type SessionInfo struct {
	ID          string            `json:"id"`
	Preferences model.Preferences `json:"preferences"`
	Width       float64           `json:"width"`
	Height      float64           `json:"height"`
	Issues      []string          `json:"issues,omitempty"`
	Subscribers map[string]int    `json:"subscribers,omitempty"`
}

// Server represents the web server
type Server struct {
	router    *mux.Router
	store     *catalog.Store
	publisher *pubsub.SSEPublisher
	opts      session.Options
	defaults  model.Preferences

	// base outlives requests; sessions are started on it
	base   context.Context
	cancel context.CancelFunc

	mu            sync.Mutex
	session       *session.Session
	sessionOn     *catalog.Catalog
	width, height float64
}

// NewServer creates a new web server for the catalog in store. opts sets the
// scheduling of sessions and the default viewport.
func NewServer(store *catalog.Store, opts session.Options) *Server {
	base, cancel := context.WithCancel(context.Background())
	s := &Server{
		router:    mux.NewRouter(),
		store:     store,
		publisher: pubsub.NewSessionPublisher(),
		opts:      opts,
		defaults:  model.Preferences{Focus: model.FocusLiterary, Style: model.StyleDetailed},
		base:      base,
		cancel:    cancel,
	}
	store.OnReload(func(c *catalog.Catalog) {
		s.publishStatus("reloaded", fmt.Sprintf("%d works, %d connections", len(c.Graph.Nodes), len(c.Graph.Links)))
	})
	s.setupRoutes()
	return s
}

// SetDefaults sets the preferences used for fields a session request leaves
// empty
func (s *Server) SetDefaults(prefs model.Preferences) {
	s.defaults = prefs
}

// ServeHTTP makes the server usable as an http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.router.Use(logging.RequestIDMiddleware)

	// SSE subscription endpoints
	s.router.HandleFunc("/api/subscribe/{topic}", s.handleSubscribe).Methods("GET")

	// Catalog
	s.router.HandleFunc("/api/graph-data", s.handleGraphData).Methods("GET")
	s.router.HandleFunc("/api/theme-config", s.handleThemeConfig).Methods("GET")

	// Session - more specific routes must come first
	s.router.HandleFunc("/api/session/events", s.handleEvent).Methods("POST")
	s.router.HandleFunc("/api/session/detail", s.handleDetail).Methods("GET")
	s.router.HandleFunc("/api/session/frame", s.handleFrame).Methods("GET")
	s.router.HandleFunc("/api/session/svg", s.handleSVG).Methods("GET")
	s.router.HandleFunc("/api/session", s.handleSessionInfo).Methods("GET")
	s.router.HandleFunc("/api/session", s.handleStartSession).Methods("POST")
	s.router.HandleFunc("/api/session", s.handleCloseSession).Methods("DELETE")

	// Serve static files
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		logging.Fatal("Failed to load embedded static files", "error", err)
	}
	s.router.PathPrefix("/").Handler(http.FileServer(http.FS(staticFS)))
}

// StartSession tears down the running session, if any, and starts a new one
// on the current catalog
func (s *Server) StartSession(prefs model.Preferences, width, height float64) (*session.Session, error) {
	c := s.store.Current()
	if c == nil {
		return nil, ErrNoCatalog
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startSessionLocked(c, prefs, width, height)
}

func (s *Server) startSessionLocked(c *catalog.Catalog, prefs model.Preferences, width, height float64) (*session.Session, error) {
	if width <= 0 || height <= 0 {
		width, height = s.opts.Width, s.opts.Height
	}

	s.closeSessionLocked()

	opts := s.opts
	opts.Width, opts.Height = width, height
	sess, err := session.Start(s.base, c.Graph, c.Theme, prefs, s.publisher, opts)
	if err != nil {
		return nil, err
	}

	s.session = sess
	s.sessionOn = c
	s.width, s.height = width, height
	return sess, nil
}

// CloseSession tears down the running session. It reports whether there was
// one.
func (s *Server) CloseSession() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeSessionLocked()
}

func (s *Server) closeSessionLocked() bool {
	if s.session == nil {
		return false
	}
	s.session.Close()
	s.session = nil
	s.sessionOn = nil

	// Late subscribers must not see the state of the closed session
	for _, topic := range []string{pubsub.TopicFrame, pubsub.TopicHighlight, pubsub.TopicView} {
		s.publisher.Reset(topic)
	}
	return true
}

// Session returns the running session or nil
func (s *Server) Session() *session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Server) currentSession() (*session.Session, error) {
	if sess := s.Session(); sess != nil {
		return sess, nil
	}
	return nil, ErrNoSession
}

// ReloadCatalog reloads the catalog files and, when the graph may have
// changed, restarts the running session with its preferences and viewport.
// A session already built on the reloaded catalog is kept. It matches
// watcher.ReloadFunc.
func (s *Server) ReloadCatalog(ctx context.Context, analysis *watcher.ChangeAnalysis) error {
	if err := s.store.Reload(ctx); err != nil {
		s.publishStatus("reload_failed", err.Error())
		return err
	}
	logging.Debug("Catalog reloaded", "changed", analysis.ChangedFiles)

	if !analysis.NeedRestart {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := s.store.Current()
	if s.session == nil || s.sessionOn == c {
		return nil
	}

	logging.Info("Restarting session on the reloaded catalog", "session", s.session.ID())
	_, err := s.startSessionLocked(c, s.session.Preferences(), s.width, s.height)
	return err
}

func (s *Server) publishStatus(state, message string) {
	status := pubsub.SessionStatus{State: state, Message: message}
	if err := s.publisher.Publish(pubsub.TopicSession, state, status); err != nil && !errors.Is(err, pubsub.ErrClosed) {
		logging.Warn("Failed to publish status", "state", state, "error", err)
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	topic := mux.Vars(r)["topic"]

	// Create subscription before writing so errors can still set the status
	sub, err := s.publisher.Subscribe(r.Context(), topic)
	if errors.Is(err, pubsub.ErrUnknownTopic) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	defer sub.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*") // CORS support

	// Send initial comment to establish connection (Safari compatibility)
	fmt.Fprintf(w, ": connected\n\n")
	flush(w)

	// Stream events until the client goes away or the publisher closes
	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := pubsub.WriteSSE(w, event); err != nil {
				logging.WarnContext(r.Context(), "Error writing SSE event", "topic", topic, "error", err)
				return
			}
			flush(w)
		}
	}
}

func flush(w http.ResponseWriter) {
	if flusher, ok := w.(http.Flusher); ok {
		flusher.Flush()
	}
}

func (s *Server) handleGraphData(w http.ResponseWriter, r *http.Request) {
	c := s.store.Current()
	if c == nil {
		writeError(w, r, ErrNoCatalog)
		return
	}
	writeJSON(w, r, http.StatusOK, c.Graph)
}

func (s *Server) handleThemeConfig(w http.ResponseWriter, r *http.Request) {
	c := s.store.Current()
	if c == nil {
		writeError(w, r, ErrNoCatalog)
		return
	}
	writeJSON(w, r, http.StatusOK, c.Theme)
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	sess, width, height := s.session, s.width, s.height
	s.mu.Unlock()
	if sess == nil {
		writeError(w, r, ErrNoSession)
		return
	}
	info := sessionInfo(sess, width, height)
	info.Subscribers = make(map[string]int, len(pubsub.Topics))
	for _, topic := range pubsub.Topics {
		info.Subscribers[topic] = s.publisher.Subscribers(topic)
	}
	writeJSON(w, r, http.StatusOK, info)
}

func sessionInfo(sess *session.Session, width, height float64) SessionInfo {
	info := SessionInfo{
		ID:          sess.ID(),
		Preferences: sess.Preferences(),
		Width:       width,
		Height:      height,
	}
	for _, issue := range sess.Issues() {
		info.Issues = append(info.Issues, issue.Error())
	}
	return info
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req SessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	if req.Arrangement == "" {
		req.Arrangement = s.defaults.Arrangement.String()
	}
	if req.Focus == "" {
		req.Focus = s.defaults.Focus.String()
	}
	if req.Style == "" {
		req.Style = s.defaults.Style.String()
	}
	prefs, err := model.ParsePreferences(req.Arrangement, req.Focus, req.Style)
	if err != nil {
		writeError(w, r, err)
		return
	}

	sess, err := s.StartSession(prefs, req.Width, req.Height)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.mu.Lock()
	width, height := s.width, s.height
	s.mu.Unlock()
	writeJSON(w, r, http.StatusCreated, sessionInfo(sess, width, height))
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if !s.CloseSession() {
		writeError(w, r, ErrNoSession)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession()
	if err != nil {
		writeError(w, r, err)
		return
	}

	var e session.Event
	if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
		http.Error(w, fmt.Sprintf("invalid event: %v", err), http.StatusBadRequest)
		return
	}

	if err := sess.Handle(r.Context(), e); err != nil {
		writeError(w, r, err)
		return
	}

	if e.Type == session.EventResize {
		s.mu.Lock()
		if s.session == sess {
			s.width, s.height = e.Width, e.Height
		}
		s.mu.Unlock()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession()
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, ok, err := sess.Detail(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, r, http.StatusOK, d)
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession()
	if err != nil {
		writeError(w, r, err)
		return
	}
	f, err := sess.Frame(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, f)
}

func (s *Server) handleSVG(w http.ResponseWriter, r *http.Request) {
	sess, err := s.currentSession()
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	if err := sess.WriteSVG(r.Context(), w); err != nil {
		logging.WarnContext(r.Context(), "Failed to write SVG snapshot", "error", err)
	}
}

// statusFor maps domain errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNoCatalog):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrNoSession), errors.Is(err, model.ErrUnknownNode):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidPreference), errors.Is(err, session.ErrInvalidEvent):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNoNodes), errors.Is(err, model.ErrDuplicateNode):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrClosed):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		logging.ErrorContext(r.Context(), "Request failed", "error", err)
	}
	http.Error(w, err.Error(), code)
}

func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.WarnContext(r.Context(), "Failed to encode response", "error", err)
	}
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
// and closes the running session
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Starting web server", "url", fmt.Sprintf("http://localhost%s", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		return err
	case <-ctx.Done():
	}

	// SSE streams end when the publisher closes
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	return nil
}

// Close tears down the running session and the publisher
func (s *Server) Close() {
	s.CloseSession()
	s.cancel()
	if err := s.publisher.Close(); err != nil {
		logging.Warn("Failed to close publisher", "error", err)
	}
}
