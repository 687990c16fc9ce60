package catalog

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
)

// Store holds the current catalog and replaces it on Reload. A failed reload
// keeps the previous catalog.
type Store struct {
	paths Paths

	mu       sync.RWMutex
	current  *Catalog
	onReload []func(*Catalog)
}

// NewStore loads the catalog at paths
func NewStore(ctx context.Context, paths Paths) (*Store, error) {
	s := &Store{paths: paths}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Paths returns the files the store reads
func (s *Store) Paths() Paths {
	return s.paths
}

// Current returns the latest successfully loaded catalog
func (s *Store) Current() *Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// OnReload registers fn to be called with every newly loaded catalog. The
// callbacks run after Current returns the new catalog.
func (s *Store) OnReload(fn func(*Catalog)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReload = append(s.onReload, fn)
}

// Reload reads the files again
func (s *Store) Reload(ctx context.Context) error {
	c, err := Load(ctx, s.paths)
	if err != nil {
		return fmt.Errorf("failed to reload catalog: %w", err)
	}
	for _, issue := range c.Check() {
		logging.Warn("Catalog issue", "error", issue)
	}

	s.mu.Lock()
	s.current = c
	callbacks := slices.Clone(s.onReload)
	s.mu.Unlock()

	for _, fn := range callbacks {
		fn(c)
	}
	return nil
}

// Check reports references that do not resolve: works with unknown authors
// or periods, connections between unknown works, duplicate work ids and
// themes without colors
func (c *Catalog) Check() []error {
	var issues []error

	authors := make(map[ID]bool, len(c.Data.Authors))
	for _, a := range c.Data.Authors {
		authors[a.ID] = true
	}
	periods := make(map[ID]bool, len(c.Data.Periods))
	for _, p := range c.Data.Periods {
		periods[p.ID] = true
	}

	works := make(map[ID]bool, len(c.Data.Works))
	for _, w := range c.Data.Works {
		if works[w.ID] {
			issues = append(issues, fmt.Errorf("%w: %q", model.ErrDuplicateNode, w.ID))
		}
		works[w.ID] = true
		if !authors[w.AuthorID] {
			issues = append(issues, fmt.Errorf("work %q: unknown author %q", w.ID, w.AuthorID))
		}
		if !periods[w.PeriodID] {
			issues = append(issues, fmt.Errorf("work %q: unknown period %q", w.ID, w.PeriodID))
		}
	}

	for i, conn := range c.Data.Connections {
		for _, id := range []ID{conn.FromWorkID, conn.ToWorkID} {
			if !works[id] {
				issues = append(issues, &model.LinkError{Index: i, Link: c.Graph.Links[i], Missing: string(id)})
				break
			}
		}
	}

	for _, theme := range c.Theme.MissingThemes(c.Graph.Nodes) {
		issues = append(issues, fmt.Errorf("theme %q has no colors", theme))
	}

	return issues
}
