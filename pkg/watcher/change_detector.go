package watcher

import (
	"context"

	"github.com/ritzau/litgraph/pkg/logging"
)

// ChangeAnalysis describes what changed and what has to follow the reload
type ChangeAnalysis struct {
	// NeedReload is set for any change: both files are read together
	NeedReload bool

	// NeedRestart is set when the node or link set may have changed. A running
	// session has a fixed graph and must be replaced.
	NeedRestart bool

	ChangedFiles []string
}

// AnalyzeChanges determines what a batch of changes requires
func AnalyzeChanges(event ChangeEvent) *ChangeAnalysis {
	analysis := &ChangeAnalysis{
		NeedReload:   len(event.Paths) > 0,
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeData:
		analysis.NeedRestart = analysis.NeedReload
	case ChangeTypeTheme:
		// Colors and labels only; sessions pick them up when next started
	}

	return analysis
}

// ReloadFunc applies one analyzed batch of changes
type ReloadFunc func(ctx context.Context, analysis *ChangeAnalysis) error

// Run feeds debounced changes to reload until events is closed or ctx is
// done. Reload errors are logged and the loop continues, so a half-written
// file does not stop watching.
func Run(ctx context.Context, events <-chan ChangeEvent, reload ReloadFunc) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			analysis := AnalyzeChanges(event)
			if !analysis.NeedReload {
				continue
			}
			logging.Info("Catalog changed", "type", event.Type.String(), "files", len(event.Paths))
			if err := reload(ctx, analysis); err != nil {
				logging.Warn("Catalog reload failed", "error", err)
			}
		}
	}
}
