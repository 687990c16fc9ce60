package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/litgraph/pkg/catalog"
	"github.com/ritzau/litgraph/pkg/config"
	"github.com/ritzau/litgraph/pkg/logging"
	"github.com/ritzau/litgraph/pkg/model"
	"github.com/ritzau/litgraph/pkg/output"
	"github.com/ritzau/litgraph/pkg/render"
	"github.com/ritzau/litgraph/pkg/session"
	"github.com/ritzau/litgraph/pkg/watcher"
	"github.com/ritzau/litgraph/pkg/web"
)

func main() {
	config.RegisterFlags(pflag.CommandLine)
	pflag.Parse()

	cfg, err := config.Load(pflag.CommandLine)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	level := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if cfg.LogJSON {
		logging.SetJSONOutput(os.Stderr, level)
	} else {
		logging.SetOutput(os.Stderr, level)
	}

	prefs, err := cfg.Preferences()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WebMode {
		err = serve(ctx, cfg, prefs)
	} else {
		err = report(ctx, cfg, prefs)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// report lays the catalog out without a browser and prints the result
func report(ctx context.Context, cfg *config.Config, prefs model.Preferences) error {
	paths := cfg.Paths()
	c, err := catalog.Load(ctx, paths)
	if err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	output.PrintCatalogReport(os.Stdout, paths, c, c.Check())

	engine, err := session.NewEngine(c.Graph, c.Theme, prefs, cfg.Width, cfg.Height)
	if err != nil {
		return fmt.Errorf("building layout: %w", err)
	}
	defer engine.Close()

	steps := engine.Settle(cfg.Ticks)
	output.PrintLayoutReport(os.Stdout, engine.Sim, c.Theme, steps)

	if cfg.SVG == "" {
		return nil
	}
	f, err := os.Create(cfg.SVG)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := render.WriteSVG(f, engine.Controller.Scene()); err != nil {
		f.Close()
		return fmt.Errorf("writing snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	logging.Info("Wrote snapshot", "path", cfg.SVG)
	return nil
}

// serve runs the web server until ctx is cancelled
func serve(ctx context.Context, cfg *config.Config, prefs model.Preferences) error {
	paths := cfg.Paths()
	store, err := catalog.NewStore(ctx, paths)
	if err != nil {
		return err
	}

	server := web.NewServer(store, session.Options{
		Width:        cfg.Width,
		Height:       cfg.Height,
		TickInterval: cfg.TickInterval,
		FPS:          cfg.FPS,
	})
	server.SetDefaults(prefs)

	if cfg.Watch {
		if err := watch(ctx, paths, server); err != nil {
			return err
		}
	}

	if cfg.OpenBrowser {
		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		go func() {
			// Wait a moment for server to start
			time.Sleep(500 * time.Millisecond)
			openBrowser(url)
		}()
	}

	if err := server.Start(ctx, cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func watch(ctx context.Context, paths catalog.Paths, server *web.Server) error {
	fw, err := watcher.NewFileWatcher(paths.Data, paths.Theme)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), 300*time.Millisecond, 2*time.Second)
	debouncer.Start(ctx)
	go watcher.Run(ctx, debouncer.Output(), server.ReloadCatalog)
	return nil
}

func openBrowser(url string) {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "linux":
		cmd = "xdg-open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		logging.Warn("Cannot open browser", "platform", runtime.GOOS)
		return
	}

	if err := exec.Command(cmd, args...).Start(); err != nil {
		logging.Warn("Failed to open browser", "error", err)
	}
}
