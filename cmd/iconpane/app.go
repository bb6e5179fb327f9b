package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/term"

	"github.com/openslides/iconpane"
	"github.com/openslides/iconpane/cache"
	"github.com/openslides/iconpane/config"
	"github.com/openslides/iconpane/utils"
)

// app wires the pipeline components from the loaded configuration.
type app struct {
	cfg       *config.Config
	logger    *log.Logger
	registry  *iconpane.Registry
	resolver  *iconpane.Resolver
	catalog   *iconpane.Catalog
	processor *iconpane.Processor
	store     cache.Store
	stderr    io.Writer
}

func newApp(ctx context.Context, opts *options) (*app, error) {
	cfg, _, err := config.Load(ctx, opts.cfgFile)
	if err != nil {
		return nil, err
	}

	level, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = log.InfoLevel
	}
	if opts.verbose {
		level = log.DebugLevel
	}
	logger := log.NewWithOptions(opts.stderr, log.Options{
		Prefix: "iconpane",
		Level:  level,
	})

	store, err := cache.Open(cache.Backend(cfg.Cache.Backend), cfg.Cache.Path)
	if err != nil {
		// The session cache is best effort; run without it.
		logger.Warn("session cache disabled", "backend", cfg.Cache.Backend, "err", err)
		store = nil
	}
	if db, ok := store.(*cache.SQLiteStore); ok {
		purgeCache(ctx, db, cfg, logger)
	}

	reg := iconpane.NewRegistry()
	if err := iconpane.RegisterBuiltins(reg, dirFS(cfg.AssetsDir)); err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resolver := iconpane.NewResolver(reg, iconpane.ResolverOptions{
		Client:    client,
		Session:   store,
		Logger:    logger,
		UserAgent: cfg.HTTP.UserAgent,
	})

	var loader iconpane.ManifestLoader
	switch {
	case cfg.HTTP.ManifestsURL != "":
		if !utils.IsValidUrl(cfg.HTTP.ManifestsURL) {
			return nil, fmt.Errorf("http.manifests_url %q is not a valid url", cfg.HTTP.ManifestsURL)
		}
		loader = iconpane.HTTPLoader{BaseURL: cfg.HTTP.ManifestsURL, Client: client, UserAgent: cfg.HTTP.UserAgent}
	case dirFS(cfg.ManifestsDir) != nil:
		dl, err := dirLoader(dirFS(cfg.ManifestsDir), cfg.Packages)
		if err != nil {
			return nil, err
		}
		loader = dl
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		registry:  reg,
		resolver:  resolver,
		catalog:   iconpane.NewCatalog(reg, loader, iconpane.CatalogOptions{BatchSize: cfg.Preload.BatchSize, Logger: logger}),
		processor: iconpane.NewProcessor(reg, resolver, logger),
		store:     store,
		stderr:    opts.stderr,
	}, nil
}

func (a *app) Close() error {
	return cache.Close(a.store)
}

// dirLoader builds the local manifest loader with the declared package schemes.
func dirLoader(fsys fs.FS, pc config.PackageConfig) (iconpane.DirLoader, error) {
	def, err := iconpane.ParseScheme(pc.Scheme)
	if err != nil {
		return iconpane.DirLoader{}, fmt.Errorf("packages.scheme: %w", err)
	}
	schemes := make(map[string]iconpane.Scheme, len(pc.Schemes))
	for id, name := range pc.Schemes {
		sc, err := iconpane.ParseScheme(name)
		if err != nil {
			return iconpane.DirLoader{}, fmt.Errorf("packages.schemes.%s: %w", id, err)
		}
		schemes[id] = sc
	}
	return iconpane.DirLoader{FS: fsys, Scheme: def, Schemes: schemes}, nil
}

// purgeCache drops persisted entries older than cache.max_age.
func purgeCache(ctx context.Context, db *cache.SQLiteStore, cfg *config.Config, logger *log.Logger) {
	maxAge, err := cfg.CacheMaxAge()
	if err != nil || maxAge <= 0 {
		return
	}
	n, err := db.Purge(ctx, maxAge)
	if err != nil {
		logger.Warn("cache purge failed", "err", err)
		return
	}
	logger.Debug("purged stale cache entries", "count", n, "max_age", maxAge)
}

// dirFS returns the file system rooted at dir, or nil when dir does not exist.
func dirFS(dir string) fs.FS {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil
	}
	return os.DirFS(dir)
}

// ensureLibrary makes sure id is registered, loading its manifest when needed.
func (a *app) ensureLibrary(ctx context.Context, id string) error {
	if _, err := a.registry.Get(id); err == nil {
		return nil
	}
	_, err := a.catalog.Manifest(ctx, id)
	return err
}

// preload loads every library manifest, showing a spinner on interactive terminals.
func (a *app) preload(ctx context.Context) {
	ids := a.catalog.LibraryIDs(ctx)

	if f, ok := a.stderr.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		msg := fmt.Sprintf("%s %s",
			utils.DecorateText("⚡ ICONPANE", utils.StatusMessage),
			utils.DecorateText("loading icon libraries...", utils.DefaultMessage))
		spinner := utils.NewSpinner(a.stderr, msg, 80*time.Millisecond, true)
		spinner.Start()
		defer spinner.Stop()
	}
	if err := a.catalog.Preload(ctx, ids); err != nil {
		a.logger.Debug("some libraries failed to load", "err", err)
	}
}

// renderStyle builds the render style from the configuration and the flag overrides.
func (a *app) renderStyle(size int, fg, bg string) (iconpane.RenderStyle, error) {
	if size <= 0 {
		size = a.cfg.Render.Size
	}
	if fg == "" {
		fg = a.cfg.Render.Color
	}
	if bg == "" {
		bg = a.cfg.Render.Background
	}

	style := iconpane.RenderStyle{Size: size}
	c, err := iconpane.ParseColor(fg)
	if err != nil {
		return style, fmt.Errorf("foreground: %w", err)
	}
	style.Foreground = c
	if bg != "" && bg != "none" {
		c, err := iconpane.ParseColor(bg)
		if err != nil {
			return style, fmt.Errorf("background: %w", err)
		}
		style.Background = &c
	}
	return style, nil
}

// describeError maps a pipeline failure onto a short user-facing message.
func describeError(err error) string {
	var fe *iconpane.FetchError
	switch {
	case errors.As(err, &fe) && fe.Status != 0:
		return fmt.Sprintf("the CDN answered %d for %s", fe.Status, fe.URL)
	case errors.Is(err, iconpane.ErrUnknownLibrary):
		return "unknown library: " + err.Error()
	case errors.Is(err, iconpane.ErrAssetNotFound):
		return "icon not found in the local bundle: " + err.Error()
	case errors.Is(err, iconpane.ErrDecode):
		return "icon content could not be decoded: " + err.Error()
	case errors.Is(err, iconpane.ErrRasterize):
		return "icon could not be rendered: " + err.Error()
	case errors.Is(err, iconpane.ErrInsertionFailed):
		return "the host rejected the icon: " + err.Error()
	}
	return err.Error()
}
