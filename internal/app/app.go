// Package app wires settings, the site config and the registered content
// loaders together, and drives the index and dev commands.
package app

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/folio-blog/folio/internal/contentloader"
	"github.com/folio-blog/folio/internal/posts"
	"github.com/folio-blog/folio/internal/settings"
	"github.com/folio-blog/folio/internal/siteconfig"
	"github.com/folio-blog/folio/kit/colorlog"
	"github.com/folio-blog/folio/kit/jsonutil"
)

var Log = colorlog.New("folio")

const (
	PostsAsset = "posts"
	SiteAsset  = "site"

	siteConfigName = "site.yaml"
	assetSuffix    = ".data.json"
)

type App struct {
	settings  *settings.Settings
	contentFS fs.FS
	registry  *contentloader.Registry

	sitePath     string
	siteExplicit bool
}

func New(s *settings.Settings) (*App, error) {
	postsLoader, err := posts.NewLoader(posts.LoaderOptions{
		Policy:    s.DatePolicy,
		Base:      s.Base,
		CleanURLs: s.CleanURLs,
	})
	if err != nil {
		return nil, err
	}

	registry := contentloader.NewRegistry()
	if err := registry.Register(PostsAsset, postsLoader); err != nil {
		return nil, err
	}

	a := &App{
		settings:     s,
		contentFS:    os.DirFS(s.ContentDir),
		registry:     registry,
		sitePath:     s.SiteConfig,
		siteExplicit: s.SiteConfig != "",
	}
	if !a.siteExplicit {
		a.sitePath = filepath.Join(s.ContentDir, siteConfigName)
	}
	return a, nil
}

func (a *App) Registry() *contentloader.Registry { return a.registry }

// Assets returns every asset name the app can produce, sorted.
func (a *App) Assets() []string {
	names := append(a.registry.Names(), SiteAsset)
	slices.Sort(names)
	return names
}

// LoadSite reads the site config. Without an explicit path, a missing
// <ContentDir>/site.yaml means the built-in default.
func (a *App) LoadSite() (*siteconfig.Config, error) {
	if a.siteExplicit {
		return siteconfig.Load(a.sitePath)
	}
	return siteconfig.LoadOptional(a.sitePath)
}

// Load computes the named assets (all of them when names is empty).
func (a *App) Load(ctx context.Context, names ...string) (map[string]any, error) {
	if len(names) == 0 {
		names = a.Assets()
	}

	var loaderNames []string
	wantSite := false
	for _, name := range names {
		if name == SiteAsset {
			wantSite = true
			continue
		}
		loaderNames = append(loaderNames, name)
	}

	out := make(map[string]any, len(names))
	if len(loaderNames) > 0 {
		data, err := a.registry.Load(ctx, a.contentFS, loaderNames...)
		if err != nil {
			return nil, err
		}
		for name, v := range data {
			out[name] = v
		}
	}
	if wantSite {
		cfg, err := a.LoadSite()
		if err != nil {
			return nil, err
		}
		out[SiteAsset] = cfg
	}
	return out, nil
}

// WriteAssets writes each asset to <OutDir>/<name>.data.json and returns the
// written paths, sorted.
func (a *App) WriteAssets(data map[string]any) ([]string, error) {
	paths := make([]string, 0, len(data))
	for name, v := range data {
		p := filepath.Join(a.settings.OutDir, name+assetSuffix)
		if err := jsonutil.WriteFile(p, v); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths, nil
}

// Index loads every asset once and writes it to the output directory.
func (a *App) Index(ctx context.Context) ([]string, error) {
	data, err := a.Load(ctx)
	if err != nil {
		return nil, err
	}
	paths, err := a.WriteAssets(data)
	if err != nil {
		return nil, err
	}
	for _, p := range paths {
		Log.Info("wrote data asset", "path", p)
	}
	return paths, nil
}

// siteRelPath returns the site config path relative to the content dir, or
// "" when it lives outside of it.
func (a *App) siteRelPath() string {
	rel, err := filepath.Rel(a.settings.ContentDir, a.sitePath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return ""
	}
	return filepath.ToSlash(rel)
}

// Affected maps changed paths (slash-separated, relative to the content dir)
// to the sorted names of the assets that must be recomputed.
func (a *App) Affected(relPaths []string) []string {
	siteRel := a.siteRelPath()
	seen := make(map[string]struct{})
	for _, rel := range relPaths {
		if siteRel != "" && rel == siteRel {
			seen[SiteAsset] = struct{}{}
		}
		for _, name := range a.registry.Affected(rel) {
			seen[name] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (a *App) watches(relPath string) bool {
	return len(a.Affected([]string{relPath})) > 0
}

func assetList(names []string) string {
	return fmt.Sprintf("[%s]", strings.Join(names, ", "))
}
