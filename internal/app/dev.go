package app

import (
	"context"
	"fmt"

	"github.com/folio-blog/folio/internal/dataserver"
	"github.com/folio-blog/folio/internal/devwatch"
	"golang.org/x/sync/errgroup"
)

// Dev loads and publishes every asset, then serves them on the configured
// port and recomputes the affected ones whenever content changes. It returns
// when ctx is done.
func (a *App) Dev(ctx context.Context) error {
	srv := dataserver.New()

	data, err := a.Load(ctx)
	if err != nil {
		return fmt.Errorf("initial load failed: %w", err)
	}
	if err := a.publish(srv, data); err != nil {
		return err
	}

	w, err := devwatch.New(devwatch.Options{
		Root:  a.settings.ContentDir,
		Match: a.watches,
		OnChange: func(ctx context.Context, relPaths []string) {
			a.reload(ctx, srv, relPaths)
		},
	})
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", a.settings.Port)
	Log.Info("serving data assets", "addr", addr, "assets", assetList(a.Assets()))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(ctx, addr) })
	g.Go(func() error { return w.Run(ctx) })
	return g.Wait()
}

// reload recomputes the assets affected by relPaths. On failure the last
// good assets stay published.
func (a *App) reload(ctx context.Context, srv *dataserver.Server, relPaths []string) {
	names := a.Affected(relPaths)
	if len(names) == 0 {
		return
	}
	Log.Info("content changed", "paths", relPaths, "assets", assetList(names))

	data, err := a.Load(ctx, names...)
	if err != nil {
		Log.Error("reload failed, keeping previous data", "error", err)
		return
	}
	if err := a.publish(srv, data); err != nil {
		Log.Error("publish failed", "error", err)
	}
}

func (a *App) publish(srv *dataserver.Server, data map[string]any) error {
	if err := srv.Publish(data); err != nil {
		return err
	}
	if _, err := a.WriteAssets(data); err != nil {
		return err
	}
	Log.Debug("published", "revision", srv.Revision())
	return nil
}
