package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/folio-blog/folio/internal/app"
	"github.com/folio-blog/folio/internal/posts"
	"github.com/folio-blog/folio/internal/settings"
	"github.com/folio-blog/folio/kit/colorlog"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	envFiles   []string
	contentDir string
	siteConfig string
	outDir     string
	datePolicy string
	base       string
	cleanURLs  bool
	port       int
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var f flags
	var cfg *settings.Settings

	root := &cobra.Command{
		Use:           "folio",
		Short:         "Build the post index and site config data for the blog",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			s, err := prepare(cmd, &f)
			if err != nil {
				return err
			}
			cfg = s
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringSliceVar(&f.envFiles, "env", nil, "env files to load (default .env)")
	pf.StringVar(&f.contentDir, "content", "", "content directory (env FOLIO_CONTENT_DIR)")
	pf.StringVar(&f.siteConfig, "site-config", "", "site config YAML (default <content>/site.yaml)")
	pf.StringVar(&f.outDir, "out", "", "output directory for data assets (env FOLIO_OUT_DIR)")
	pf.StringVar(&f.datePolicy, "date-policy", "", "undated posts: last, error or unordered")
	pf.StringVar(&f.base, "base", "", "base path prefixed to every URL")
	pf.BoolVar(&f.cleanURLs, "clean-urls", false, "omit .html from post URLs")
	pf.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")

	root.AddCommand(
		&cobra.Command{
			Use:   "index",
			Short: "Write the data assets to the output directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := app.New(cfg)
				if err != nil {
					return err
				}
				_, err = a.Index(cmd.Context())
				return err
			},
		},
		newDevCmd(&f, &cfg),
	)
	return root
}

func newDevCmd(f *flags, cfg **settings.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Serve the data assets and recompute them when content changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(*cfg)
			if err != nil {
				return err
			}
			return a.Dev(cmd.Context())
		},
	}
	cmd.Flags().IntVar(&f.port, "port", 0, "port for the data server (env PORT)")
	return cmd
}

// prepare switches to development mode for the dev command, loads the
// settings and applies the log level.
func prepare(cmd *cobra.Command, f *flags) (*settings.Settings, error) {
	if cmd.Name() == "dev" {
		settings.SetModeToDev()
	}
	s, err := loadSettings(cmd, f)
	if err != nil {
		return nil, err
	}
	colorlog.SetLevel(colorlog.ParseLevel(s.LogLevel))
	return s, nil
}

// loadSettings reads the environment, then applies the flags that were set
// explicitly.
func loadSettings(cmd *cobra.Command, f *flags) (*settings.Settings, error) {
	if err := settings.LoadEnv(f.envFiles...); err != nil {
		return nil, err
	}
	s, err := settings.FromEnv()
	if err != nil {
		return nil, err
	}

	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}

	if changed("content") {
		s.ContentDir = f.contentDir
	}
	if changed("site-config") {
		s.SiteConfig = f.siteConfig
	}
	if changed("out") {
		s.OutDir = f.outDir
	}
	if changed("base") {
		s.Base = f.base
	}
	if changed("clean-urls") {
		s.CleanURLs = f.cleanURLs
	}
	if changed("log-level") {
		s.LogLevel = f.logLevel
	}
	if changed("port") {
		if f.port <= 0 || f.port > 65535 {
			return nil, fmt.Errorf("invalid port %d", f.port)
		}
		s.Port = f.port
	}
	if changed("date-policy") {
		p, err := posts.ParseDatePolicy(f.datePolicy)
		if err != nil {
			return nil, err
		}
		s.DatePolicy = p
	}
	return s, nil
}
