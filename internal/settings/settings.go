// Package settings reads the process configuration from the environment,
// after loading an optional .env file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/folio-blog/folio/internal/posts"
	"github.com/joho/godotenv"
)

const (
	modeKey       = "FOLIO_MODE"
	devModeVal    = "development"
	portKey       = "PORT"
	contentDirKey = "FOLIO_CONTENT_DIR"
	siteConfigKey = "FOLIO_SITE_CONFIG"
	outDirKey     = "FOLIO_OUT_DIR"
	datePolicyKey = "FOLIO_DATE_POLICY"
	baseKey       = "FOLIO_BASE"
	cleanURLsKey  = "FOLIO_CLEAN_URLS"
	logLevelKey   = "FOLIO_LOG_LEVEL"
)

const (
	DefaultContentDir = "site"
	DefaultOutDir     = "dist/data"
	DefaultPort       = 8090
)

type Settings struct {
	IsDev      bool
	Port       int
	ContentDir string
	// SiteConfig is the YAML overlay path. When empty, <ContentDir>/site.yaml
	// is used if it exists.
	SiteConfig string
	OutDir     string
	DatePolicy posts.DatePolicy
	Base       string
	CleanURLs  bool
	// LogLevel defaults to debug in development mode and info otherwise.
	LogLevel string
}

// LoadEnv loads the given .env files (".env" when none are given) into the
// process environment. Missing files are ignored and existing variables are
// never overridden.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", f, err)
		}
	}
	return nil
}

// FromEnv builds Settings from environment variables, falling back to
// defaults for anything unset.
func FromEnv() (*Settings, error) {
	return parse(os.Getenv)
}

func parse(getenv func(string) string) (*Settings, error) {
	isDev := getenv(modeKey) == devModeVal
	defaultLevel := "info"
	if isDev {
		defaultLevel = "debug"
	}

	s := &Settings{
		IsDev:      isDev,
		Port:       DefaultPort,
		ContentDir: or(getenv(contentDirKey), DefaultContentDir),
		SiteConfig: getenv(siteConfigKey),
		OutDir:     or(getenv(outDirKey), DefaultOutDir),
		Base:       getenv(baseKey),
		LogLevel:   or(getenv(logLevelKey), defaultLevel),
	}

	var errs []error

	if raw := getenv(portKey); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("%s: invalid port %q", portKey, raw))
		} else {
			s.Port = port
		}
	}

	policy, err := posts.ParseDatePolicy(getenv(datePolicyKey))
	if err != nil {
		errs = append(errs, fmt.Errorf("%s: %w", datePolicyKey, err))
	}
	s.DatePolicy = policy

	if raw := getenv(cleanURLsKey); raw != "" {
		clean, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: invalid boolean %q", cleanURLsKey, raw))
		}
		s.CleanURLs = clean
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return s, nil
}

func SetModeToDev() {
	os.Setenv(modeKey, devModeVal)
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
