// Package dataserver serves the most recently published data assets as JSON
// and notifies websocket subscribers whenever they are republished.
package dataserver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/folio-blog/folio/kit/colorlog"
	"github.com/folio-blog/folio/kit/middleware/secureheaders"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/blake2b"
)

var Log = colorlog.New("data server")

type asset struct {
	body []byte
	etag string
}

type Server struct {
	mu       sync.RWMutex
	assets   map[string]asset
	revision uint64

	hub *hub
}

func New() *Server {
	return &Server{
		assets: make(map[string]asset),
		hub:    newHub(),
	}
}

// Publish replaces the named assets in one revision and notifies
// subscribers. Assets not named keep their previous value.
func (s *Server) Publish(data map[string]any) error {
	encoded := make(map[string]asset, len(data))
	for name, v := range data {
		body, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("error encoding %q: %w", name, err)
		}
		encoded[name] = asset{body: body, etag: etagFor(body)}
	}

	s.mu.Lock()
	for name, a := range encoded {
		s.assets[name] = a
	}
	s.revision++
	rev := s.revision
	s.mu.Unlock()

	names := make([]string, 0, len(encoded))
	for name := range encoded {
		names = append(names, name)
	}
	slices.Sort(names)

	s.hub.broadcast(Event{Type: "revision", Revision: rev, Assets: names})
	Log.Info("published data", "revision", rev, "assets", names)
	return nil
}

func (s *Server) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	// page templates fetch these from another origin during development
	r.Use(secureheaders.With(map[string]string{"Cross-Origin-Resource-Policy": "cross-origin"}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/data/events", s.hub.serveWS)

	r.Group(func(r chi.Router) {
		r.Use(chimw.Compress(5))
		r.Get("/data/{name}.json", s.serveAsset)
	})

	return r
}

func (s *Server) serveAsset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	s.mu.RLock()
	a, ok := s.assets[name]
	s.mu.RUnlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("ETag", a.etag)
	w.Header().Set("Cache-Control", "no-cache")
	if match := r.Header.Get("If-None-Match"); match != "" && match == a.etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(a.body)
}

// Serve listens on addr until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}

	errCh := make(chan error, 1)
	go func() {
		Log.Info("Starting server", "url", "http://localhost"+addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	Log.Info("Shutting down server", "url", "http://localhost"+addr)
	s.hub.close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down: %w", err)
	}
	return nil
}

func etagFor(body []byte) string {
	sum := blake2b.Sum256(body)
	return `"` + hex.EncodeToString(sum[:16]) + `"`
}
