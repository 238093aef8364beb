package dataserver

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func get(t *testing.T, url string, header http.Header) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestServeAsset(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if err := s.Publish(map[string]any{"posts": []string{"/posts/b", "/posts/a"}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("Published asset", func(t *testing.T) {
		res := get(t, srv.URL+"/data/posts.json", nil)
		if res.StatusCode != http.StatusOK {
			t.Fatalf("status %d", res.StatusCode)
		}
		body, _ := io.ReadAll(res.Body)
		if string(body) != `["/posts/b","/posts/a"]` {
			t.Errorf("body %s", body)
		}
		if ct := res.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		if res.Header.Get("ETag") == "" {
			t.Error("expected ETag")
		}
		if got := res.Header.Get("Cross-Origin-Resource-Policy"); got != "cross-origin" {
			t.Errorf("CORP %q", got)
		}
	})

	t.Run("Conditional request", func(t *testing.T) {
		etag := get(t, srv.URL+"/data/posts.json", nil).Header.Get("ETag")
		res := get(t, srv.URL+"/data/posts.json", http.Header{"If-None-Match": {etag}})
		if res.StatusCode != http.StatusNotModified {
			t.Errorf("status %d", res.StatusCode)
		}
	})

	t.Run("ETag changes with content", func(t *testing.T) {
		before := get(t, srv.URL+"/data/posts.json", nil).Header.Get("ETag")
		if err := s.Publish(map[string]any{"posts": []string{"/posts/c"}}); err != nil {
			t.Fatal(err)
		}
		after := get(t, srv.URL+"/data/posts.json", nil).Header.Get("ETag")
		if before == after {
			t.Error("expected a new ETag")
		}
	})

	t.Run("Unknown asset", func(t *testing.T) {
		if res := get(t, srv.URL+"/data/nope.json", nil); res.StatusCode != http.StatusNotFound {
			t.Errorf("status %d", res.StatusCode)
		}
	})

	t.Run("Health", func(t *testing.T) {
		if res := get(t, srv.URL+"/healthz", nil); res.StatusCode != http.StatusOK {
			t.Errorf("status %d", res.StatusCode)
		}
	})
}

func TestPublishEncodingError(t *testing.T) {
	s := New()
	if err := s.Publish(map[string]any{"bad": make(chan int)}); err == nil {
		t.Error("expected encoding error")
	}
	if s.Revision() != 0 {
		t.Errorf("failed publish must not bump the revision, got %d", s.Revision())
	}
}

func TestEvents(t *testing.T) {
	s := New()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/data/events"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	if err := s.Publish(map[string]any{"site": map[string]string{"title": "x"}, "posts": []int{}}); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var evt Event
	if err := conn.ReadJSON(&evt); err != nil {
		t.Fatalf("read: %v", err)
	}
	if evt.Type != "revision" || evt.Revision != 1 {
		t.Errorf("unexpected event %+v", evt)
	}
	if strings.Join(evt.Assets, ",") != "posts,site" {
		t.Errorf("unexpected assets %v", evt.Assets)
	}
}

func TestServe(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, addr) }()

	deadline := time.Now().Add(5 * time.Second)
	for {
		res, err := http.Get("http://" + addr + "/healthz")
		if err == nil {
			res.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not start: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}
