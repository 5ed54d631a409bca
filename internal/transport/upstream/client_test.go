package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/kailas-cloud/civicdex/internal/domain"
)

// --- Mocks ---

type mapCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMapCache() *mapCache { return &mapCache{data: map[string][]byte{}} }

func (m *mapCache) Get(_ context.Context, url string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[url]
	return d, ok
}

func (m *mapCache) Put(_ context.Context, url string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[url] = data
}

// --- Tests ---

func TestGetJSON_Success(t *testing.T) {
	var gotToken, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-App-Token")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte(`[{"id":"1"},{"id":"2"}]`))
	}))
	defer srv.Close()

	c := New(Config{Name: "test", RequestsPerSecond: 100, Headers: map[string]string{"X-App-Token": "tok"}})

	var out []map[string]any
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 2 {
		t.Errorf("len(out) = %d", len(out))
	}
	if gotToken != "tok" {
		t.Errorf("X-App-Token = %q", gotToken)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestGetJSON_EmptyHeaderSkipped(t *testing.T) {
	var present bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["X-App-Token"]
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(Config{Name: "test", RequestsPerSecond: 100, Headers: map[string]string{"X-App-Token": ""}})
	var out []any
	if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present {
		t.Error("empty header should not be sent")
	}
}

func TestGetJSON_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Config{Name: "clerk", RequestsPerSecond: 100})
	var out []any
	err := c.GetJSON(context.Background(), srv.URL, &out)
	if !errors.Is(err, domain.ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got %v", err)
	}
	var ue *domain.UpstreamError
	if !errors.As(err, &ue) || ue.StatusCode != http.StatusServiceUnavailable || ue.Source != "clerk" {
		t.Errorf("unexpected upstream error: %#v", ue)
	}
}

func TestGetJSON_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(Config{Name: "socrata", RequestsPerSecond: 100})
	var out []any
	if err := c.GetJSON(context.Background(), srv.URL, &out); !errors.Is(err, domain.ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestGetJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html>oops</html>`))
	}))
	defer srv.Close()

	cache := newMapCache()
	c := New(Config{Name: "test", RequestsPerSecond: 100, Cache: cache})
	var out []any
	if err := c.GetJSON(context.Background(), srv.URL, &out); err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := cache.Get(context.Background(), srv.URL); ok {
		t.Error("undecodable body must not be cached")
	}
}

func TestGetJSON_UsesCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[1,2,3]`))
	}))
	defer srv.Close()

	c := New(Config{Name: "test", RequestsPerSecond: 100, Cache: newMapCache()})
	for i := 0; i < 3; i++ {
		var out []int
		if err := c.GetJSON(context.Background(), srv.URL, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(out) != 3 {
			t.Fatalf("len(out) = %d", len(out))
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hits = %d, want 1", hits.Load())
	}
}

func TestGetJSON_CanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Config{Name: "test", RequestsPerSecond: 100})
	var out []any
	if err := c.GetJSON(ctx, srv.URL, &out); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
