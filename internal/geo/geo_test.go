package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newFakeProvider(t *testing.T, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"46.0569","lon":"14.5058","display_name":"Ljubljana, Slovenia"}]`))
	})
	mux.HandleFunc("/reverse", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"lat":"46.0569","lon":"14.5058","display_name":"Ljubljana, Slovenia"}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestForward(t *testing.T) {
	var calls atomic.Int64
	server := newFakeProvider(t, &calls)
	client := NewClient(server.URL, time.Minute)

	loc, err := client.Forward(context.Background(), "Ljubljana")
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if loc.Label != "Ljubljana, Slovenia" {
		t.Errorf("unexpected label %q", loc.Label)
	}
	if loc.Lat < 46 || loc.Lat > 47 {
		t.Errorf("unexpected latitude %v", loc.Lat)
	}
}

func TestForwardCaches(t *testing.T) {
	var calls atomic.Int64
	server := newFakeProvider(t, &calls)
	client := NewClient(server.URL, time.Minute)

	ctx := context.Background()
	client.Forward(ctx, "Ljubljana")
	client.Forward(ctx, "Ljubljana")

	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 provider call, got %d", got)
	}
}

func TestCacheExpiry(t *testing.T) {
	var calls atomic.Int64
	server := newFakeProvider(t, &calls)
	client := NewClient(server.URL, time.Minute)

	current := time.Now()
	client.now = func() time.Time { return current }

	ctx := context.Background()
	client.Forward(ctx, "Ljubljana")

	// Advance past the TTL; the cached entry must be refetched.
	current = current.Add(2 * time.Minute)
	client.Forward(ctx, "Ljubljana")

	if got := calls.Load(); got != 2 {
		t.Errorf("expected 2 provider calls after expiry, got %d", got)
	}
}

func TestReverse(t *testing.T) {
	var calls atomic.Int64
	server := newFakeProvider(t, &calls)
	client := NewClient(server.URL, time.Minute)

	loc, err := client.Reverse(context.Background(), 46.0569, 14.5058)
	if err != nil {
		t.Fatalf("Reverse: %v", err)
	}
	if loc.Label != "Ljubljana, Slovenia" {
		t.Errorf("unexpected label %q", loc.Label)
	}

	// Same coordinates hit the cache.
	client.Reverse(context.Background(), 46.0569, 14.5058)
	if got := calls.Load(); got != 1 {
		t.Errorf("expected 1 provider call, got %d", got)
	}
}
