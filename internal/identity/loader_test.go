package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPScriptLoader_SuccessIsCached(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/javascript")
		w.Write([]byte("window.google = {};"))
	}))
	defer srv.Close()

	l := NewHTTPScriptLoader(srv.URL, srv.Client(), time.Minute)

	for i := 0; i < 3; i++ {
		if err := l.Load(context.Background()); err != nil {
			t.Fatalf("Load %d failed: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected 1 check, got %d", hits.Load())
	}
}

func TestHTTPScriptLoader_SingleCheckInFlight(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
	}))
	defer srv.Close()

	l := NewHTTPScriptLoader(srv.URL, srv.Client(), time.Minute)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.Load(context.Background())
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Errorf("expected all loads to succeed, got %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("expected exactly 1 check for concurrent loads, got %d", hits.Load())
	}
}

func TestHTTPScriptLoader_FailureIsCachedUntilRetry(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	l := NewHTTPScriptLoader(srv.URL, srv.Client(), time.Minute)
	l.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}

	if err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error for 503 response")
	}
	if err := l.Load(context.Background()); err == nil {
		t.Fatal("expected cached failure")
	}
	if hits.Load() != 1 {
		t.Fatalf("expected failure to be cached, got %d checks", hits.Load())
	}

	mu.Lock()
	now = now.Add(time.Minute)
	mu.Unlock()

	if err := l.Load(context.Background()); err == nil {
		t.Fatal("expected error on re-check")
	}
	if hits.Load() != 2 {
		t.Errorf("expected re-check after retry interval, got %d checks", hits.Load())
	}
}

func TestHTTPScriptLoader_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	l := NewHTTPScriptLoader(url, nil, time.Minute)
	if err := l.Load(context.Background()); err == nil {
		t.Error("expected error for unreachable script url")
	}
}

func TestHTTPScriptLoader_EmptyURL(t *testing.T) {
	l := NewHTTPScriptLoader("", nil, time.Minute)
	if err := l.Load(context.Background()); err == nil {
		t.Error("expected error for empty script url")
	}
}

func TestHTTPScriptLoader_CallerCancel(t *testing.T) {
	var hits atomic.Int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
	}))
	defer srv.Close()

	l := NewHTTPScriptLoader(srv.URL, srv.Client(), time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Load(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// The check keeps running for later callers
	close(release)
	if err := l.Load(context.Background()); err != nil {
		t.Fatalf("expected later load to succeed, got %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("expected the abandoned check to be reused, got %d checks", hits.Load())
	}
}
