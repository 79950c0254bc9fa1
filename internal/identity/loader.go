package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// ScriptLoader makes the SDK script available. Load may be called by many
// views at once; implementations must share a single load between them.
type ScriptLoader interface {
	Load(ctx context.Context) error
}

// HTTPScriptLoader checks that the SDK script URL is reachable. A success is
// remembered for the loader's lifetime, a failure for retryAfter.
type HTTPScriptLoader struct {
	url        string
	client     *http.Client
	retryAfter time.Duration
	now        func() time.Time

	mu       sync.Mutex
	loaded   bool
	failedAt time.Time
	lastErr  error
	inflight chan struct{}
}

// NewHTTPScriptLoader creates a loader for url. A nil client uses a client
// with a 10 second timeout.
func NewHTTPScriptLoader(url string, client *http.Client, retryAfter time.Duration) *HTTPScriptLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPScriptLoader{
		url:        url,
		client:     client,
		retryAfter: retryAfter,
		now:        time.Now,
	}
}

// Load returns nil once the script has been fetched successfully. Concurrent
// callers wait on the same check; each caller stops waiting when its ctx is done.
func (l *HTTPScriptLoader) Load(ctx context.Context) error {
	for {
		l.mu.Lock()
		if l.loaded {
			l.mu.Unlock()
			return nil
		}
		if l.lastErr != nil && l.now().Sub(l.failedAt) < l.retryAfter {
			err := l.lastErr
			l.mu.Unlock()
			return err
		}
		if wait := l.inflight; wait != nil {
			l.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		done := make(chan struct{})
		l.inflight = done
		l.mu.Unlock()

		// The check is detached from ctx so an impatient first caller does not
		// fail the load for everyone else waiting on it.
		result := make(chan error, 1)
		go func() {
			err := l.check()

			l.mu.Lock()
			if err == nil {
				l.loaded = true
				l.lastErr = nil
			} else {
				l.lastErr = err
				l.failedAt = l.now()
			}
			l.inflight = nil
			l.mu.Unlock()

			close(done)
			result <- err
		}()

		select {
		case err := <-result:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *HTTPScriptLoader) check() error {
	if l.url == "" {
		return fmt.Errorf("load sdk script: url not configured")
	}

	resp, err := l.client.Get(l.url)
	if err != nil {
		return fmt.Errorf("load sdk script: %w", err)
	}
	defer resp.Body.Close()

	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("load sdk script: unexpected status %d", resp.StatusCode)
	}
	return nil
}
