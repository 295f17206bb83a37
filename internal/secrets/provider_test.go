package secrets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
)

type countingSource struct {
	mu     sync.Mutex
	values map[string]string
	calls  map[string]int
	fail   bool
}

func (s *countingSource) Fetch(_ context.Context, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls == nil {
		s.calls = map[string]int{}
	}
	s.calls[name]++
	if s.fail {
		return "", errors.New("vault down")
	}
	v, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("unknown secret %q", name)
	}
	return v, nil
}

func TestProvider_CachesAfterFirstFetch(t *testing.T) {
	src := &countingSource{values: map[string]string{"api-key": "s3cret"}}
	p := NewProvider(src)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		v, err := p.Get(ctx, "api-key")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if v != "s3cret" {
			t.Fatalf("Get = %q", v)
		}
	}
	if src.calls["api-key"] != 1 {
		t.Fatalf("expected 1 outbound fetch, got %d", src.calls["api-key"])
	}
}

func TestProvider_Refresh(t *testing.T) {
	src := &countingSource{values: map[string]string{"dsn": "v1"}}
	p := NewProvider(src)
	ctx := context.Background()

	if _, err := p.Get(ctx, "dsn"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	src.mu.Lock()
	src.values["dsn"] = "v2"
	src.mu.Unlock()

	// Cached value survives until an explicit refresh.
	v, _ := p.Get(ctx, "dsn")
	if v != "v1" {
		t.Fatalf("expected cached v1, got %q", v)
	}
	v, err := p.Refresh(ctx, "dsn")
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if v != "v2" {
		t.Fatalf("expected refreshed v2, got %q", v)
	}
	if src.calls["dsn"] != 2 {
		t.Fatalf("expected 2 fetches, got %d", src.calls["dsn"])
	}
}

func TestProvider_ColdStartSerialized(t *testing.T) {
	src := &countingSource{values: map[string]string{"api-key": "k"}}
	p := NewProvider(src)

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Get(context.Background(), "api-key"); err != nil {
				failures.Add(1)
			}
		}()
	}
	wg.Wait()

	if failures.Load() != 0 {
		t.Fatalf("%d concurrent gets failed", failures.Load())
	}
	if src.calls["api-key"] != 1 {
		t.Fatalf("cold start should fetch once, got %d", src.calls["api-key"])
	}
}

func TestProvider_Unavailable(t *testing.T) {
	src := &countingSource{fail: true}
	p := NewProvider(src)

	_, err := p.Get(context.Background(), "api-key")
	if !errors.Is(err, ErrSecretUnavailable) {
		t.Fatalf("expected ErrSecretUnavailable, got %v", err)
	}

	// Failures are not cached; recovery is picked up on the next Get.
	src.mu.Lock()
	src.fail = false
	src.values = map[string]string{"api-key": "back"}
	src.mu.Unlock()

	v, err := p.Get(context.Background(), "api-key")
	if err != nil || v != "back" {
		t.Fatalf("expected recovery, got %q, %v", v, err)
	}
}

func TestVaultSource_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/secrets/UP2D8-GEMINI-API-Key":
			fmt.Fprint(w, `{"value":"gm-key"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewVaultSource(srv.URL, "tok")
	v, err := src.Fetch(context.Background(), "UP2D8-GEMINI-API-Key")
	if err != nil || v != "gm-key" {
		t.Fatalf("Fetch = %q, %v", v, err)
	}

	if _, err := src.Fetch(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown secret")
	}
}

func TestEnvSource_Fetch(t *testing.T) {
	t.Setenv("UP2D8_STORAGE_DSN", "file:env.db")
	v, err := EnvSource{}.Fetch(context.Background(), "UP2D8-STORAGE-DSN")
	if err != nil || v != "file:env.db" {
		t.Fatalf("Fetch = %q, %v", v, err)
	}
	if _, err := (EnvSource{}).Fetch(context.Background(), "NOT-SET-ANYWHERE"); err == nil {
		t.Fatal("expected error for unset variable")
	}
}
