package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestProberAlive(t *testing.T) {
	t.Parallel()

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := NewClient(5*time.Second, WithHTTPClient(server.Client()))
	prober := NewProber(client, 20*time.Millisecond)
	host := strings.TrimPrefix(server.URL, "https://")

	start := time.Now()
	for range 3 {
		if !prober.Alive(context.Background(), host) {
			t.Fatal("expected server to be alive")
		}
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected probes to be paced, took %v", elapsed)
	}
}

func TestProberCancelled(t *testing.T) {
	t.Parallel()

	prober := NewProber(NewClient(time.Second), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if prober.Alive(ctx, "example.com") {
		t.Error("expected cancelled probe to report unreachable")
	}
}
